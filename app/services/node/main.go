package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/meritledger/meritledger/app/services/node/handlers"
	"github.com/meritledger/meritledger/business/sys/metrics"
	"github.com/meritledger/meritledger/foundation/clock"
	"github.com/meritledger/meritledger/foundation/discovery"
	"github.com/meritledger/meritledger/foundation/events"
	"github.com/meritledger/meritledger/foundation/ledger/coordinator"
	"github.com/meritledger/meritledger/foundation/ledger/database"
	"github.com/meritledger/meritledger/foundation/ledger/database/storage/disk"
	"github.com/meritledger/meritledger/foundation/ledger/genesis"
	"github.com/meritledger/meritledger/foundation/ledger/signature"
	"github.com/meritledger/meritledger/foundation/ledger/state"
	"github.com/meritledger/meritledger/foundation/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags.
var build = "develop"

func main() {
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:120s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
			PrivateHost     string        `conf:"default:0.0.0.0:9080"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
		}
		Node struct {
			DBPath          string `conf:"default:zledger/miner1/"`
			GenesisPath     string `conf:"default:zledger/genesis.json"`
			TreasuryKeyPath string `conf:"default:zledger/accounts/treasury.ecdsa"`
		}
		Coordinator struct {
			Capacity        int           `conf:"default:64"`
			SyncInterval    time.Duration `conf:"default:10s"`
			PayoutInterval  time.Duration `conf:"default:60s"`
			ReportEvery     int           `conf:"default:10"`
			MiningTimeout   time.Duration `conf:"default:30s"`
			CompletionBonus float64       `conf:"default:0.1"`
		}
		NTP struct {
			Host     string        `conf:"default:pool.ntp.org"`
			MaxDrift time.Duration `conf:"default:5s"`
			Disabled bool          `conf:"default:false"`
		}
		Discovery struct {
			Instance string `conf:"default:meritledger-node"`
			Disabled bool   `conf:"default:false"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "merit ledger node",
		},
	}

	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Clock Sanity

	if !cfg.NTP.Disabled {
		drift, err := clock.Drift(cfg.NTP.Host)
		switch {
		case err != nil:
			log.Infow("startup", "status", "ntp check failed", "ERROR", err)
		case drift > cfg.NTP.MaxDrift || drift < -cfg.NTP.MaxDrift:
			log.Infow("startup", "status", "WARNING clock drift exceeds limit", "drift", drift, "max", cfg.NTP.MaxDrift)
		default:
			log.Infow("startup", "status", "clock drift ok", "drift", drift)
		}
	}

	// =========================================================================
	// Metrics and Events

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mtr := metrics.New(registry)

	evts := events.New(128)

	// ev bridges the ledger events into both the log and the websocket
	// subscribers.
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Signal("%s", s)
	}

	// =========================================================================
	// Ledger State

	gen, err := genesis.Load(cfg.Node.GenesisPath)
	if err != nil {
		return fmt.Errorf("loading genesis: %w", err)
	}

	treasuryKey, err := crypto.LoadECDSA(cfg.Node.TreasuryKeyPath)
	if err != nil {
		return fmt.Errorf("loading treasury key: %w", err)
	}

	treasuryID := signature.AddressFromPublicKey(treasuryKey.PublicKey)
	if treasuryID != gen.TreasuryAccount {
		return fmt.Errorf("treasury key does not own the genesis treasury account, key owns %s, genesis names %s", treasuryID, gen.TreasuryAccount)
	}

	storage, err := disk.New(cfg.Node.DBPath)
	if err != nil {
		return fmt.Errorf("opening block storage: %w", err)
	}

	st, err := state.New(state.Config{
		BeneficiaryID: database.AccountID(gen.TreasuryAccount),
		Genesis:       gen,
		Storage:       storage,
		Recorder:      mtr,
		EvHandler:     ev,
	})
	if err != nil {
		return fmt.Errorf("starting ledger state: %w", err)
	}
	defer st.Shutdown()

	// =========================================================================
	// Coordinator

	crd, err := coordinator.Run(coordinator.Config{
		State:           st,
		EvHandler:       ev,
		Capacity:        cfg.Coordinator.Capacity,
		SyncInterval:    cfg.Coordinator.SyncInterval,
		PayoutInterval:  cfg.Coordinator.PayoutInterval,
		ReportEvery:     cfg.Coordinator.ReportEvery,
		MiningTimeout:   cfg.Coordinator.MiningTimeout,
		TreasuryKey:     treasuryKey,
		CompletionBonus: cfg.Coordinator.CompletionBonus,
	})
	if err != nil {
		return fmt.Errorf("starting coordinator: %w", err)
	}
	defer crd.Shutdown()

	// =========================================================================
	// Discovery

	if !cfg.Discovery.Disabled {
		_, privatePort := hostPort(cfg.Web.PrivateHost)
		adv, err := discovery.Advertise(cfg.Discovery.Instance, privatePort, build)
		if err != nil {
			log.Infow("startup", "status", "mdns advertise failed", "ERROR", err)
		} else {
			defer adv.Shutdown()
		}
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, handlers.DebugMux(registry)); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Start API Services

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	muxCfg := handlers.MuxConfig{
		Shutdown:    shutdown,
		Log:         log,
		Metrics:     mtr,
		State:       st,
		Coordinator: crd,
		Events:      evts,
	}

	publicAPI := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      handlers.PublicMux(muxCfg),
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	privateAPI := http.Server{
		Addr:         cfg.Web.PrivateHost,
		Handler:      handlers.PrivateMux(muxCfg),
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	serverErrors := make(chan error, 2)

	go func() {
		log.Infow("startup", "status", "public api router started", "host", publicAPI.Addr)
		serverErrors <- publicAPI.ListenAndServe()
	}()

	go func() {
		log.Infow("startup", "status", "private api router started", "host", privateAPI.Addr)
		serverErrors <- privateAPI.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := publicAPI.Shutdown(ctx); err != nil {
			publicAPI.Close()
			return fmt.Errorf("could not stop public api gracefully: %w", err)
		}

		if err := privateAPI.Shutdown(ctx); err != nil {
			privateAPI.Close()
			return fmt.Errorf("could not stop private api gracefully: %w", err)
		}
	}

	return nil
}

// hostPort splits a host:port string, tolerating a missing port.
func hostPort(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 0
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}
