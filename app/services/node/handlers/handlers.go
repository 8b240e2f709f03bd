// Package handlers manages the different versions of the API.
package handlers

import (
	"expvar"
	"net/http"
	"net/http/pprof"
	"os"

	v1 "github.com/meritledger/meritledger/app/services/node/handlers/v1"
	"github.com/meritledger/meritledger/business/sys/metrics"
	"github.com/meritledger/meritledger/business/web/v1/mid"
	"github.com/meritledger/meritledger/foundation/events"
	"github.com/meritledger/meritledger/foundation/ledger/coordinator"
	"github.com/meritledger/meritledger/foundation/ledger/state"
	"github.com/meritledger/meritledger/foundation/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown    chan os.Signal
	Log         *zap.SugaredLogger
	Metrics     *metrics.Metrics
	State       *state.State
	Coordinator *coordinator.Coordinator
	Events      *events.Events
}

// PublicMux constructs a http.Handler with all application routes defined
// for the public facing API.
func PublicMux(cfg MuxConfig) http.Handler {
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(cfg.Metrics),
		mid.Cors("*"),
		mid.Panics(cfg.Metrics),
	)

	v1.PublicRoutes(app, v1.Config{
		Log:    cfg.Log,
		State:  cfg.State,
		Events: cfg.Events,
	})

	return app
}

// PrivateMux constructs a http.Handler with all application routes defined
// for the operator facing API.
func PrivateMux(cfg MuxConfig) http.Handler {
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(cfg.Metrics),
		mid.Panics(cfg.Metrics),
	)

	v1.PrivateRoutes(app, v1.Config{
		Log:         cfg.Log,
		State:       cfg.State,
		Coordinator: cfg.Coordinator,
	})

	return app
}

// DebugMux registers all the debug standard library routes and the
// Prometheus scrape endpoint.
func DebugMux(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return mux
}
