// The agent joins a ledger node's training coordinator as a worker and
// reports its hardware. Training itself runs on the coordinator; the agent
// keeps the registration alive and surfaces progress in its logs.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/google/uuid"
	"github.com/meritledger/meritledger/foundation/clock"
	"github.com/meritledger/meritledger/foundation/discovery"
	"github.com/meritledger/meritledger/foundation/logger"
	"go.uber.org/zap"
)

var build = "develop"

func main() {
	log, err := logger.New("AGENT")
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
	cfg := struct {
		conf.Version
		Agent struct {
			NodeID        string
			NodeHost      string
			Accelerators  int           `conf:"default:0"`
			MemoryGB      float64       `conf:"default:8"`
			Throughput    float64       `conf:"default:100"`
			PollInterval  time.Duration `conf:"default:15s"`
			LookupTimeout time.Duration `conf:"default:3s"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "merit ledger training agent",
		},
	}

	const prefix = "AGENT"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	log.Infow("starting agent", "version", build)
	defer log.Infow("shutdown complete")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// =========================================================================
	// Locate a node

	host := cfg.Agent.NodeHost
	if host == "" {
		log.Infow("startup", "status", "browsing for nodes over mdns")

		endpoints, err := discovery.Lookup(ctx, cfg.Agent.LookupTimeout)
		if err != nil {
			return fmt.Errorf("mdns lookup: %w", err)
		}
		if len(endpoints) == 0 {
			return errors.New("no ledger nodes found, set AGENT_AGENT_NODE_HOST")
		}

		host = fmt.Sprintf("%s:%d", endpoints[0].Host, endpoints[0].Port)
		log.Infow("startup", "status", "discovered node", "host", host, "info", endpoints[0].Info)
	}

	// =========================================================================
	// Register

	nodeID := cfg.Agent.NodeID
	if nodeID == "" {
		nodeID = uuid.NewString()
	}

	reg := struct {
		NodeID       string  `json:"node_id"`
		Cores        int     `json:"cores"`
		Accelerators int     `json:"accelerators"`
		MemoryGB     float64 `json:"memory_gb"`
		Throughput   float64 `json:"throughput"`
	}{
		NodeID:       nodeID,
		Cores:        runtime.NumCPU(),
		Accelerators: cfg.Agent.Accelerators,
		MemoryGB:     cfg.Agent.MemoryGB,
		Throughput:   cfg.Agent.Throughput,
	}

	body, err := json.Marshal(reg)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s/v1/node/register", host)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("registering with node: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("registering with node: status %d", resp.StatusCode)
	}

	var task struct {
		ArtifactID string `json:"artifact_id"`
		TotalSteps int    `json:"total_steps"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return err
	}

	log.Infow("registered", "node", nodeID, "artifact", task.ArtifactID, "steps", task.TotalSteps)

	// Deregister on the way out so the coordinator stops assigning work.
	defer func() {
		req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("http://%s/v1/node/%s", host, nodeID), nil)
		if err != nil {
			return
		}
		if resp, err := http.DefaultClient.Do(req); err == nil {
			resp.Body.Close()
		}
	}()

	// =========================================================================
	// Poll status until shutdown

	for {
		if err := clock.SleepWithContext(ctx, cfg.Agent.PollInterval); err != nil {
			return nil
		}

		status, err := fetchStatus(host)
		if err != nil {
			log.Infow("poll", "status", "unreachable", "ERROR", err)
			continue
		}

		for _, node := range status.Nodes {
			if node.NodeID != nodeID {
				continue
			}
			log.Infow("progress", "artifact", node.ArtifactID, "step", node.Step, "of", node.TotalSteps,
				"accuracy", node.Accuracy, "blocks", node.BlocksContributed)
		}
	}
}

// statusResponse mirrors the coordinator's status payload.
type statusResponse struct {
	ActiveNodes int `json:"active_nodes"`
	Nodes       []struct {
		NodeID            string  `json:"node_id"`
		ArtifactID        string  `json:"artifact_id"`
		Step              int     `json:"step"`
		TotalSteps        int     `json:"total_steps"`
		Accuracy          float64 `json:"accuracy"`
		BlocksContributed int     `json:"blocks_contributed"`
	} `json:"nodes"`
}

func fetchStatus(host string) (statusResponse, error) {
	resp, err := http.Get(fmt.Sprintf("http://%s/v1/node/status", host))
	if err != nil {
		return statusResponse{}, err
	}
	defer resp.Body.Close()

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return statusResponse{}, err
	}

	return status, nil
}
