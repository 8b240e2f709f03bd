// Package coordinator runs the training coordination service: it registers
// worker nodes, advances their simulated training, turns measured progress
// into improvement claims, and sweeps pool bonuses out as payouts.
package coordinator

import (
	"crypto/ecdsa"
	"errors"
	"sync"
	"time"

	"github.com/meritledger/meritledger/foundation/ledger/database"
	"github.com/meritledger/meritledger/foundation/ledger/state"
)

// Defaults applied when the configuration leaves a knob unset.
const (
	defaultSyncInterval   = 10 * time.Second
	defaultPayoutInterval = 60 * time.Second
	defaultReportEvery    = 10
	defaultMiningTimeout  = 30 * time.Second
	defaultBonus          = 0.1
)

// Config is the set of dependencies and settings needed to run the
// coordinator.
type Config struct {
	State           *state.State
	EvHandler       state.EventHandler
	Capacity        int
	SyncInterval    time.Duration
	PayoutInterval  time.Duration
	ReportEvery     int
	MiningTimeout   time.Duration
	Trainer         Trainer
	Consensus       ConsensusSource
	TreasuryKey     *ecdsa.PrivateKey
	CompletionBonus float64
}

// Coordinator manages the worker registry and the goroutines that drive
// training sync and payouts.
type Coordinator struct {
	st              *state.State
	evHandler       state.EventHandler
	capacity        int
	syncInterval    time.Duration
	payoutInterval  time.Duration
	reportEvery     int
	miningTimeout   time.Duration
	trainer         Trainer
	consensus       ConsensusSource
	treasuryKey     *ecdsa.PrivateKey
	treasuryID      database.AccountID
	completionBonus float64

	mu           sync.Mutex
	workers      map[string]*Worker
	bestAccuracy map[string]float64
	poolPending  float64
	taskSeq      uint64

	wg   sync.WaitGroup
	shut chan struct{}
}

// Run creates a coordinator and starts the sync and payout goroutines. The
// call does not return until both goroutines are running.
func Run(cfg Config) (*Coordinator, error) {
	if cfg.State == nil {
		return nil, errors.New("state is required")
	}
	if cfg.TreasuryKey == nil {
		return nil, errors.New("treasury key is required")
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	c := Coordinator{
		st:              cfg.State,
		evHandler:       ev,
		capacity:        cfg.Capacity,
		syncInterval:    cfg.SyncInterval,
		payoutInterval:  cfg.PayoutInterval,
		reportEvery:     cfg.ReportEvery,
		miningTimeout:   cfg.MiningTimeout,
		trainer:         cfg.Trainer,
		consensus:       cfg.Consensus,
		treasuryKey:     cfg.TreasuryKey,
		treasuryID:      database.AccountID(cfg.State.Genesis().TreasuryAccount),
		completionBonus: cfg.CompletionBonus,

		workers:      make(map[string]*Worker),
		bestAccuracy: make(map[string]float64),

		shut: make(chan struct{}),
	}

	if c.syncInterval == 0 {
		c.syncInterval = defaultSyncInterval
	}
	if c.payoutInterval == 0 {
		c.payoutInterval = defaultPayoutInterval
	}
	if c.reportEvery == 0 {
		c.reportEvery = defaultReportEvery
	}
	if c.miningTimeout == 0 {
		c.miningTimeout = defaultMiningTimeout
	}
	if c.trainer == nil {
		c.trainer = SimTrainer(time.Now().UnixNano())
	}
	if c.consensus == nil {
		c.consensus = SimConsensus(time.Now().UnixNano())
	}
	if c.completionBonus == 0 {
		c.completionBonus = defaultBonus
	}

	operations := []func(){
		c.syncOperations,
		c.payoutOperations,
	}

	g := len(operations)
	c.wg.Add(g)

	hasStarted := make(chan bool)

	for _, op := range operations {
		go func(op func()) {
			defer c.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	for i := 0; i < g; i++ {
		<-hasStarted
	}

	return &c, nil
}

// Shutdown brings the coordinator down cleanly.
func (c *Coordinator) Shutdown() {
	c.evHandler("coordinator: shutdown: started")
	defer c.evHandler("coordinator: shutdown: completed")

	close(c.shut)
	c.wg.Wait()
}

// isShutdown is used to test if a shutdown has been signaled.
func (c *Coordinator) isShutdown() bool {
	select {
	case <-c.shut:
		return true
	default:
		return false
	}
}

// syncOperations advances training on every sync interval.
func (c *Coordinator) syncOperations() {
	c.evHandler("coordinator: syncOperations: G started")
	defer c.evHandler("coordinator: syncOperations: G completed")

	ticker := time.NewTicker(c.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !c.isShutdown() {
				c.Sync()
			}
		case <-c.shut:
			return
		}
	}
}

// payoutOperations sweeps the bonus pool on every payout interval.
func (c *Coordinator) payoutOperations() {
	c.evHandler("coordinator: payoutOperations: G started")
	defer c.evHandler("coordinator: payoutOperations: G completed")

	ticker := time.NewTicker(c.payoutInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !c.isShutdown() {
				c.Payout()
			}
		case <-c.shut:
			return
		}
	}
}

// =============================================================================

// NodeStatus is a point-in-time view of one worker node.
type NodeStatus struct {
	NodeID            string             `json:"node_id"`
	AccountID         database.AccountID `json:"account_id"`
	ArtifactID        string             `json:"artifact_id"`
	Step              int                `json:"step"`
	TotalSteps        int                `json:"total_steps"`
	Accuracy          float64            `json:"accuracy"`
	Contribution      float64            `json:"contribution"`
	BlocksContributed int                `json:"blocks_contributed"`
	Active            bool               `json:"active"`
}

// Status is a point-in-time view of the whole coordinator.
type Status struct {
	ActiveNodes int          `json:"active_nodes"`
	TotalNodes  int          `json:"total_nodes"`
	PoolPending float64      `json:"pool_pending"`
	Nodes       []NodeStatus `json:"nodes"`
}

// Status snapshots the registry and pool state.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := Status{
		ActiveNodes: c.activeLocked(),
		TotalNodes:  len(c.workers),
		PoolPending: c.poolPending,
	}

	for nodeID, w := range c.workers {
		ns := NodeStatus{
			NodeID:            nodeID,
			AccountID:         w.AccountID,
			Contribution:      w.Contribution,
			BlocksContributed: w.BlocksContributed,
			Active:            w.Active,
		}
		if w.Task != nil {
			ns.ArtifactID = w.Task.ArtifactID
			ns.Step = w.Task.Step
			ns.TotalSteps = w.Task.TotalSteps
			ns.Accuracy = w.Task.Accuracy
		}
		status.Nodes = append(status.Nodes, ns)
	}

	return status
}
