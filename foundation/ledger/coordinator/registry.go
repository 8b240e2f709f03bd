package coordinator

import (
	"errors"
	"fmt"

	"github.com/meritledger/meritledger/foundation/ledger/database"
	"github.com/meritledger/meritledger/foundation/ledger/signature"
)

// ErrRegistryFull is returned when the registry is at capacity and cannot
// take another worker node.
var ErrRegistryFull = errors.New("worker registry is full")

// Registration carries the information a worker node reports when it joins.
type Registration struct {
	NodeID       string  `json:"node_id"`
	Cores        int     `json:"cores"`
	Accelerators int     `json:"accelerators"`
	MemoryGB     float64 `json:"memory_gb"`
	Throughput   float64 `json:"throughput"`
}

// Worker represents one registered node and its training state. The
// coordinator owns all mutation; the type has no lock of its own.
type Worker struct {
	Registration
	AccountID         database.AccountID
	Task              *Task
	Contribution      float64
	BlocksContributed int
	Active            bool
}

// =============================================================================

// Register adds a worker node to the registry and hands it its first task.
// Re-registering an active node id is rejected.
func (c *Coordinator) Register(reg Registration) (Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if reg.NodeID == "" {
		return Task{}, errors.New("node id is required")
	}

	if w, exists := c.workers[reg.NodeID]; exists && w.Active {
		return Task{}, fmt.Errorf("node %s is already registered", reg.NodeID)
	}

	if c.capacity > 0 && c.activeLocked() >= c.capacity {
		return Task{}, ErrRegistryFull
	}

	accountID, err := database.ToAccountID(signature.AddressFromID(reg.NodeID))
	if err != nil {
		return Task{}, err
	}

	c.taskSeq++
	task := newTask(c.taskSeq, reg.Accelerators, samplesFor(reg))

	c.workers[reg.NodeID] = &Worker{
		Registration: reg,
		AccountID:    accountID,
		Task:         task,
		Active:       true,
	}

	c.evHandler("coordinator: Register: node[%s] cores[%d] accel[%d] task[%s]", reg.NodeID, reg.Cores, reg.Accelerators, task.ArtifactID)

	return *task, nil
}

// Remove marks a worker node inactive. Its contribution history stays on
// the books so an in-flight payout sweep still credits it.
func (c *Coordinator) Remove(nodeID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, exists := c.workers[nodeID]
	if !exists {
		return fmt.Errorf("node %s is not registered", nodeID)
	}

	w.Active = false
	c.evHandler("coordinator: Remove: node[%s]", nodeID)

	return nil
}

// activeLocked counts the active workers. The caller owns the lock.
func (c *Coordinator) activeLocked() int {
	var n int
	for _, w := range c.workers {
		if w.Active {
			n++
		}
	}
	return n
}

// samplesFor sizes the reported training set to the node's hardware.
func samplesFor(reg Registration) uint64 {
	samples := uint64(10_000)
	if reg.Accelerators > 0 {
		samples = 100_000
	}
	return samples
}
