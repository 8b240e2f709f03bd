package coordinator_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/meritledger/meritledger/foundation/ledger/coordinator"
	"github.com/meritledger/meritledger/foundation/ledger/database"
	"github.com/meritledger/meritledger/foundation/ledger/database/storage/memory"
	"github.com/meritledger/meritledger/foundation/ledger/genesis"
	"github.com/meritledger/meritledger/foundation/ledger/signature"
	"github.com/meritledger/meritledger/foundation/ledger/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	treasuryKeyHex = "83a906aeb3c26fc44bad4b21b5c5b1c9622eec5699db74c683e4fccea4ee25f0"
	treasuryAddr   = "250f40ba2f4990e8c8a63b572ddc29bf61c5cc4cf95ac3bf5d36962af7c7105f"
)

var noop = func(v string, args ...any) {}

func testGenesis() genesis.Genesis {
	return genesis.Genesis{
		Date:               time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:            1,
		InitialReward:      100.0,
		HalvingInterval:    210_000,
		MaxSupply:          21_000_000.0,
		TransactionFee:     0.001,
		Difficulty:         1,
		DifficultyInterval: 100,
		BlockTargetSeconds: 60,
		TreasuryAccount:    treasuryAddr,
		Balances: map[string]float64{
			treasuryAddr: 1_000.0,
		},
	}
}

// newCoordinator builds a coordinator over a fresh in-memory chain. Long
// intervals keep the background tickers quiet so the tests drive Sync and
// Payout directly.
func newCoordinator(t *testing.T, capacity int) (*coordinator.Coordinator, *state.State) {
	t.Helper()

	storage, err := memory.New()
	require.NoError(t, err)

	st, err := state.New(state.Config{
		BeneficiaryID: treasuryAddr,
		Genesis:       testGenesis(),
		Storage:       storage,
		EvHandler:     noop,
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Shutdown() })

	treasuryKey, err := crypto.HexToECDSA(treasuryKeyHex)
	require.NoError(t, err)

	crd, err := coordinator.Run(coordinator.Config{
		State:          st,
		EvHandler:      noop,
		Capacity:       capacity,
		SyncInterval:   time.Hour,
		PayoutInterval: time.Hour,
		MiningTimeout:  10 * time.Second,
		Trainer:        coordinator.SimTrainer(42),
		Consensus:      coordinator.SimConsensus(42),
		TreasuryKey:    treasuryKey,
	})
	require.NoError(t, err)
	t.Cleanup(crd.Shutdown)

	return crd, st
}

func TestRegisterAssignsByHardware(t *testing.T) {
	crd, _ := newCoordinator(t, 8)

	heavy, err := crd.Register(coordinator.Registration{NodeID: "gpu-node", Cores: 16, Accelerators: 4, MemoryGB: 64})
	require.NoError(t, err)
	assert.Equal(t, 100, heavy.TotalSteps)
	assert.Contains(t, heavy.ArtifactID, "transformer")

	light, err := crd.Register(coordinator.Registration{NodeID: "cpu-node", Cores: 4, MemoryGB: 8})
	require.NoError(t, err)
	assert.Equal(t, 50, light.TotalSteps)
	assert.Contains(t, light.ArtifactID, "mlp")

	// A duplicate active id is rejected.
	_, err = crd.Register(coordinator.Registration{NodeID: "gpu-node", Cores: 16})
	assert.Error(t, err)
}

func TestRegistryCapacity(t *testing.T) {
	crd, _ := newCoordinator(t, 1)

	_, err := crd.Register(coordinator.Registration{NodeID: "node-1", Cores: 4})
	require.NoError(t, err)

	_, err = crd.Register(coordinator.Registration{NodeID: "node-2", Cores: 4})
	assert.True(t, errors.Is(err, coordinator.ErrRegistryFull))

	// Removing a node opens a slot.
	require.NoError(t, crd.Remove("node-1"))

	_, err = crd.Register(coordinator.Registration{NodeID: "node-2", Cores: 4})
	assert.NoError(t, err)
}

func TestSimTrainerDeterminism(t *testing.T) {
	a := coordinator.SimTrainer(7)
	b := coordinator.SimTrainer(7)

	taskA := coordinator.Task{Loss: 10.0, TotalSteps: 50}
	taskB := coordinator.Task{Loss: 10.0, TotalSteps: 50}

	for i := 0; i < 50; i++ {
		a(&taskA)
		b(&taskB)
	}

	assert.Equal(t, taskA.Loss, taskB.Loss)
	assert.Equal(t, taskA.Accuracy, taskB.Accuracy)
	assert.True(t, taskA.Accuracy > 0 && taskA.Accuracy < 0.99)
}

func TestSyncMintsForProgress(t *testing.T) {
	crd, st := newCoordinator(t, 8)

	_, err := crd.Register(coordinator.Registration{NodeID: "cpu-node", Cores: 4})
	require.NoError(t, err)

	heightBefore := st.Height()

	// Reports fire every ten steps. Early reports fail the admission gate
	// on the f1 floor; by step twenty the trained accuracy clears it.
	for i := 0; i < 20; i++ {
		crd.Sync()
	}

	require.Greater(t, st.Height(), heightBefore, "training progress must mint blocks")

	status := crd.Status()
	require.Len(t, status.Nodes, 1)
	node := status.Nodes[0]

	assert.Greater(t, node.BlocksContributed, 0)
	assert.Greater(t, node.Contribution, 0.0)

	// The minted rewards land in the worker's derived account.
	workerAccount := database.AccountID(signature.AddressFromID("cpu-node"))
	assert.Greater(t, st.QueryBalance(workerAccount), 0.0)

	// Chain replay agrees with the cache after coordinator mining.
	replayed, err := st.ReplayBalance(workerAccount)
	require.NoError(t, err)
	assert.Equal(t, st.QueryBalance(workerAccount), replayed)
}

func TestTaskRotationBanksBonus(t *testing.T) {
	crd, _ := newCoordinator(t, 8)

	first, err := crd.Register(coordinator.Registration{NodeID: "cpu-node", Cores: 4})
	require.NoError(t, err)

	// Fifty ticks completes the light task and rotates a fresh one in.
	for i := 0; i < 50; i++ {
		crd.Sync()
	}

	status := crd.Status()
	require.Len(t, status.Nodes, 1)

	assert.NotEqual(t, first.ArtifactID, status.Nodes[0].ArtifactID, "a fresh task must be assigned")
	assert.Equal(t, 0, status.Nodes[0].Step%status.Nodes[0].TotalSteps, "the fresh task starts at step zero")
	assert.Greater(t, status.PoolPending, 0.0, "the completion bonus must be banked")
}

func TestSharedArtifactCompetition(t *testing.T) {
	crd, st := newCoordinator(t, 16)

	first, err := crd.Register(coordinator.Registration{NodeID: "pioneer", Cores: 4})
	require.NoError(t, err)

	// Fifty ticks completes the pioneer's task and establishes the best
	// known accuracy for its artifact.
	for i := 0; i < 50; i++ {
		crd.Sync()
	}

	status := crd.Status()
	require.Len(t, status.Nodes, 1)
	require.Greater(t, status.Nodes[0].BlocksContributed, 0)

	// The artifact pool cycles, so enough later registrations land a node
	// back on the pioneer's artifact.
	var lateTask coordinator.Task
	for i := 1; i <= 9; i++ {
		lateTask, err = crd.Register(coordinator.Registration{NodeID: fmt.Sprintf("w-%d", i), Cores: 4})
		require.NoError(t, err)
	}
	require.Equal(t, first.ArtifactID, lateTask.ArtifactID, "the pool must recycle the pioneer's artifact")

	// Short of completion, the late node retrains the same artifact from
	// scratch and never beats the established best accuracy.
	for i := 0; i < 49; i++ {
		crd.Sync()
	}

	var late, fresh coordinator.NodeStatus
	for _, node := range crd.Status().Nodes {
		switch node.NodeID {
		case "w-9":
			late = node
		case "w-1":
			fresh = node
		}
	}

	require.Equal(t, first.ArtifactID, late.ArtifactID)
	assert.Equal(t, 0, late.BlocksContributed, "a result below the best known accuracy must not mint")
	assert.Equal(t, 0.0, late.Contribution)

	// A node on a fresh artifact has no best to beat and mints normally.
	assert.Greater(t, fresh.BlocksContributed, 0)

	// Every block minted for the shared artifact belongs to the node that
	// set its best accuracy.
	pioneerAccount, err := database.ToAccountID(signature.AddressFromID("pioneer"))
	require.NoError(t, err)

	blocks, err := st.QueryBlocksByAccount("")
	require.NoError(t, err)

	var sharedBlocks int
	for _, block := range blocks {
		if block.Improvement.ArtifactHash != first.ArtifactID {
			continue
		}
		sharedBlocks++
		assert.Equal(t, pioneerAccount, block.Improvement.Claimant)
		assert.Greater(t, block.Improvement.Percent, 1.0)
	}
	assert.Greater(t, sharedBlocks, 0)
}

func TestPayoutProportions(t *testing.T) {
	crd, st := newCoordinator(t, 8)

	_, err := crd.Register(coordinator.Registration{NodeID: "gpu-node", Cores: 16, Accelerators: 4})
	require.NoError(t, err)
	_, err = crd.Register(coordinator.Registration{NodeID: "cpu-node", Cores: 4})
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		crd.Sync()
	}

	status := crd.Status()
	pool := status.PoolPending
	require.Greater(t, pool, 0.0)

	contrib := make(map[string]float64)
	var total float64
	for _, node := range status.Nodes {
		contrib[string(node.AccountID)] = node.Contribution
		total += node.Contribution
	}
	require.Greater(t, total, 0.0)

	crd.Payout()

	// Payouts are queued as signed treasury transactions carrying the
	// contribution record.
	pendingTxs := st.PendingTransfers()
	require.NotEmpty(t, pendingTxs)

	var paid float64
	for _, tx := range pendingTxs {
		require.NotNil(t, tx.Contribution)
		assert.Equal(t, database.AccountID(treasuryAddr), tx.FromID)

		expected := pool * (contrib[string(tx.ToID)] / total)
		assert.InDelta(t, expected, tx.Value, 1e-9)

		paid += tx.Value
	}
	assert.InDelta(t, pool, paid, 1e-9)

	// The swept pool is drained.
	assert.InDelta(t, 0, crd.Status().PoolPending, 1e-9)
}
