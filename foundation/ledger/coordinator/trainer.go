package coordinator

import (
	"math/rand"

	"github.com/meritledger/meritledger/foundation/ledger/verify"
)

// Trainer advances a task by one training step, updating its loss and
// accuracy. The coordinator only ever calls it from the sync goroutine.
type Trainer func(t *Task)

// ConsensusSource produces the distributed verification summary attached to
// a claim, given the number of active worker nodes.
type ConsensusSource func(activeNodes int) verify.Consensus

// =============================================================================

// SimTrainer returns a seeded simulation trainer. The loss decays by the
// learning rate with a little noise each step; the same seed always
// produces the same trajectory.
func SimTrainer(seed int64) Trainer {
	const learningRate = 0.05

	rng := rand.New(rand.NewSource(seed))

	return func(t *Task) {
		noise := (rng.Float64() - 0.5) * 0.002

		t.Loss *= 1.0 - learningRate + noise
		if t.Loss < 0.01 {
			t.Loss = 0.01
		}

		t.Accuracy = 1.0 - t.Loss/10.0
		if t.Accuracy > 0.99 {
			t.Accuracy = 0.99
		}

		t.Step++
	}
}

// SimConsensus returns a seeded simulation consensus source. At least the
// admission floor of confirmations is always reported so a healthy claim
// is not starved by a small registry.
func SimConsensus(seed int64) ConsensusSource {
	rng := rand.New(rand.NewSource(seed))

	return func(activeNodes int) verify.Consensus {
		confirmations := activeNodes / 2
		if confirmations < verify.MinConfirmations {
			confirmations = verify.MinConfirmations
		}

		return verify.Consensus{
			Nodes:         activeNodes,
			Confirmations: confirmations,
			Score:         0.85 + rng.Float64()*0.15,
		}
	}
}
