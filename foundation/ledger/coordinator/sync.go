package coordinator

import (
	"context"
	"time"

	"github.com/meritledger/meritledger/foundation/ledger/database"
	"github.com/meritledger/meritledger/foundation/ledger/reward"
	"github.com/meritledger/meritledger/foundation/ledger/verify"
)

// claimThreshold is the accuracy gain in percentage points a report must
// carry over the best known result for its artifact before a claim is
// worth submitting.
const claimThreshold = 1.0

// Sync advances every active worker's training by one step, then submits
// improvement claims for the reports that beat the best known accuracy on
// their artifact. Mining happens with no registry lock held.
func (c *Coordinator) Sync() {
	c.evHandler("coordinator: Sync: started")
	defer c.evHandler("coordinator: Sync: completed")

	type candidate struct {
		nodeID    string
		accountID database.AccountID
		claim     verify.Claim
	}

	var candidates []candidate

	c.mu.Lock()
	for nodeID, w := range c.workers {
		if !w.Active || w.Task == nil {
			continue
		}

		c.trainer(w.Task)
		task := w.Task

		if task.Step%c.reportEvery != 0 && !task.done() {
			continue
		}

		baseline := c.bestAccuracy[task.ArtifactID]
		percent := (task.Accuracy - baseline) * 100

		if percent <= claimThreshold {
			continue
		}

		candidates = append(candidates, candidate{
			nodeID:    nodeID,
			accountID: w.AccountID,
			claim: verify.Claim{
				ArtifactID:       task.ArtifactID,
				BaselineAccuracy: baseline,
				ImprovedAccuracy: task.Accuracy,
				Percent:          percent,
				Metrics: verify.Metrics{
					Samples:   task.Samples,
					Loss:      task.Loss,
					F1:        task.Accuracy * 0.95,
					Precision: task.Accuracy * 0.97,
					Recall:    task.Accuracy * 0.93,
				},
			},
		})
	}
	activeNodes := c.activeLocked()
	c.mu.Unlock()

	for _, cand := range candidates {
		cand.claim.Consensus = c.consensus(activeNodes)

		ctx, cancel := context.WithTimeout(context.Background(), c.miningTimeout)
		block, amount, err := c.st.SubmitImprovement(ctx, cand.claim, reward.KindModelAccuracy, cand.accountID)
		cancel()

		if err != nil {
			c.evHandler("coordinator: Sync: WARNING: node[%s] artifact[%s]: %s", cand.nodeID, cand.claim.ArtifactID, err)
			continue
		}

		c.evHandler("coordinator: Sync: minted: node[%s] blk[%d] reward[%.4f]", cand.nodeID, block.Header.Number, amount)

		c.mu.Lock()
		if cand.claim.ImprovedAccuracy > c.bestAccuracy[cand.claim.ArtifactID] {
			c.bestAccuracy[cand.claim.ArtifactID] = cand.claim.ImprovedAccuracy
		}
		if w, exists := c.workers[cand.nodeID]; exists {
			w.Contribution += cand.claim.Percent
			w.BlocksContributed++
		}
		c.mu.Unlock()
	}

	c.finalizeCompleted()
}

// finalizeCompleted rotates every finished task into a fresh assignment and
// banks the completion bonus into the payout pool.
func (c *Coordinator) finalizeCompleted() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for nodeID, w := range c.workers {
		if !w.Active || w.Task == nil || !w.Task.done() {
			continue
		}

		duration := time.Since(w.Task.Started)
		c.evHandler("coordinator: Sync: task complete: node[%s] artifact[%s] acc[%.4f] took[%s]", nodeID, w.Task.ArtifactID, w.Task.Accuracy, duration)

		c.poolPending += c.completionBonus

		c.taskSeq++
		w.Task = newTask(c.taskSeq, w.Accelerators, samplesFor(w.Registration))
	}
}
