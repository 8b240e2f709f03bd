package coordinator

import (
	"errors"

	"github.com/meritledger/meritledger/foundation/ledger/database"
	"github.com/meritledger/meritledger/foundation/ledger/state"
)

// Payout sweeps the banked completion bonuses out of the pool as real
// signed treasury transactions, split across the workers in proportion to
// their contribution since the last sweep. The money only moves when the
// treasury can cover it; a short treasury leaves the pool intact.
func (c *Coordinator) Payout() {
	c.evHandler("coordinator: Payout: started")
	defer c.evHandler("coordinator: Payout: completed")

	type share struct {
		nodeID    string
		accountID database.AccountID
		value     float64
		score     float64
	}

	c.mu.Lock()
	pool := c.poolPending
	if pool <= 0 || len(c.workers) == 0 {
		c.mu.Unlock()
		return
	}

	var total float64
	for _, w := range c.workers {
		total += w.Contribution
	}

	var shares []share
	if total > 0 {
		for nodeID, w := range c.workers {
			if w.Contribution <= 0 {
				continue
			}
			shares = append(shares, share{
				nodeID:    nodeID,
				accountID: w.AccountID,
				value:     pool * (w.Contribution / total),
				score:     w.Contribution,
			})
		}
	} else {

		// Nobody has a scored contribution yet, so the active workers
		// split the pool evenly.
		active := c.activeLocked()
		if active == 0 {
			c.mu.Unlock()
			return
		}
		for nodeID, w := range c.workers {
			if !w.Active {
				continue
			}
			shares = append(shares, share{
				nodeID:    nodeID,
				accountID: w.AccountID,
				value:     pool / float64(active),
			})
		}
	}
	c.mu.Unlock()

	gen := c.st.Genesis()

	var paid float64
	paidNodes := make(map[string]bool)

	for _, sh := range shares {
		tx, err := database.NewTx(gen.ChainID, c.treasuryID, sh.accountID, sh.value, gen.TransactionFee)
		if err != nil {
			c.evHandler("coordinator: Payout: WARNING: node[%s]: %s", sh.nodeID, err)
			continue
		}
		tx.Contribution = &database.Contribution{
			Kind:  "pool payout",
			Score: sh.score,
		}

		signedTx, err := tx.Sign(c.treasuryKey)
		if err != nil {
			c.evHandler("coordinator: Payout: WARNING: node[%s]: signing: %s", sh.nodeID, err)
			continue
		}

		if err := c.st.SubmitTransfer(signedTx); err != nil {
			if errors.Is(err, state.ErrNotEnoughFunds) {
				c.evHandler("coordinator: Payout: WARNING: treasury cannot cover %.4f for node[%s]", sh.value, sh.nodeID)
				continue
			}
			c.evHandler("coordinator: Payout: WARNING: node[%s]: %s", sh.nodeID, err)
			continue
		}

		c.evHandler("coordinator: Payout: queued: node[%s] value[%.4f]", sh.nodeID, sh.value)

		paid += sh.value
		paidNodes[sh.nodeID] = true
	}

	c.mu.Lock()
	c.poolPending -= paid
	if c.poolPending < 0 {
		c.poolPending = 0
	}
	for nodeID := range paidNodes {
		if w, exists := c.workers[nodeID]; exists {
			w.Contribution = 0
		}
	}
	c.mu.Unlock()
}
