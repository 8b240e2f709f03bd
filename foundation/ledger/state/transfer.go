package state

import (
	"fmt"

	"github.com/meritledger/meritledger/foundation/ledger/database"
)

// SubmitTransfer accepts a signed transaction into the pool of transactions
// waiting to be included in the next minted block. The sender must cover
// the value plus fee on top of everything it already has queued.
func (s *State) SubmitTransfer(signedTx database.SignedTx) error {
	s.evHandler("state: SubmitTransfer: started: %s", signedTx)
	defer s.evHandler("state: SubmitTransfer: completed")

	if err := s.verifier(signedTx); err != nil {
		return fmt.Errorf("transaction verification: %w", err)
	}

	if signedTx.Value < 0 || signedTx.Fee < 0 {
		return fmt.Errorf("transaction value and fee must not be negative")
	}

	// The funds check and the upsert happen atomically against mining so
	// the queued-debit total always reflects a consistent pool.
	s.mu.Lock()
	defer s.mu.Unlock()

	committed := s.pending.QueuedDebits(signedTx.FromID)
	available := s.db.BalanceOf(signedTx.FromID) - committed

	if available < signedTx.Value+signedTx.Fee {
		return fmt.Errorf("%w: available %.4f, needed %.4f", ErrNotEnoughFunds, available, signedTx.Value+signedTx.Fee)
	}

	s.pending.Upsert(database.NewBlockTx(signedTx))

	// A transfer carrying a contribution record is a pool payout.
	if signedTx.Contribution != nil {
		s.recorder.PayoutSent(signedTx.Value)
	} else {
		s.recorder.TransferQueued()
	}

	return nil
}
