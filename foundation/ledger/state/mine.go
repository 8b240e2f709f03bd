package state

import (
	"context"
	"errors"

	"github.com/meritledger/meritledger/foundation/ledger/database"
	"github.com/meritledger/meritledger/foundation/ledger/reward"
	"github.com/meritledger/meritledger/foundation/ledger/verify"
)

// maxTipRetries bounds how many times a candidate block is rebased when
// another block lands on the tip while proof of work is running.
const maxTipRetries = 3

// SubmitImprovement runs an improvement claim through the admission gate
// and, if admitted, mints a new block crediting the beneficiary. The proof
// of work search holds no locks; if the tip moves while searching, the
// candidate is rebased onto the new tip and the search restarts.
func (s *State) SubmitImprovement(ctx context.Context, claim verify.Claim, kind reward.Kind, beneficiaryID database.AccountID) (database.Block, float64, error) {
	s.evHandler("state: SubmitImprovement: started: artifact[%s] kind[%s] pct[%.2f]", claim.ArtifactID, kind, claim.Percent)
	defer s.evHandler("state: SubmitImprovement: completed")

	if err := verify.Admit(claim); err != nil {
		var re *verify.RejectedError
		if errors.As(err, &re) {
			s.recorder.ClaimRejected(len(re.Reasons))
		}
		return database.Block{}, 0, err
	}

	if beneficiaryID == "" {
		beneficiaryID = s.beneficiaryID
	}

	for attempt := 0; attempt <= maxTipRetries; attempt++ {

		// Snapshot everything the candidate depends on, including the pool.
		// The snapshot is atomic with respect to accept-and-dequeue below,
		// so a transaction another candidate already carried into the chain
		// can never be picked again.
		s.mu.Lock()
		tip := s.db.LatestBlock()
		supply := s.db.Supply()
		difficulty := database.NextDifficulty(s.genesis, tip, s.db.GetBlock)

		amount := reward.Calculate(kind, claim.Percent, supply, tip.Header.Number+1, s.RewardParams())
		if amount == 0 {
			s.evHandler("state: SubmitImprovement: WARNING: supply cap reached, minting zero reward block")
			s.recorder.SupplyExhausted()
		}

		improvement := database.Improvement{
			Kind:         string(kind),
			Percent:      claim.Percent,
			Claimant:     beneficiaryID,
			ArtifactHash: claim.ArtifactID,
			Reward:       amount,
		}

		trans := s.pending.PickAll()
		s.mu.Unlock()

		// The proof of work search runs against the snapshot with no
		// locks held.
		block, err := database.POW(ctx, difficulty, tip, improvement, trans, s.evHandler)
		if err != nil {
			return database.Block{}, 0, err
		}

		// The tip may have moved while searching. AcceptBlock revalidates
		// against the current tip; a parent mismatch means rebase and retry.
		s.mu.Lock()
		if err := s.db.AcceptBlock(block); err != nil {
			moved := s.db.LatestBlock().Hash() != tip.Hash()
			s.mu.Unlock()

			if moved {
				s.evHandler("state: SubmitImprovement: tip moved, rebasing candidate: attempt[%d]", attempt+1)
				continue
			}
			return database.Block{}, 0, err
		}

		for _, tx := range block.Trans {
			s.pending.Delete(tx)
		}
		s.mu.Unlock()

		s.recorder.BlockMined(amount)

		return block, amount, nil
	}

	return database.Block{}, 0, ErrChainContention
}
