package state

import (
	"github.com/meritledger/meritledger/foundation/ledger/database"
)

// QueryBalance returns the cached derived balance for the specified account.
func (s *State) QueryBalance(accountID database.AccountID) float64 {
	return s.db.BalanceOf(accountID)
}

// ReplayBalance derives the balance for the specified account by scanning
// the whole chain. It must always agree with QueryBalance.
func (s *State) ReplayBalance(accountID database.AccountID) (float64, error) {
	return s.db.ReplayBalance(accountID)
}

// Accounts returns a copy of the derived account state.
func (s *State) Accounts() map[database.AccountID]database.Account {
	return s.db.CopyAccounts()
}

// QueryBlockByNumber returns the block stored under the specified number.
func (s *State) QueryBlockByNumber(num uint64) (database.Block, error) {
	return s.db.GetBlock(num)
}

// QueryBlocksByAccount returns every block that references the specified
// account, as claimant or as a party to a transaction. An empty account id
// returns the whole chain.
func (s *State) QueryBlocksByAccount(accountID database.AccountID) ([]database.Block, error) {
	var blocks []database.Block

	iter := s.db.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		if accountID != "" && !touchesAccount(blockData, accountID) {
			continue
		}

		blocks = append(blocks, database.ToBlock(blockData))
	}

	return blocks, nil
}

// touchesAccount reports whether the block references the account.
func touchesAccount(blockData database.BlockData, accountID database.AccountID) bool {
	if blockData.Improvement.Claimant == accountID {
		return true
	}
	for _, tx := range blockData.Trans {
		if tx.FromID == accountID || tx.ToID == accountID {
			return true
		}
	}
	return false
}

// LatestBlock returns the current tip of the chain.
func (s *State) LatestBlock() database.Block {
	return s.db.LatestBlock()
}

// Height returns the number of blocks in the chain.
func (s *State) Height() uint64 {
	return s.db.Height()
}

// Supply returns the current circulating supply.
func (s *State) Supply() float64 {
	return s.db.Supply()
}

// PendingTransfers returns the pooled transactions in mint order.
func (s *State) PendingTransfers() []database.BlockTx {
	return s.pending.PickAll()
}

// VerifyChain walks the stored chain from genesis checking hashes and
// linkage. It returns the error naming the first bad block.
func (s *State) VerifyChain() error {
	return s.db.Verify()
}
