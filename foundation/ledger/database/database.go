// Package database manages the append-only chain of blocks and the account
// information derived from it.
package database

import (
	"fmt"
	"sync"

	"github.com/meritledger/meritledger/foundation/ledger/genesis"
	"github.com/meritledger/meritledger/foundation/ledger/signature"
)

// Storage interface represents the behavior required to be implemented by
// any package providing support for persisting the chain of blocks.
type Storage interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by
// any package providing support to iterate over the blocks in order.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// ChainError reports the first block at which chain integrity verification
// failed. A chain carrying this error can no longer be trusted.
type ChainError struct {
	Number uint64
	Reason string
}

// Error implements the error interface.
func (ce *ChainError) Error() string {
	return fmt.Sprintf("chain integrity violation at block %d: %s", ce.Number, ce.Reason)
}

// =============================================================================

// Database manages the chain of blocks and the derived account balances.
// All balance writes happen while applying a block; chain replay is the
// source of truth and must always reproduce the cached values.
type Database struct {
	mu sync.RWMutex

	genesis     genesis.Genesis
	latestBlock Block
	supply      float64
	accounts    map[AccountID]Account

	storage   Storage
	evHandler func(v string, args ...any)
}

// New constructs a new database, seeds the genesis balances, and loads any
// existing blocks from storage. An empty store receives the genesis block.
func New(gen genesis.Genesis, storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	db := Database{
		genesis:   gen,
		accounts:  make(map[AccountID]Account),
		storage:   storage,
		evHandler: evHandler,
	}

	for accountStr, balance := range gen.Balances {
		accountID, err := ToAccountID(accountStr)
		if err != nil {
			return nil, err
		}
		db.accounts[accountID] = Account{AccountID: accountID, Balance: balance}
		db.supply += balance
	}

	var loaded bool
	iter := storage.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		block := ToBlock(blockData)

		if !loaded {
			if block.Header.Number != 0 || block.Header.PrevBlockHash != signature.ZeroHash {
				return nil, &ChainError{Number: block.Header.Number, Reason: "stored chain does not start with the genesis block"}
			}
		} else {
			if err := block.ValidateBlock(db.latestBlock, db.evHandler); err != nil {
				return nil, &ChainError{Number: block.Header.Number, Reason: err.Error()}
			}
		}

		if blockData.Hash != block.Hash() {
			return nil, &ChainError{Number: block.Header.Number, Reason: "stored hash does not recompute"}
		}

		db.applyBlock(block)
		loaded = true
	}

	if !loaded {
		gb := GenesisBlock(gen)
		if err := storage.Write(NewBlockData(gb)); err != nil {
			return nil, err
		}
		db.applyBlock(gb)
	}

	return &db, nil
}

// Close closes the underlying block storage.
func (db *Database) Close() {
	db.storage.Close()
}

// =============================================================================

// AcceptBlock validates a fully assembled block against the current tip and,
// if it checks out, persists it and applies its balance changes atomically.
// A rejected block mutates nothing.
func (db *Database) AcceptBlock(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := block.ValidateBlock(db.latestBlock, db.evHandler); err != nil {
		return err
	}

	if err := db.storage.Write(NewBlockData(block)); err != nil {
		return err
	}

	db.applyBlock(block)

	return nil
}

// applyBlock folds a block into the derived account state. The caller owns
// the lock for non-genesis paths.
func (db *Database) applyBlock(block Block) {
	for _, tx := range block.Trans {
		if err := db.applyTransaction(tx); err != nil {
			db.evHandler("database: applyBlock: WARNING: tx[%s]: %s", tx.ID, err)
		}
	}

	claimant := block.Improvement.Claimant
	account := db.accounts[claimant]
	account.AccountID = claimant
	account.Balance += block.Improvement.Reward
	account.Stats.Contributions++
	account.Stats.Mined += block.Improvement.Reward
	account.Stats.AccuracyGain += block.Improvement.Percent
	if block.Improvement.Percent > 0 {
		account.Stats.ArtifactsImproved++
	}
	db.accounts[claimant] = account

	db.supply += block.Improvement.Reward
	db.latestBlock = block
}

// applyTransaction moves funds between the two parties of a transaction.
// The fee leaves the sender and is burned.
func (db *Database) applyTransaction(tx BlockTx) error {
	from := db.accounts[tx.FromID]
	to := db.accounts[tx.ToID]

	if from.Balance < tx.Value+tx.Fee {
		return fmt.Errorf("insufficient funds, bal %.4f, needed %.4f", from.Balance, tx.Value+tx.Fee)
	}

	from.AccountID = tx.FromID
	to.AccountID = tx.ToID

	from.Balance -= tx.Value + tx.Fee
	to.Balance += tx.Value

	db.accounts[tx.FromID] = from
	db.accounts[tx.ToID] = to

	return nil
}

// =============================================================================

// LatestBlock returns the current tip of the chain.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock
}

// Height returns the number of blocks in the chain.
func (db *Database) Height() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock.Header.Number + 1
}

// Supply returns the current circulating supply, the genesis balances plus
// every reward minted since.
func (db *Database) Supply() float64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.supply
}

// BalanceOf returns the cached derived balance for the specified account.
func (db *Database) BalanceOf(accountID AccountID) float64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.accounts[accountID].Balance
}

// CopyAccounts makes a copy of the current derived account state.
func (db *Database) CopyAccounts() map[AccountID]Account {
	db.mu.RLock()
	defer db.mu.RUnlock()

	accounts := make(map[AccountID]Account, len(db.accounts))
	for accountID, account := range db.accounts {
		accounts[accountID] = account
	}
	return accounts
}

// GetBlock reads the specified block from storage.
func (db *Database) GetBlock(num uint64) (Block, error) {
	blockData, err := db.storage.GetBlock(num)
	if err != nil {
		return Block{}, err
	}
	return ToBlock(blockData), nil
}

// ForEach returns an iterator to walk through all the blocks starting at
// the genesis block.
func (db *Database) ForEach() Iterator {
	return db.storage.ForEach()
}

// =============================================================================

// ReplayBalance derives the balance for an account by scanning the whole
// chain: every reward credit where the account is the claimant, plus every
// transaction credit, minus every debit and its fee.
func (db *Database) ReplayBalance(accountID AccountID) (float64, error) {
	balance := db.genesis.Balances[string(accountID)]

	iter := db.storage.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return 0, err
		}

		if blockData.Improvement.Claimant == accountID {
			balance += blockData.Improvement.Reward
		}

		for _, tx := range blockData.Trans {
			if tx.ToID == accountID {
				balance += tx.Value
			}
			if tx.FromID == accountID {
				balance -= tx.Value + tx.Fee
			}
		}
	}

	return balance, nil
}

// Verify walks the chain from genesis, recomputing each block's hash and
// checking the linkage. It returns a ChainError naming the first block at
// which either check fails.
func (db *Database) Verify() error {
	var prev BlockData
	var started bool

	iter := db.storage.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return err
		}

		if blockData.Hash != ToBlock(blockData).Hash() {
			return &ChainError{Number: blockData.Header.Number, Reason: "block hash does not recompute"}
		}

		if !started {
			if blockData.Header.Number != 0 {
				return &ChainError{Number: blockData.Header.Number, Reason: "chain does not start at block 0"}
			}
			if blockData.Header.PrevBlockHash != signature.ZeroHash {
				return &ChainError{Number: 0, Reason: "genesis previous hash is not the zero sentinel"}
			}
		} else {
			if blockData.Header.PrevBlockHash != prev.Hash {
				return &ChainError{Number: blockData.Header.Number, Reason: "previous hash does not match the prior block"}
			}
			if blockData.Header.Number != prev.Header.Number+1 {
				return &ChainError{Number: blockData.Header.Number, Reason: "block number is not sequential"}
			}
		}

		prev = blockData
		started = true
	}

	return nil
}
