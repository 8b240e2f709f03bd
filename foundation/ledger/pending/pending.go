// Package pending maintains the pool of transactions waiting to be included
// in a block.
package pending

import (
	"sort"
	"sync"

	"github.com/meritledger/meritledger/foundation/ledger/database"
)

// Pool represents a cache of transactions organized by their id. The pool
// grows as needed; there is no fixed capacity.
type Pool struct {
	mu   sync.RWMutex
	pool map[string]database.BlockTx
}

// New constructs a new transaction pool.
func New() *Pool {
	return &Pool{
		pool: make(map[string]database.BlockTx),
	}
}

// Count returns the current number of transactions in the pool.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.pool)
}

// Upsert adds or replaces a transaction in the pool.
func (p *Pool) Upsert(tx database.BlockTx) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pool[tx.ID] = tx
}

// Delete removes a transaction from the pool.
func (p *Pool) Delete(tx database.BlockTx) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.pool, tx.ID)
}

// Truncate clears all the transactions from the pool.
func (p *Pool) Truncate() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pool = make(map[string]database.BlockTx)
}

// PickAll returns every transaction in the pool in a deterministic order,
// oldest first and ties broken by id. Every mined block carries the full
// pool, so there is no selection policy beyond ordering.
func (p *Pool) PickAll() []database.BlockTx {
	p.mu.RLock()
	defer p.mu.RUnlock()

	txs := make([]database.BlockTx, 0, len(p.pool))
	for _, tx := range p.pool {
		txs = append(txs, tx)
	}

	sort.Slice(txs, func(i, j int) bool {
		if txs[i].TimeStamp != txs[j].TimeStamp {
			return txs[i].TimeStamp < txs[j].TimeStamp
		}
		return txs[i].ID < txs[j].ID
	})

	return txs
}

// QueuedDebits sums the value plus fee of every pooled transaction sent by
// the specified account. Transfer admission uses this to keep an account
// from overcommitting its balance across the pool.
func (p *Pool) QueuedDebits(accountID database.AccountID) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var total float64
	for _, tx := range p.pool {
		if tx.FromID == accountID {
			total += tx.Value + tx.Fee
		}
	}

	return total
}
