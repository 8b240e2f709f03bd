// Package memory implements the database.Storage interface with an in-memory
// map of blocks. It backs tests and throwaway nodes.
package memory

import (
	"fmt"
	"sync"

	"github.com/meritledger/meritledger/foundation/ledger/database"
)

// Memory represents the storage implementation for keeping blocks in memory.
type Memory struct {
	mu     sync.RWMutex
	blocks map[uint64]database.BlockData
}

// New constructs a Memory value for use.
func New() (*Memory, error) {
	return &Memory{
		blocks: make(map[uint64]database.BlockData),
	}, nil
}

// Close in this implementation has nothing to do.
func (m *Memory) Close() error {
	return nil
}

// Write stores the specified block by number.
func (m *Memory) Write(blockData database.BlockData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks[blockData.Header.Number] = blockData
	return nil
}

// GetBlock returns the block stored under the specified number.
func (m *Memory) GetBlock(num uint64) (database.BlockData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	blockData, exists := m.blocks[num]
	if !exists {
		return database.BlockData{}, fmt.Errorf("block %d does not exist", num)
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks starting with
// the genesis block.
func (m *Memory) ForEach() database.Iterator {
	return &memoryIterator{storage: m}
}

// Reset clears out all the stored blocks.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = make(map[uint64]database.BlockData)
	return nil
}

// Corrupt replaces the stored record for the specified block without any
// validation. It exists so integrity checks can be tested against a store
// that was tampered with behind the database's back.
func (m *Memory) Corrupt(num uint64, blockData database.BlockData) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks[num] = blockData
}

// =============================================================================

// memoryIterator represents the iteration implementation for walking
// through the blocks held in memory.
type memoryIterator struct {
	storage *Memory
	current uint64
	eoc     bool
}

// Next retrieves the next block in number order.
func (mi *memoryIterator) Next() (database.BlockData, error) {
	if mi.eoc {
		return database.BlockData{}, nil
	}

	mi.storage.mu.RLock()
	blockData, exists := mi.storage.blocks[mi.current]
	mi.storage.mu.RUnlock()

	if !exists {
		mi.eoc = true
		return database.BlockData{}, nil
	}

	mi.current++

	return blockData, nil
}

// Done returns the end of chain value.
func (mi *memoryIterator) Done() bool {
	return mi.eoc
}
