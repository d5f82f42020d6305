// Package memory implements the ability to read and write blocks to memory
// using a slice. Used for tests and throwaway nodes.
package memory

import (
	"errors"
	"sync"

	"github.com/textchain/blockchain/foundation/blockchain/database"
)

// Memory represents the storage implementation for reading and storing
// blocks in memory. This implements the database.Storage interface.
type Memory struct {
	mu     sync.RWMutex
	blocks []database.Block
}

// New constructs a Memory value for use.
func New() (*Memory, error) {
	return &Memory{}, nil
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write takes the specified block and stores it in memory. Mined blocks
// start at index 1, block zero belongs to the genesis file.
func (m *Memory) Write(block database.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if uint64(len(m.blocks))+1 != block.Index {
		return errors.New("block is out of order")
	}

	m.blocks = append(m.blocks, block)
	return nil
}

// GetBlock returns the contents of the specified block by index.
func (m *Memory) GetBlock(num uint64) (database.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if num == 0 || num > uint64(len(m.blocks)) {
		return database.Block{}, errors.New("block does not exist")
	}

	return m.blocks[num-1], nil
}

// ForEach returns an iterator to walk through all the stored blocks
// starting with block number 1.
func (m *Memory) ForEach() database.Iterator {
	return &memoryIterator{storage: m, current: 1}
}

// Reset clears out the stored blocks.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = nil
	return nil
}

// =============================================================================

// memoryIterator represents the iteration implementation for walking
// through the stored blocks. This implements the database.Iterator
// interface.
type memoryIterator struct {
	storage *Memory
	current uint64
	eoc     bool
}

// Next retrieves the next block from memory.
func (mi *memoryIterator) Next() (database.Block, error) {
	if mi.eoc {
		return database.Block{}, errors.New("end of chain")
	}

	block, err := mi.storage.GetBlock(mi.current)
	if err != nil {
		mi.eoc = true
	}

	mi.current++

	return block, err
}

// Done returns the end of chain value.
func (mi *memoryIterator) Done() bool {
	return mi.eoc
}
