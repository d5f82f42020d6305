// Package database maintains the chain of blocks in memory and behind a
// pluggable storage so a node can survive a restart.
package database

import (
	"fmt"
	"sync"

	"github.com/textchain/blockchain/foundation/blockchain/genesis"
)

// Storage interface represents the behavior required to be implemented by
// any package providing support for storing and reading mined blocks.
// Block zero is derived from the genesis file and never stored.
type Storage interface {
	Write(block Block) error
	GetBlock(num uint64) (Block, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented
// by any package providing support to iterate over stored blocks.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}

// =============================================================================

// Database manages the chain of blocks.
type Database struct {
	mu sync.RWMutex

	genesis genesis.Genesis
	blocks  []Block
	storage Storage
}

// New constructs the database, seeds block zero from the genesis file and
// replays any blocks found in storage, validating each one on the way in.
func New(gen genesis.Genesis, storage Storage, ev func(v string, args ...any)) (*Database, error) {
	db := Database{
		genesis: gen,
		blocks:  []Block{GenesisBlock(gen)},
		storage: storage,
	}

	iter := storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		if err := block.ValidateBlock(db.blocks[len(db.blocks)-1], gen.Difficulty, ev); err != nil {
			return nil, fmt.Errorf("stored block %d is corrupt: %w", block.Index, err)
		}

		db.blocks = append(db.blocks, block)
	}

	return &db, nil
}

// Close closes the underlying block storage.
func (db *Database) Close() {
	db.storage.Close()
}

// Reset drops every mined block and returns the chain to just the
// genesis block.
func (db *Database) Reset() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.storage.Reset(); err != nil {
		return err
	}

	db.blocks = []Block{GenesisBlock(db.genesis)}
	return nil
}

// LatestBlock returns the current tip of the chain.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.blocks[len(db.blocks)-1]
}

// Height returns the number of blocks in the chain including genesis.
func (db *Database) Height() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return uint64(len(db.blocks))
}

// Blocks returns a copy of the full chain from genesis to tip.
func (db *Database) Blocks() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	blocks := make([]Block, len(db.blocks))
	copy(blocks, db.blocks)
	return blocks
}

// GetBlock returns the block at the specified index.
func (db *Database) GetBlock(num uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if num >= uint64(len(db.blocks)) {
		return Block{}, fmt.Errorf("block %d does not exist", num)
	}

	return db.blocks[num], nil
}

// Write validates the block against the current tip and appends it to
// both storage and the in-memory chain. A block that no longer links to
// the tip is rejected with ErrStaleTip and nothing is mutated.
func (db *Database) Write(block Block, ev func(v string, args ...any)) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := block.ValidateBlock(db.blocks[len(db.blocks)-1], db.genesis.Difficulty, ev); err != nil {
		return err
	}

	if err := db.storage.Write(block); err != nil {
		return err
	}

	db.blocks = append(db.blocks, block)
	return nil
}

// Validate checks the full chain from genesis to tip. Any failure means
// the chain is corrupt. The chain is never repaired, only reported.
func (db *Database) Validate(ev func(v string, args ...any)) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	ev("database: Validate: check: block zero matches the expected genesis block")

	expGenesis := GenesisBlock(db.genesis)
	if db.blocks[0].Hash != expGenesis.Hash || db.blocks[0].ComputeHash() != expGenesis.Hash {
		return fmt.Errorf("genesis block does not match, got %s, exp %s", db.blocks[0].Hash, expGenesis.Hash)
	}

	for i := 1; i < len(db.blocks); i++ {
		if err := db.blocks[i].ValidateBlock(db.blocks[i-1], db.genesis.Difficulty, ev); err != nil {
			return fmt.Errorf("chain corrupt at block %d: %w", i, err)
		}
	}

	return nil
}
