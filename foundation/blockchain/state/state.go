// Package state is the core API for the node and implements all the
// business rules and processing.
package state

import (
	"context"

	"github.com/textchain/blockchain/foundation/blockchain/database"
	"github.com/textchain/blockchain/foundation/blockchain/genesis"
	"github.com/textchain/blockchain/foundation/blockchain/mempool"
)

// EventHandler defines a function that is called when events occur in the
// processing of blocks and transactions.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// any package providing support for mining.
type Worker interface {
	Shutdown()
	SignalCancelMining()
	SubmitMineRequest(ctx context.Context, minerAddress string) (database.Block, error)
}

// =============================================================================

// Config represents the configuration required to start the node.
type Config struct {
	Genesis   genesis.Genesis
	Storage   database.Storage
	EvHandler EventHandler
}

// State manages the blockchain database and the mempool.
type State struct {
	genesis   genesis.Genesis
	evHandler EventHandler

	mempool *mempool.Mempool
	db      *database.Database

	Worker Worker
}

// New constructs a new blockchain node state for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	db, err := database.New(cfg.Genesis, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	state := State{
		genesis:   cfg.Genesis,
		evHandler: ev,
		mempool:   mempool.New(),
		db:        db,
	}

	// The Worker is not set here. The call to worker.Run will assign
	// itself and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {

	// Make sure the database is properly closed.
	defer func() {
		s.db.Close()
	}()

	// Stop all mining activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}
