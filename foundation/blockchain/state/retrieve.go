package state

import (
	"github.com/textchain/blockchain/foundation/blockchain/database"
	"github.com/textchain/blockchain/foundation/blockchain/genesis"
)

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveChain returns a copy of the full chain from genesis to tip.
func (s *State) RetrieveChain() []database.Block {
	return s.db.Blocks()
}

// RetrieveLatestBlock returns the current tip of the chain.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.db.LatestBlock()
}

// RetrieveMempool returns the pending transactions in submission order.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Snapshot()
}

// QueryMempoolLength returns the current number of pending transactions.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// Validate checks the full chain from genesis to tip and reports the
// first inconsistency found. The chain is never repaired.
func (s *State) Validate() error {
	return s.db.Validate(s.evHandler)
}
