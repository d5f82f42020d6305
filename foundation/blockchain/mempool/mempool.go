// Package mempool maintains the pool of validated but unconfirmed
// transactions waiting to be mined into a block.
package mempool

import (
	"sort"
	"sync"

	"github.com/textchain/blockchain/foundation/blockchain/database"
)

// Mempool represents a cache of pending transactions keyed by their
// content digest.
type Mempool struct {
	mu    sync.RWMutex
	pool  map[string]database.Tx
	order map[string]uint64
	seq   uint64
}

// New constructs a new mempool.
func New() *Mempool {
	return &Mempool{
		pool:  make(map[string]database.Tx),
		order: make(map[string]uint64),
	}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds or replaces a transaction in the mempool and returns the
// new pool size. The caller is responsible for validating the
// transaction first, nothing unverified may reach the pool.
func (mp *Mempool) Upsert(tx database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	key := tx.Hash()
	if _, exists := mp.pool[key]; !exists {
		mp.seq++
		mp.order[key] = mp.seq
	}
	mp.pool[key] = tx

	return len(mp.pool)
}

// Delete removes a transaction from the mempool.
func (mp *Mempool) Delete(tx database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	key := tx.Hash()
	delete(mp.pool, key)
	delete(mp.order, key)
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]database.Tx)
	mp.order = make(map[string]uint64)
	mp.seq = 0
}

// Snapshot returns the pending transactions in submission order. Mining
// works from a snapshot so submissions arriving during the nonce search
// are not lost and not double counted.
func (mp *Mempool) Snapshot() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	keys := make([]string, 0, len(mp.pool))
	for key := range mp.pool {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return mp.order[keys[i]] < mp.order[keys[j]]
	})

	txs := make([]database.Tx, len(keys))
	for i, key := range keys {
		txs[i] = mp.pool[key]
	}

	return txs
}

// Drain removes exactly the specified transactions from the pool.
// Transactions submitted after the mining snapshot was taken stay
// pending for the next block.
func (mp *Mempool) Drain(included []database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for _, tx := range included {
		key := tx.Hash()
		delete(mp.pool, key)
		delete(mp.order, key)
	}
}
