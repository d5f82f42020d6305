// Package bolt implements the ability to read and write blocks to a
// bbolt database on disk so the chain survives a restart.
package bolt

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/textchain/blockchain/foundation/blockchain/database"
	bbolt "go.etcd.io/bbolt"
)

// blocksBucket is the single bucket holding every mined block, keyed by
// the big endian block index.
var blocksBucket = []byte("blocks")

// Bolt represents the storage implementation for reading and storing
// blocks in a bbolt database. This implements the database.Storage
// interface.
type Bolt struct {
	db *bbolt.DB
}

// New opens or creates the bbolt database at the specified path.
func New(dbPath string) (*Bolt, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening block database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blocksBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating blocks bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Close closes the underlying database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Write takes the specified block and stores it on disk. Mined blocks
// start at index 1, block zero belongs to the genesis file.
func (b *Bolt) Write(block database.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket(blocksBucket)

		if uint64(bkt.Stats().KeyN)+1 != block.Index {
			return errors.New("block is out of order")
		}

		return bkt.Put(blockKey(block.Index), data)
	})
}

// GetBlock returns the contents of the specified block by index.
func (b *Bolt) GetBlock(num uint64) (database.Block, error) {
	var block database.Block

	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(blocksBucket).Get(blockKey(num))
		if data == nil {
			return errors.New("block does not exist")
		}

		return json.Unmarshal(data, &block)
	})
	if err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// ForEach returns an iterator to walk through all the stored blocks
// starting with block number 1.
func (b *Bolt) ForEach() database.Iterator {
	return &boltIterator{storage: b, current: 1}
}

// Reset clears out the stored blocks.
func (b *Bolt) Reset() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(blocksBucket); err != nil {
			return err
		}

		_, err := tx.CreateBucket(blocksBucket)
		return err
	})
}

// blockKey converts a block index to its fixed width key form so keys
// sort in block order.
func blockKey(num uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, num)
	return key
}

// =============================================================================

// boltIterator represents the iteration implementation for walking
// through the stored blocks. This implements the database.Iterator
// interface.
type boltIterator struct {
	storage *Bolt
	current uint64
	eoc     bool
}

// Next retrieves the next block from disk.
func (bi *boltIterator) Next() (database.Block, error) {
	if bi.eoc {
		return database.Block{}, errors.New("end of chain")
	}

	block, err := bi.storage.GetBlock(bi.current)
	if err != nil {
		bi.eoc = true
	}

	bi.current++

	return block, err
}

// Done returns the end of chain value.
func (bi *boltIterator) Done() bool {
	return bi.eoc
}
