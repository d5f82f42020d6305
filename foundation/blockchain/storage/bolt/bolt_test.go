package bolt_test

import (
	"path/filepath"
	"testing"

	"github.com/textchain/blockchain/foundation/blockchain/database"
	"github.com/textchain/blockchain/foundation/blockchain/digest"
	"github.com/textchain/blockchain/foundation/blockchain/storage/bolt"
)

func testBlock(index uint64, prevHash string) database.Block {
	b := database.Block{
		Index:        index,
		Timestamp:    1740787200 + index,
		Transactions: []database.Tx{database.NewRewardTx("miner")},
		PrevHash:     prevHash,
		Nonce:        index * 7,
	}
	b.Hash = b.ComputeHash()

	return b
}

func Test_WriteReadRoundTrip(t *testing.T) {
	strg, err := bolt.New(filepath.Join(t.TempDir(), "blocks.db"))
	if err != nil {
		t.Fatalf("Should be able to open the database: %s", err)
	}
	defer strg.Close()

	block1 := testBlock(1, digest.ZeroHex)
	if err := strg.Write(block1); err != nil {
		t.Fatalf("Should be able to write block 1: %s", err)
	}

	got, err := strg.GetBlock(1)
	if err != nil {
		t.Fatalf("Should be able to read block 1: %s", err)
	}
	if got.Hash != block1.Hash || got.Nonce != block1.Nonce {
		t.Fatalf("Should read back the same block: got %s, exp %s", got.Hash, block1.Hash)
	}

	if _, err := strg.GetBlock(2); err == nil {
		t.Fatalf("Should report a missing block.")
	}
}

func Test_WriteRejectsOutOfOrder(t *testing.T) {
	strg, err := bolt.New(filepath.Join(t.TempDir(), "blocks.db"))
	if err != nil {
		t.Fatalf("Should be able to open the database: %s", err)
	}
	defer strg.Close()

	if err := strg.Write(testBlock(2, digest.ZeroHex)); err == nil {
		t.Fatalf("Should reject a first write that is not block 1.")
	}
}

func Test_ForEachWalksInOrder(t *testing.T) {
	strg, err := bolt.New(filepath.Join(t.TempDir(), "blocks.db"))
	if err != nil {
		t.Fatalf("Should be able to open the database: %s", err)
	}
	defer strg.Close()

	prev := digest.ZeroHex
	for i := uint64(1); i <= 3; i++ {
		b := testBlock(i, prev)
		if err := strg.Write(b); err != nil {
			t.Fatalf("Should be able to write block %d: %s", i, err)
		}
		prev = b.Hash
	}

	var count uint64
	iter := strg.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			t.Fatalf("Should be able to iterate: %s", err)
		}
		count++
		if block.Index != count {
			t.Fatalf("Should walk blocks in index order: got %d, exp %d", block.Index, count)
		}
	}

	if count != 3 {
		t.Fatalf("Should walk all 3 blocks: got %d", count)
	}
}

func Test_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.db")

	strg, err := bolt.New(path)
	if err != nil {
		t.Fatalf("Should be able to open the database: %s", err)
	}

	block1 := testBlock(1, digest.ZeroHex)
	if err := strg.Write(block1); err != nil {
		t.Fatalf("Should be able to write block 1: %s", err)
	}
	if err := strg.Close(); err != nil {
		t.Fatalf("Should be able to close the database: %s", err)
	}

	strg2, err := bolt.New(path)
	if err != nil {
		t.Fatalf("Should be able to reopen the database: %s", err)
	}
	defer strg2.Close()

	got, err := strg2.GetBlock(1)
	if err != nil {
		t.Fatalf("Should find block 1 after a reopen: %s", err)
	}
	if got.Hash != block1.Hash {
		t.Fatalf("Should read back the same block after a reopen.")
	}
}

func Test_Reset(t *testing.T) {
	strg, err := bolt.New(filepath.Join(t.TempDir(), "blocks.db"))
	if err != nil {
		t.Fatalf("Should be able to open the database: %s", err)
	}
	defer strg.Close()

	if err := strg.Write(testBlock(1, digest.ZeroHex)); err != nil {
		t.Fatalf("Should be able to write block 1: %s", err)
	}

	if err := strg.Reset(); err != nil {
		t.Fatalf("Should be able to reset the storage: %s", err)
	}

	if _, err := strg.GetBlock(1); err == nil {
		t.Fatalf("Should have no blocks after a reset.")
	}

	// The next write starts over at block 1.
	if err := strg.Write(testBlock(1, digest.ZeroHex)); err != nil {
		t.Fatalf("Should accept block 1 after a reset: %s", err)
	}
}
