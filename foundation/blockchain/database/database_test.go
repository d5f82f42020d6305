package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/textchain/blockchain/foundation/blockchain/database"
	"github.com/textchain/blockchain/foundation/blockchain/genesis"
	"github.com/textchain/blockchain/foundation/blockchain/signature"
	"github.com/textchain/blockchain/foundation/blockchain/storage/memory"
)

// Difficulty 1 keeps the proof of work fast enough for a unit test while
// still exercising the nonce search.
func testGenesis() genesis.Genesis {
	return genesis.Genesis{
		Date:       time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		ChainName:  "test-chain",
		Difficulty: 1,
	}
}

func nopEv(v string, args ...any) {}

func signedTx(t *testing.T, message string) database.Tx {
	t.Helper()

	kp, err := signature.Generate()
	if err != nil {
		t.Fatalf("Should be able to generate a key pair: %s", err)
	}

	tx, err := database.NewTx(kp.PublicKey, kp.PublicKey, message).Sign(kp.PrivateKey)
	if err != nil {
		t.Fatalf("Should be able to sign a transaction: %s", err)
	}

	return tx
}

func mineBlock(t *testing.T, gen genesis.Genesis, prev database.Block, txs []database.Tx) database.Block {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	block, err := database.POW(ctx, gen.Difficulty, prev, txs, nopEv)
	if err != nil {
		t.Fatalf("Should be able to mine a block: %s", err)
	}

	return block
}

// =============================================================================

func Test_GenesisBlockDeterministic(t *testing.T) {
	gen := testGenesis()

	b1 := database.GenesisBlock(gen)
	b2 := database.GenesisBlock(gen)

	if b1.Hash != b2.Hash {
		t.Fatalf("Should derive the same genesis block every time: got %s and %s", b1.Hash, b2.Hash)
	}
	if b1.Index != 0 {
		t.Fatalf("Should stamp index 0 into the genesis block: got %d", b1.Index)
	}
	if b1.Hash != b1.ComputeHash() {
		t.Fatalf("Should have a genesis hash matching its content.")
	}
}

func Test_ComputeHashDetectsTamper(t *testing.T) {
	gen := testGenesis()
	block := mineBlock(t, gen, database.GenesisBlock(gen), []database.Tx{signedTx(t, "hello")})

	if block.ComputeHash() != block.Hash {
		t.Fatalf("Should have a mined hash matching its content.")
	}

	block.Transactions[0].Message = "tampered"

	if block.ComputeHash() == block.Hash {
		t.Fatalf("Should change the hash when a transaction is altered.")
	}
}

func Test_ValidateBlockRejections(t *testing.T) {
	gen := testGenesis()
	prev := database.GenesisBlock(gen)
	block := mineBlock(t, gen, prev, []database.Tx{signedTx(t, "hello")})

	if err := block.ValidateBlock(prev, gen.Difficulty, nopEv); err != nil {
		t.Fatalf("Should accept a properly mined block: %s", err)
	}

	wrongIndex := block
	wrongIndex.Index = 5
	if err := wrongIndex.ValidateBlock(prev, gen.Difficulty, nopEv); err == nil {
		t.Fatalf("Should reject a block with the wrong index.")
	}

	wrongLink := block
	wrongLink.PrevHash = block.Hash
	if err := wrongLink.ValidateBlock(prev, gen.Difficulty, nopEv); !errors.Is(err, database.ErrStaleTip) {
		t.Fatalf("Should reject a block that does not link to the tip with ErrStaleTip: got %v", err)
	}

	wrongDifficulty := block
	if err := wrongDifficulty.ValidateBlock(prev, 40, nopEv); err == nil {
		t.Fatalf("Should reject a block whose hash does not meet the difficulty.")
	}
}

func Test_POWHonorsCancellation(t *testing.T) {
	gen := testGenesis()

	// Difficulty 40 can't be solved, the search must stop on cancel.
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := database.POW(ctx, 40, database.GenesisBlock(gen), nil, nopEv)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Should stop the nonce search on cancellation: got %v", err)
	}
}

func Test_WriteAndValidateChain(t *testing.T) {
	gen := testGenesis()

	strg, err := memory.New()
	if err != nil {
		t.Fatalf("Should be able to open memory storage: %s", err)
	}

	db, err := database.New(gen, strg, nopEv)
	if err != nil {
		t.Fatalf("Should be able to construct the database: %s", err)
	}

	block1 := mineBlock(t, gen, db.LatestBlock(), []database.Tx{signedTx(t, "one")})
	if err := db.Write(block1, nopEv); err != nil {
		t.Fatalf("Should be able to write block 1: %s", err)
	}

	block2 := mineBlock(t, gen, db.LatestBlock(), []database.Tx{signedTx(t, "two")})
	if err := db.Write(block2, nopEv); err != nil {
		t.Fatalf("Should be able to write block 2: %s", err)
	}

	if db.Height() != 3 {
		t.Fatalf("Should have 3 blocks including genesis: got %d", db.Height())
	}
	if err := db.Validate(nopEv); err != nil {
		t.Fatalf("Should validate the full chain: %s", err)
	}

	// A block mined against the old tip must be rejected.
	stale := mineBlock(t, gen, block1, []database.Tx{signedTx(t, "stale")})
	if err := db.Write(stale, nopEv); !errors.Is(err, database.ErrStaleTip) {
		t.Fatalf("Should reject a block mined against a stale tip: got %v", err)
	}
}

func Test_ReplayFromStorage(t *testing.T) {
	gen := testGenesis()

	strg, err := memory.New()
	if err != nil {
		t.Fatalf("Should be able to open memory storage: %s", err)
	}

	db, err := database.New(gen, strg, nopEv)
	if err != nil {
		t.Fatalf("Should be able to construct the database: %s", err)
	}

	block1 := mineBlock(t, gen, db.LatestBlock(), []database.Tx{signedTx(t, "persisted")})
	if err := db.Write(block1, nopEv); err != nil {
		t.Fatalf("Should be able to write block 1: %s", err)
	}

	// A second database over the same storage must replay the chain.
	db2, err := database.New(gen, strg, nopEv)
	if err != nil {
		t.Fatalf("Should be able to replay the chain from storage: %s", err)
	}

	if db2.Height() != 2 {
		t.Fatalf("Should replay 2 blocks including genesis: got %d", db2.Height())
	}
	if db2.LatestBlock().Hash != block1.Hash {
		t.Fatalf("Should end the replay at the same tip.")
	}
}
