package state_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/textchain/blockchain/foundation/blockchain/database"
	"github.com/textchain/blockchain/foundation/blockchain/genesis"
	"github.com/textchain/blockchain/foundation/blockchain/signature"
	"github.com/textchain/blockchain/foundation/blockchain/state"
	"github.com/textchain/blockchain/foundation/blockchain/storage/memory"
	"github.com/textchain/blockchain/foundation/blockchain/worker"
)

func newTestState(t *testing.T) *state.State {
	t.Helper()

	gen := genesis.Genesis{
		Date:       time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		ChainName:  "test-chain",
		Difficulty: 1,
	}

	strg, err := memory.New()
	if err != nil {
		t.Fatalf("Should be able to open memory storage: %s", err)
	}

	st, err := state.New(state.Config{
		Genesis:   gen,
		Storage:   strg,
		EvHandler: func(v string, args ...any) { t.Logf(v, args...) },
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %s", err)
	}
	t.Cleanup(func() { st.Shutdown() })

	worker.Run(st, func(v string, args ...any) { t.Logf(v, args...) })

	return st
}

func newWallet(t *testing.T) signature.KeyPair {
	t.Helper()

	kp, err := signature.Generate()
	if err != nil {
		t.Fatalf("Should be able to generate a key pair: %s", err)
	}

	return kp
}

func mineCtx(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	return ctx
}

// =============================================================================

func Test_SubmitAndMineLifecycle(t *testing.T) {
	st := newTestState(t)
	alice := newWallet(t)
	bob := newWallet(t)
	miner := newWallet(t)

	tx, err := database.NewTx(alice.PublicKey, bob.PublicKey, "hello bob").Sign(alice.PrivateKey)
	if err != nil {
		t.Fatalf("Should be able to sign a transaction: %s", err)
	}

	if err := st.SubmitTransaction(tx); err != nil {
		t.Fatalf("Should accept a properly signed transaction: %s", err)
	}
	if st.QueryMempoolLength() != 1 {
		t.Fatalf("Should have 1 pending transaction: got %d", st.QueryMempoolLength())
	}

	block, err := st.MineBlock(mineCtx(t), miner.PublicKey)
	if err != nil {
		t.Fatalf("Should be able to mine a block: %s", err)
	}

	if block.Index != 1 {
		t.Fatalf("Should mine block 1: got %d", block.Index)
	}
	if len(block.Transactions) != 2 {
		t.Fatalf("Should carry the pending transaction plus the reward: got %d", len(block.Transactions))
	}

	reward := block.Transactions[len(block.Transactions)-1]
	if !reward.IsReward() || reward.Recipient != miner.PublicKey {
		t.Fatalf("Should credit the reward to the miner.")
	}

	if st.QueryMempoolLength() != 0 {
		t.Fatalf("Should drain the mined transactions: got %d pending", st.QueryMempoolLength())
	}

	if tip := st.RetrieveLatestBlock(); tip.Hash != block.Hash {
		t.Fatalf("Should have the mined block as the new tip.")
	}
	if err := st.Validate(); err != nil {
		t.Fatalf("Should validate the chain after mining: %s", err)
	}
}

func Test_MineEmptyMempool(t *testing.T) {
	st := newTestState(t)
	miner := newWallet(t)

	block, err := st.MineBlock(mineCtx(t), miner.PublicKey)
	if err != nil {
		t.Fatalf("Should be able to mine with no pending transactions: %s", err)
	}

	if len(block.Transactions) != 1 || !block.Transactions[0].IsReward() {
		t.Fatalf("Should carry just the reward transaction: got %d", len(block.Transactions))
	}
}

func Test_SequentialBlocksLink(t *testing.T) {
	st := newTestState(t)
	miner := newWallet(t)

	block1, err := st.MineBlock(mineCtx(t), miner.PublicKey)
	if err != nil {
		t.Fatalf("Should be able to mine block 1: %s", err)
	}

	block2, err := st.MineBlock(mineCtx(t), miner.PublicKey)
	if err != nil {
		t.Fatalf("Should be able to mine block 2: %s", err)
	}

	if block2.PrevHash != block1.Hash {
		t.Fatalf("Should link block 2 to block 1: got %s, exp %s", block2.PrevHash, block1.Hash)
	}

	chain := st.RetrieveChain()
	if len(chain) != 3 {
		t.Fatalf("Should have 3 blocks including genesis: got %d", len(chain))
	}
	if err := st.Validate(); err != nil {
		t.Fatalf("Should validate the chain: %s", err)
	}
}

func Test_SubmitRejections(t *testing.T) {
	st := newTestState(t)
	alice := newWallet(t)
	bob := newWallet(t)

	// Reward transactions belong to the miner only.
	if err := st.SubmitTransaction(database.NewRewardTx(bob.PublicKey)); !errors.Is(err, state.ErrSystemTx) {
		t.Fatalf("Should reject a caller-submitted reward transaction: got %v", err)
	}

	// A signature from the wrong key must not verify.
	forged, err := database.NewTx(alice.PublicKey, bob.PublicKey, "forged").Sign(bob.PrivateKey)
	if err != nil {
		t.Fatalf("Should be able to sign: %s", err)
	}
	if err := st.SubmitTransaction(forged); err == nil {
		t.Fatalf("Should reject a transaction signed with the wrong key.")
	}

	// No signature at all.
	if err := st.SubmitTransaction(database.NewTx(alice.PublicKey, bob.PublicKey, "unsigned")); err == nil {
		t.Fatalf("Should reject an unsigned transaction.")
	}

	if st.QueryMempoolLength() != 0 {
		t.Fatalf("Should keep rejected transactions out of the mempool: got %d", st.QueryMempoolLength())
	}
}

func Test_MineCancellation(t *testing.T) {
	st := newTestState(t)
	miner := newWallet(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := st.MineBlock(ctx, miner.PublicKey); !errors.Is(err, context.Canceled) {
		t.Fatalf("Should surface the caller's cancellation: got %v", err)
	}
}
