package mempool_test

import (
	"fmt"
	"testing"

	"github.com/textchain/blockchain/foundation/blockchain/database"
	"github.com/textchain/blockchain/foundation/blockchain/mempool"
	"github.com/textchain/blockchain/foundation/blockchain/signature"
)

func signedTx(t *testing.T, kp signature.KeyPair, recipient string, message string) database.Tx {
	t.Helper()

	tx, err := database.NewTx(kp.PublicKey, recipient, message).Sign(kp.PrivateKey)
	if err != nil {
		t.Fatalf("Should be able to sign a transaction: %s", err)
	}

	return tx
}

func Test_UpsertSnapshotOrder(t *testing.T) {
	kp, err := signature.Generate()
	if err != nil {
		t.Fatalf("Should be able to generate a key pair: %s", err)
	}

	mp := mempool.New()
	for i := 0; i < 5; i++ {
		mp.Upsert(signedTx(t, kp, "recipient", fmt.Sprintf("msg %d", i)))
	}

	if mp.Count() != 5 {
		t.Fatalf("Should have 5 pending transactions: got %d", mp.Count())
	}

	txs := mp.Snapshot()
	if len(txs) != 5 {
		t.Fatalf("Should snapshot 5 transactions: got %d", len(txs))
	}

	for i, tx := range txs {
		if exp := fmt.Sprintf("msg %d", i); tx.Message != exp {
			t.Fatalf("Should keep submission order: got %q at %d, exp %q", tx.Message, i, exp)
		}
	}
}

func Test_UpsertIsIdempotent(t *testing.T) {
	kp, err := signature.Generate()
	if err != nil {
		t.Fatalf("Should be able to generate a key pair: %s", err)
	}

	mp := mempool.New()
	tx := signedTx(t, kp, "recipient", "hello")

	mp.Upsert(tx)
	mp.Upsert(tx)

	if mp.Count() != 1 {
		t.Fatalf("Should hold one copy of identical content: got %d", mp.Count())
	}
}

func Test_DrainLeavesLateSubmissions(t *testing.T) {
	kp, err := signature.Generate()
	if err != nil {
		t.Fatalf("Should be able to generate a key pair: %s", err)
	}

	mp := mempool.New()
	for i := 0; i < 3; i++ {
		mp.Upsert(signedTx(t, kp, "recipient", fmt.Sprintf("early %d", i)))
	}

	snapshot := mp.Snapshot()

	// These arrive after the mining snapshot was taken.
	late := signedTx(t, kp, "recipient", "late")
	mp.Upsert(late)

	mp.Drain(snapshot)

	if mp.Count() != 1 {
		t.Fatalf("Should keep the late submission pending: got %d", mp.Count())
	}
	if mp.Snapshot()[0].Message != "late" {
		t.Fatalf("Should keep exactly the late transaction.")
	}
}

func Test_Truncate(t *testing.T) {
	kp, err := signature.Generate()
	if err != nil {
		t.Fatalf("Should be able to generate a key pair: %s", err)
	}

	mp := mempool.New()
	mp.Upsert(signedTx(t, kp, "recipient", "one"))
	mp.Upsert(signedTx(t, kp, "recipient", "two"))

	mp.Truncate()

	if mp.Count() != 0 {
		t.Fatalf("Should be empty after a truncate: got %d", mp.Count())
	}
}
