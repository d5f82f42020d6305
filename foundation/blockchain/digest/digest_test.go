package digest_test

import (
	"testing"

	"github.com/textchain/blockchain/foundation/blockchain/digest"
)

// Known answer vectors from the algorithm's reference documents.
const (
	emptyHex = "da39a3ee5e6b4b0d3255bfef95601890afd80709"
	abcHex   = "a9993e364706816aba3e25717850c26c9cd0d89d"
	lazyHex  = "2fd4e1c67a2d28fced849ee1bb76e7391b93eb12"
)

func Test_KnownVectors(t *testing.T) {
	if h := digest.SumHex(nil); h != emptyHex {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", emptyHex)
		t.Fatalf("Should produce the known digest for the empty input.")
	}

	if h := digest.SumHex([]byte("abc")); h != abcHex {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", abcHex)
		t.Fatalf("Should produce the known digest for abc.")
	}

	if h := digest.SumHex([]byte("The quick brown fox jumps over the lazy dog")); h != lazyHex {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", lazyHex)
		t.Fatalf("Should produce the known digest for the fox sentence.")
	}
}

func Test_Deterministic(t *testing.T) {
	data := []byte("same input, same digest")

	h1 := digest.SumHex(data)
	h2 := digest.SumHex(data)
	if h1 != h2 {
		t.Fatalf("Should get the same digest twice for the same input.")
	}

	if len(h1) != 40 {
		t.Fatalf("Should produce a 40 character hex digest: got %d", len(h1))
	}
}

func Test_Avalanche(t *testing.T) {
	h1 := digest.SumHex([]byte("message a"))
	h2 := digest.SumHex([]byte("message b"))

	if h1 == h2 {
		t.Fatalf("Should get different digests for different inputs.")
	}

	// A single byte change should not leave a common prefix of any length
	// worth speaking of.
	same := 0
	for i := 0; i < 40; i++ {
		if h1[i] == h2[i] {
			same++
		}
	}
	if same == 40 {
		t.Fatalf("Should not produce related looking digests.")
	}
}

func Test_BoundaryLengths(t *testing.T) {

	// 55, 56 and 64 byte inputs exercise all the padding branches.
	for _, n := range []int{55, 56, 63, 64, 65} {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i)
		}

		h := digest.SumHex(data)
		if len(h) != 40 {
			t.Fatalf("Should produce a full digest for input length %d.", n)
		}

		if h != digest.SumHex(data) {
			t.Fatalf("Should be deterministic for input length %d.", n)
		}
	}
}

func Test_HashValue(t *testing.T) {
	value := struct {
		Name string `json:"name"`
	}{
		Name: "Bill",
	}

	h1 := digest.Hash(value)
	h2 := digest.Hash(value)
	if h1 != h2 {
		t.Fatalf("Should get the same hash twice for the same value.")
	}

	// Hash of a value is the digest of its JSON form.
	if h1 != digest.SumHex([]byte(`{"name":"Bill"}`)) {
		t.Fatalf("Should hash the JSON form of the value.")
	}
}
