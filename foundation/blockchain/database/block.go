package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/textchain/blockchain/foundation/blockchain/digest"
	"github.com/textchain/blockchain/foundation/blockchain/genesis"
)

// ErrStaleTip is returned when a mined block no longer links to the
// current tip of the chain. The caller should refresh and retry.
var ErrStaleTip = errors.New("stale chain tip, refresh and retry")

// =============================================================================

// Block represents a group of transactions hash-linked into the chain.
type Block struct {
	Index        uint64 `json:"index"`
	Timestamp    uint64 `json:"timestamp"`
	Transactions []Tx   `json:"transactions"`
	PrevHash     string `json:"previous_hash"`
	Nonce        uint64 `json:"nonce"`
	Hash         string `json:"hash"`
}

// blockContent mirrors the hashed portion of a block. The stored hash is
// never part of its own preimage.
type blockContent struct {
	Index        uint64 `json:"index"`
	Timestamp    uint64 `json:"timestamp"`
	Transactions []Tx   `json:"transactions"`
	PrevHash     string `json:"previous_hash"`
	Nonce        uint64 `json:"nonce"`
}

// GenesisBlock constructs block zero from the genesis file. It is fully
// determined by the file so every node and every restart agrees on it.
func GenesisBlock(gen genesis.Genesis) Block {
	b := Block{
		Index:        0,
		Timestamp:    uint64(gen.Date.Unix()),
		Transactions: []Tx{},
		PrevHash:     digest.ZeroHex,
		Nonce:        0,
	}
	b.Hash = b.ComputeHash()

	return b
}

// ComputeHash derives the block's hash from its stated fields.
func (b Block) ComputeHash() string {
	content := blockContent{
		Index:        b.Index,
		Timestamp:    b.Timestamp,
		Transactions: b.Transactions,
		PrevHash:     b.PrevHash,
		Nonce:        b.Nonce,
	}

	return digest.Hash(content)
}

// ValidateBlock takes a block and validates it for inclusion after the
// specified previous block.
func (b Block) ValidateBlock(prevBlock Block, difficulty uint, ev func(v string, args ...any)) error {
	ev("database: ValidateBlock: blk[%d]: check: block index is the next index", b.Index)

	if b.Index != prevBlock.Index+1 {
		return fmt.Errorf("block index is not the next index, got %d, exp %d", b.Index, prevBlock.Index+1)
	}

	ev("database: ValidateBlock: blk[%d]: check: previous hash matches the tip", b.Index)

	if b.PrevHash != prevBlock.Hash {
		return fmt.Errorf("%w: got %s, exp %s", ErrStaleTip, b.PrevHash, prevBlock.Hash)
	}

	ev("database: ValidateBlock: blk[%d]: check: stated hash matches the content", b.Index)

	if h := b.ComputeHash(); h != b.Hash {
		return fmt.Errorf("block hash does not match the content, got %s, exp %s", b.Hash, h)
	}

	ev("database: ValidateBlock: blk[%d]: check: block hash has been solved", b.Index)

	if !isHashSolved(difficulty, b.Hash) {
		return fmt.Errorf("block hash %s does not meet difficulty %d", b.Hash, difficulty)
	}

	ev("database: ValidateBlock: blk[%d]: check: block timestamp is not before the tip", b.Index)

	if b.Timestamp < prevBlock.Timestamp {
		return fmt.Errorf("block timestamp %d is before the previous block's %d", b.Timestamp, prevBlock.Timestamp)
	}

	ev("database: ValidateBlock: blk[%d]: check: every transaction signature verifies", b.Index)

	for i, tx := range b.Transactions {
		if err := tx.Verify(); err != nil {
			return fmt.Errorf("transaction %d in block %d: %w", i, b.Index, err)
		}
	}

	return nil
}

// =============================================================================

// POW constructs a new block from the previous block and the specified
// transactions, then searches for a nonce whose hash satisfies the
// difficulty predicate. The search is unbounded but honors context
// cancellation.
func POW(ctx context.Context, difficulty uint, prevBlock Block, trans []Tx, ev func(v string, args ...any)) (Block, error) {
	ev("database: POW: MINING: started: txs[%d]", len(trans))
	defer ev("database: POW: MINING: completed")

	nb := Block{
		Index:        prevBlock.Index + 1,
		Timestamp:    uint64(time.Now().UTC().Unix()),
		Transactions: trans,
		PrevHash:     prevBlock.Hash,
		Nonce:        0,
	}

	var attempts uint64
	for {
		attempts++
		if attempts%100_000 == 0 {
			ev("database: POW: MINING: attempts[%d]", attempts)
		}

		if ctx.Err() != nil {
			ev("database: POW: MINING: CANCELLED")
			return Block{}, ctx.Err()
		}

		hash := nb.ComputeHash()
		if !isHashSolved(difficulty, hash) {
			nb.Nonce++
			continue
		}

		ev("database: POW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", nb.PrevHash, hash)
		ev("database: POW: MINING: attempts[%d]", attempts)

		nb.Hash = hash
		return nb, nil
	}
}

// isHashSolved checks the hash complies with the proof of work rule: the
// hex form must start with difficulty zero characters.
func isHashSolved(difficulty uint, hash string) bool {
	if len(hash) != digest.Size*2 || difficulty > digest.Size*2 {
		return false
	}

	return strings.HasPrefix(hash, strings.Repeat("0", int(difficulty)))
}
