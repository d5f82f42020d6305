package state

import (
	"context"

	"github.com/textchain/blockchain/foundation/blockchain/database"
)

// MineBlock asks the worker to mine the pending transactions into the
// next block for the specified miner address. The call is synchronous
// and honors the caller's context for cancellation and timeout.
func (s *State) MineBlock(ctx context.Context, minerAddress string) (database.Block, error) {
	return s.Worker.SubmitMineRequest(ctx, minerAddress)
}

// MineNewBlock performs one full mining attempt: snapshot the mempool,
// add the reward transaction, search for a nonce and append the block.
// Only the worker's mining goroutine calls this.
func (s *State) MineNewBlock(ctx context.Context, minerAddress string) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: snapshot mempool")

	// Transactions submitted after this point stay pending for the
	// next block. Mining with an empty pool is legal, the block then
	// carries just the reward.
	snapshot := s.mempool.Snapshot()
	trans := make([]database.Tx, 0, len(snapshot)+1)
	trans = append(trans, snapshot...)
	trans = append(trans, database.NewRewardTx(minerAddress))

	s.evHandler("state: MineNewBlock: MINING: perform POW")

	// The nonce search runs outside every lock so it never blocks
	// submissions or chain reads. It can be cancelled.
	block, err := database.POW(ctx, s.genesis.Difficulty, s.db.LatestBlock(), trans, s.evHandler)
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: update local state")

	// Write validates the link to the tip under the database lock. If
	// another block won the race this returns ErrStaleTip and the
	// mempool is left untouched for the retry.
	if err := s.db.Write(block, s.evHandler); err != nil {
		return database.Block{}, err
	}

	// Remove exactly the snapshot from the mempool, not the reward
	// and not anything submitted since.
	s.mempool.Drain(snapshot)

	return block, nil
}
