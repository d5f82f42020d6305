// Package worker implements the mining workflow for the node. A single
// goroutine owns the proof of work search so concurrent mine requests
// serialize without holding any lock during the search.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/textchain/blockchain/foundation/blockchain/database"
	"github.com/textchain/blockchain/foundation/blockchain/state"
)

// ErrShuttingDown is returned for mine requests that arrive while the
// node is going down.
var ErrShuttingDown = errors.New("node is shutting down")

// maxPendingRequests bounds how many mine requests can queue behind the
// one being worked.
const maxPendingRequests = 8

// =============================================================================

// mineRequest represents one caller waiting for a block to be mined.
type mineRequest struct {
	ctx          context.Context
	minerAddress string
	result       chan mineResult
}

type mineResult struct {
	block database.Block
	err   error
}

// Worker manages the mining workflow for the node.
type Worker struct {
	state        *state.State
	wg           sync.WaitGroup
	shut         chan struct{}
	mineRequests chan mineRequest
	evHandler    state.EventHandler

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Run creates a worker, registers the worker with the state package, and
// starts up the mining goroutine.
func Run(st *state.State, evHandler state.EventHandler) {
	w := Worker{
		state:        st,
		shut:         make(chan struct{}),
		mineRequests: make(chan mineRequest, maxPendingRequests),
		evHandler:    evHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// We don't want to return until we know the G is up and running.
	hasStarted := make(chan bool)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		hasStarted <- true
		w.miningOperations()
	}()

	<-hasStarted
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: signal cancel mining")
	w.SignalCancelMining()

	w.evHandler("worker: shutdown: terminate goroutine")
	close(w.shut)
	w.wg.Wait()
}

// SignalCancelMining stops any in-flight proof of work search
// immediately. Callers waiting on that search receive a cancellation
// error.
func (w *Worker) SignalCancelMining() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}
	w.evHandler("worker: SignalCancelMining: MINING: CANCEL: signaled")
}

// SubmitMineRequest queues a mining request and waits for the result.
// Requests are worked one at a time in arrival order. The caller's
// context bounds both the wait and the search itself.
func (w *Worker) SubmitMineRequest(ctx context.Context, minerAddress string) (database.Block, error) {
	req := mineRequest{
		ctx:          ctx,
		minerAddress: minerAddress,
		result:       make(chan mineResult, 1),
	}

	select {
	case w.mineRequests <- req:
	case <-w.shut:
		return database.Block{}, ErrShuttingDown
	case <-ctx.Done():
		return database.Block{}, ctx.Err()
	}

	select {
	case res := <-req.result:
		return res.block, res.err
	case <-w.shut:
		return database.Block{}, ErrShuttingDown
	}
}

// =============================================================================

// miningOperations handles mining requests one at a time.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case req := <-w.mineRequests:
			if !w.isShutdown() {
				w.runMiningOperation(req)
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation performs one mining attempt and delivers the result
// to the waiting caller.
func (w *Worker) runMiningOperation(req mineRequest) {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	// Tie the search to the caller's context and keep the cancel
	// function where SignalCancelMining can reach it.
	ctx, cancel := context.WithCancel(req.ctx)
	defer cancel()

	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.cancel = nil
		w.mu.Unlock()
	}()

	block, err := w.state.MineNewBlock(ctx, req.minerAddress)

	// The result channel is buffered so delivery never blocks, even if
	// the caller already gave up on its context.
	req.result <- mineResult{block: block, err: err}
}

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
