package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/textchain/blockchain/business/web/errs"
	"github.com/textchain/blockchain/foundation/blockchain/database"
	"github.com/textchain/blockchain/foundation/blockchain/signature"
	"github.com/textchain/blockchain/foundation/blockchain/state"
	"github.com/textchain/blockchain/foundation/events"
	"github.com/textchain/blockchain/foundation/nameservice"
	"github.com/textchain/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log         *zap.SugaredLogger
	State       *state.State
	NS          *nameservice.NameService
	WS          websocket.Upgrader
	Evts        *events.Events
	DevSigning  bool
	MineTimeout time.Duration
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Chain returns the full chain from genesis to tip.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks := h.State.RetrieveChain()

	info := chainInfo{
		Length: len(blocks),
		Chain:  blocks,
		Valid:  h.State.Validate() == nil,
	}

	return web.Respond(ctx, w, info, http.StatusOK)
}

// ValidateChain runs the full consistency check and reports the first
// inconsistency found. A corrupt chain is reported, never repaired.
func (h Handlers) ValidateChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.State.Validate(); err != nil {
		return errs.NewTrusted(fmt.Errorf("chain integrity fault: %w", err), http.StatusInternalServerError)
	}

	return web.Respond(ctx, w, validInfo{Valid: true}, http.StatusOK)
}

// Pending returns the current mempool snapshot.
func (h Handlers) Pending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txs := h.State.RetrieveMempool()
	return web.Respond(ctx, w, txs, http.StatusOK)
}

// NewWallet generates a fresh key pair and returns it. The node keeps
// no copy of either key.
func (h Handlers) NewWallet(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	kp, err := signature.Generate()
	if err != nil {
		return fmt.Errorf("unable to generate wallet: %w", err)
	}

	h.Log.Infow("new wallet", "traceid", web.GetTraceID(ctx), "public_key", h.NS.Lookup(kp.PublicKey))

	return web.Respond(ctx, w, kp, http.StatusOK)
}

// SubmitTransaction adds a caller-signed transaction to the mempool.
// This is the production contract: the private key never leaves the
// wallet.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var payload newTx
	if err := web.Decode(r, &payload); err != nil {
		return err
	}

	tx := database.Tx{
		Sender:    payload.Sender,
		Recipient: payload.Recipient,
		Message:   payload.Message,
		Signature: payload.Signature,
	}

	h.Log.Infow("submit tx", "traceid", web.GetTraceID(ctx), "from", h.NS.Lookup(tx.Sender), "to", h.NS.Lookup(tx.Recipient))

	if err := h.State.SubmitTransaction(tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := txInfo{
		Status:      "transaction added to mempool",
		Transaction: tx,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitTransactionWithKey signs a transaction with the supplied private
// key and adds it to the mempool. This is the original interactive demo
// contract and a deliberate trust reduction, so it sits behind the dev
// signing switch.
func (h Handlers) SubmitTransactionWithKey(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if !h.DevSigning {
		return errs.NewTrusted(errors.New("server side signing is disabled, submit a signed transaction instead"), http.StatusForbidden)
	}

	var payload newTxWithKey
	if err := web.Decode(r, &payload); err != nil {
		return err
	}

	tx, err := database.NewTx(payload.Sender, payload.Recipient, payload.Message).Sign(payload.PrivateKey)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit tx with key", "traceid", web.GetTraceID(ctx), "from", h.NS.Lookup(tx.Sender), "to", h.NS.Lookup(tx.Recipient))

	if err := h.State.SubmitTransaction(tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := txInfo{
		Status:      "transaction added to mempool",
		Transaction: tx,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mine drains the current mempool snapshot into a new block, searches
// for a proof of work nonce and appends the block to the chain. The
// request is synchronous and bounded by the configured mining timeout.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var payload mineRequest
	if err := web.Decode(r, &payload); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, h.MineTimeout)
	defer cancel()

	h.Log.Infow("mine", "traceid", web.GetTraceID(ctx), "miner", h.NS.Lookup(payload.MinerAddress))

	block, err := h.State.MineBlock(ctx, payload.MinerAddress)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return errs.NewTrusted(errors.New("mining still in progress, timed out waiting for a solution"), http.StatusRequestTimeout)

		case errors.Is(err, database.ErrStaleTip):
			return errs.NewTrusted(err, http.StatusConflict)

		default:
			return fmt.Errorf("unable to mine block: %w", err)
		}
	}

	resp := blockInfo{
		Status: "block mined",
		Block:  block,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
