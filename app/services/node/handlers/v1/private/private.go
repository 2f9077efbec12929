// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"net/http"

	"github.com/powledger/blockchain/business/web/errs"
	"github.com/powledger/blockchain/foundation/blockchain/database"
	"github.com/powledger/blockchain/foundation/blockchain/mempool"
	"github.com/powledger/blockchain/foundation/blockchain/state"
	"github.com/powledger/blockchain/foundation/blockchain/verify"
	"github.com/powledger/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// SubmitNodeTransaction adds a transaction broadcast by another node to the
// mempool. The transaction is not forwarded any further.
func (h Handlers) SubmitNodeTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tx database.Tx
	if err := web.Decode(r, &tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("add peer tran", "traceid", v.TraceID, "tx", tx.String())

	if err := h.State.SubmitPeerTransaction(tx); err != nil {
		switch {
		case errors.Is(err, database.ErrMalformed),
			errors.Is(err, verify.ErrInvalidSignature),
			errors.Is(err, mempool.ErrDuplicate):
			return errs.NewTrusted(err, http.StatusBadRequest)

		case errors.Is(err, verify.ErrInsufficientFunds):
			return errs.NewTrusted(err, http.StatusConflict)
		}

		return err
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// ProposeBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var block database.Block
	if err := web.Decode(r, &block); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("propose block", "traceid", v.TraceID, "index", block.Index, "prevhash", block.PreviousHash)

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "block added",
	}

	if err := h.State.ProcessPeerBlock(block); err != nil {
		if errors.Is(err, state.ErrChainAhead) {
			resp.Status = "block ahead of local chain, conflict raised"
			return web.Respond(ctx, w, resp, http.StatusOK)
		}

		return errs.NewTrusted(err, http.StatusConflict)
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Chain returns the full chain so peers can resolve conflicts.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveChain(), http.StatusOK)
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveStatus(), http.StatusOK)
}
