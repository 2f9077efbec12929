// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/powledger/blockchain/business/sys/metrics"
	"github.com/powledger/blockchain/business/sys/validate"
	"github.com/powledger/blockchain/business/web/errs"
	"github.com/powledger/blockchain/foundation/blockchain/database"
	"github.com/powledger/blockchain/foundation/blockchain/mempool"
	"github.com/powledger/blockchain/foundation/blockchain/peer"
	"github.com/powledger/blockchain/foundation/blockchain/state"
	"github.com/powledger/blockchain/foundation/blockchain/verify"
	"github.com/powledger/blockchain/foundation/blockchain/worker"
	"github.com/powledger/blockchain/foundation/events"
	"github.com/powledger/blockchain/foundation/nameservice"
	"github.com/powledger/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of public ledger endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	State  *state.State
	Worker *worker.Worker
	NS     *nameservice.NameService
	WS     websocket.Upgrader
	Evts   *events.Events
	Key    *ecdsa.PrivateKey
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
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitWalletTransaction adds a transaction signed by a wallet to the
// mempool and shares it with the known peers.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var dbTx database.Tx
	if err := web.Decode(r, &dbTx); err != nil {
		return badRequest(err)
	}

	h.Log.Infow("add wallet tran", "traceid", v.TraceID, "tx", dbTx.String())

	return h.submit(ctx, w, dbTx)
}

// SendTransaction builds a transaction from the node identity, signs it
// with the node key and submits it like a wallet transaction.
func (h Handlers) SendTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	if h.Key == nil {
		return errs.NewTrusted(state.ErrNoIdentity, http.StatusBadRequest)
	}

	var ntx newTx
	if err := web.Decode(r, &ntx); err != nil {
		return badRequest(err)
	}

	recipient, err := h.NS.Resolve(ntx.Recipient)
	if err != nil {
		return errs.NewTrustedf(http.StatusBadRequest, "recipient %q: %w", ntx.Recipient, err)
	}

	dbTx, err := database.NewTx(database.PublicKeyToAccountID(h.Key.PublicKey), recipient, ntx.Amount)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	signed, err := dbTx.Sign(h.Key)
	if err != nil {
		return err
	}

	h.Log.Infow("send node tran", "traceid", v.TraceID, "tx", signed.String())

	return h.submit(ctx, w, signed)
}

// submit hands the transaction to the state and maps the outcome onto a
// response.
func (h Handlers) submit(ctx context.Context, w http.ResponseWriter, dbTx database.Tx) error {
	if err := h.State.SubmitWalletTransaction(ctx, dbTx); err != nil {
		switch {
		case errors.Is(err, state.ErrConflict):
			metrics.AddTxs()
			return errs.NewTrusted(err, http.StatusConflict)

		case errors.Is(err, database.ErrMalformed),
			errors.Is(err, verify.ErrInvalidSignature),
			errors.Is(err, verify.ErrInsufficientFunds),
			errors.Is(err, mempool.ErrDuplicate):
			return errs.NewTrusted(err, http.StatusBadRequest)
		}

		return err
	}

	metrics.AddTxs()

	resp := submitted{
		Status: "transaction added to mempool",
		Tx:     toTx(h.NS, dbTx),
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Mempool returns the set of open transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toTxs(h.NS, h.State.RetrieveMempool()), http.StatusOK)
}

// Balance returns the balance of an account, or of the node identity when
// no account is given. An account may be given by name.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var account database.AccountID

	if param := web.Param(r, "account"); param != "" {
		var err error
		if account, err = h.NS.Resolve(param); err != nil {
			return errs.NewTrustedf(http.StatusBadRequest, "account %q: %w", param, err)
		}
	}

	amount, err := h.State.QueryBalance(account)
	if err != nil {
		if errors.Is(err, state.ErrNoIdentity) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return err
	}

	if account == "" {
		account = h.State.RetrieveIdentity()
	}

	resp := balance{
		Account: account,
		Name:    h.NS.Lookup(account),
		Balance: amount,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Chain returns the full chain with the hash of every block.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	dbChain := h.State.RetrieveChain()

	resp := chain{
		Length: len(dbChain),
		Blocks: make([]block, len(dbChain)),
	}
	for i, dbBlock := range dbChain {
		resp.Blocks[i] = toBlock(h.NS, dbBlock)
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mine asks the worker to mine the next block from the mempool.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	dbBlock, err := h.Worker.Mine(ctx)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrNoIdentity):
			return errs.NewTrusted(err, http.StatusBadRequest)

		case errors.Is(err, state.ErrChainChanged),
			errors.Is(err, context.Canceled),
			errors.Is(err, verify.ErrInvalidSignature):
			return errs.NewTrustedf(http.StatusConflict, "mining aborted: %w", err)

		case errors.Is(err, worker.ErrShutdown):
			return errs.NewTrusted(err, http.StatusServiceUnavailable)
		}

		return err
	}

	metrics.AddBlocks()

	resp := mined{
		Block:           toBlock(h.NS, dbBlock),
		ConflictPending: h.State.IsConflictPending(),
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Resolve replaces the local chain with the longest valid chain known to
// the peers.
func (h Handlers) Resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	replaced, err := h.State.ResolveConflicts(ctx)
	if err != nil {
		return err
	}

	resp := resolved{
		Replaced:    replaced,
		ChainLength: len(h.State.RetrieveChain()),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Peers returns the known peers.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveKnownPeers(), http.StatusOK)
}

// AddPeer adds a node to the known peers.
func (h Handlers) AddPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var np newPeer
	if err := web.Decode(r, &np); err != nil {
		return badRequest(err)
	}

	p := peer.New(np.Host)
	if !h.State.AddKnownPeer(p) {
		return web.Respond(ctx, w, h.State.RetrieveKnownPeers(), http.StatusOK)
	}

	return web.Respond(ctx, w, h.State.RetrieveKnownPeers(), http.StatusCreated)
}

// RemovePeer removes a node from the known peers.
func (h Handlers) RemovePeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	host := web.Param(r, "host")

	if !h.State.RemoveKnownPeer(peer.New(host)) {
		return errs.NewTrustedf(http.StatusNotFound, "peer %q is not known", host)
	}

	return web.Respond(ctx, w, h.State.RetrieveKnownPeers(), http.StatusOK)
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := status{
		PeerStatus:  h.State.RetrieveStatus(),
		Identity:    h.State.RetrieveIdentity(),
		Host:        h.State.RetrieveHost(),
		Difficulty:  h.State.RetrieveDifficulty(),
		LatestBlock: toBlock(h.NS, h.State.RetrieveLatestBlock()),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Verify checks the local chain and the open transactions.
func (h Handlers) Verify(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := verification{
		Chain:   "valid",
		Mempool: "valid",
	}

	statusCode := http.StatusOK

	if err := h.State.VerifyChain(); err != nil {
		resp.Chain = err.Error()
		statusCode = http.StatusConflict
	}

	if err := h.State.VerifyMempool(); err != nil {
		resp.Mempool = err.Error()
		statusCode = http.StatusConflict
	}

	return web.Respond(ctx, w, resp, statusCode)
}

// =============================================================================

// badRequest keeps field errors as they are so the client sees every field
// that failed, anything else becomes a trusted 400.
func badRequest(err error) error {
	if validate.IsFieldErrors(err) {
		return err
	}
	return errs.NewTrusted(err, http.StatusBadRequest)
}
