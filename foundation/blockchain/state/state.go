// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/powledger/blockchain/foundation/blockchain/database"
	"github.com/powledger/blockchain/foundation/blockchain/mempool"
	"github.com/powledger/blockchain/foundation/blockchain/peer"
	"github.com/powledger/blockchain/foundation/blockchain/pow"
	"github.com/powledger/blockchain/foundation/blockchain/storage"
	"github.com/powledger/blockchain/foundation/blockchain/verify"
)

// DefaultMiningReward is paid to the miner of every block.
const DefaultMiningReward = 10

// Set of errors returned by the engine.
var (
	ErrNoIdentity   = errors.New("node has no identity")
	ErrConflict     = errors.New("a peer rejected the data, conflict resolution required")
	ErrChainChanged = errors.New("chain changed while mining")
	ErrChainAhead   = errors.New("block is ahead of the local chain, conflict resolution required")
	ErrChainBehind  = errors.New("block is at or behind the local chain tail")
	ErrCorruptChain = errors.New("stored chain is corrupt")
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of the ledger.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining.
type Worker interface {
	Shutdown()
	SignalCancelMining()
}

// Transport interface represents the behavior required to talk to the
// other nodes. A returned error means the peer could not be reached.
type Transport interface {
	SendTransaction(ctx context.Context, host string, tx database.Tx) (int, error)
	SendBlock(ctx context.Context, host string, block database.Block) (int, error)
	FetchChain(ctx context.Context, host string) ([]database.Block, error)
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Identity     database.AccountID
	Host         string
	Storage      storage.Store
	Transport    Transport
	KnownPeers   *peer.PeerSet
	Difficulty   uint
	MiningReward float64
	EvHandler    EventHandler
}

// State manages the chain, the open transactions and the known peers of a
// node. All changes to them are made through its methods.
type State struct {
	identity     database.AccountID
	host         string
	difficulty   uint
	miningReward float64
	evHandler    EventHandler

	mu       sync.Mutex
	chain    []database.Block
	conflict bool

	mempool    *mempool.Mempool
	knownPeers *peer.PeerSet
	storage    storage.Store
	transport  Transport

	Worker Worker
}

// New constructs a new blockchain for data management. Any previously
// saved state is loaded on a best effort basis, but a loaded chain that
// fails verification stops the node.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	if cfg.Difficulty == 0 {
		cfg.Difficulty = pow.DefaultDifficulty
	}

	if cfg.MiningReward == 0 {
		cfg.MiningReward = DefaultMiningReward
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	state := State{
		identity:     cfg.Identity,
		host:         cfg.Host,
		difficulty:   cfg.Difficulty,
		miningReward: cfg.MiningReward,
		evHandler:    ev,
		chain:        []database.Block{database.Genesis()},
		mempool:      mempool.New(),
		knownPeers:   knownPeers,
		storage:      cfg.Storage,
		transport:    cfg.Transport,
	}

	snapshot, err := cfg.Storage.Load()
	switch {
	case errors.Is(err, storage.ErrNoState):
		ev("state: New: no saved state, starting from genesis")

	case err != nil:
		ev("state: New: WARNING: unable to load saved state, starting from genesis: %s", err)

	default:
		if err := verify.Chain(snapshot.Chain, cfg.Difficulty); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptChain, err)
		}

		state.chain = snapshot.Chain
		state.mempool.Replace(snapshot.Mempool)
		for _, p := range snapshot.Peers {
			knownPeers.Add(p)
		}

		ev("state: New: loaded state: blocks[%d]: mempool[%d]: peers[%d]", len(snapshot.Chain), len(snapshot.Mempool), len(snapshot.Peers))
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	// Make sure the database file is properly closed.
	return s.storage.Close()
}

// =============================================================================

// saveLocked persists the current state. A failure is logged and the in
// memory state stands. The caller must hold the lock.
func (s *State) saveLocked() {
	snapshot := storage.Snapshot{
		Chain:   s.chain,
		Mempool: s.mempool.Copy(),
		Peers:   s.knownPeers.Copy(""),
	}

	if err := s.storage.Save(snapshot); err != nil {
		s.evHandler("state: save: ERROR: saving failed: %s", err)
	}
}

// balanceLocked computes the balance of the account from every block of
// the chain and the specified open transactions. Only amounts sent count
// from the open transactions. The caller must hold the lock.
func (s *State) balanceLocked(account database.AccountID, pool []database.Tx) float64 {
	var received, sent float64

	for _, block := range s.chain {
		for _, tx := range block.Transactions {
			if tx.Recipient == account {
				received += tx.Amount
			}
			if tx.Sender == account {
				sent += tx.Amount
			}
		}
	}

	for _, tx := range pool {
		if tx.Sender == account {
			sent += tx.Amount
		}
	}

	return received - sent
}

// signalCancelMining tells the worker any running search is stale.
func (s *State) signalCancelMining() {
	if s.Worker != nil {
		s.Worker.SignalCancelMining()
	}
}
