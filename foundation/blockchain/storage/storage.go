// Package storage defines how the ledger state is persisted between runs
// of a node and the document layout shared by the backends.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/powledger/blockchain/foundation/blockchain/database"
	"github.com/powledger/blockchain/foundation/blockchain/peer"
)

// ErrNoState is returned by Load when nothing has been saved yet.
var ErrNoState = errors.New("no saved state")

// Store is the behavior required to persist the ledger state.
type Store interface {
	Load() (Snapshot, error)
	Save(snapshot Snapshot) error
	Close() error
}

// Snapshot is the state of a node at a point in time: the chain, the open
// transactions and the known peers.
type Snapshot struct {
	Chain   []database.Block
	Mempool []database.Tx
	Peers   []peer.Peer
}

// =============================================================================

// Documents is the serialized form of a snapshot. Each document is a
// single line of JSON.
type Documents struct {
	Chain   []byte
	Mempool []byte
	Peers   []byte
}

// Encode converts the snapshot into its three documents. Peers are stored
// as a plain list of hosts.
func Encode(snapshot Snapshot) (Documents, error) {
	chain := snapshot.Chain
	if chain == nil {
		chain = []database.Block{}
	}

	mempool := snapshot.Mempool
	if mempool == nil {
		mempool = []database.Tx{}
	}

	hosts := make([]string, len(snapshot.Peers))
	for i, p := range snapshot.Peers {
		hosts[i] = p.Host
	}

	var docs Documents
	var err error

	if docs.Chain, err = json.Marshal(chain); err != nil {
		return Documents{}, fmt.Errorf("encode chain: %w", err)
	}

	if docs.Mempool, err = json.Marshal(mempool); err != nil {
		return Documents{}, fmt.Errorf("encode mempool: %w", err)
	}

	if docs.Peers, err = json.Marshal(hosts); err != nil {
		return Documents{}, fmt.Errorf("encode peers: %w", err)
	}

	return docs, nil
}

// Decode converts the three documents back into a snapshot. The chain and
// open transactions are checked against the data model schema.
func Decode(docs Documents) (Snapshot, error) {
	var snapshot Snapshot

	if err := json.Unmarshal(docs.Chain, &snapshot.Chain); err != nil {
		return Snapshot{}, fmt.Errorf("decode chain: %w", err)
	}

	if err := database.CheckChain(snapshot.Chain); err != nil {
		return Snapshot{}, fmt.Errorf("decode chain: %w", err)
	}

	if err := json.Unmarshal(docs.Mempool, &snapshot.Mempool); err != nil {
		return Snapshot{}, fmt.Errorf("decode mempool: %w", err)
	}

	for _, tx := range snapshot.Mempool {
		if err := tx.Check(); err != nil {
			return Snapshot{}, fmt.Errorf("decode mempool: %w", err)
		}
	}

	var hosts []string
	if err := json.Unmarshal(docs.Peers, &hosts); err != nil {
		return Snapshot{}, fmt.Errorf("decode peers: %w", err)
	}

	snapshot.Peers = make([]peer.Peer, len(hosts))
	for i, host := range hosts {
		snapshot.Peers[i] = peer.New(host)
	}

	if snapshot.Mempool == nil {
		snapshot.Mempool = []database.Tx{}
	}

	return snapshot, nil
}
