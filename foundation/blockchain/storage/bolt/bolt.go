// Package bolt implements the ledger store on top of a bolt key/value
// database. The chain, the open transactions and the known peers are kept
// as three JSON documents in a single bucket.
package bolt

import (
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"github.com/powledger/blockchain/foundation/blockchain/storage"
)

// Bucket and keys used to store the ledger documents.
var (
	bucketName = []byte("ledger")
	keyChain   = []byte("chain")
	keyMempool = []byte("mempool")
	keyPeers   = []byte("peers")
)

// Bolt represents the serialization implementation for reading and storing
// the ledger state in a bolt database. This implements the storage.Store
// interface.
type Bolt struct {
	db *bolt.DB
}

// New opens or creates the bolt database at the specified path.
func New(dbPath string) (*Bolt, error) {
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Close releases the database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Load reads the three documents back into a snapshot.
func (b *Bolt) Load() (storage.Snapshot, error) {
	var docs storage.Documents

	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		if bucket == nil {
			return storage.ErrNoState
		}

		// Values are only valid for the life of the transaction.
		docs.Chain = clone(bucket.Get(keyChain))
		docs.Mempool = clone(bucket.Get(keyMempool))
		docs.Peers = clone(bucket.Get(keyPeers))

		return nil
	})
	if err != nil {
		return storage.Snapshot{}, err
	}

	if docs.Chain == nil {
		return storage.Snapshot{}, storage.ErrNoState
	}

	return storage.Decode(docs)
}

// Save writes the three documents in a single transaction.
func (b *Bolt) Save(snapshot storage.Snapshot) error {
	docs, err := storage.Encode(snapshot)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}

		if err := bucket.Put(keyChain, docs.Chain); err != nil {
			return err
		}

		if err := bucket.Put(keyMempool, docs.Mempool); err != nil {
			return err
		}

		return bucket.Put(keyPeers, docs.Peers)
	})
}

func clone(v []byte) []byte {
	if v == nil {
		return nil
	}

	return append([]byte{}, v...)
}
