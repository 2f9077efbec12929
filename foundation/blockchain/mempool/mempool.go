// Package mempool maintains the pool of open transactions waiting to be
// mined into a block.
package mempool

import (
	"errors"
	"sync"

	"github.com/powledger/blockchain/foundation/blockchain/database"
)

// ErrDuplicate is returned when a transaction equal to one already in the
// pool is added.
var ErrDuplicate = errors.New("transaction already in the mempool")

// Mempool represents the open transactions in the order they were
// accepted. Transactions are compared structurally.
type Mempool struct {
	pool []database.Tx
	mu   sync.RWMutex
}

// New constructs a new empty mempool.
func New() *Mempool {
	return &Mempool{
		pool: []database.Tx{},
	}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Add appends a transaction to the end of the pool.
func (mp *Mempool) Add(tx database.Tx) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for _, existing := range mp.pool {
		if existing.Equals(tx) {
			return len(mp.pool), ErrDuplicate
		}
	}

	mp.pool = append(mp.pool, tx)

	return len(mp.pool), nil
}

// Delete removes every pooled transaction that matches one of the
// specified transactions and returns how many were removed.
func (mp *Mempool) Delete(txs ...database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	keep := make([]database.Tx, 0, len(mp.pool))
	for _, existing := range mp.pool {
		if !contains(txs, existing) {
			keep = append(keep, existing)
		}
	}

	removed := len(mp.pool) - len(keep)
	mp.pool = keep

	return removed
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = []database.Tx{}
}

// Replace swaps the content of the pool with the specified transactions.
func (mp *Mempool) Replace(txs []database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = database.CopyTxs(txs)
}

// Copy returns the pooled transactions in the order they were accepted.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return database.CopyTxs(mp.pool)
}

// =============================================================================

func contains(txs []database.Tx, tx database.Tx) bool {
	for _, other := range txs {
		if other.Equals(tx) {
			return true
		}
	}

	return false
}
