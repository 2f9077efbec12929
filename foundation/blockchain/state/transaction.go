package state

import (
	"context"
	"fmt"

	"github.com/powledger/blockchain/foundation/blockchain/database"
	"github.com/powledger/blockchain/foundation/blockchain/verify"
)

// SubmitWalletTransaction accepts a transaction from a wallet for inclusion
// and forwards it to the known peers. When a peer answers with a conflict
// ErrConflict is returned even though the transaction stays in the local
// mempool, and the node is flagged for conflict resolution.
func (s *State) SubmitWalletTransaction(ctx context.Context, tx database.Tx) error {
	if err := s.acceptTransaction(tx); err != nil {
		return err
	}

	if s.netSendTxToPeers(ctx, tx) {
		return ErrConflict
	}

	return nil
}

// SubmitPeerTransaction accepts a transaction broadcast by another node.
// The transaction is not forwarded any further.
func (s *State) SubmitPeerTransaction(tx database.Tx) error {
	return s.acceptTransaction(tx)
}

// =============================================================================

// acceptTransaction validates the transaction against the current balances
// and adds it to the mempool.
func (s *State) acceptTransaction(tx database.Tx) error {
	s.evHandler("state: acceptTransaction: started: tx[%s]", tx)
	defer s.evHandler("state: acceptTransaction: completed")

	if err := tx.Check(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pool := s.mempool.Copy()
	balance := func(account database.AccountID) (float64, error) {
		return s.balanceLocked(account, pool), nil
	}

	if err := verify.Transaction(tx, balance); err != nil {
		s.evHandler("state: acceptTransaction: rejected: %s", err)
		return err
	}

	n, err := s.mempool.Add(tx)
	if err != nil {
		return fmt.Errorf("tx[%s]: %w", tx, err)
	}

	s.evHandler("state: acceptTransaction: mempool[%d]", n)
	s.saveLocked()
	s.txEvent(tx)

	return nil
}
