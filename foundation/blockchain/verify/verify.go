// Package verify provides the stateless checks the ledger runs over
// transactions, blocks and chains.
package verify

import (
	"errors"
	"fmt"

	"github.com/powledger/blockchain/foundation/blockchain/database"
	"github.com/powledger/blockchain/foundation/blockchain/pow"
)

// Set of errors returned when a check fails.
var (
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidProof      = errors.New("invalid proof")
	ErrHashMismatch      = errors.New("previous hash does not match")
)

// BalanceFunc returns the spendable balance of an account.
type BalanceFunc func(account database.AccountID) (float64, error)

// Transaction checks the signature of the transaction was produced by the
// sender over the payload and that the sender can afford the amount. A
// balance that cannot be computed fails the check.
func Transaction(tx database.Tx, balance BalanceFunc) error {
	if err := tx.VerifySignature(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	funds, err := balance(tx.Sender)
	if err != nil {
		return fmt.Errorf("%w: balance unavailable for %s: %s", ErrInsufficientFunds, tx.Sender, err)
	}

	if funds < tx.Amount {
		return fmt.Errorf("%w: %s has %g, needs %g", ErrInsufficientFunds, tx.Sender, funds, tx.Amount)
	}

	return nil
}

// PriorBalanceFunc returns the spendable balance of an account once the
// specified earlier transactions are counted.
type PriorBalanceFunc func(account database.AccountID, prior []database.Tx) (float64, error)

// Transactions checks every transaction in order against the balance its
// sender had when it was accepted. The transactions ahead of it in the list
// are handed to the balance function.
func Transactions(txs []database.Tx, balance PriorBalanceFunc) error {
	for i, tx := range txs {
		prior := txs[:i]
		funds := func(account database.AccountID) (float64, error) {
			return balance(account, prior)
		}

		if err := Transaction(tx, funds); err != nil {
			return fmt.Errorf("tx[%d]: %w", i, err)
		}
	}

	return nil
}

// Signatures checks the signature of every transaction without looking at
// balances.
func Signatures(txs []database.Tx) error {
	for i, tx := range txs {
		if err := tx.VerifySignature(); err != nil {
			return fmt.Errorf("tx[%d]: %w: %s", i, ErrInvalidSignature, err)
		}
	}

	return nil
}

// Block checks the block links to the previous block and carries a valid
// proof over its transactions, excluding the trailing coinbase.
func Block(block database.Block, previous database.Block, difficulty uint) error {
	if exp := previous.Hash(); block.PreviousHash != exp {
		return fmt.Errorf("%w: block %d: got %s, exp %s", ErrHashMismatch, block.Index, block.PreviousHash, exp)
	}

	if !pow.ValidProof(difficulty, block.ProofTransactions(), block.PreviousHash, block.Proof) {
		return fmt.Errorf("%w: block %d: proof %d", ErrInvalidProof, block.Index, block.Proof)
	}

	return nil
}

// Chain checks every block after genesis against the block before it.
func Chain(chain []database.Block, difficulty uint) error {
	for i := 1; i < len(chain); i++ {
		if err := Block(chain[i], chain[i-1], difficulty); err != nil {
			return err
		}
	}

	return nil
}
