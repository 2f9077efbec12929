package database

import (
	"crypto/ecdsa"
	"fmt"
	"math"

	"github.com/powledger/blockchain/foundation/blockchain/signature"
)

// Tx is the transactional information between two parties. The coinbase
// transaction paying the mining reward uses MiningSender and carries no
// signature.
type Tx struct {
	Sender    AccountID `json:"sender" validate:"required"`
	Recipient AccountID `json:"recipient" validate:"required"`
	Signature string    `json:"signature"`
	Amount    float64   `json:"amount" validate:"gte=0"`
}

// NewTx constructs a new unsigned transaction.
func NewTx(sender AccountID, recipient AccountID, amount float64) (Tx, error) {
	tx := Tx{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	}

	if err := tx.Check(); err != nil {
		return Tx{}, err
	}

	return tx, nil
}

// NewCoinbaseTx constructs the reward transaction appended to every mined
// block.
func NewCoinbaseTx(recipient AccountID, reward float64) Tx {
	return Tx{
		Sender:    MiningSender,
		Recipient: recipient,
		Amount:    reward,
	}
}

// Sign uses the specified private key to sign the transaction. Only the
// sender, recipient and amount are covered by the signature.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (Tx, error) {
	if PublicKeyToAccountID(privateKey.PublicKey) != tx.Sender {
		return Tx{}, fmt.Errorf("private key does not belong to sender %s", tx.Sender)
	}

	sig, err := signature.Sign(tx.payload(), privateKey)
	if err != nil {
		return Tx{}, err
	}

	tx.Signature = sig
	return tx, nil
}

// VerifySignature verifies the transaction has a proper signature that
// was produced by the sender over the transaction payload.
func (tx Tx) VerifySignature() error {
	return signature.VerifySignature(tx.payload(), tx.Signature, string(tx.Sender))
}

// IsCoinbase reports whether this is a mining reward transaction.
func (tx Tx) IsCoinbase() bool {
	return tx.Sender == MiningSender
}

// Equals compares all fields of the two transactions.
func (tx Tx) Equals(other Tx) bool {
	return tx.Sender == other.Sender &&
		tx.Recipient == other.Recipient &&
		tx.Signature == other.Signature &&
		tx.Amount == other.Amount
}

// Check validates the shape of the transaction. It does not look at the
// signature or the sender's balance. Accounts must be in checksummed form
// since balances match them byte for byte.
func (tx Tx) Check() error {
	if math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0) {
		return fmt.Errorf("%w: amount is not a finite number", ErrMalformed)
	}

	if err := check(tx); err != nil {
		return err
	}

	if !tx.IsCoinbase() && !tx.Sender.IsCanonical() {
		return fmt.Errorf("%w: sender %s is not a checksummed account", ErrMalformed, tx.Sender)
	}

	if !tx.Recipient.IsCanonical() {
		return fmt.Errorf("%w: recipient %s is not a checksummed account", ErrMalformed, tx.Recipient)
	}

	return nil
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s->%s:%g", tx.Sender, tx.Recipient, tx.Amount)
}

// payload is the portion of the transaction covered by the signature.
func (tx Tx) payload() txPayload {
	return txPayload{
		Sender:    tx.Sender,
		Recipient: tx.Recipient,
		Amount:    tx.Amount,
	}
}

// txPayload is the value the sender signs.
type txPayload struct {
	Sender    AccountID `json:"sender"`
	Recipient AccountID `json:"recipient"`
	Amount    float64   `json:"amount"`
}
