package database

import (
	"fmt"
	"time"

	"github.com/powledger/blockchain/foundation/blockchain/signature"
)

// Genesis values for the first block of every chain.
const (
	genesisProof uint64 = 100
)

// Block represents a group of transactions batched together. The order of
// the transactions is significant for hashing and proof checks.
type Block struct {
	Index        uint64 `json:"index"`
	PreviousHash string `json:"previous_hash"`
	Transactions []Tx   `json:"transactions" validate:"dive"`
	Proof        uint64 `json:"proof"`
	TimeStamp    uint64 `json:"timestamp"`
}

// Genesis returns the fixed first block of every chain.
func Genesis() Block {
	return Block{
		Index:        0,
		PreviousHash: "",
		Transactions: []Tx{},
		Proof:        genesisProof,
		TimeStamp:    0,
	}
}

// NewBlock constructs a block that was just mined. The timestamp is the
// current time.
func NewBlock(index uint64, previousHash string, txs []Tx, proof uint64) Block {
	trans := make([]Tx, len(txs))
	copy(trans, txs)

	return Block{
		Index:        index,
		PreviousHash: previousHash,
		Transactions: trans,
		Proof:        proof,
		TimeStamp:    uint64(time.Now().UTC().Unix()),
	}
}

// Hash returns the unique hash for the block.
func (b Block) Hash() string {
	if b.Transactions == nil {
		b.Transactions = []Tx{}
	}

	return signature.Hash(b)
}

// ProofTransactions returns the transactions the proof was searched over.
// The last transaction of a mined block is the coinbase reward which is
// appended after the search.
func (b Block) ProofTransactions() []Tx {
	if len(b.Transactions) == 0 {
		return []Tx{}
	}

	return b.Transactions[:len(b.Transactions)-1]
}

// Check validates the shape of the block and its transactions.
func (b Block) Check() error {
	if b.Index > 0 {
		if b.PreviousHash == "" {
			return fmt.Errorf("%w: block %d: missing previous hash", ErrMalformed, b.Index)
		}

		if len(b.Transactions) == 0 {
			return fmt.Errorf("%w: block %d: missing coinbase transaction", ErrMalformed, b.Index)
		}

		if last := b.Transactions[len(b.Transactions)-1]; !last.IsCoinbase() || last.Signature != "" {
			return fmt.Errorf("%w: block %d: last transaction is not an unsigned coinbase", ErrMalformed, b.Index)
		}
	}

	for _, tx := range b.Transactions {
		if err := tx.Check(); err != nil {
			return fmt.Errorf("block %d: %w", b.Index, err)
		}
	}

	return check(b)
}

// Equals compares the blocks field by field.
func (b Block) Equals(other Block) bool {
	if b.Index != other.Index ||
		b.PreviousHash != other.PreviousHash ||
		b.Proof != other.Proof ||
		b.TimeStamp != other.TimeStamp ||
		len(b.Transactions) != len(other.Transactions) {
		return false
	}

	for i := range b.Transactions {
		if !b.Transactions[i].Equals(other.Transactions[i]) {
			return false
		}
	}

	return true
}
