// Package database defines the data model of the ledger: accounts,
// transactions, blocks and the chain they form.
package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrMalformed is returned when a transaction or block fails schema checks.
var ErrMalformed = errors.New("malformed data")

// validate holds the schema validator for the data model.
var validate = validator.New()

// check runs the struct tags of the value through the validator.
func check(value any) error {
	if err := validate.Struct(value); err != nil {
		var verrors validator.ValidationErrors
		if !errors.As(err, &verrors) {
			return fmt.Errorf("%w: %s", ErrMalformed, err)
		}

		fields := make([]string, len(verrors))
		for i, verror := range verrors {
			fields[i] = fmt.Sprintf("%s failed on %s", verror.Namespace(), verror.Tag())
		}

		return fmt.Errorf("%w: %s", ErrMalformed, strings.Join(fields, ", "))
	}

	return nil
}

// =============================================================================

// CheckChain validates the shape of a chain received from outside the
// process. The first block must be the genesis block and the indexes must
// follow the position of each block.
func CheckChain(chain []Block) error {
	if len(chain) == 0 {
		return fmt.Errorf("%w: empty chain", ErrMalformed)
	}

	if !chain[0].Equals(Genesis()) {
		return fmt.Errorf("%w: first block is not the genesis block", ErrMalformed)
	}

	for i, block := range chain {
		if block.Index != uint64(i) {
			return fmt.Errorf("%w: block at position %d has index %d", ErrMalformed, i, block.Index)
		}

		if err := block.Check(); err != nil {
			return err
		}
	}

	return nil
}

// CopyChain returns a deep copy of the chain.
func CopyChain(chain []Block) []Block {
	cpy := make([]Block, len(chain))
	for i, block := range chain {
		cpy[i] = block
		cpy[i].Transactions = CopyTxs(block.Transactions)
	}

	return cpy
}

// CopyTxs returns a copy of the transaction list, never nil.
func CopyTxs(txs []Tx) []Tx {
	cpy := make([]Tx, len(txs))
	copy(cpy, txs)
	return cpy
}

// ChainEquals compares two chains block by block.
func ChainEquals(a, b []Block) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}

	return true
}
