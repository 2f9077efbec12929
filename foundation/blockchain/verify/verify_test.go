package verify_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/powledger/blockchain/foundation/blockchain/database"
	"github.com/powledger/blockchain/foundation/blockchain/pow"
	"github.com/powledger/blockchain/foundation/blockchain/verify"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const difficulty = 2

const other = database.AccountID("0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76")

// errAny marks a mutation that may be caught by either the proof or the
// hash link check, depending on the order they run in.
var errAny = errors.New("any")

// =============================================================================

func Test_Transaction(t *testing.T) {
	pk, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a key: %s", err)
	}
	from := database.PublicKeyToAccountID(pk.PublicKey)
	to := database.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")

	tx, _ := database.NewTx(from, to, 5)
	tx, err = tx.Sign(pk)
	if err != nil {
		t.Fatalf("Should be able to sign: %s", err)
	}

	tampered := tx
	tampered.Amount = 1

	balanceOf := func(amount float64) verify.BalanceFunc {
		return func(database.AccountID) (float64, error) { return amount, nil }
	}
	broken := func(database.AccountID) (float64, error) { return 100, errors.New("no balance") }

	type table struct {
		name    string
		tx      database.Tx
		balance verify.BalanceFunc
		err     error
	}

	tt := []table{
		{name: "exact", tx: tx, balance: balanceOf(5)},
		{name: "plenty", tx: tx, balance: balanceOf(50)},
		{name: "short", tx: tx, balance: balanceOf(4.99), err: verify.ErrInsufficientFunds},
		{name: "tampered", tx: tampered, balance: balanceOf(50), err: verify.ErrInvalidSignature},
		{name: "unknown", tx: tx, balance: broken, err: verify.ErrInsufficientFunds},
		{name: "coinbase", tx: database.NewCoinbaseTx(to, 10), balance: balanceOf(50), err: verify.ErrInvalidSignature},
	}

	t.Log("Given the need to verify transactions.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %s transaction.", testID, tst.name)
				{
					err := verify.Transaction(tst.tx, tst.balance)
					switch {
					case tst.err == nil && err != nil:
						t.Fatalf("\t%s\tTest %d:\tShould accept the transaction: %v", failed, testID, err)
					case tst.err != nil && !errors.Is(err, tst.err):
						t.Fatalf("\t%s\tTest %d:\tShould fail with %v: got %v", failed, testID, tst.err, err)
					}
					t.Logf("\t%s\tTest %d:\tShould verify the transaction correctly.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Transactions(t *testing.T) {
	pk, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a key: %s", err)
	}
	from := database.PublicKeyToAccountID(pk.PublicKey)

	sign := func(amount float64) database.Tx {
		tx, err := database.NewTx(from, other, amount)
		if err != nil {
			t.Fatalf("Should be able to build a transaction: %s", err)
		}

		if tx, err = tx.Sign(pk); err != nil {
			t.Fatalf("Should be able to sign: %s", err)
		}

		return tx
	}

	// The sender starts with 10 and every earlier transaction is spent.
	balance := func(account database.AccountID, prior []database.Tx) (float64, error) {
		funds := 10.0
		for _, tx := range prior {
			if tx.Sender == account {
				funds -= tx.Amount
			}
		}
		return funds, nil
	}

	tampered := sign(1)
	tampered.Amount = 2

	type table struct {
		name string
		txs  []database.Tx
		err  error
	}

	tt := []table{
		{name: "empty", txs: []database.Tx{}},
		{name: "fits", txs: []database.Tx{sign(4), sign(6)}},
		{name: "overspent", txs: []database.Tx{sign(4), sign(6), sign(1)}, err: verify.ErrInsufficientFunds},
		{name: "tampered", txs: []database.Tx{sign(1), tampered}, err: verify.ErrInvalidSignature},
	}

	t.Log("Given the need to verify open transactions in order.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %s list.", testID, tst.name)
				{
					err := verify.Transactions(tst.txs, balance)
					switch {
					case tst.err == nil && err != nil:
						t.Fatalf("\t%s\tTest %d:\tShould accept the list: %v", failed, testID, err)
					case tst.err != nil && !errors.Is(err, tst.err):
						t.Fatalf("\t%s\tTest %d:\tShould fail with %v: got %v", failed, testID, tst.err, err)
					}
					t.Logf("\t%s\tTest %d:\tShould verify the list correctly.", success, testID)

					if tst.err != nil {
						if !strings.HasPrefix(err.Error(), fmt.Sprintf("tx[%d]: ", len(tst.txs)-1)) {
							t.Fatalf("\t%s\tTest %d:\tShould name the failing transaction: %v", failed, testID, err)
						}
						t.Logf("\t%s\tTest %d:\tShould name the failing transaction.", success, testID)
					}
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Signatures(t *testing.T) {
	chain := buildChain(t, 2)
	transfers := []database.Tx{chain[1].Transactions[0], chain[2].Transactions[0]}

	t.Log("Given the need to check signatures before a block is built.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen every transaction is signed by its sender.", testID)
		{
			if err := verify.Signatures(transfers); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept the signatures: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the signatures.", success, testID)

			if err := verify.Signatures(nil); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept an empty list: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept an empty list.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a transaction was changed after signing.", testID)
		{
			txs := database.CopyTxs(transfers)
			txs[1].Recipient = other

			err := verify.Signatures(txs)
			if !errors.Is(err, verify.ErrInvalidSignature) || !strings.HasPrefix(err.Error(), "tx[1]: ") {
				t.Fatalf("\t%s\tTest %d:\tShould reject the second transaction: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the second transaction.", success, testID)

			coinbase := append(database.CopyTxs(transfers), chain[1].Transactions[1])
			if err := verify.Signatures(coinbase); !errors.Is(err, verify.ErrInvalidSignature) {
				t.Fatalf("\t%s\tTest %d:\tShould reject an unsigned reward: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject an unsigned reward.", success, testID)
		}
	}
}

func Test_Chain(t *testing.T) {
	chain := buildChain(t, 3)

	type table struct {
		name   string
		mutate func(chain []database.Block)
		err    error
	}

	tt := []table{
		{name: "valid", mutate: func([]database.Block) {}},
		{name: "genesisonly", mutate: nil},
		{name: "proof", mutate: func(c []database.Block) { c[1].Proof++ }, err: errAny},
		{name: "prevhash", mutate: func(c []database.Block) { c[1].PreviousHash = "0x00" }, err: verify.ErrHashMismatch},
		{name: "lastprevhash", mutate: func(c []database.Block) { c[3].PreviousHash = c[1].Hash() }, err: verify.ErrHashMismatch},
		{name: "amount", mutate: func(c []database.Block) { c[1].Transactions[0].Amount = 7 }, err: errAny},
		{name: "recipient", mutate: func(c []database.Block) { c[2].Transactions[0].Recipient = "0x0" }, err: errAny},
		{name: "reward", mutate: func(c []database.Block) { c[1].Transactions[1].Amount = 1e6 }, err: verify.ErrHashMismatch},

		// The reward of the tail block is outside the proof and no block
		// links to it yet, so rewriting it goes unnoticed until the next block.
		{name: "tailreward", mutate: func(c []database.Block) { c[3].Transactions[1] = database.NewCoinbaseTx(other, 1e6) }},
	}

	t.Log("Given the need to verify a chain of blocks.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %s chain.", testID, tst.name)
				{
					c := []database.Block{database.Genesis()}
					if tst.mutate != nil {
						c = database.CopyChain(chain)
						tst.mutate(c)
					}

					err := verify.Chain(c, difficulty)
					switch {
					case tst.err == nil && err != nil:
						t.Fatalf("\t%s\tTest %d:\tShould accept the chain: %v", failed, testID, err)
					case tst.err == errAny && err == nil:
						t.Fatalf("\t%s\tTest %d:\tShould reject the chain.", failed, testID)
					case tst.err != nil && tst.err != errAny && !errors.Is(err, tst.err):
						t.Fatalf("\t%s\tTest %d:\tShould fail with %v: got %v", failed, testID, tst.err, err)
					}
					t.Logf("\t%s\tTest %d:\tShould verify the chain correctly.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Block(t *testing.T) {
	chain := buildChain(t, 1)

	t.Log("Given the need to verify a single block.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the proof does not solve the puzzle.", testID)
		{
			b := chain[1]
			for {
				b.Proof++
				if !pow.ValidProof(difficulty, b.ProofTransactions(), b.PreviousHash, b.Proof) {
					break
				}
			}

			if err := verify.Block(b, chain[0], difficulty); !errors.Is(err, verify.ErrInvalidProof) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the proof: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the proof.", success, testID)

			if err := verify.Block(chain[1], chain[0], difficulty); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept the original block: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the original block.", success, testID)
		}
	}
}

// =============================================================================

// buildChain mines blocks that each carry one signed transfer followed
// by the coinbase reward.
func buildChain(t *testing.T, blocks int) []database.Block {
	t.Helper()

	pk, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a key: %s", err)
	}
	miner := database.PublicKeyToAccountID(pk.PublicKey)

	chain := []database.Block{database.Genesis()}
	for i := 1; i <= blocks; i++ {
		tx, _ := database.NewTx(miner, "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32", float64(i))
		tx, err := tx.Sign(pk)
		if err != nil {
			t.Fatalf("Should be able to sign: %s", err)
		}

		txs := []database.Tx{tx}
		lastHash := chain[len(chain)-1].Hash()

		proof, err := pow.Search(context.Background(), difficulty, txs, lastHash, func(string, ...any) {})
		if err != nil {
			t.Fatalf("Should be able to mine: %s", err)
		}

		txs = append(txs, database.NewCoinbaseTx(miner, 10))
		chain = append(chain, database.NewBlock(uint64(i), lastHash, txs, proof))
	}

	if err := verify.Chain(chain, difficulty); err != nil {
		t.Fatalf("Should build a valid chain: %s", err)
	}

	return chain
}
