package database_test

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/powledger/blockchain/foundation/blockchain/database"
	"github.com/powledger/blockchain/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	pkHexKey  = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	sender    = database.AccountID("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
	recipient = database.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")
)

// =============================================================================

func Test_SignedTransaction(t *testing.T) {
	t.Log("Given the need to sign and verify a transaction.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling a transfer of 5.", testID)
		{
			tx := signedTx(t, 5)

			if err := tx.VerifySignature(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to verify the signature: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to verify the signature.", success, testID)

			tampered := tx
			tampered.Amount = 50
			err := tampered.VerifySignature()
			if !errors.Is(err, signature.ErrSignerMismatch) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a tampered amount: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a tampered amount.", success, testID)

			tampered = tx
			tampered.Recipient = sender
			if err := tampered.VerifySignature(); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject a tampered recipient.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a tampered recipient.", success, testID)

			pk, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to generate a key: %v", failed, testID, err)
			}

			unsigned, _ := database.NewTx(sender, recipient, 5)
			if _, err := unsigned.Sign(pk); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould not sign for another sender.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not sign for another sender.", success, testID)
		}
	}
}

func Test_TxCheck(t *testing.T) {
	type table struct {
		name  string
		tx    database.Tx
		valid bool
	}

	tt := []table{
		{name: "valid", tx: database.Tx{Sender: sender, Recipient: recipient, Amount: 1}, valid: true},
		{name: "zero", tx: database.Tx{Sender: sender, Recipient: recipient, Amount: 0}, valid: true},
		{name: "coinbase", tx: database.NewCoinbaseTx(recipient, 10), valid: true},
		{name: "negative", tx: database.Tx{Sender: sender, Recipient: recipient, Amount: -1}},
		{name: "nosender", tx: database.Tx{Recipient: recipient, Amount: 1}},
		{name: "norecipient", tx: database.Tx{Sender: sender, Amount: 1}},
		{name: "infinite", tx: database.Tx{Sender: sender, Recipient: recipient, Amount: math.Inf(1)}},
		{name: "lowercase recipient", tx: database.Tx{Sender: sender, Recipient: database.AccountID(strings.ToLower(string(recipient))), Amount: 1}},
		{name: "lowercase sender", tx: database.Tx{Sender: database.AccountID(strings.ToLower(string(sender))), Recipient: recipient, Amount: 1}},
		{name: "unprefixed recipient", tx: database.Tx{Sender: sender, Recipient: recipient[2:], Amount: 1}},
		{name: "named recipient", tx: database.Tx{Sender: sender, Recipient: "bill", Amount: 1}},
		{name: "mining recipient", tx: database.NewCoinbaseTx(database.MiningSender, 10)},
	}

	t.Log("Given the need to validate the shape of transactions.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %s transaction.", testID, tst.name)
				{
					err := tst.tx.Check()
					switch {
					case tst.valid && err != nil:
						t.Fatalf("\t%s\tTest %d:\tShould accept the transaction: %v", failed, testID, err)
					case !tst.valid && !errors.Is(err, database.ErrMalformed):
						t.Fatalf("\t%s\tTest %d:\tShould reject the transaction as malformed: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould check the transaction correctly.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Block(t *testing.T) {
	t.Log("Given the need to build and hash blocks.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling the genesis block.", testID)
		{
			g := database.Genesis()
			if g.Index != 0 || g.PreviousHash != "" || g.Proof != 100 || g.TimeStamp != 0 || len(g.Transactions) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould have the fixed genesis values: %+v", failed, testID, g)
			}
			t.Logf("\t%s\tTest %d:\tShould have the fixed genesis values.", success, testID)

			nilTxs := g
			nilTxs.Transactions = nil
			if g.Hash() != nilTxs.Hash() {
				t.Fatalf("\t%s\tTest %d:\tShould hash a nil and an empty list the same.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould hash a nil and an empty list the same.", success, testID)

			if err := g.Check(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould pass the block checks: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould pass the block checks.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen handling a mined block.", testID)
		{
			tx := signedTx(t, 5)
			txs := []database.Tx{tx, database.NewCoinbaseTx(sender, 10)}
			b := database.NewBlock(1, database.Genesis().Hash(), txs, 42)

			txs[0].Amount = 99
			if b.Transactions[0].Amount != 5 {
				t.Fatalf("\t%s\tTest %d:\tShould own its transaction list.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould own its transaction list.", success, testID)

			if got := b.ProofTransactions(); len(got) != 1 || !got[0].Equals(tx) {
				t.Fatalf("\t%s\tTest %d:\tShould exclude the coinbase from the proof set: %v", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould exclude the coinbase from the proof set.", success, testID)

			changed := database.CopyChain([]database.Block{b})[0]
			changed.Proof++
			if changed.Hash() == b.Hash() {
				t.Fatalf("\t%s\tTest %d:\tShould change the hash when the proof changes.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould change the hash when the proof changes.", success, testID)

			noPrev := b
			noPrev.PreviousHash = ""
			if err := noPrev.Check(); !errors.Is(err, database.ErrMalformed) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a block without a previous hash: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a block without a previous hash.", success, testID)

			noCoinbase := database.NewBlock(1, database.Genesis().Hash(), []database.Tx{tx}, 42)
			if err := noCoinbase.Check(); !errors.Is(err, database.ErrMalformed) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a block not ending in a coinbase: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a block not ending in a coinbase.", success, testID)

			signedCoinbase := database.CopyChain([]database.Block{b})[0]
			signedCoinbase.Transactions[1].Signature = tx.Signature
			if err := signedCoinbase.Check(); !errors.Is(err, database.ErrMalformed) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a signed coinbase: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a signed coinbase.", success, testID)

			chain := []database.Block{database.Genesis(), b}
			if err := database.CheckChain(chain); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould pass the chain checks: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould pass the chain checks.", success, testID)

			if err := database.CheckChain([]database.Block{b}); !errors.Is(err, database.ErrMalformed) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a chain without genesis: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a chain without genesis.", success, testID)
		}
	}
}

func Test_JSONLayout(t *testing.T) {
	t.Log("Given the need to exchange blocks with other nodes.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen encoding a block.", testID)
		{
			b := database.NewBlock(1, "0xabc", []database.Tx{signedTx(t, 1), database.NewCoinbaseTx(sender, 10)}, 7)

			data, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to marshal: %v", failed, testID, err)
			}

			var doc map[string]any
			if err := json.Unmarshal(data, &doc); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal: %v", failed, testID, err)
			}

			for _, key := range []string{"index", "previous_hash", "transactions", "proof", "timestamp"} {
				if _, exists := doc[key]; !exists {
					t.Fatalf("\t%s\tTest %d:\tShould have key %q.", failed, testID, key)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould have the block keys.", success, testID)

			txDoc := doc["transactions"].([]any)[0].(map[string]any)
			for _, key := range []string{"sender", "recipient", "signature", "amount"} {
				if _, exists := txDoc[key]; !exists {
					t.Fatalf("\t%s\tTest %d:\tShould have key %q.", failed, testID, key)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould have the transaction keys.", success, testID)

			var got database.Block
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to decode the block: %v", failed, testID, err)
			}

			if !got.Equals(b) || got.Hash() != b.Hash() {
				t.Fatalf("\t%s\tTest %d:\tShould decode an equal block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould decode an equal block.", success, testID)
		}
	}
}

func Test_AccountID(t *testing.T) {
	t.Log("Given the need to validate account ids.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling different formats.", testID)
		{
			if _, err := database.ToAccountID(string(sender)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept a valid account: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept a valid account.", success, testID)

			for _, form := range []string{strings.ToLower(string(sender)), strings.ToUpper(string(sender[2:])), "0X" + string(sender[2:])} {
				got, err := database.ToAccountID(form)
				if err != nil || got != sender {
					t.Fatalf("\t%s\tTest %d:\tShould convert %q to the checksummed account: got %q, %v", failed, testID, form, got, err)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould convert any casing to the checksummed account.", success, testID)

			if !sender.IsCanonical() || database.AccountID(strings.ToLower(string(sender))).IsCanonical() || database.MiningSender.IsCanonical() {
				t.Fatalf("\t%s\tTest %d:\tShould only report checksummed accounts as canonical.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould only report checksummed accounts as canonical.", success, testID)

			for _, bad := range []string{"", "0x12", "MINING", "0xzz6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"} {
				if _, err := database.ToAccountID(bad); err == nil {
					t.Fatalf("\t%s\tTest %d:\tShould reject %q.", failed, testID, bad)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould reject invalid accounts.", success, testID)
		}
	}
}

// =============================================================================

func signedTx(t *testing.T, amount float64) database.Tx {
	t.Helper()

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	tx, err := database.NewTx(sender, recipient, amount)
	if err != nil {
		t.Fatalf("Should be able to construct a transaction: %s", err)
	}

	tx, err = tx.Sign(pk)
	if err != nil {
		t.Fatalf("Should be able to sign the transaction: %s", err)
	}

	return tx
}
