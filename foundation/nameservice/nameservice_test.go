package nameservice_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/powledger/blockchain/foundation/blockchain/database"
	"github.com/powledger/blockchain/foundation/nameservice"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_NameService(t *testing.T) {
	t.Log("Given the need to name accounts from their key files.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a folder holds key files.", testID)
		{
			root := t.TempDir()
			nested := filepath.Join(root, "team")
			if err := os.MkdirAll(nested, 0755); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create a folder: %v", failed, testID, err)
			}

			alice := saveKey(t, filepath.Join(root, "alice.ecdsa"))
			bob := saveKey(t, filepath.Join(nested, "bob.ecdsa"))

			if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0600); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to write a file: %v", failed, testID, err)
			}

			ns, err := nameservice.New(root)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to build the name service: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to build the name service.", success, testID)

			if got := ns.Lookup(alice); got != "alice" {
				t.Fatalf("\t%s\tTest %d:\tShould name alice, got %q.", failed, testID, got)
			}
			if got := ns.Lookup(bob); got != "bob" {
				t.Fatalf("\t%s\tTest %d:\tShould name bob in a nested folder, got %q.", failed, testID, got)
			}
			if got := ns.Lookup(database.MiningSender); got != string(database.MiningSender) {
				t.Fatalf("\t%s\tTest %d:\tShould echo unknown accounts, got %q.", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould look up names by account.", success, testID)

			account, err := ns.Resolve("bob")
			if err != nil || account != bob {
				t.Fatalf("\t%s\tTest %d:\tShould resolve a name to its account: %v", failed, testID, err)
			}
			account, err = ns.Resolve(string(alice))
			if err != nil || account != alice {
				t.Fatalf("\t%s\tTest %d:\tShould accept an account id: %v", failed, testID, err)
			}
			account, err = ns.Resolve(strings.ToLower(string(alice)))
			if err != nil || account != alice {
				t.Fatalf("\t%s\tTest %d:\tShould return the checksummed form of a lowercase account id: %q, %v", failed, testID, account, err)
			}
			if _, err := ns.Resolve("carol"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould not resolve an unknown name.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould resolve names to accounts.", success, testID)

			if n := len(ns.Copy()); n != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould know two accounts, got %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould know two accounts.", success, testID)
		}
	}
}

func saveKey(t *testing.T, fileName string) database.AccountID {
	t.Helper()

	pk, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a key: %s", err)
	}

	if err := crypto.SaveECDSA(fileName, pk); err != nil {
		t.Fatalf("Should be able to save a key: %s", err)
	}

	return database.PublicKeyToAccountID(pk.PublicKey)
}
