package network_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/powledger/blockchain/foundation/blockchain/database"
	"github.com/powledger/blockchain/foundation/blockchain/network"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Transport(t *testing.T) {
	var gotTx database.Tx
	var gotBlock database.Block

	chain := []database.Block{database.Genesis()}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/node/tx/submit", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotTx)
		w.WriteHeader(http.StatusConflict)
	})
	mux.HandleFunc("/v1/node/block/propose", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBlock)
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/v1/node/chain", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chain)
	})
	mux.HandleFunc("/bad/v1/node/chain", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"index":4}]`))
	})
	mux.HandleFunc("/slow/v1/node/chain", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	tr := network.New(250 * time.Millisecond)
	ctx := context.Background()

	t.Log("Given the need to talk to other nodes over HTTP.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen sending a transaction.", testID)
		{
			tx := database.Tx{Sender: "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4", Recipient: "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32", Signature: "0x01", Amount: 5}

			status, err := tr.SendTransaction(ctx, srv.URL, tx)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to send the transaction: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to send the transaction.", success, testID)

			if status != http.StatusConflict {
				t.Fatalf("\t%s\tTest %d:\tShould get back the peer status: %d", failed, testID, status)
			}
			t.Logf("\t%s\tTest %d:\tShould get back the peer status.", success, testID)

			if !gotTx.Equals(tx) {
				t.Fatalf("\t%s\tTest %d:\tShould deliver the same transaction: %v", failed, testID, gotTx)
			}
			t.Logf("\t%s\tTest %d:\tShould deliver the same transaction.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen sending a block.", testID)
		{
			block := database.NewBlock(1, chain[0].Hash(), []database.Tx{database.NewCoinbaseTx("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4", 10)}, 9)

			status, err := tr.SendBlock(ctx, srv.URL, block)
			if err != nil || status != http.StatusCreated {
				t.Fatalf("\t%s\tTest %d:\tShould be able to send the block: %d %v", failed, testID, status, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to send the block.", success, testID)

			if !gotBlock.Equals(block) {
				t.Fatalf("\t%s\tTest %d:\tShould deliver the same block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould deliver the same block.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen fetching chains.", testID)
		{
			got, err := tr.FetchChain(ctx, srv.URL)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to fetch the chain: %v", failed, testID, err)
			}
			if !database.ChainEquals(got, chain) {
				t.Fatalf("\t%s\tTest %d:\tShould get back the same chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to fetch the chain.", success, testID)

			if _, err := tr.FetchChain(ctx, srv.URL+"/bad"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject a malformed chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a malformed chain.", success, testID)

			start := time.Now()
			_, err = tr.FetchChain(ctx, srv.URL+"/slow")
			if !network.IsTimeout(err) {
				t.Fatalf("\t%s\tTest %d:\tShould time out on a slow peer: %v", failed, testID, err)
			}
			if time.Since(start) > time.Second {
				t.Fatalf("\t%s\tTest %d:\tShould not wait for the slow peer.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould time out on a slow peer.", success, testID)

			if _, err := tr.FetchChain(ctx, "127.0.0.1:1"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould fail on an unreachable peer.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould fail on an unreachable peer.", success, testID)
		}
	}
}
