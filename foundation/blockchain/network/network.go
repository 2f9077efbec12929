// Package network implements the HTTP transport used to talk to the other
// nodes of the ledger.
package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/powledger/blockchain/foundation/blockchain/database"
)

const baseURL = "http://%s/v1/node"

// DefaultTimeout is used when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// HTTP sends transactions and blocks to peers and fetches their chains.
// Every call carries its own timeout so a slow peer only delays itself.
type HTTP struct {
	client  *http.Client
	timeout time.Duration
}

// New constructs the HTTP transport.
func New(timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &HTTP{
		client:  &http.Client{},
		timeout: timeout,
	}
}

// SendTransaction shares a transaction with the specified peer and returns
// the status code the peer answered with.
func (h *HTTP) SendTransaction(ctx context.Context, host string, tx database.Tx) (int, error) {
	return h.send(ctx, http.MethodPost, nodeURL(host, "/tx/submit"), tx, nil)
}

// SendBlock proposes a newly mined block to the specified peer and returns
// the status code the peer answered with.
func (h *HTTP) SendBlock(ctx context.Context, host string, block database.Block) (int, error) {
	return h.send(ctx, http.MethodPost, nodeURL(host, "/block/propose"), block, nil)
}

// FetchChain retrieves the full chain of the specified peer. The chain is
// checked against the data model schema before it is returned.
func (h *HTTP) FetchChain(ctx context.Context, host string) ([]database.Block, error) {
	var chain []database.Block
	status, err := h.send(ctx, http.MethodGet, nodeURL(host, "/chain"), nil, &chain)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, fmt.Errorf("fetch chain: %s: status %d", host, status)
	}

	if err := database.CheckChain(chain); err != nil {
		return nil, fmt.Errorf("fetch chain: %s: %w", host, err)
	}

	return chain, nil
}

// =============================================================================

// send is a helper function to send an HTTP request to a node. Only a
// transport failure is returned as an error, any status code the peer
// answers with is handed back to the caller.
func (h *HTTP) send(ctx context.Context, method string, url string, dataSend any, dataRecv any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, err
	}

	if dataSend != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK || dataRecv == nil {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}

	return resp.StatusCode, nil
}

// nodeURL builds the private node url for the host. A host may be given
// with or without a scheme.
func nodeURL(host string, path string) string {
	host = strings.TrimSuffix(host, "/")

	switch {
	case strings.HasPrefix(host, "http://"), strings.HasPrefix(host, "https://"):
		return host + "/v1/node" + path
	default:
		return fmt.Sprintf(baseURL, host) + path
	}
}

// IsTimeout reports whether the error was produced by the per call timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
