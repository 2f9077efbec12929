package state

import (
	"context"
	"net/http"
	"sync"

	"github.com/powledger/blockchain/foundation/blockchain/database"
)

// netSendTxToPeers shares a new transaction with the known peers. It
// reports whether any peer answered with a conflict.
func (s *State) netSendTxToPeers(ctx context.Context, tx database.Tx) bool {
	s.evHandler("state: netSendTxToPeers: started")
	defer s.evHandler("state: netSendTxToPeers: completed")

	return s.broadcast(ctx, "netSendTxToPeers", func(ctx context.Context, host string) (int, error) {
		return s.transport.SendTransaction(ctx, host, tx)
	})
}

// netSendBlockToPeers takes the new mined block and sends it to all known
// peers. It reports whether any peer answered with a conflict.
func (s *State) netSendBlockToPeers(ctx context.Context, block database.Block) bool {
	s.evHandler("state: netSendBlockToPeers: started")
	defer s.evHandler("state: netSendBlockToPeers: completed")

	return s.broadcast(ctx, "netSendBlockToPeers", func(ctx context.Context, host string) (int, error) {
		return s.transport.SendBlock(ctx, host, block)
	})
}

// broadcast calls send for every known peer at the same time. Transport
// failures and error codes are logged and skipped. A conflict raises the
// conflict flag.
func (s *State) broadcast(ctx context.Context, op string, send func(ctx context.Context, host string) (int, error)) bool {
	if s.transport == nil {
		return false
	}

	peers := s.RetrieveKnownPeers()
	statuses := make([]int, len(peers))

	var wg sync.WaitGroup
	wg.Add(len(peers))

	for i, p := range peers {
		go func() {
			defer wg.Done()

			status, err := send(ctx, p.Host)
			if err != nil {
				s.evHandler("state: %s: WARNING: peer[%s]: %s", op, p.Host, err)
				return
			}

			statuses[i] = status
		}()
	}

	wg.Wait()

	var conflict bool
	for i, status := range statuses {
		switch {
		case status == 0:
		case status == http.StatusConflict:
			s.evHandler("state: %s: peer[%s]: conflict", op, peers[i].Host)
			conflict = true
		case status >= http.StatusBadRequest:
			s.evHandler("state: %s: WARNING: peer[%s]: status[%d]", op, peers[i].Host, status)
		default:
			s.evHandler("state: %s: sent to peer[%s]", op, peers[i].Host)
		}
	}

	if conflict {
		s.mu.Lock()
		s.conflict = true
		s.mu.Unlock()
	}

	return conflict
}
