package state

import (
	"context"
	"sync"

	"github.com/powledger/blockchain/foundation/blockchain/database"
	"github.com/powledger/blockchain/foundation/blockchain/verify"
)

// ResolveConflicts asks every known peer for its chain and replaces the
// local chain with the longest valid one. A replaced chain empties the
// mempool. Ties keep the local chain. Peers that cannot be reached are
// skipped. The conflict flag is cleared either way.
func (s *State) ResolveConflicts(ctx context.Context) (bool, error) {
	s.evHandler("state: ResolveConflicts: started")
	defer s.evHandler("state: ResolveConflicts: completed")

	if err := ctx.Err(); err != nil {
		return false, err
	}

	chains := s.netRequestPeerChains(ctx)

	replaced := s.adoptLongestChain(chains)
	if replaced {
		s.signalCancelMining()
	}

	return replaced, nil
}

// adoptLongestChain replaces the local chain with the longest valid peer
// chain. Peers are considered in the order given.
func (s *State) adoptLongestChain(chains []peerChain) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	winner := s.chain
	var replaced bool

	for _, pc := range chains {
		if pc.err != nil {
			s.evHandler("state: ResolveConflicts: WARNING: peer[%s]: %s", pc.host, pc.err)
			continue
		}

		if len(pc.chain) <= len(winner) {
			continue
		}

		if err := verify.Chain(pc.chain, s.difficulty); err != nil {
			s.evHandler("state: ResolveConflicts: peer[%s]: invalid chain: %s", pc.host, err)
			continue
		}

		s.evHandler("state: ResolveConflicts: peer[%s]: candidate: blocks[%d]", pc.host, len(pc.chain))
		winner = pc.chain
		replaced = true
	}

	if replaced {
		s.chain = winner
		s.mempool.Truncate()
		s.evHandler("state: ResolveConflicts: local chain replaced: blocks[%d]", len(winner))
	}

	s.conflict = false
	s.saveLocked()

	return replaced
}

// =============================================================================

// peerChain is the answer of a single peer.
type peerChain struct {
	host  string
	chain []database.Block
	err   error
}

// netRequestPeerChains fetches the chain of every known peer at the same
// time. The results keep the order of the known peers.
func (s *State) netRequestPeerChains(ctx context.Context) []peerChain {
	peers := s.RetrieveKnownPeers()
	results := make([]peerChain, len(peers))

	if s.transport == nil {
		return nil
	}

	var wg sync.WaitGroup
	wg.Add(len(peers))

	for i, p := range peers {
		go func() {
			defer wg.Done()

			chain, err := s.transport.FetchChain(ctx, p.Host)
			results[i] = peerChain{host: p.Host, chain: chain, err: err}
		}()
	}

	wg.Wait()

	return results
}
