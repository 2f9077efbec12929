package state

import (
	"github.com/powledger/blockchain/foundation/blockchain/database"
	"github.com/powledger/blockchain/foundation/blockchain/peer"
	"github.com/powledger/blockchain/foundation/blockchain/verify"
)

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveIdentity returns the account mining rewards are paid to.
func (s *State) RetrieveIdentity() database.AccountID {
	return s.identity
}

// RetrieveDifficulty returns the number of leading zeros a proof needs.
func (s *State) RetrieveDifficulty() uint {
	return s.difficulty
}

// RetrieveChain returns a copy of the full chain.
func (s *State) RetrieveChain() []database.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	return database.CopyChain(s.chain)
}

// RetrieveLatestBlock returns a copy of the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	return database.CopyChain(s.chain[len(s.chain)-1:])[0]
}

// RetrieveMempool returns a copy of the mempool.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// RetrieveStatus returns a summary of the node for other peers.
func (s *State) RetrieveStatus() peer.PeerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := s.chain[len(s.chain)-1]

	return peer.PeerStatus{
		LatestBlockHash:   latest.Hash(),
		LatestBlockNumber: latest.Index,
		ChainLength:       len(s.chain),
		MempoolLength:     s.mempool.Count(),
		ConflictPending:   s.conflict,
		KnownPeers:        s.knownPeers.Copy(s.host),
	}
}

// IsConflictPending reports whether a peer rejected data from this node
// since the last conflict resolution.
func (s *State) IsConflictPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conflict
}

// =============================================================================

// QueryBalance returns the balance of the account computed over the chain
// and the open transactions. An empty account means the node identity.
func (s *State) QueryBalance(account database.AccountID) (float64, error) {
	if account == "" {
		account = s.identity
	}

	if account == "" {
		return 0, ErrNoIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.balanceLocked(account, s.mempool.Copy()), nil
}

// VerifyChain checks the hash links and proofs of the local chain.
func (s *State) VerifyChain() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return verify.Chain(s.chain, s.difficulty)
}

// VerifyMempool checks every open transaction against the balance its
// sender had when it was accepted, meaning the chain plus the open
// transactions that came before it.
func (s *State) VerifyMempool() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance := func(account database.AccountID, prior []database.Tx) (float64, error) {
		return s.balanceLocked(account, prior), nil
	}

	return verify.Transactions(s.mempool.Copy(), balance)
}
