package state

import (
	"github.com/powledger/blockchain/foundation/blockchain/peer"
)

// AddKnownPeer provides the ability to add a new peer. The peer set is
// saved when it changed.
func (s *State) AddKnownPeer(p peer.Peer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Match(s.host) || !s.knownPeers.Add(p) {
		return false
	}

	s.evHandler("state: AddKnownPeer: peer[%s]", p.Host)
	s.saveLocked()

	return true
}

// RemoveKnownPeer provides the ability to remove a peer. The peer set is
// saved when it changed.
func (s *State) RemoveKnownPeer(p peer.Peer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.knownPeers.Remove(p) {
		return false
	}

	s.evHandler("state: RemoveKnownPeer: peer[%s]", p.Host)
	s.saveLocked()

	return true
}
