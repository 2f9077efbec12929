package state

import (
	"encoding/json"
	"fmt"

	"github.com/powledger/blockchain/foundation/blockchain/database"
	"github.com/powledger/blockchain/foundation/blockchain/verify"
)

// ProcessPeerBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain. A block further
// ahead than the next index flags the node for conflict resolution.
func (s *State) ProcessPeerBlock(block database.Block) error {
	s.evHandler("state: ProcessPeerBlock: started: prevBlk[%s]: blk[%d]: numTrans[%d]", block.PreviousHash, block.Index, len(block.Transactions))
	defer s.evHandler("state: ProcessPeerBlock: completed: blk[%d]", block.Index)

	if err := block.Check(); err != nil {
		return err
	}

	if err := s.validateUpdateChain(block); err != nil {
		s.evHandler("state: ProcessPeerBlock: rejected: %s", err)
		return err
	}

	// Any running search was started against the old tail and can no
	// longer produce the next block.
	s.signalCancelMining()

	s.blockEvent(block)

	return nil
}

// validateUpdateChain takes the block and validates it against the tail of
// the chain. If the block passes, it is appended and the transactions it
// carries are removed from the mempool.
func (s *State) validateUpdateChain(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tail := s.chain[len(s.chain)-1]
	next := tail.Index + 1

	switch {
	case block.Index > next:
		s.conflict = true
		return fmt.Errorf("%w: got blk[%d], exp blk[%d]", ErrChainAhead, block.Index, next)

	case block.Index < next:
		return fmt.Errorf("%w: got blk[%d], exp blk[%d]", ErrChainBehind, block.Index, next)
	}

	s.evHandler("state: validateUpdateChain: validate block")

	if err := verify.Block(block, tail, s.difficulty); err != nil {
		return err
	}

	s.evHandler("state: validateUpdateChain: append block and remove from mempool")

	s.chain = append(s.chain, block)
	removed := s.mempool.Delete(block.Transactions...)
	s.saveLocked()

	s.evHandler("state: validateUpdateChain: removed from mempool[%d]", removed)

	return nil
}

// =============================================================================

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockJSON, err := json.Marshal(block)
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`ledger: block: {"hash":%q,"block":%s}`, block.Hash(), string(blockJSON))
}

// txEvent provides a specific event about a new transaction in the mempool.
func (s *State) txEvent(tx database.Tx) {
	txJSON, err := json.Marshal(tx)
	if err != nil {
		txJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`ledger: tx: %s`, string(txJSON))
}
