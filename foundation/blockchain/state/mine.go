package state

import (
	"context"
	"fmt"

	"github.com/powledger/blockchain/foundation/blockchain/database"
	"github.com/powledger/blockchain/foundation/blockchain/pow"
	"github.com/powledger/blockchain/foundation/blockchain/verify"
)

// MineNewBlock attempts to create a new block with a proper proof that can
// become the next block in the chain. The puzzle is searched without
// holding the state lock so transactions can still be submitted. The block
// is only added when the chain did not change during the search.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: started")
	defer s.evHandler("state: MineNewBlock: MINING: completed")

	if s.identity == "" {
		return database.Block{}, ErrNoIdentity
	}

	s.mu.Lock()
	lastBlock := s.chain[len(s.chain)-1]
	trans := s.mempool.Copy()
	s.mu.Unlock()

	lastHash := lastBlock.Hash()

	s.evHandler("state: MineNewBlock: MINING: perform POW: txs[%d]", len(trans))

	// Attempt to solve the puzzle. This can be cancelled.
	proof, err := pow.Search(ctx, s.difficulty, trans, lastHash, s.evHandler)
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: MineNewBlock: MINING: verify signatures")

	// Check every signature one more time before the block is built.
	if err := verify.Signatures(trans); err != nil {
		s.evHandler("state: MineNewBlock: MINING: ERROR: %s", err)
		return database.Block{}, err
	}

	reward := database.NewCoinbaseTx(s.identity, s.miningReward)
	block := database.NewBlock(lastBlock.Index+1, lastHash, append(trans, reward), proof)

	s.evHandler("state: MineNewBlock: MINING: update local state: blk[%d]", block.Index)

	if err := s.appendMinedBlock(block, trans); err != nil {
		return database.Block{}, err
	}

	s.blockEvent(block)

	if s.netSendBlockToPeers(ctx, block) {
		s.evHandler("state: MineNewBlock: a peer rejected block[%d], conflict resolution required", block.Index)
	}

	return block, nil
}

// appendMinedBlock adds the block when the tail of the chain is still the
// block the proof was searched against. The mined transactions are removed
// from the mempool.
func (s *State) appendMinedBlock(block database.Block, mined []database.Tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tail := s.chain[len(s.chain)-1]
	if tail.Hash() != block.PreviousHash {
		return fmt.Errorf("%w: tail is now block[%d]", ErrChainChanged, tail.Index)
	}

	s.chain = append(s.chain, block)
	s.mempool.Delete(mined...)
	s.saveLocked()

	return nil
}
