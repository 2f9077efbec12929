// Package pow implements the proof of work puzzle used to mine blocks.
package pow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/powledger/blockchain/foundation/blockchain/database"
)

// DefaultDifficulty is the number of leading hex zeros a fingerprint needs.
const DefaultDifficulty = 2

// Fingerprint returns the hex encoded sha256 digest of the transactions,
// the hash of the last block and the proof.
func Fingerprint(txs []database.Tx, lastHash string, proof uint64) string {
	return fingerprint(guess(txs, lastHash), proof)
}

// ValidProof checks the fingerprint starts with difficulty zeros.
func ValidProof(difficulty uint, txs []database.Tx, lastHash string, proof uint64) bool {
	return isSolved(difficulty, Fingerprint(txs, lastHash, proof))
}

// Search scans proofs starting at zero and returns the first one that
// solves the puzzle. The scan stops when the context is cancelled.
func Search(ctx context.Context, difficulty uint, txs []database.Tx, lastHash string, ev func(v string, args ...any)) (uint64, error) {
	ev("pow: Search: MINING: started: txs[%d]", len(txs))
	defer ev("pow: Search: MINING: completed")

	prefix := guess(txs, lastHash)

	for proof := uint64(0); ; proof++ {
		if proof%1024 == 0 && ctx.Err() != nil {
			ev("pow: Search: MINING: CANCELLED: attempts[%d]", proof)
			return 0, ctx.Err()
		}

		if proof > 0 && proof%1_000_000 == 0 {
			ev("pow: Search: MINING: attempts[%d]", proof)
		}

		if isSolved(difficulty, fingerprint(prefix, proof)) {
			ev("pow: Search: MINING: SOLVED: lastHash[%s]: proof[%d]", lastHash, proof)
			return proof, nil
		}
	}
}

// =============================================================================

// guess returns the part of the puzzle input that does not change while
// searching for a proof.
func guess(txs []database.Tx, lastHash string) []byte {
	if txs == nil {
		txs = []database.Tx{}
	}

	data, err := json.Marshal(txs)
	if err != nil {
		return nil
	}

	return append(data, lastHash...)
}

func fingerprint(prefix []byte, proof uint64) string {
	if prefix == nil {
		return ""
	}

	data := strconv.AppendUint(append([]byte{}, prefix...), proof, 10)
	hash := sha256.Sum256(data)

	return hex.EncodeToString(hash[:])
}

// isSolved checks the fingerprint to make sure it complies with the
// puzzle rules. We need to match a difficulty number of 0's.
func isSolved(difficulty uint, fp string) bool {
	if fp == "" || int(difficulty) > len(fp) {
		return false
	}

	return fp[:difficulty] == strings.Repeat("0", int(difficulty))
}
