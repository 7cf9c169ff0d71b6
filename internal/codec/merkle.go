package codec

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/klingon-tech/runeindex/pkg/types"
)

// ComputeMerkleRoot calculates a Bitcoin block's merkle root from its
// ordered transaction ids.
//
// Algorithm: pairwise double-SHA256, duplicating the last element when
// the level has odd length, repeated until one hash remains.
func ComputeMerkleRoot(txids []types.Txid) types.Hash {
	if len(txids) == 0 {
		return types.Hash{}
	}
	if len(txids) == 1 {
		return txids[0]
	}

	level := make([]types.Hash, len(txids))
	copy(level, txids)

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}

		next := make([]types.Hash, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = hashConcat(level[i], level[i+1])
		}
		level = next
	}

	return level[0]
}

// hashConcat double-SHA256s the concatenation of two hashes, matching
// Bitcoin's internal merkle-node hashing.
func hashConcat(a, b types.Hash) types.Hash {
	var buf [64]byte
	copy(buf[:32], a[:])
	copy(buf[32:], b[:])
	return types.Hash(chainhash.DoubleHashH(buf[:]))
}
