package types

import (
	"fmt"

	"github.com/holiman/uint256"
)

// RuneIdSize is the fixed wire size of a RuneId: an 8-byte block height
// followed by a 4-byte transaction index.
const RuneIdSize = 12

// RuneId identifies a rune by the height and transaction index of its
// etching transaction. (0,0) is a sentinel meaning "the rune etched in
// the current transaction" when it appears in an edict.
type RuneId struct {
	Block uint64 `json:"block"`
	Tx    uint32 `json:"tx"`
}

// IsZero reports whether this is the (0,0) sentinel.
func (r RuneId) IsZero() bool {
	return r.Block == 0 && r.Tx == 0
}

// String renders a RuneId in the conventional "block:tx" form.
func (r RuneId) String() string {
	return fmt.Sprintf("%d:%d", r.Block, r.Tx)
}

// Delta applies a (block, tx) delta relative to this RuneId: the tx
// delta is added when blockDelta is zero and taken as the absolute tx
// index otherwise. The artifact decoder reads edict ids as absolute
// values and does not use it. ok is false on tx-index overflow.
func (r RuneId) Delta(blockDelta uint64, txDelta uint32) (next RuneId, ok bool) {
	next.Block = r.Block + blockDelta
	if blockDelta == 0 {
		sum := uint64(r.Tx) + uint64(txDelta)
		if sum > 0xFFFFFFFF {
			return RuneId{}, false
		}
		next.Tx = uint32(sum)
	} else {
		next.Tx = txDelta
	}
	return next, true
}

// SpacedRune pairs a rune's 128-bit name with the spacer bitmask that
// controls where "•" separators render between its letters.
type SpacedRune struct {
	Rune    uint256.Int `json:"rune"`
	Spacers uint32      `json:"spacers"`
}
