package runes

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/klingon-tech/runeindex/internal/codec"
	"github.com/klingon-tech/runeindex/pkg/types"
)

// RemovedOutpoint is one entry of a ChangeRecord's removed-outpoints
// list: an input consumed during the block, with enough to restore it
// on rollback.
type RemovedOutpoint struct {
	OutPoint types.OutPoint
	Balances []types.RuneBalance
	Height   uint64
}

// AddedRune is one entry of a ChangeRecord's added-runes list: an
// etching that happened during the block, with enough to undo its three
// index insertions on rollback.
type AddedRune struct {
	Name types.SpacedRune
	ID   types.RuneId
	Txid types.Txid
}

// ChangeRecord accumulates, for one block, everything a rollback needs
// to exactly undo that block's effect on the persisted rune state. One
// is built up during indexing and persisted when the block is committed
// (the block indexer writes it after the burn deltas and before the
// block header and tip); the reorg controller consumes it to roll back.
type ChangeRecord struct {
	RemovedOutpoints []RemovedOutpoint
	AddedOutpoints   []types.OutPoint
	Burned           map[types.RuneId]*uint256.Int // pre-update values, first write wins
	Mints            map[types.RuneId]*uint256.Int // pre-update values, first write wins
	AddedRunes       []AddedRune
}

// NewChangeRecord returns an empty ChangeRecord ready to accumulate a
// block's worth of mutations.
func NewChangeRecord() *ChangeRecord {
	return &ChangeRecord{
		Burned: make(map[types.RuneId]*uint256.Int),
		Mints:  make(map[types.RuneId]*uint256.Int),
	}
}

// RecordRemoved appends a consumed outpoint's pre-removal state.
func (c *ChangeRecord) RecordRemoved(o types.OutPoint, balances []types.RuneBalance, height uint64) {
	c.RemovedOutpoints = append(c.RemovedOutpoints, RemovedOutpoint{OutPoint: o, Balances: balances, Height: height})
}

// RecordAdded appends a newly created outpoint.
func (c *ChangeRecord) RecordAdded(o types.OutPoint) {
	c.AddedOutpoints = append(c.AddedOutpoints, o)
}

// RecordBurnedOnce saves pre is the first time id's burned counter is
// touched this block; later calls for the same id are no-ops, since the
// record must hold the value from *before the block*, not before the
// most recent transaction within it.
func (c *ChangeRecord) RecordBurnedOnce(id types.RuneId, pre *uint256.Int) {
	if _, ok := c.Burned[id]; !ok {
		c.Burned[id] = pre
	}
}

// RecordMintsOnce is RecordBurnedOnce's counterpart for the mint count.
func (c *ChangeRecord) RecordMintsOnce(id types.RuneId, pre *uint256.Int) {
	if _, ok := c.Mints[id]; !ok {
		c.Mints[id] = pre
	}
}

// RecordEtched appends a newly etched rune.
func (c *ChangeRecord) RecordEtched(name types.SpacedRune, id types.RuneId, txid types.Txid) {
	c.AddedRunes = append(c.AddedRunes, AddedRune{Name: name, ID: id, Txid: txid})
}

// Encode serializes c into a self-delimiting byte slice. ChangeRecords
// are variable-length (their lists grow with block activity) unlike the
// fixed-width entity encodings in internal/codec, so this uses a simple
// length-prefixed layout rather than a fixed wire size.
func (c *ChangeRecord) Encode() []byte {
	var out []byte

	out = appendUint32(out, uint32(len(c.RemovedOutpoints)))
	for _, r := range c.RemovedOutpoints {
		op := codec.EncodeOutPoint(r.OutPoint)
		out = append(out, op[:]...)
		bal := codec.EncodeBalances(r.Balances)
		out = appendUint32(out, uint32(len(bal)))
		out = append(out, bal...)
		out = appendUint64(out, r.Height)
	}

	out = appendUint32(out, uint32(len(c.AddedOutpoints)))
	for _, o := range c.AddedOutpoints {
		op := codec.EncodeOutPoint(o)
		out = append(out, op[:]...)
	}

	out = appendUint32(out, uint32(len(c.Burned)))
	for id, pre := range c.Burned {
		ridb := codec.EncodeRuneId(id)
		out = append(out, ridb[:]...)
		v := codec.EncodeU128(pre)
		out = append(out, v[:]...)
	}

	out = appendUint32(out, uint32(len(c.Mints)))
	for id, pre := range c.Mints {
		ridb := codec.EncodeRuneId(id)
		out = append(out, ridb[:]...)
		v := codec.EncodeU128(pre)
		out = append(out, v[:]...)
	}

	out = appendUint32(out, uint32(len(c.AddedRunes)))
	for _, a := range c.AddedRunes {
		nameb := codec.EncodeU128(&a.Name.Rune)
		out = append(out, nameb[:]...)
		out = appendUint32(out, a.Name.Spacers)
		ridb := codec.EncodeRuneId(a.ID)
		out = append(out, ridb[:]...)
		out = append(out, a.Txid[:]...)
	}

	return out
}

// DecodeChangeRecord parses the layout Encode produces.
func DecodeChangeRecord(b []byte) (*ChangeRecord, error) {
	c := NewChangeRecord()
	r := &reader{b: b}

	n, err := r.uint32()
	if err != nil {
		return nil, fmt.Errorf("runes: change record removed-outpoints count: %w", err)
	}
	for i := uint32(0); i < n; i++ {
		opb, err := r.take(types.OutPointSize)
		if err != nil {
			return nil, err
		}
		op, err := codec.DecodeOutPoint(opb)
		if err != nil {
			return nil, err
		}
		balLen, err := r.uint32()
		if err != nil {
			return nil, err
		}
		balb, err := r.take(int(balLen))
		if err != nil {
			return nil, err
		}
		balances, err := codec.DecodeBalances(balb)
		if err != nil {
			return nil, err
		}
		height, err := r.uint64()
		if err != nil {
			return nil, err
		}
		c.RemovedOutpoints = append(c.RemovedOutpoints, RemovedOutpoint{OutPoint: op, Balances: balances, Height: height})
	}

	n, err = r.uint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < n; i++ {
		opb, err := r.take(types.OutPointSize)
		if err != nil {
			return nil, err
		}
		op, err := codec.DecodeOutPoint(opb)
		if err != nil {
			return nil, err
		}
		c.AddedOutpoints = append(c.AddedOutpoints, op)
	}

	n, err = r.uint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < n; i++ {
		id, v, err := r.runeIdAndU128()
		if err != nil {
			return nil, err
		}
		c.Burned[id] = v
	}

	n, err = r.uint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < n; i++ {
		id, v, err := r.runeIdAndU128()
		if err != nil {
			return nil, err
		}
		c.Mints[id] = v
	}

	n, err = r.uint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < n; i++ {
		nameb, err := r.take(codec.U128Size)
		if err != nil {
			return nil, err
		}
		spacers, err := r.uint32()
		if err != nil {
			return nil, err
		}
		ridb, err := r.take(types.RuneIdSize)
		if err != nil {
			return nil, err
		}
		id, err := codec.DecodeRuneId(ridb)
		if err != nil {
			return nil, err
		}
		txidb, err := r.take(types.HashSize)
		if err != nil {
			return nil, err
		}
		var txid types.Txid
		copy(txid[:], txidb)
		c.AddedRunes = append(c.AddedRunes, AddedRune{
			Name: types.SpacedRune{Rune: *codec.DecodeU128(nameb), Spacers: spacers},
			ID:   id,
			Txid: txid,
		})
	}

	if len(r.b) != 0 {
		return nil, fmt.Errorf("runes: change record has %d trailing bytes", len(r.b))
	}
	return c, nil
}

func appendUint32(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

func appendUint64(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return append(dst, buf[:]...)
}

// reader is a small cursor over a byte slice, used only by
// DecodeChangeRecord to keep its loops free of manual offset tracking.
type reader struct{ b []byte }

func (r *reader) take(n int) ([]byte, error) {
	if len(r.b) < n {
		return nil, fmt.Errorf("runes: change record truncated (need %d, have %d)", n, len(r.b))
	}
	out := r.b[:n]
	r.b = r.b[n:]
	return out, nil
}

func (r *reader) uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *reader) uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *reader) runeIdAndU128() (types.RuneId, *uint256.Int, error) {
	ridb, err := r.take(types.RuneIdSize)
	if err != nil {
		return types.RuneId{}, nil, err
	}
	id, err := codec.DecodeRuneId(ridb)
	if err != nil {
		return types.RuneId{}, nil, err
	}
	vb, err := r.take(codec.U128Size)
	if err != nil {
		return types.RuneId{}, nil, err
	}
	return id, codec.DecodeU128(vb), nil
}
