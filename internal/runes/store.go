package runes

import (
	"encoding/binary"
	"errors"

	"github.com/btcsuite/btcd/wire"
	"github.com/holiman/uint256"

	"github.com/klingon-tech/runeindex/internal/codec"
	"github.com/klingon-tech/runeindex/internal/storage"
	"github.com/klingon-tech/runeindex/pkg/types"
)

// ErrNotFound is returned by the typed Get helpers below when a key is
// absent — the Store's own not-found signal, independent of whatever
// string the underlying DB implementation uses.
var ErrNotFound = errors.New("runes: not found")

// Namespace bytes separate the logical maps §3 describes within one
// physical key space: a single leading byte per map, rather than a
// wrapper type per namespace, since every map here shares one Writer
// and must commit together in the same block batch.
const (
	nsRuneEntry byte = iota
	nsRuneByName
	nsEtching
	nsOutpointBalances
	nsOutpointHeight
	nsStatRunes
	nsStatReservedRunes
	nsChangeRecord
	nsBlockHeader
	nsMeta
)

// metaTipKey is the single key under nsMeta holding the latest indexed
// height, so the block indexer can resume without scanning for the
// highest BlockHeader entry.
var metaTipKey = nsKey(nsMeta, []byte("tip"))

// Writer is the subset of storage.DB / storage.Batch that Store's write
// methods need. Passing a storage.Batch lets the block indexer stage an
// entire block's worth of rune-state mutations for one atomic commit;
// passing the Store's own DB writes immediately, which is adequate for
// tests and for rollback (already single-writer, no concurrent readers
// of the same height).
type Writer interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Store is the persistent-map layer the rune updater and reorg
// controller both read and write: RuneEntry, RuneByName, Etching,
// OutpointBalances, OutpointHeight, StatRunes, StatReservedRunes,
// ChangeRecord, BlockHeader and the tip height.
type Store struct {
	db storage.DB
}

// NewStore wraps db for rune-state access.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

// NewBatch returns a Writer staging writes atomically, when the
// underlying DB supports it.
func (s *Store) NewBatch() storage.Batch {
	b, ok := s.db.(storage.Batcher)
	if !ok {
		return nil
	}
	return b.NewBatch()
}

// DirectWriter returns a Writer that writes straight through to the
// underlying DB, bypassing any batch. Used by the reorg controller,
// which is already single-writer and has no concurrent block commit to
// stay atomic with.
func (s *Store) DirectWriter() Writer {
	return s.db
}

func nsKey(ns byte, key []byte) []byte {
	out := make([]byte, 1+len(key))
	out[0] = ns
	copy(out[1:], key)
	return out
}

func runeIdKey(ns byte, id types.RuneId) []byte {
	enc := codec.EncodeRuneId(id)
	return nsKey(ns, enc[:])
}

func heightKey(ns byte, height uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], height)
	return nsKey(ns, b[:])
}

// --- RuneEntry ---

func (s *Store) GetRuneEntry(id types.RuneId) (*types.RuneEntry, error) {
	v, err := s.db.Get(runeIdKey(nsRuneEntry, id))
	if err != nil {
		return nil, ErrNotFound
	}
	return codec.DecodeRuneEntry(v)
}

func (s *Store) PutRuneEntry(w Writer, id types.RuneId, e *types.RuneEntry) error {
	return w.Put(runeIdKey(nsRuneEntry, id), codec.EncodeRuneEntry(e))
}

func (s *Store) DeleteRuneEntry(w Writer, id types.RuneId) error {
	return w.Delete(runeIdKey(nsRuneEntry, id))
}

// --- RuneByName: rune value (u128) -> RuneId ---

func runeNameKey(name *uint256.Int) []byte {
	enc := codec.EncodeU128(name)
	return nsKey(nsRuneByName, enc[:])
}

func (s *Store) GetRuneByName(name *uint256.Int) (types.RuneId, error) {
	v, err := s.db.Get(runeNameKey(name))
	if err != nil {
		return types.RuneId{}, ErrNotFound
	}
	return codec.DecodeRuneId(v)
}

func (s *Store) PutRuneByName(w Writer, name *uint256.Int, id types.RuneId) error {
	enc := codec.EncodeRuneId(id)
	return w.Put(runeNameKey(name), enc[:])
}

func (s *Store) DeleteRuneByName(w Writer, name *uint256.Int) error {
	return w.Delete(runeNameKey(name))
}

// --- Etching: txid -> rune value (u128) ---

func etchingKey(txid types.Txid) []byte {
	return nsKey(nsEtching, txid[:])
}

func (s *Store) GetEtching(txid types.Txid) (*uint256.Int, error) {
	v, err := s.db.Get(etchingKey(txid))
	if err != nil {
		return nil, ErrNotFound
	}
	return codec.DecodeU128(v), nil
}

func (s *Store) PutEtching(w Writer, txid types.Txid, name *uint256.Int) error {
	enc := codec.EncodeU128(name)
	return w.Put(etchingKey(txid), enc[:])
}

func (s *Store) DeleteEtching(w Writer, txid types.Txid) error {
	return w.Delete(etchingKey(txid))
}

// --- OutpointBalances / OutpointHeight ---

func outpointKey(ns byte, o types.OutPoint) []byte {
	enc := codec.EncodeOutPoint(o)
	return nsKey(ns, enc[:])
}

func (s *Store) GetOutpointBalances(o types.OutPoint) ([]types.RuneBalance, error) {
	v, err := s.db.Get(outpointKey(nsOutpointBalances, o))
	if err != nil {
		return nil, ErrNotFound
	}
	return codec.DecodeBalances(v)
}

func (s *Store) PutOutpointBalances(w Writer, o types.OutPoint, balances []types.RuneBalance) error {
	return w.Put(outpointKey(nsOutpointBalances, o), codec.EncodeBalances(balances))
}

func (s *Store) DeleteOutpointBalances(w Writer, o types.OutPoint) error {
	return w.Delete(outpointKey(nsOutpointBalances, o))
}

func (s *Store) GetOutpointHeight(o types.OutPoint) (uint64, error) {
	v, err := s.db.Get(outpointKey(nsOutpointHeight, o))
	if err != nil {
		return 0, ErrNotFound
	}
	if len(v) != 8 {
		return 0, errors.New("runes: corrupt outpoint height entry")
	}
	return binary.BigEndian.Uint64(v), nil
}

func (s *Store) PutOutpointHeight(w Writer, o types.OutPoint, height uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], height)
	return w.Put(outpointKey(nsOutpointHeight, o), b[:])
}

func (s *Store) DeleteOutpointHeight(w Writer, o types.OutPoint) error {
	return w.Delete(outpointKey(nsOutpointHeight, o))
}

// --- StatRunes / StatReservedRunes: height -> cumulative count ---

func (s *Store) GetStatRunes(height uint64) (uint64, error) {
	return s.getStat(nsStatRunes, height)
}

func (s *Store) PutStatRunes(w Writer, height, count uint64) error {
	return s.putStat(w, nsStatRunes, height, count)
}

func (s *Store) DeleteStatRunes(w Writer, height uint64) error {
	return w.Delete(heightKey(nsStatRunes, height))
}

func (s *Store) GetStatReservedRunes(height uint64) (uint64, error) {
	return s.getStat(nsStatReservedRunes, height)
}

func (s *Store) PutStatReservedRunes(w Writer, height, count uint64) error {
	return s.putStat(w, nsStatReservedRunes, height, count)
}

func (s *Store) DeleteStatReservedRunes(w Writer, height uint64) error {
	return w.Delete(heightKey(nsStatReservedRunes, height))
}

func (s *Store) getStat(ns byte, height uint64) (uint64, error) {
	v, err := s.db.Get(heightKey(ns, height))
	if err != nil {
		return 0, ErrNotFound
	}
	if len(v) != 8 {
		return 0, errors.New("runes: corrupt stat entry")
	}
	return binary.BigEndian.Uint64(v), nil
}

func (s *Store) putStat(w Writer, ns byte, height, count uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], count)
	return w.Put(heightKey(ns, height), b[:])
}

// --- ChangeRecord: height -> rollback data ---

func (s *Store) GetChangeRecord(height uint64) (*ChangeRecord, error) {
	v, err := s.db.Get(heightKey(nsChangeRecord, height))
	if err != nil {
		return nil, ErrNotFound
	}
	return DecodeChangeRecord(v)
}

func (s *Store) PutChangeRecord(w Writer, height uint64, c *ChangeRecord) error {
	return w.Put(heightKey(nsChangeRecord, height), c.Encode())
}

func (s *Store) DeleteChangeRecord(w Writer, height uint64) error {
	return w.Delete(heightKey(nsChangeRecord, height))
}

// --- BlockHeader: height -> 80-byte consensus-encoded header ---

func (s *Store) GetBlockHeader(height uint64) (*wire.BlockHeader, error) {
	v, err := s.db.Get(heightKey(nsBlockHeader, height))
	if err != nil {
		return nil, ErrNotFound
	}
	return codec.DecodeBlockHeader(v)
}

func (s *Store) PutBlockHeader(w Writer, height uint64, h *wire.BlockHeader) error {
	enc, err := codec.EncodeBlockHeader(h)
	if err != nil {
		return err
	}
	return w.Put(heightKey(nsBlockHeader, height), enc[:])
}

func (s *Store) DeleteBlockHeader(w Writer, height uint64) error {
	return w.Delete(heightKey(nsBlockHeader, height))
}

// --- Tip: the latest height the indexer has fully committed ---

// GetTipHeight returns the latest committed height. ok is false if
// nothing has been indexed yet (genesis sentinel).
func (s *Store) GetTipHeight() (height uint64, ok bool, err error) {
	v, err := s.db.Get(metaTipKey)
	if err != nil {
		return 0, false, nil
	}
	if len(v) != 8 {
		return 0, false, errors.New("runes: corrupt tip entry")
	}
	return binary.BigEndian.Uint64(v), true, nil
}

func (s *Store) SetTipHeight(w Writer, height uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], height)
	return w.Put(metaTipKey, b[:])
}
