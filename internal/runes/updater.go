package runes

import (
	"context"
	"sort"

	"github.com/btcsuite/btcd/wire"
	"github.com/holiman/uint256"

	"github.com/klingon-tech/runeindex/internal/artifact"
	"github.com/klingon-tech/runeindex/pkg/types"
)

// Updater is the per-block instance of the rune state machine: one is
// constructed at the start of a block, fed every transaction in order
// via Update, and finished with FlushBurns once all transactions have
// been processed (mirroring the block indexer's sequence in §4.4).
type Updater struct {
	store   *Store
	oracle  CommitOracle
	height  uint64
	blockTime uint64
	minimum *uint256.Int

	statRunes         uint64
	statReservedRunes uint64

	change *ChangeRecord
	burned map[types.RuneId]*uint256.Int
}

// NewUpdater constructs an Updater for the block at height, seeded with
// the previous height's cumulative rune counts. oracle may be nil, in
// which case any etching that requires commitment verification is
// rejected (see verifyCommitment) rather than silently accepted.
func NewUpdater(store *Store, height, blockTime, prevStatRunes, prevStatReservedRunes uint64, oracle CommitOracle) *Updater {
	return &Updater{
		store:             store,
		oracle:            oracle,
		height:            height,
		blockTime:         blockTime,
		minimum:           MinimumAtHeight(height),
		statRunes:         prevStatRunes,
		statReservedRunes: prevStatReservedRunes,
		change:            NewChangeRecord(),
		burned:            make(map[types.RuneId]*uint256.Int),
	}
}

// ChangeRecord returns the rollback data accumulated so far this block.
func (u *Updater) ChangeRecord() *ChangeRecord { return u.change }

// StatRunes returns the cumulative non-reserved rune count after every
// transaction processed so far this block.
func (u *Updater) StatRunes() uint64 { return u.statRunes }

// StatReservedRunes is StatRunes's reserved-name counterpart.
func (u *Updater) StatReservedRunes() uint64 { return u.statReservedRunes }

// Update processes one transaction, implementing steps (a) through (g)
// of §4.3. art is the already-decoded artifact for tx (nil means no
// rune intent at all).
func (u *Updater) Update(ctx context.Context, w Writer, txIndex uint32, tx *wire.MsgTx, txid types.Txid, art *artifact.Artifact) error {
	unallocated := make(map[types.RuneId]*uint256.Int)

	// (a) collect unallocated input runes.
	for _, in := range tx.TxIn {
		op := fromWireOutPoint(in.PreviousOutPoint)
		balances, err := u.store.GetOutpointBalances(op)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return err
		}
		height, err := u.store.GetOutpointHeight(op)
		if err != nil {
			return err
		}
		if err := u.store.DeleteOutpointBalances(w, op); err != nil {
			return err
		}
		if err := u.store.DeleteOutpointHeight(w, op); err != nil {
			return err
		}
		u.change.RecordRemoved(op, balances, height)
		for _, b := range balances {
			addBalance(unallocated, b.ID, b.Balance)
		}
	}

	isCenotaph := art != nil && art.Kind == artifact.KindCenotaph

	// (c) mint.
	if art != nil && art.Kind == artifact.KindRunestone && art.Mint != nil {
		id := types.RuneId{Block: art.Mint.Block, Tx: art.Mint.Tx}
		entry, err := u.store.GetRuneEntry(id)
		if err != nil && err != ErrNotFound {
			return err
		}
		if err == nil {
			if amount, merr := Mintable(entry, u.height); merr == nil {
				u.change.RecordMintsOnce(id, new(uint256.Int).Set(entry.Mints))
				entry.Mints = new(uint256.Int).Add(entry.Mints, uint256.NewInt(1))
				if err := u.store.PutRuneEntry(w, id, entry); err != nil {
					return err
				}
				addBalance(unallocated, id, amount)
			}
		}
	}

	// (d) etch.
	etchedID, etched, err := u.etch(ctx, w, txIndex, tx, txid, art, unallocated)
	if err != nil {
		return err
	}

	// (e) apply edicts (Runestone only — a Cenotaph never carries edicts).
	allocations := make(map[uint32]map[types.RuneId]*uint256.Int)
	if art != nil && art.Kind == artifact.KindRunestone {
		var etchedPtr *types.RuneId
		if etched {
			etchedPtr = &etchedID
		}
		applyEdicts(tx, art.Edicts, etchedPtr, unallocated, allocations)
	}

	// (f) unallocated disposition and (g) per-output commit.
	return u.disposeAndCommit(w, tx, isCenotaph, art, unallocated, allocations, txid)
}

// FlushBurns persists the whole block's accumulated burn map, §4.3(h)
// applied once across every transaction the block contained (mirroring
// the source's own end-of-block update() pass rather than a per-
// transaction persist).
func (u *Updater) FlushBurns(w Writer) error {
	ids := make([]types.RuneId, 0, len(u.burned))
	for id := range u.burned {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Block != ids[j].Block {
			return ids[i].Block < ids[j].Block
		}
		return ids[i].Tx < ids[j].Tx
	})
	for _, id := range ids {
		amount := u.burned[id]
		entry, err := u.store.GetRuneEntry(id)
		if err != nil {
			if err == ErrNotFound {
				continue
			}
			return err
		}
		u.change.RecordBurnedOnce(id, new(uint256.Int).Set(entry.Burned))
		if err := AddBurned(entry, amount); err != nil {
			return err
		}
		if err := u.store.PutRuneEntry(w, id, entry); err != nil {
			return err
		}
	}
	return nil
}

func (u *Updater) etch(ctx context.Context, w Writer, txIndex uint32, tx *wire.MsgTx, txid types.Txid, art *artifact.Artifact, unallocated map[types.RuneId]*uint256.Int) (types.RuneId, bool, error) {
	if art == nil {
		return types.RuneId{}, false, nil
	}

	var candidate *uint256.Int
	hasEtching := false
	switch art.Kind {
	case artifact.KindRunestone:
		if art.Etching == nil {
			return types.RuneId{}, false, nil
		}
		hasEtching = true
		candidate = art.Etching.Rune
	case artifact.KindCenotaph:
		if art.CenotaphEtching == nil {
			return types.RuneId{}, false, nil
		}
		hasEtching = true
		candidate = art.CenotaphEtching
	}
	if !hasEtching {
		return types.RuneId{}, false, nil
	}

	var name *uint256.Int
	reserved := false
	if candidate != nil {
		if candidate.Cmp(u.minimum) < 0 || IsReserved(candidate) {
			return types.RuneId{}, false, nil
		}
		if _, err := u.store.GetRuneByName(candidate); err == nil {
			return types.RuneId{}, false, nil
		} else if err != ErrNotFound {
			return types.RuneId{}, false, err
		}
		ok, err := u.verifyCommitment(ctx, tx, candidate)
		if err != nil {
			return types.RuneId{}, false, err
		}
		if !ok {
			return types.RuneId{}, false, nil
		}
		name = candidate
	} else {
		name = Reserved(u.height, txIndex)
		reserved = true
	}

	id := types.RuneId{Block: u.height, Tx: txIndex}
	entry := types.NewRuneEntry()
	entry.Block = u.height
	entry.Etching = txid
	entry.Timestamp = u.blockTime
	entry.SpacedRune = types.SpacedRune{Rune: *name}
	entry.Number = u.statRunes + u.statReservedRunes

	if art.Kind == artifact.KindRunestone && art.Etching != nil {
		et := art.Etching
		if et.HasDivisibility {
			entry.Divisibility = et.Divisibility
		}
		if et.HasSpacers {
			entry.SpacedRune.Spacers = et.Spacers
		}
		if et.HasSymbol {
			entry.HasSymbol = true
			entry.Symbol = et.Symbol
		}
		entry.Turbo = et.Turbo
		if et.Premine != nil {
			entry.Premine = new(uint256.Int).Set(et.Premine)
		}
		if et.Terms != nil {
			entry.Terms = &types.Terms{
				Amount:      et.Terms.Amount,
				Cap:         et.Terms.Cap,
				HeightStart: et.Terms.HeightStart,
				HeightEnd:   et.Terms.HeightEnd,
				OffsetStart: et.Terms.OffsetStart,
				OffsetEnd:   et.Terms.OffsetEnd,
			}
		}
	}

	if err := u.store.PutRuneEntry(w, id, entry); err != nil {
		return types.RuneId{}, false, err
	}
	if err := u.store.PutRuneByName(w, name, id); err != nil {
		return types.RuneId{}, false, err
	}
	if err := u.store.PutEtching(w, txid, name); err != nil {
		return types.RuneId{}, false, err
	}

	if reserved {
		u.statReservedRunes++
	} else {
		u.statRunes++
	}
	u.change.RecordEtched(entry.SpacedRune, id, txid)

	if entry.Premine.Sign() > 0 {
		addBalance(unallocated, id, entry.Premine)
	}

	return id, true, nil
}

func (u *Updater) disposeAndCommit(w Writer, tx *wire.MsgTx, isCenotaph bool, art *artifact.Artifact, unallocated map[types.RuneId]*uint256.Int, allocations map[uint32]map[types.RuneId]*uint256.Int, txid types.Txid) error {
	if isCenotaph {
		for id, bal := range unallocated {
			addBalance(u.burned, id, bal)
		}
	} else if vout, ok := defaultOutput(tx, art); ok {
		for id, bal := range unallocated {
			allocate(allocations, vout, id, bal)
		}
	} else {
		for id, bal := range unallocated {
			addBalance(u.burned, id, bal)
		}
	}

	outputs := make([]uint32, 0, len(allocations))
	for o := range allocations {
		outputs = append(outputs, o)
	}
	sort.Slice(outputs, func(i, j int) bool { return outputs[i] < outputs[j] })

	for _, o := range outputs {
		m := allocations[o]
		if types.IsOpReturn(tx.TxOut[o].PkScript) {
			for id, amt := range m {
				addBalance(u.burned, id, amt)
			}
			continue
		}
		balances := balancesFromMap(m)
		if len(balances) == 0 {
			continue
		}
		op := types.OutPoint{TxID: txid, Vout: o}
		if err := u.store.PutOutpointBalances(w, op, balances); err != nil {
			return err
		}
		if err := u.store.PutOutpointHeight(w, op, u.height); err != nil {
			return err
		}
		u.change.RecordAdded(op)
	}
	return nil
}

func applyEdicts(tx *wire.MsgTx, edicts []artifact.Edict, etchedID *types.RuneId, unallocated map[types.RuneId]*uint256.Int, allocations map[uint32]map[types.RuneId]*uint256.Int) {
	outputLen := uint32(len(tx.TxOut))
	for _, e := range edicts {
		id := types.RuneId{Block: e.ID.Block, Tx: e.ID.Tx}
		if id.IsZero() {
			if etchedID == nil {
				continue
			}
			id = *etchedID
		}
		bal, ok := unallocated[id]
		if !ok || bal.Sign() == 0 {
			continue
		}

		if e.Output < outputLen {
			give := new(uint256.Int).Set(bal)
			if e.Amount.Sign() != 0 && e.Amount.Cmp(bal) < 0 {
				give.Set(e.Amount)
			}
			allocate(allocations, e.Output, id, give)
			bal.Sub(bal, give)
			continue
		}

		var dests []uint32
		for i, out := range tx.TxOut {
			if !types.IsOpReturn(out.PkScript) {
				dests = append(dests, uint32(i))
			}
		}
		if len(dests) == 0 {
			continue
		}

		if e.Amount.Sign() == 0 {
			n := uint256.NewInt(uint64(len(dests)))
			share := new(uint256.Int).Div(bal, n)
			remainder := new(uint256.Int).Mod(bal, n)
			rem := remainder.Uint64()
			for i, d := range dests {
				amt := new(uint256.Int).Set(share)
				if uint64(i) < rem {
					amt.Add(amt, uint256.NewInt(1))
				}
				allocate(allocations, d, id, amt)
			}
			bal.Clear()
		} else {
			for _, d := range dests {
				if bal.Sign() == 0 {
					break
				}
				give := new(uint256.Int).Set(e.Amount)
				if give.Cmp(bal) > 0 {
					give.Set(bal)
				}
				allocate(allocations, d, id, give)
				bal.Sub(bal, give)
			}
		}
	}
}

func defaultOutput(tx *wire.MsgTx, art *artifact.Artifact) (uint32, bool) {
	if art != nil && art.Pointer != nil {
		return *art.Pointer, true
	}
	for i, out := range tx.TxOut {
		if !types.IsOpReturn(out.PkScript) {
			return uint32(i), true
		}
	}
	return 0, false
}

func allocate(allocations map[uint32]map[types.RuneId]*uint256.Int, output uint32, id types.RuneId, amount *uint256.Int) {
	if amount == nil || amount.Sign() == 0 {
		return
	}
	m, ok := allocations[output]
	if !ok {
		m = make(map[types.RuneId]*uint256.Int)
		allocations[output] = m
	}
	if existing, ok := m[id]; ok {
		existing.Add(existing, amount)
	} else {
		m[id] = new(uint256.Int).Set(amount)
	}
}

func addBalance(m map[types.RuneId]*uint256.Int, id types.RuneId, amount *uint256.Int) {
	if amount == nil || amount.Sign() == 0 {
		return
	}
	if existing, ok := m[id]; ok {
		existing.Add(existing, amount)
	} else {
		m[id] = new(uint256.Int).Set(amount)
	}
}

func balancesFromMap(m map[types.RuneId]*uint256.Int) []types.RuneBalance {
	out := make([]types.RuneBalance, 0, len(m))
	for id, amt := range m {
		if amt.Sign() == 0 {
			continue
		}
		out = append(out, types.RuneBalance{ID: id, Balance: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID.Block != out[j].ID.Block {
			return out[i].ID.Block < out[j].ID.Block
		}
		return out[i].ID.Tx < out[j].ID.Tx
	})
	return out
}

func fromWireOutPoint(op wire.OutPoint) types.OutPoint {
	return types.OutPoint{TxID: types.Txid(op.Hash), Vout: op.Index}
}
