// Package artifact decodes a transaction's rune intent: a Runestone, a
// Cenotaph, or no intent at all. No third-party Go library implements the
// Runes wire format (it exists only as a Rust crate), so this package
// defines a self-consistent tag/varint scheme satisfying the same
// functional contract rather than claiming byte-exact compatibility with
// any particular Runestone implementation. See DESIGN.md.
package artifact

import "github.com/holiman/uint256"

// Kind distinguishes the two non-empty artifact variants. Decode returns a
// nil *Artifact for "no rune intent", so Kind is never observed as "none" —
// it only tags Runestone vs Cenotaph, which must stay a real tagged
// variant rather than a nullable Runestone.
type Kind uint8

const (
	KindRunestone Kind = iota
	KindCenotaph
)

// Edict moves amount units of rune id to output, or distributes it when
// output equals the transaction's output count.
type Edict struct {
	ID     RuneRef
	Amount *uint256.Int
	Output uint32
}

// RuneRef is a RuneId as it appears inside a decoded artifact: (0,0) means
// "the rune etched in this same transaction".
type RuneRef struct {
	Block uint64
	Tx    uint32
}

func (r RuneRef) IsZero() bool { return r.Block == 0 && r.Tx == 0 }

// Etching is the payload of a rune-creation intent.
type Etching struct {
	Rune            *uint256.Int // nil: no name given, caller assigns a reserved one
	HasDivisibility bool
	Divisibility    uint8
	HasSpacers      bool
	Spacers         uint32
	HasSymbol       bool
	Symbol          rune
	Premine         *uint256.Int // nil treated as zero
	Terms           *Terms       // nil: no minting terms
	Turbo           bool
}

// Terms mirrors types.Terms but is decoded straight off the wire before
// being handed to the caller, which converts it into types.Terms.
type Terms struct {
	Amount      *uint256.Int
	Cap         *uint256.Int
	HeightStart *uint64
	HeightEnd   *uint64
	OffsetStart *uint64
	OffsetEnd   *uint64
}

// Artifact is the decoded form of a transaction's rune intent.
type Artifact struct {
	Kind Kind

	// Runestone-only fields (zero value for Cenotaph).
	Edicts  []Edict
	Etching *Etching
	Mint    *RuneRef
	Pointer *uint32

	// CenotaphEtching carries a rune name that was successfully parsed off
	// an otherwise-malformed payload; spec's "Cenotaph with a name" case
	// treats this as a degenerate etching.
	CenotaphEtching *uint256.Int
}

// MintID reports the RuneId this artifact requests a mint for, if any.
func (a *Artifact) MintID() (RuneRef, bool) {
	if a == nil || a.Kind != KindRunestone || a.Mint == nil {
		return RuneRef{}, false
	}
	return *a.Mint, true
}
