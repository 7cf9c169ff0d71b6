package runes

import (
	"context"

	"github.com/btcsuite/btcd/wire"
	"github.com/holiman/uint256"

	"github.com/klingon-tech/runeindex/pkg/types"
)

// CommitConfirmations is the number of confirmations a commitment's
// containing block must have accumulated before the commitment is
// considered authenticated (taken, per the Runes protocol, from the
// reference Runestone library: 6 on mainnet).
const CommitConfirmations = 6

// CommitOracle answers the two external lookups the etching commitment
// check needs: the previous output an input spends (to classify it as
// taproot) and the confirmation depth of the block that contains it.
// internal/rpc supplies the production implementation backed by
// getrawtransaction/getblockheader; tests supply a fake.
type CommitOracle interface {
	// PrevOutput returns the output script and containing block hash of
	// the output at (txid, vout).
	PrevOutput(ctx context.Context, txid types.Txid, vout uint32) (script []byte, blockHash types.Hash, err error)
	// BlockHeight returns the height of the block identified by hash.
	BlockHeight(ctx context.Context, hash types.Hash) (height uint64, err error)
}

// verifyCommitment reports whether tx reveals rune's commitment through
// a taproot script-path input confirmed at least CommitConfirmations
// deep, per spec.md's etching commitment rule. A lookup failure on one
// input is not fatal — it just means that input doesn't satisfy the
// commitment; the next input may.
func (u *Updater) verifyCommitment(ctx context.Context, tx *wire.MsgTx, rune *uint256.Int) (bool, error) {
	if u.oracle == nil {
		return false, nil
	}
	commitment := Commitment(rune)
	for _, in := range tx.TxIn {
		script, ok := tapscript(in.Witness)
		if !ok {
			continue
		}
		if !scriptContainsPush(script, commitment) {
			continue
		}
		prevScript, blockHash, err := u.oracle.PrevOutput(ctx, types.Txid(in.PreviousOutPoint.Hash), in.PreviousOutPoint.Index)
		if err != nil {
			continue
		}
		if !types.IsTaproot(prevScript) {
			continue
		}
		height, err := u.oracle.BlockHeight(ctx, blockHash)
		if err != nil {
			continue
		}
		if u.height >= height+CommitConfirmations-1 {
			return true, nil
		}
	}
	return false, nil
}

// tapscript extracts the revealed script from a taproot script-path
// spend's witness stack: the second-to-last item (last is the control
// block, and an optional annex would sit between them, pushed off by
// one more — callers here only care about the common no-annex case).
func tapscript(witness wire.TxWitness) ([]byte, bool) {
	if len(witness) < 2 {
		return nil, false
	}
	return witness[len(witness)-2], true
}

// scriptContainsPush reports whether any data push in script equals
// data.
func scriptContainsPush(script, data []byte) bool {
	for i := 0; i < len(script); {
		op := script[i]
		switch {
		case op >= 0x01 && op <= 0x4b:
			n := int(op)
			i++
			if i+n > len(script) {
				return false
			}
			if bytesEqual(script[i:i+n], data) {
				return true
			}
			i += n
		case op == 0x4c && i+1 < len(script):
			n := int(script[i+1])
			i += 2
			if i+n > len(script) {
				return false
			}
			if bytesEqual(script[i:i+n], data) {
				return true
			}
			i += n
		case op == 0x4d && i+2 < len(script):
			n := int(script[i+1]) | int(script[i+2])<<8
			i += 3
			if i+n > len(script) {
				return false
			}
			if bytesEqual(script[i:i+n], data) {
				return true
			}
			i += n
		default:
			i++
		}
	}
	return false
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
