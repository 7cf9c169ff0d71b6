package codec

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/klingon-tech/runeindex/pkg/types"
)

func TestBalancesRoundTrip(t *testing.T) {
	balances := []types.RuneBalance{
		{ID: types.RuneId{Block: 840000, Tx: 1}, Balance: uint256.NewInt(5000)},
		{ID: types.RuneId{Block: 840001, Tx: 0}, Balance: uint256.NewInt(1)},
	}
	enc := EncodeBalances(balances)
	dec, err := DecodeBalances(enc)
	if err != nil {
		t.Fatalf("DecodeBalances: %v", err)
	}
	if len(dec) != len(balances) {
		t.Fatalf("len = %d, want %d", len(dec), len(balances))
	}
	for i, b := range balances {
		if dec[i].ID != b.ID || dec[i].Balance.Cmp(b.Balance) != 0 {
			t.Fatalf("entry %d mismatch: got %+v, want %+v", i, dec[i], b)
		}
	}
}

func TestBalancesEmptyRoundTrip(t *testing.T) {
	enc := EncodeBalances(nil)
	dec, err := DecodeBalances(enc)
	if err != nil {
		t.Fatalf("DecodeBalances: %v", err)
	}
	if len(dec) != 0 {
		t.Fatalf("expected empty slice, got %+v", dec)
	}
}

func TestDecodeBalancesTruncated(t *testing.T) {
	balances := []types.RuneBalance{
		{ID: types.RuneId{Block: 1, Tx: 0}, Balance: uint256.NewInt(1)},
	}
	enc := EncodeBalances(balances)
	if _, err := DecodeBalances(enc[:len(enc)-1]); err == nil {
		t.Fatal("expected an error decoding a truncated balances list")
	}
}
