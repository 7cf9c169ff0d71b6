package types

import "github.com/holiman/uint256"

// RuneBalance pairs a rune with the quantity of it held at some outpoint.
type RuneBalance struct {
	ID      RuneId
	Balance *uint256.Int
}
