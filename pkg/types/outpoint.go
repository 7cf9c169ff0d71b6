package types

import "fmt"

// OutPointSize is the fixed wire size of an OutPoint: a 32-byte txid
// followed by a little-endian 4-byte output index.
const OutPointSize = 36

// OutPoint references a specific output in a transaction.
type OutPoint struct {
	TxID Txid   `json:"txid"`
	Vout uint32 `json:"vout"`
}

// IsZero returns true if the outpoint has a zero TxID and zero index.
func (o OutPoint) IsZero() bool {
	return o.TxID.IsZero() && o.Vout == 0
}

// String returns "txid:vout" in hex.
func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID.String(), o.Vout)
}
