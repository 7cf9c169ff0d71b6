// Package storage provides the key-value abstractions runes.Store is
// built on: a flat byte-keyed map, written directly or staged through
// a Batch so a block's entire write set commits atomically.
package storage

// DB is the interface runes.Store needs from its backing key-value
// store, satisfied by BadgerDB in production and MemoryDB in tests.
type DB interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
	// ForEach iterates over all keys with the given prefix.
	// The callback receives a copy of the key; the value is not copied
	// and must not be retained or modified after fn returns.
	// Return a non-nil error from fn to stop iteration early.
	ForEach(prefix []byte, fn func(key, value []byte) error) error
	Close() error
}
