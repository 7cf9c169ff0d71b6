package storage

import "github.com/dgraph-io/badger/v4"

// Batch accumulates writes for atomic commit. The block indexer uses one
// Batch per block so that a crash between writes never leaves height h
// partially applied (§4.4 commit granularity: the header write is the
// synchronization point, everything before it is staged in the batch).
type Batch interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Commit() error
}

// Batcher is implemented by a DB that can produce atomic Batches.
type Batcher interface {
	NewBatch() Batch
}

// badgerBatch adapts badger's WriteBatch to the Batch interface.
type badgerBatch struct {
	wb *badger.WriteBatch
}

// NewBatch returns a Batch backed by badger's WriteBatch, which commits
// all staged operations as a single ACID transaction.
func (b *BadgerDB) NewBatch() Batch {
	return &badgerBatch{wb: b.db.NewWriteBatch()}
}

func (bb *badgerBatch) Put(key, value []byte) error {
	return bb.wb.Set(key, value)
}

func (bb *badgerBatch) Delete(key []byte) error {
	return bb.wb.Delete(key)
}

func (bb *badgerBatch) Commit() error {
	return bb.wb.Flush()
}

// memoryBatch buffers writes in order and applies them to a MemoryDB
// on Commit. Not atomic with respect to concurrent readers, which is
// acceptable for the single-writer model this store is used under.
type memoryBatch struct {
	db  *MemoryDB
	ops []memoryOp
}

type memoryOp struct {
	key   []byte
	value []byte // nil means delete
}

// NewBatch returns a Batch over the in-memory store, for tests.
func (m *MemoryDB) NewBatch() Batch {
	return &memoryBatch{db: m}
}

func (mb *memoryBatch) Put(key, value []byte) error {
	k := append([]byte(nil), key...)
	v := append([]byte(nil), value...)
	mb.ops = append(mb.ops, memoryOp{key: k, value: v})
	return nil
}

func (mb *memoryBatch) Delete(key []byte) error {
	k := append([]byte(nil), key...)
	mb.ops = append(mb.ops, memoryOp{key: k, value: nil})
	return nil
}

func (mb *memoryBatch) Commit() error {
	for _, op := range mb.ops {
		if op.value == nil {
			if err := mb.db.Delete(op.key); err != nil {
				return err
			}
			continue
		}
		if err := mb.db.Put(op.key, op.value); err != nil {
			return err
		}
	}
	return nil
}
