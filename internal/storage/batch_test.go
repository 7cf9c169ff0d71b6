package storage

import (
	"bytes"
	"testing"
)

func testBatch(t *testing.T, db interface {
	DB
	Batcher
}) {
	t.Helper()

	db.Put([]byte("keep"), []byte("before"))
	db.Put([]byte("remove"), []byte("gone"))

	b := db.NewBatch()
	if err := b.Put([]byte("keep"), []byte("after")); err != nil {
		t.Fatalf("batch Put: %v", err)
	}
	if err := b.Delete([]byte("remove")); err != nil {
		t.Fatalf("batch Delete: %v", err)
	}
	if err := b.Put([]byte("new"), []byte("value")); err != nil {
		t.Fatalf("batch Put: %v", err)
	}

	// Uncommitted writes must not be visible yet.
	got, _ := db.Get([]byte("keep"))
	if !bytes.Equal(got, []byte("before")) {
		t.Fatalf("uncommitted batch visible: keep = %q", got)
	}

	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := db.Get([]byte("keep"))
	if err != nil || !bytes.Equal(got, []byte("after")) {
		t.Fatalf("after commit keep = %q, %v", got, err)
	}
	if ok, _ := db.Has([]byte("remove")); ok {
		t.Fatal("remove still present after batch delete")
	}
	got, err = db.Get([]byte("new"))
	if err != nil || !bytes.Equal(got, []byte("value")) {
		t.Fatalf("new = %q, %v", got, err)
	}
}

func TestMemoryDB_Batch(t *testing.T) {
	testBatch(t, NewMemory())
}

func TestBadgerDB_Batch(t *testing.T) {
	db, err := NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	defer db.Close()
	testBatch(t, db)
}
