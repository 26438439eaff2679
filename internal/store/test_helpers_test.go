package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/objstore/internal/ir"
)

var alice = ir.AddressFromLabel("alice")

// createTestStore opens a fresh journal in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestRecord(digest string, status string, seq int64) ir.TxRecord {
	return ir.TxRecord{
		Digest: digest,
		Sender: alice,
		Status: status,
		Seq:    seq,
	}
}

func createTestEvent(digest string, seq int64, kind string, object ir.ID, fields ir.IRObject) ir.Event {
	return ir.Event{
		ID:     ir.MustEventID(digest, seq, kind, fields),
		Digest: digest,
		Seq:    seq,
		Kind:   kind,
		Object: object,
		Fields: fields,
	}
}

func testObject(n int64) ir.ID {
	return ir.ObjectID("test", n)
}
