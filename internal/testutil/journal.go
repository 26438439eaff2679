package testutil

import (
	"path/filepath"
	"testing"

	"github.com/roach88/objstore/internal/store"
)

// OpenJournal opens a journal in a temp directory, closed at test end.
func OpenJournal(t testing.TB) *store.Store {
	t.Helper()
	j, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}
