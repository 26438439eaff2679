// Package testutil provides deterministic collaborators for tests and
// scenario runs.
package testutil

import (
	"fmt"
	"sync"
)

// SequentialDigests generates transaction digests "<prefix>-1",
// "<prefix>-2", ... without limit.
//
// Digests seed record identifiers, so the same scenario run with the same
// prefix yields byte-identical IDs and journals.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialDigests struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialDigests creates a generator. An empty prefix becomes "tx".
func NewSequentialDigests(prefix string) *SequentialDigests {
	if prefix == "" {
		prefix = "tx"
	}
	return &SequentialDigests{prefix: prefix}
}

// Generate returns the next digest.
// Implements engine.DigestGenerator.
func (g *SequentialDigests) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Count returns how many digests have been generated.
func (g *SequentialDigests) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

// AdvanceTo moves the sequence so the next digest is "<prefix>-(n+1)".
// It never moves backwards.
func (g *SequentialDigests) AdvanceTo(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n > g.n {
		g.n = n
	}
}

// Reset restarts the sequence at 1.
func (g *SequentialDigests) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
