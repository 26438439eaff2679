package engine

import (
	"sync"

	"github.com/google/uuid"
)

// DigestGenerator names transactions.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type DigestGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 transaction digests.
//
// UUIDv7 embeds a timestamp in the most significant bits, so digests sort
// by creation time, which keeps journal dumps readable.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined digests for testing.
//
// Digests feed identifier derivation, so a fixed sequence makes record
// IDs, event IDs and golden traces reproducible.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedGenerator creates a generator that returns digests in order.
//
//	gen := NewFixedGenerator("tx-1", "tx-2")
//	gen.Generate() // "tx-1"
//	gen.Generate() // "tx-2"
//	gen.Generate() // panic: all digests exhausted
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next predetermined digest.
//
// Panics if all digests have been consumed, which catches a test that
// runs more transactions than it planned for.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		panic("FixedGenerator: all digests exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}
