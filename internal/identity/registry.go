// Package identity issues record identifiers.
//
// An identifier is SHA-256 over the creating transaction's digest and a
// process-wide counter, so identifiers are unique for the registry's whole
// lifetime and are never reissued, not even after the record they named
// has been deleted.
package identity

import "github.com/roach88/objstore/internal/ir"

// CreationContext supplies the salt for a new identifier.
// In practice this is the transaction being executed.
type CreationContext interface {
	Digest() string
}

// Digest is a CreationContext backed by a fixed string.
type Digest string

// Digest implements CreationContext.
func (d Digest) Digest() string { return string(d) }

// Registry issues identifiers. Safe for concurrent use.
type Registry struct {
	counter *Clock
}

// NewRegistry creates a registry whose counter starts at zero.
func NewRegistry() *Registry {
	return &Registry{counter: NewClock()}
}


// NewID returns an identifier distinct from every identifier this registry
// has issued. Never fails; advances the counter.
func (r *Registry) NewID(ctx CreationContext) ir.ID {
	return ir.ObjectID(ctx.Digest(), r.counter.Next())
}

// Resume skips past issued identifiers, e.g. the count recorded in a
// journal by an earlier process. A smaller count is ignored.
func (r *Registry) Resume(issued int64) {
	r.counter.AdvanceTo(issued)
}

// Issued reports how many identifiers have been issued.
func (r *Registry) Issued() int64 {
	return r.counter.Current()
}
