package object

import (
	"bytes"
	"reflect"
	"slices"

	"github.com/roach88/objstore/internal/cell"
	"github.com/roach88/objstore/internal/identity"
	"github.com/roach88/objstore/internal/ir"
	"github.com/roach88/objstore/internal/typetag"
)

// Flavor distinguishes the two kinds of dynamic slot.
type Flavor uint8

const (
	// Opaque slots absorb their value into the owner's private state.
	Opaque Flavor = iota + 1
	// Transparent slots hold a record that stays resolvable by identifier.
	Transparent
)

func (f Flavor) String() string {
	if f == Transparent {
		return "transparent"
	}
	return "opaque"
}

// SlotEntry is one (owner, key) association in the dynamic slot table.
type SlotEntry struct {
	ID      ir.ID
	Owner   ir.ID
	Flavor  Flavor
	KeyType typetag.Tag
	Key     []byte // canonical JSON encoding of the key

	// ValueType is the tag of the stored type, fixed at attach.
	ValueType typetag.Tag

	// Value holds plain values. Empty when Child is set.
	Value cell.Cell

	// Child is the record held by the slot, if the value is a record.
	Child ir.ID

	valueType reflect.Type
}

// KeyString renders the key for messages and traces, e.g. `string:"sword"`.
func (e *SlotEntry) KeyString() string {
	return e.KeyType.String() + ":" + string(e.Key)
}

// HoldsRecord reports whether the slot's value is a record.
func (e *SlotEntry) HoldsRecord() bool {
	return !e.Child.IsZero()
}

// HoldsType reports whether the stored value type is exactly t.
func (e *SlotEntry) HoldsType(t reflect.Type) bool {
	return e.valueType == t
}

// entry is one record in the arena.
type entry struct {
	value    cell.Cell
	owner    Ownership
	version  uint64
	children []ir.ID // embedded static fields
}

func (e *entry) clone() *entry {
	c := *e
	c.value = e.value.Clone()
	c.children = slices.Clone(e.children)
	return &c
}

// Info describes a record as seen through the external index.
type Info struct {
	ID      ir.ID       `json:"id"`
	Type    typetag.Tag `json:"type"`
	Owner   Ownership   `json:"owner"`
	Version uint64      `json:"version"`
	Value   any         `json:"value"`
}

func infoOf(id ir.ID, e *entry) Info {
	return Info{
		ID:      id,
		Type:    e.value.TypeTag(),
		Owner:   e.owner,
		Version: e.version,
		Value:   e.value.Value(),
	}
}

// Store is the arena of records and dynamic slots.
//
// Store does no locking. Callers serialize access: at most one Tx may be
// open against a store at a time, and readers must not run concurrently
// with Commit. The engine package provides that discipline.
type Store struct {
	registry *identity.Registry
	objects  map[ir.ID]*entry
	slots    map[ir.ID]*SlotEntry
	retired  map[ir.ID]struct{}
}

// NewStore creates an empty store issuing identifiers from registry.
func NewStore(registry *identity.Registry) *Store {
	if registry == nil {
		registry = identity.NewRegistry()
	}
	return &Store{
		registry: registry,
		objects:  make(map[ir.ID]*entry),
		slots:    make(map[ir.ID]*SlotEntry),
		retired:  make(map[ir.ID]struct{}),
	}
}

// Registry returns the identifier registry.
func (s *Store) Registry() *identity.Registry {
	return s.registry
}

// Begin opens a transaction overlay for sender.
func (s *Store) Begin(sender ir.Address, digest string) *Tx {
	return &Tx{
		store:    s,
		sender:   sender,
		digest:   digest,
		objects:  make(map[ir.ID]*entry),
		slots:    make(map[ir.ID]*SlotEntry),
		retired:  make(map[ir.ID]struct{}),
		fresh:    make(map[ir.ID]struct{}),
		grants:   make(map[ir.ID]int),
		borrowed: make(map[ir.ID]struct{}),
	}
}

// Lookup resolves a record through the external index. Embedded records,
// records in opaque slots and deleted records are not resolvable.
func (s *Store) Lookup(id ir.ID) (Info, bool) {
	e, ok := s.objects[id]
	if !ok || !e.owner.Visible() {
		return Info{}, false
	}
	return infoOf(id, e), true
}

// Owner returns the ownership designation of any live record, including
// ones hidden from the external index.
func (s *Store) Owner(id ir.ID) (Ownership, bool) {
	e, ok := s.objects[id]
	if !ok {
		return Ownership{}, false
	}
	return e.owner, true
}

// Owned lists visible records uniquely held by p, ordered by identifier.
func (s *Store) Owned(p ir.Address) []Info {
	return s.collect(func(e *entry) bool { return e.owner.HeldBy(p) })
}

// Objects lists every visible record, ordered by identifier.
func (s *Store) Objects() []Info {
	return s.collect(func(e *entry) bool { return e.owner.Visible() })
}

func (s *Store) collect(keep func(*entry) bool) []Info {
	var out []Info
	for id, e := range s.objects {
		if keep(e) {
			out = append(out, infoOf(id, e))
		}
	}
	slices.SortFunc(out, func(a, b Info) int { return bytes.Compare(a.ID[:], b.ID[:]) })
	return out
}

// Slots lists the slot entries attached to owner, ordered by slot identifier.
func (s *Store) Slots(owner ir.ID) []SlotEntry {
	return s.collectSlots(func(e *SlotEntry) bool { return e.Owner == owner })
}

// Orphans lists slot entries whose owner has been deleted. Such entries
// remain in the table but can never be reached again, because identifiers
// are never reissued.
func (s *Store) Orphans() []SlotEntry {
	return s.collectSlots(func(e *SlotEntry) bool {
		_, live := s.objects[e.Owner]
		return !live
	})
}

func (s *Store) collectSlots(keep func(*SlotEntry) bool) []SlotEntry {
	var out []SlotEntry
	for _, e := range s.slots {
		if keep(e) {
			out = append(out, *e)
		}
	}
	slices.SortFunc(out, func(a, b SlotEntry) int { return bytes.Compare(a.ID[:], b.ID[:]) })
	return out
}

// Retired reports whether id named a record that has since been deleted
// or unpacked.
func (s *Store) Retired(id ir.ID) bool {
	_, ok := s.retired[id]
	return ok
}

// Len returns the number of live records, visible or not.
func (s *Store) Len() int {
	return len(s.objects)
}
