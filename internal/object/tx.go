package object

import (
	"fmt"

	"github.com/roach88/objstore/internal/fault"
	"github.com/roach88/objstore/internal/ir"
)

// Tx is a copy-on-write overlay over a Store.
//
// Every read goes through the overlay first; every write copies the
// affected entry into the overlay. Nothing reaches the store until
// Commit, so dropping a Tx discards all of its effects.
//
// A Tx is used by a single goroutine.
type Tx struct {
	store  *Store
	sender ir.Address
	digest string

	objects map[ir.ID]*entry     // nil value: deleted in this tx
	slots   map[ir.ID]*SlotEntry // nil value: removed in this tx
	retired map[ir.ID]struct{}

	fresh    map[ir.ID]struct{} // issued by NewUID, not yet consumed
	grants   map[ir.ID]int      // records reachable through an active mutable borrow
	borrowed map[ir.ID]struct{} // records and slots under an active mutable borrow

	events []ir.Event
	done   bool
}

// Sender returns the principal executing the transaction.
func (tx *Tx) Sender() ir.Address {
	return tx.sender
}

// Digest returns the transaction digest. Tx is an identity.CreationContext.
func (tx *Tx) Digest() string {
	return tx.digest
}

// Emit records an event. Events are published only if the transaction commits.
func (tx *Tx) Emit(kind string, object ir.ID, fields ir.IRObject) {
	if fields == nil {
		fields = ir.IRObject{}
	}
	tx.events = append(tx.events, ir.Event{
		Digest: tx.digest,
		Kind:   kind,
		Object: object,
		Fields: fields,
	})
}

// Events returns the events emitted so far, in emission order.
func (tx *Tx) Events() []ir.Event {
	return append([]ir.Event(nil), tx.events...)
}

// Info resolves a record through the overlay with the same visibility
// rules as Store.Lookup.
func (tx *Tx) Info(id ir.ID) (Info, bool) {
	e, ok := tx.entry(id)
	if !ok || !e.owner.Visible() {
		return Info{}, false
	}
	return infoOf(id, e), true
}

func (tx *Tx) entry(id ir.ID) (*entry, bool) {
	if e, ok := tx.objects[id]; ok {
		return e, e != nil
	}
	e, ok := tx.store.objects[id]
	return e, ok
}

// mutEntry returns the overlay copy of a live entry, creating it on first
// write. A record deleted earlier in the transaction stays deleted.
func (tx *Tx) mutEntry(id ir.ID) (*entry, error) {
	if e, ok := tx.objects[id]; ok {
		if e == nil {
			return nil, fault.InvalidState(id, "record is not live")
		}
		return e, nil
	}
	committed, ok := tx.store.objects[id]
	if !ok {
		return nil, fault.InvalidState(id, "record is not live")
	}
	e := committed.clone()
	tx.objects[id] = e
	return e, nil
}

func (tx *Tx) removeEntry(id ir.ID) {
	tx.objects[id] = nil
	tx.retired[id] = struct{}{}
}

func (tx *Tx) consumeFresh(id ir.ID) error {
	if _, ok := tx.fresh[id]; !ok {
		return fault.InvalidState(id, "identifier was not issued by this transaction")
	}
	delete(tx.fresh, id)
	return nil
}

func (tx *Tx) isFresh(id ir.ID) bool {
	_, ok := tx.fresh[id]
	return ok
}

func (tx *Tx) live(id ir.ID) (*entry, error) {
	e, ok := tx.entry(id)
	if !ok {
		return nil, fault.InvalidState(id, "record is not live")
	}
	return e, nil
}

// CanRead checks that the sender may read id.
//
// Frozen records are readable by anyone, uniquely held records by their
// principal, embedded records by whoever can read the parent. Records
// reachable through an active mutable borrow are readable within it.
func (tx *Tx) CanRead(id ir.ID) error {
	e, err := tx.live(id)
	if err != nil {
		return err
	}
	if tx.grants[id] > 0 {
		return nil
	}
	switch e.owner.Kind {
	case KindFrozen:
		return nil
	case KindUniquelyHeld:
		if e.owner.Principal != tx.sender {
			return fault.NotAuthorized(id, "record is held by %s", e.owner.Principal.Short())
		}
		return nil
	case KindEmbedded:
		return tx.CanRead(e.owner.Parent)
	default:
		return fault.NotAuthorized(id, "record is held in a slot of %s", e.owner.Parent.Short())
	}
}

// CanWrite checks that the sender may mutate id or its dynamic slots.
func (tx *Tx) CanWrite(id ir.ID) error {
	e, err := tx.live(id)
	if err != nil {
		return err
	}
	if e.owner.Kind == KindFrozen {
		return fault.InvalidState(id, "record is frozen")
	}
	if tx.grants[id] > 0 {
		return nil
	}
	return tx.checkHeld(id, e)
}

// requireHeld checks that id may be used as a standalone argument:
// uniquely held by the sender, not merely reachable through a borrow, and
// not under a mutable borrow of its own.
func (tx *Tx) requireHeld(id ir.ID) (*entry, error) {
	e, err := tx.live(id)
	if err != nil {
		return nil, err
	}
	if _, ok := tx.borrowed[id]; ok {
		return nil, fault.InvalidState(id, "record is mutably borrowed")
	}
	if e.owner.Kind == KindFrozen {
		return nil, fault.InvalidState(id, "record is frozen")
	}
	if err := tx.checkHeld(id, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (tx *Tx) checkHeld(id ir.ID, e *entry) error {
	switch e.owner.Kind {
	case KindUniquelyHeld:
		if e.owner.Principal != tx.sender {
			return fault.NotAuthorized(id, "record is held by %s", e.owner.Principal.Short())
		}
		return nil
	case KindEmbedded:
		return fault.NotAuthorized(id, "record is embedded in %s", e.owner.Parent.Short())
	case KindSlotted:
		return fault.NotAuthorized(id, "record is held in a slot of %s", e.owner.Parent.Short())
	default:
		return fault.InvalidState(id, "record is %s", e.owner.Kind)
	}
}

// WithGrant runs fn with id reachable for reads and writes, as it is while
// the slot holding it is mutably borrowed.
func (tx *Tx) WithGrant(id ir.ID, fn func() error) error {
	tx.grants[id]++
	defer func() {
		if tx.grants[id]--; tx.grants[id] == 0 {
			delete(tx.grants, id)
		}
	}()
	return fn()
}

// BeginBorrow marks key (a record or slot identifier) as mutably borrowed.
// A second mutable borrow of the same key fails with INVALID_STATE.
func (tx *Tx) BeginBorrow(key ir.ID) error {
	if _, ok := tx.borrowed[key]; ok {
		return fault.InvalidState(key, "already mutably borrowed")
	}
	tx.borrowed[key] = struct{}{}
	return nil
}

// EndBorrow releases a mutable borrow taken by BeginBorrow.
func (tx *Tx) EndBorrow(key ir.ID) {
	delete(tx.borrowed, key)
}

// Validate reports effects that would violate record lifecycle rules if
// committed: identifiers issued but never consumed by a record.
func (tx *Tx) Validate() error {
	for id := range tx.fresh {
		return fault.InvalidState(id, "identifier issued but never used by a record")
	}
	return nil
}

// Commit applies the overlay to the store. Versions of every written
// record are incremented. A Tx can be committed at most once.
func (tx *Tx) Commit() error {
	if tx.done {
		return fmt.Errorf("transaction %s already finished", tx.digest)
	}
	if err := tx.Validate(); err != nil {
		return err
	}
	tx.done = true

	s := tx.store
	for id, e := range tx.objects {
		if e == nil {
			delete(s.objects, id)
			continue
		}
		if prev, ok := s.objects[id]; ok {
			e.version = prev.version + 1
		} else {
			e.version = 1
		}
		s.objects[id] = e
	}
	for id, se := range tx.slots {
		if se == nil {
			delete(s.slots, id)
			continue
		}
		s.slots[id] = se
	}
	for id := range tx.retired {
		s.retired[id] = struct{}{}
	}
	return nil
}

// Rollback discards the overlay.
func (tx *Tx) Rollback() {
	tx.done = true
	clear(tx.objects)
	clear(tx.slots)
	tx.events = nil
}
