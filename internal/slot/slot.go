// Package slot is the dynamic slot table: values attached to a record
// under arbitrary keys after the record was created.
//
// Two flavors exist. Attach stores a value opaquely; if the value is a
// record, it vanishes from the external index while attached. AttachObject
// stores an existing record transparently; it stays resolvable by
// identifier but can only be mutated through BorrowMut on its slot.
//
// Every access names the value type, and the type must be exactly the one
// stored at attach. Check with ExistsWithType before a typed borrow when
// the type is not known statically:
//
//	if slot.ExistsWithType[demo.Sword](tx, hero, "weapon") {
//	    s, err := slot.Borrow[demo.Sword](tx, hero, "weapon")
//	    ...
//	}
//
// Slots of a deleted record are never deleted with it. They stay in the
// table, unreachable, for the rest of the store's life.
package slot

import (
	"reflect"

	"github.com/roach88/objstore/internal/cell"
	"github.com/roach88/objstore/internal/fault"
	"github.com/roach88/objstore/internal/ir"
	"github.com/roach88/objstore/internal/object"
	"github.com/roach88/objstore/internal/typetag"
)

// Attach stores value under (owner, key) in an opaque slot.
//
// Fails with SLOT_OCCUPIED if the key is taken (the existing entry is left
// untouched) and NOT_AUTHORIZED or INVALID_STATE if the sender may not
// mutate owner. A record value must carry a fresh identifier or be
// uniquely held by the sender. A record held anywhere inside the value,
// such as in a slice, fails with INVALID_STATE: containers of records
// would copy the records' identities.
func Attach[V any, K any](tx *object.Tx, owner ir.ID, key K, value V) error {
	se, err := vacant(tx, owner, key, object.Opaque)
	if err != nil {
		return err
	}
	c := cell.Store(value)
	if rec, ok := any(value).(object.Record); ok {
		return tx.PutRecord(se, rec.ID(), c)
	}
	return tx.PutValue(se, c)
}

// AttachObject stores the live record child under (owner, key) in a
// transparent slot. child must be uniquely held by the sender.
func AttachObject[K any](tx *object.Tx, owner ir.ID, key K, child ir.ID) error {
	se, err := vacant(tx, owner, key, object.Transparent)
	if err != nil {
		return err
	}
	return tx.PutRecord(se, child, cell.Cell{})
}

func vacant[K any](tx *object.Tx, owner ir.ID, key K, flavor object.Flavor) (object.SlotEntry, error) {
	if err := tx.CanWrite(owner); err != nil {
		return object.SlotEntry{}, err
	}
	k, err := KeyOf(key)
	if err != nil {
		return object.SlotEntry{}, err
	}
	id := k.SlotID(owner)
	if _, ok := tx.Slot(id); ok {
		return object.SlotEntry{}, fault.SlotOccupied(owner, k.String())
	}
	return object.SlotEntry{
		ID:      id,
		Owner:   owner,
		Flavor:  flavor,
		KeyType: k.Type,
		Key:     k.Data,
	}, nil
}

// Borrow returns a copy of the value under (owner, key).
// Fails with SLOT_NOT_FOUND or TYPE_MISMATCH.
func Borrow[V any, K any](tx *object.Tx, owner ir.ID, key K) (V, error) {
	var zero V
	se, err := find(tx, owner, key, tx.CanRead)
	if err != nil {
		return zero, err
	}
	c, err := typed[V](tx, se)
	if err != nil {
		return zero, err
	}
	return cell.ExtractAs[V](c)
}

// BorrowMut runs fn with a mutable reference to the value under
// (owner, key). The reference is valid only during fn; changes are kept
// only if fn returns nil and owner is still writable afterwards. A record
// held by the slot is reachable for mutation, including its own slots,
// while fn runs. Borrowing the same entry mutably again from inside fn,
// or deleting, unpacking or moving the held record, fails with
// INVALID_STATE.
func BorrowMut[V any, K any](tx *object.Tx, owner ir.ID, key K, fn func(*V) error) error {
	se, err := find(tx, owner, key, tx.CanWrite)
	if err != nil {
		return err
	}
	c, err := typed[V](tx, se)
	if err != nil {
		return err
	}
	if err := tx.BeginBorrow(se.ID); err != nil {
		return err
	}
	defer tx.EndBorrow(se.ID)

	work := c.Clone()
	p, err := cell.Pointer[V](work)
	if err != nil {
		return err
	}
	if !se.HoldsRecord() {
		if err := fn(p); err != nil {
			return err
		}
		if err := tx.CanWrite(owner); err != nil {
			return err
		}
		return tx.UpdateValue(se.ID, work)
	}

	child := se.Child
	if err := tx.BeginBorrow(child); err != nil {
		return err
	}
	defer tx.EndBorrow(child)
	if err := tx.WithGrant(child, func() error { return fn(p) }); err != nil {
		return err
	}
	if err := tx.CanWrite(owner); err != nil {
		return err
	}
	return tx.UpdateRecord(child, work)
}

// Remove deletes the entry under (owner, key) and returns its value.
// A record value becomes uniquely held by the sender again.
func Remove[V any, K any](tx *object.Tx, owner ir.ID, key K) (V, error) {
	var zero V
	se, err := find(tx, owner, key, tx.CanWrite)
	if err != nil {
		return zero, err
	}
	c, err := typed[V](tx, se)
	if err != nil {
		return zero, err
	}
	if err := tx.BeginBorrow(se.ID); err != nil {
		return zero, err
	}
	tx.EndBorrow(se.ID)

	v, err := cell.ExtractAs[V](c)
	if err != nil {
		return zero, err
	}
	if err := tx.DeleteSlot(se.ID); err != nil {
		return zero, err
	}
	return v, nil
}

// Exists reports whether (owner, key) holds a value of any type.
// Never fails: an unreadable owner reports false.
func Exists[K any](tx *object.Tx, owner ir.ID, key K) bool {
	_, err := find(tx, owner, key, tx.CanRead)
	return err == nil
}

// ExistsWithType reports whether (owner, key) holds exactly a V.
// Never fails: an unreadable owner reports false.
func ExistsWithType[V any, K any](tx *object.Tx, owner ir.ID, key K) bool {
	se, err := find(tx, owner, key, tx.CanRead)
	if err != nil {
		return false
	}
	return se.HoldsType(reflect.TypeFor[V]())
}

// TypeOf reports the type stored under (owner, key) without the caller
// knowing it. This is the reflection query over slots.
func TypeOf[K any](tx *object.Tx, owner ir.ID, key K) (typetag.Tag, error) {
	se, err := find(tx, owner, key, tx.CanRead)
	if err != nil {
		return typetag.Tag{}, err
	}
	return se.ValueType, nil
}

// Entries lists the slots attached to owner, ordered by slot identifier.
func Entries(tx *object.Tx, owner ir.ID) ([]object.SlotEntry, error) {
	if err := tx.CanRead(owner); err != nil {
		return nil, err
	}
	return tx.SlotsOf(owner), nil
}

func find[K any](tx *object.Tx, owner ir.ID, key K, access func(ir.ID) error) (*object.SlotEntry, error) {
	if err := access(owner); err != nil {
		return nil, err
	}
	k, err := KeyOf(key)
	if err != nil {
		return nil, err
	}
	se, ok := tx.Slot(k.SlotID(owner))
	if !ok {
		return nil, fault.SlotNotFound(owner, k.String())
	}
	return se, nil
}

func typed[V any](tx *object.Tx, se *object.SlotEntry) (cell.Cell, error) {
	c := se.Value
	if se.HoldsRecord() {
		rc, ok := tx.RecordCell(se.Child)
		if !ok {
			return cell.Cell{}, fault.InvalidState(se.Child, "slot record is not live")
		}
		c = rc
	}
	if !cell.Is[V](c) {
		return cell.Cell{}, fault.TypeMismatch(se.Owner, se.ValueType.String(), typetag.Of[V]().String()).
			With("key", se.KeyString())
	}
	return c, nil
}
