package object

import (
	"bytes"
	"slices"

	"github.com/roach88/objstore/internal/cell"
	"github.com/roach88/objstore/internal/fault"
	"github.com/roach88/objstore/internal/ir"
	"github.com/roach88/objstore/internal/typetag"
)

// The methods below are the slot table's storage primitives. The typed
// surface lives in package slot; these assume the caller has already
// checked access to the owner.

// Slot returns the entry stored under id. The entry must not be modified.
func (tx *Tx) Slot(id ir.ID) (*SlotEntry, bool) {
	if se, ok := tx.slots[id]; ok {
		return se, se != nil
	}
	se, ok := tx.store.slots[id]
	return se, ok
}

// PutValue stores a plain value under a new slot entry. The value may not
// hold a record; records are attached with PutRecord.
func (tx *Tx) PutValue(se SlotEntry, c cell.Cell) error {
	if err := rejectNested(c.Value(), ir.ZeroID); err != nil {
		return err
	}
	se.Value = c
	se.Child = ir.ZeroID
	se.ValueType = c.TypeTag()
	se.valueType = c.Type()
	tx.putSlot(se)
	return nil
}

// UpdateValue replaces the plain value of an existing entry.
// The stored type cannot change.
func (tx *Tx) UpdateValue(id ir.ID, c cell.Cell) error {
	se, ok := tx.Slot(id)
	if !ok {
		return fault.SlotNotFound(ir.ZeroID, id.Short())
	}
	if se.HoldsRecord() || c.Type() != se.valueType {
		return fault.TypeMismatch(se.Owner, se.ValueType.String(), c.TypeTag().String())
	}
	updated := *se
	updated.Value = c
	tx.slots[id] = &updated
	return nil
}

// PutRecord stores a record under a new slot entry.
//
// For an Opaque entry the record value is absorbed: a freshly issued
// identifier is published directly into the slot, and a live record
// uniquely held by the sender is overwritten with c. Either way the
// record is hidden from the external index while attached.
//
// For a Transparent entry child must be live and c is ignored; the record
// stays resolvable through the index.
func (tx *Tx) PutRecord(se SlotEntry, child ir.ID, c cell.Cell) error {
	if child == se.Owner || tx.isAncestor(child, se.Owner) {
		return fault.InvalidState(child, "record cannot be attached beneath itself")
	}
	hidden := se.Flavor == Opaque
	owner := Slotted(se.Owner, se.ID, hidden)
	if hidden {
		if err := rejectNested(c.Value(), child); err != nil {
			return err
		}
	}

	switch {
	case hidden && tx.isFresh(child):
		if err := tx.consumeFresh(child); err != nil {
			return err
		}
		tx.objects[child] = &entry{value: c, owner: owner}
		tx.Emit(ir.EventCreated, child, ir.IRObject{
			"type":  ir.IRString(c.TypeTag().String()),
			"owner": ir.IRString(se.Owner.String()),
		})
	default:
		e, err := tx.requireHeld(child)
		if err != nil {
			return err
		}
		if hidden {
			if c.Type() != e.value.Type() {
				return fault.TypeMismatch(child, e.value.TypeTag().String(), c.TypeTag().String())
			}
			me, err := tx.mutEntry(child)
			if err != nil {
				return err
			}
			me.value = c
			me.owner = owner
		} else {
			me, err := tx.mutEntry(child)
			if err != nil {
				return err
			}
			c = e.value
			me.owner = owner
		}
	}

	se.Value = cell.Cell{}
	se.Child = child
	se.ValueType = c.TypeTag()
	se.valueType = c.Type()
	tx.putSlot(se)
	return nil
}

// isAncestor reports whether candidate holds id through a chain of
// embedded or slotted designations.
func (tx *Tx) isAncestor(candidate, id ir.ID) bool {
	for {
		e, ok := tx.entry(id)
		if !ok {
			return false
		}
		if e.owner.Kind != KindEmbedded && e.owner.Kind != KindSlotted {
			return false
		}
		if e.owner.Parent == candidate {
			return true
		}
		id = e.owner.Parent
	}
}

func (tx *Tx) putSlot(se SlotEntry) {
	tx.slots[se.ID] = &se
	fields := ir.IRObject{
		"key_type":   ir.IRString(se.KeyType.String()),
		"key":        ir.IRString(string(se.Key)),
		"value_type": ir.IRString(se.ValueType.String()),
		"flavor":     ir.IRString(se.Flavor.String()),
	}
	if se.HoldsRecord() {
		fields["child"] = ir.IRString(se.Child.String())
	}
	tx.Emit(ir.EventSlotAttached, se.Owner, fields)
}

// RecordCell returns the current value of a live record without access
// checks. Used to read a record through the slot that holds it.
func (tx *Tx) RecordCell(id ir.ID) (cell.Cell, bool) {
	e, ok := tx.entry(id)
	if !ok {
		return cell.Cell{}, false
	}
	return e.value, true
}

// UpdateRecord replaces the value of a record held in a slot. The type
// and identifier cannot change.
func (tx *Tx) UpdateRecord(id ir.ID, c cell.Cell) error {
	e, err := tx.live(id)
	if err != nil {
		return err
	}
	if c.Type() != e.value.Type() {
		return fault.TypeMismatch(id, e.value.TypeTag().String(), c.TypeTag().String())
	}
	if r, ok := c.Value().(Record); !ok || r.ID() != id {
		return fault.InvalidState(id, "record identity cannot change")
	}
	me, err := tx.mutEntry(id)
	if err != nil {
		return err
	}
	me.value = c
	return nil
}

// DeleteSlot removes an entry. A record it held becomes uniquely held by
// the sender and visible again.
func (tx *Tx) DeleteSlot(id ir.ID) error {
	se, ok := tx.Slot(id)
	if !ok {
		return fault.SlotNotFound(ir.ZeroID, id.Short())
	}
	if se.HoldsRecord() {
		me, err := tx.mutEntry(se.Child)
		if err != nil {
			return err
		}
		me.owner = UniquelyHeld(tx.sender)
	}
	tx.slots[id] = nil
	tx.Emit(ir.EventSlotRemoved, se.Owner, ir.IRObject{
		"key_type":   ir.IRString(se.KeyType.String()),
		"key":        ir.IRString(string(se.Key)),
		"value_type": ir.IRString(se.ValueType.String()),
	})
	return nil
}

// SlotsOf lists the entries attached to owner as seen by the
// transaction, ordered by slot identifier.
func (tx *Tx) SlotsOf(owner ir.ID) []SlotEntry {
	var out []SlotEntry
	for _, se := range tx.store.Slots(owner) {
		if over, ok := tx.slots[se.ID]; ok {
			if over == nil {
				continue
			}
			se = *over
		}
		out = append(out, se)
	}
	for id, se := range tx.slots {
		if se == nil || se.Owner != owner {
			continue
		}
		if _, ok := tx.store.slots[id]; ok {
			continue
		}
		out = append(out, *se)
	}
	slices.SortFunc(out, func(a, b SlotEntry) int { return bytes.Compare(a.ID[:], b.ID[:]) })
	return out
}

// TagOf returns the type tag of record id.
func (tx *Tx) TagOf(id ir.ID) (typetag.Tag, bool) {
	e, ok := tx.entry(id)
	if !ok {
		return typetag.Tag{}, false
	}
	return e.value.TypeTag(), true
}
