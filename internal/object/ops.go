package object

import (
	"github.com/roach88/objstore/internal/cell"
	"github.com/roach88/objstore/internal/fault"
	"github.com/roach88/objstore/internal/ir"
	"github.com/roach88/objstore/internal/typetag"
)

// Create publishes v as a new record uniquely held by the sender.
// v's UID must have been issued by NewUID in the same transaction.
func Create[T Record](tx *Tx, v T) (ir.ID, error) {
	return CreateWith(tx, v)
}

// CreateWith publishes v and embeds children in it. Each child must be
// uniquely held by the sender; it becomes Embedded(v) and disappears from
// the external index until the parent is unpacked.
func CreateWith[T Record](tx *Tx, v T, children ...ir.ID) (ir.ID, error) {
	id := v.ID()
	if !tx.isFresh(id) {
		return ir.ZeroID, fault.InvalidState(id, "identifier was not issued by this transaction")
	}
	if err := rejectNested(v, id); err != nil {
		return ir.ZeroID, err
	}
	seen := make(map[ir.ID]bool, len(children))
	for _, c := range children {
		if c == id || seen[c] {
			return ir.ZeroID, fault.InvalidState(c, "record cannot be embedded twice")
		}
		seen[c] = true
		if _, err := tx.requireHeld(c); err != nil {
			return ir.ZeroID, err
		}
	}

	if err := tx.consumeFresh(id); err != nil {
		return ir.ZeroID, err
	}
	for _, c := range children {
		ce, err := tx.mutEntry(c)
		if err != nil {
			return ir.ZeroID, err
		}
		ce.owner = Embedded(id)
	}
	c := cell.Store(v)
	tx.objects[id] = &entry{
		value:    c,
		owner:    UniquelyHeld(tx.sender),
		children: append([]ir.ID(nil), children...),
	}
	tx.Emit(ir.EventCreated, id, ir.IRObject{
		"type":     ir.IRString(c.TypeTag().String()),
		"owner":    ir.IRString(tx.sender.String()),
		"embedded": idArray(children),
	})
	return id, nil
}

// Get returns a copy of record id as a T.
func Get[T any](tx *Tx, id ir.ID) (T, error) {
	var zero T
	if err := tx.CanRead(id); err != nil {
		return zero, err
	}
	e, _ := tx.entry(id)
	if !cell.Is[T](e.value) {
		return zero, mismatch[T](id, e.value)
	}
	return cell.ExtractAs[T](e.value)
}

// Mutate runs fn with mutable access to record id. Changes are kept only
// if fn returns nil. fn must not change the record's UID.
func Mutate[T Record](tx *Tx, id ir.ID, fn func(*T) error) error {
	if err := tx.CanWrite(id); err != nil {
		return err
	}
	e, _ := tx.entry(id)
	if !cell.Is[T](e.value) {
		return mismatch[T](id, e.value)
	}
	if err := tx.BeginBorrow(id); err != nil {
		return err
	}
	defer tx.EndBorrow(id)

	work := e.value.Clone()
	p, err := cell.Pointer[T](work)
	if err != nil {
		return err
	}
	if err := fn(p); err != nil {
		return err
	}
	if (*p).ID() != id {
		return fault.InvalidState(id, "record identity cannot change")
	}
	me, err := tx.mutEntry(id)
	if err != nil {
		return err
	}
	me.value = work
	return nil
}

// Transfer reassigns a uniquely held record to another principal.
func Transfer(tx *Tx, id ir.ID, to ir.Address) error {
	if to.IsZero() {
		return fault.InvalidState(id, "cannot transfer to the zero address")
	}
	if _, err := tx.requireHeld(id); err != nil {
		return err
	}
	me, err := tx.mutEntry(id)
	if err != nil {
		return err
	}
	me.owner = UniquelyHeld(to)
	tx.Emit(ir.EventTransferred, id, ir.IRObject{
		"from": ir.IRString(tx.sender.String()),
		"to":   ir.IRString(to.String()),
	})
	return nil
}

// Freeze makes a uniquely held record immutable and readable by anyone.
// There is no transition out of Frozen.
func Freeze(tx *Tx, id ir.ID) error {
	if _, err := tx.requireHeld(id); err != nil {
		return err
	}
	me, err := tx.mutEntry(id)
	if err != nil {
		return err
	}
	me.owner = Frozen()
	tx.Emit(ir.EventFrozen, id, nil)
	return nil
}

// Delete destroys a uniquely held record and its embedded children.
//
// Dynamic slots attached to the record are not deleted. They stay in the
// table, unreachable, because the owner identifier is retired for good.
func Delete(tx *Tx, id ir.ID) error {
	e, err := tx.requireHeld(id)
	if err != nil {
		return err
	}
	typ := e.value.TypeTag()
	tx.deleteTree(id)
	tx.Emit(ir.EventDeleted, id, ir.IRObject{"type": ir.IRString(typ.String())})
	return nil
}

func (tx *Tx) deleteTree(id ir.ID) {
	e, ok := tx.entry(id)
	if !ok {
		return
	}
	for _, c := range e.children {
		tx.deleteTree(c)
	}
	tx.removeEntry(id)
}

// Unpack deconstructs a uniquely held record, returning its value and
// retiring its identifier. Embedded children become uniquely held by the
// sender, so the caller can transfer them onward.
func Unpack[T Record](tx *Tx, id ir.ID) (T, error) {
	var zero T
	e, err := tx.requireHeld(id)
	if err != nil {
		return zero, err
	}
	if !cell.Is[T](e.value) {
		return zero, mismatch[T](id, e.value)
	}
	v, err := cell.ExtractAs[T](e.value)
	if err != nil {
		return zero, err
	}
	for _, c := range e.children {
		ce, err := tx.mutEntry(c)
		if err != nil {
			return zero, err
		}
		ce.owner = UniquelyHeld(tx.sender)
	}
	tx.removeEntry(id)
	tx.Emit(ir.EventUnpacked, id, ir.IRObject{"released": idArray(e.children)})
	return v, nil
}

func mismatch[T any](id ir.ID, c cell.Cell) *fault.AbortError {
	return fault.TypeMismatch(id, c.TypeTag().String(), typetag.Of[T]().String())
}

func idArray(ids []ir.ID) ir.IRArray {
	out := make(ir.IRArray, len(ids))
	for i, id := range ids {
		out[i] = ir.IRString(id.String())
	}
	return out
}
