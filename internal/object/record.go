package object

import (
	"reflect"

	"github.com/roach88/objstore/internal/fault"
	"github.com/roach88/objstore/internal/ir"
)

// UID is a record's identity field. Records embed it by value:
//
//	type Sword struct {
//	    object.UID
//	    Strength int
//	}
//
// A UID is obtained only from NewUID, so every record carries an
// identifier issued by the store's registry.
type UID struct {
	id ir.ID
}

// ID returns the record identifier.
func (u UID) ID() ir.ID {
	return u.id
}

// Record is any value carrying a UID.
type Record interface {
	ID() ir.ID
}

// NewUID issues a fresh identifier within tx. The identifier must be
// consumed by Create, CreateWith or an opaque slot attach before the
// transaction commits.
func NewUID(tx *Tx) UID {
	id := tx.store.registry.NewID(tx)
	tx.fresh[id] = struct{}{}
	return UID{id: id}
}

var uidType = reflect.TypeFor[UID]()

type seenPtr struct {
	addr uintptr
	typ  reflect.Type
}

// rejectNested fails with INVALID_STATE if v holds a record by value
// anywhere other than v's own identity self. A record copied into a
// container would duplicate its identity; records nest only through
// CreateWith or slots.
func rejectNested(v any, self ir.ID) error {
	if v == nil {
		return nil
	}
	if id, ok := findUID(reflect.ValueOf(v), self, make(map[seenPtr]bool)); ok {
		return fault.InvalidState(id, "record cannot be stored inside another value")
	}
	return nil
}

func findUID(v reflect.Value, self ir.ID, seen map[seenPtr]bool) (ir.ID, bool) {
	if v.Type() == uidType {
		var id ir.ID
		raw := v.Field(0)
		for i := range raw.Len() {
			id[i] = byte(raw.Index(i).Uint())
		}
		return id, !id.IsZero() && id != self
	}

	switch v.Kind() {
	case reflect.Pointer:
		key := seenPtr{addr: v.Pointer(), typ: v.Type()}
		if v.IsNil() || seen[key] {
			return ir.ZeroID, false
		}
		seen[key] = true
		return findUID(v.Elem(), self, seen)
	case reflect.Interface:
		if v.IsNil() {
			return ir.ZeroID, false
		}
		return findUID(v.Elem(), self, seen)
	case reflect.Struct:
		for i := range v.NumField() {
			if id, ok := findUID(v.Field(i), self, seen); ok {
				return id, true
			}
		}
	case reflect.Array, reflect.Slice:
		for i := range v.Len() {
			if id, ok := findUID(v.Index(i), self, seen); ok {
				return id, true
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if id, ok := findUID(iter.Value(), self, seen); ok {
				return id, true
			}
		}
	}
	return ir.ZeroID, false
}
