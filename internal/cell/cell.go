// Package cell implements the typed value cell: a container holding
// exactly one value together with the type it was stored as.
//
// The stored type is fixed at construction. Extraction names a type and
// succeeds only when it is identical to the stored one; there is no
// conversion, widening or interface satisfaction.
//
// Values leave a cell only as deep copies. Slices, maps and pointers
// inside an extracted value never share storage with the cell, so
// writing to an extracted value cannot change what the cell holds.
package cell

import (
	"reflect"

	"github.com/roach88/objstore/internal/fault"
	"github.com/roach88/objstore/internal/ir"
	"github.com/roach88/objstore/internal/typetag"
)

// Cell holds one value and its runtime type.
// The zero Cell is empty.
type Cell struct {
	rtype reflect.Type
	tag   typetag.Tag
	ptr   any // *T for the stored T
}

// Store wraps a deep copy of v in a cell typed as T. Always succeeds.
func Store[T any](v T) Cell {
	p := new(T)
	*p = Copy(v)
	return Cell{
		rtype: reflect.TypeFor[T](),
		tag:   typetag.Of[T](),
		ptr:   p,
	}
}

// ExtractAs returns a deep copy of the stored value if U is exactly the
// stored type; otherwise it fails with TYPE_MISMATCH.
func ExtractAs[U any](c Cell) (U, error) {
	p, err := Pointer[U](c)
	if err != nil {
		var zero U
		return zero, err
	}
	return Copy(*p), nil
}

// Pointer returns the cell's backing pointer for in-place mutation.
// Callers that share cells must Clone before writing.
func Pointer[U any](c Cell) (*U, error) {
	p, ok := c.ptr.(*U)
	if !ok {
		return nil, mismatch[U](c)
	}
	return p, nil
}

// Is reports whether the cell holds exactly a U. Never fails.
func Is[U any](c Cell) bool {
	_, ok := c.ptr.(*U)
	return ok
}

func mismatch[U any](c Cell) *fault.AbortError {
	stored := "<empty>"
	if !c.IsEmpty() {
		stored = c.tag.String()
	}
	return fault.TypeMismatch(ir.ZeroID, stored, typetag.Of[U]().String())
}

// TypeTag returns the qualified identity of the stored type.
func (c Cell) TypeTag() typetag.Tag {
	return c.tag
}

// Type returns the stored reflect.Type, or nil for an empty cell.
func (c Cell) Type() reflect.Type {
	return c.rtype
}

// IsEmpty reports whether the cell holds nothing.
func (c Cell) IsEmpty() bool {
	return c.ptr == nil
}

// Value returns a deep copy of the stored value as an interface.
func (c Cell) Value() any {
	if c.IsEmpty() {
		return nil
	}
	return deepCopy(reflect.ValueOf(c.ptr).Elem(), make(map[visit]reflect.Value)).Interface()
}

// Clone returns a cell with its own backing storage, deep-copied from c.
func (c Cell) Clone() Cell {
	if c.IsEmpty() {
		return c
	}
	p := reflect.New(c.rtype)
	p.Elem().Set(deepCopy(reflect.ValueOf(c.ptr).Elem(), make(map[visit]reflect.Value)))
	return Cell{rtype: c.rtype, tag: c.tag, ptr: p.Interface()}
}
