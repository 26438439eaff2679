package object

import (
	"fmt"

	"github.com/roach88/objstore/internal/ir"
)

// Kind is a record's ownership designation.
type Kind uint8

const (
	// KindUniquelyHeld records may be operated on by exactly one principal.
	KindUniquelyHeld Kind = iota + 1
	// KindEmbedded records are static fields of exactly one parent record.
	KindEmbedded
	// KindSlotted records are held in a dynamic slot of one owner record.
	KindSlotted
	// KindFrozen records are readable by anyone and never change again.
	KindFrozen
)

// String returns the snake_case name used in journals and traces.
func (k Kind) String() string {
	switch k {
	case KindUniquelyHeld:
		return "uniquely_held"
	case KindEmbedded:
		return "embedded"
	case KindSlotted:
		return "slotted"
	case KindFrozen:
		return "frozen"
	default:
		return "?"
	}
}

// Ownership is the tagged ownership state carried by every record.
// Which fields are meaningful depends on Kind.
type Ownership struct {
	Kind      Kind       `json:"kind"`
	Principal ir.Address `json:"principal"` // KindUniquelyHeld
	Parent    ir.ID      `json:"parent"`    // KindEmbedded, KindSlotted
	Slot      ir.ID      `json:"slot"`      // KindSlotted
	Hidden    bool       `json:"hidden"`    // KindSlotted through an opaque slot
}

// UniquelyHeld returns the designation for a record held by p.
func UniquelyHeld(p ir.Address) Ownership {
	return Ownership{Kind: KindUniquelyHeld, Principal: p}
}

// Embedded returns the designation for a static field of parent.
func Embedded(parent ir.ID) Ownership {
	return Ownership{Kind: KindEmbedded, Parent: parent}
}

// Slotted returns the designation for a record held in slot of parent.
func Slotted(parent, slot ir.ID, hidden bool) Ownership {
	return Ownership{Kind: KindSlotted, Parent: parent, Slot: slot, Hidden: hidden}
}

// Frozen returns the terminal designation.
func Frozen() Ownership {
	return Ownership{Kind: KindFrozen}
}

// HeldBy reports whether the record is uniquely held by p.
func (o Ownership) HeldBy(p ir.Address) bool {
	return o.Kind == KindUniquelyHeld && o.Principal == p
}

// Visible reports whether the record is resolvable through the external index.
func (o Ownership) Visible() bool {
	switch o.Kind {
	case KindEmbedded:
		return false
	case KindSlotted:
		return !o.Hidden
	default:
		return true
	}
}

func (o Ownership) String() string {
	switch o.Kind {
	case KindUniquelyHeld:
		return fmt.Sprintf("uniquely_held(%s)", o.Principal.Short())
	case KindEmbedded:
		return fmt.Sprintf("embedded(%s)", o.Parent.Short())
	case KindSlotted:
		if o.Hidden {
			return fmt.Sprintf("slotted(%s, opaque)", o.Parent.Short())
		}
		return fmt.Sprintf("slotted(%s)", o.Parent.Short())
	default:
		return o.Kind.String()
	}
}
