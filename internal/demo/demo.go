// Package demo holds the game records used by scenarios and examples:
// heroes that wield swords or shields through a transparent slot, gems
// socketed opaquely into swords, and tradable items for escrow.
package demo

import (
	"github.com/roach88/objstore/internal/cell"
	"github.com/roach88/objstore/internal/ir"
	"github.com/roach88/objstore/internal/object"
	"github.com/roach88/objstore/internal/slot"
	"github.com/roach88/objstore/internal/typetag"
)

func init() {
	typetag.Register[Hero]("demo", "Hero")
	typetag.Register[Sword]("demo", "Sword")
	typetag.Register[Shield]("demo", "Shield")
	typetag.Register[Gem]("demo", "Gem")
	typetag.Register[Item]("demo", "Item")
	typetag.Register[Socket]("demo", "Socket")
}

// HandSlot is the key of the transparent slot a hero wields from.
const HandSlot = "hand"

// TitleSlot is the key of the opaque string slot holding a hero's title.
const TitleSlot = "title"

// Hero is a named character. Its hand slot holds a Sword or a Shield.
type Hero struct {
	object.UID
	Name string `json:"name"`
}

// Sword is a weapon; gems socketed into it add to its wielder's power.
type Sword struct {
	object.UID
	Strength uint64 `json:"strength"`
}

// Shield can be held in a hero's hand instead of a sword.
type Shield struct {
	object.UID
	Armor uint64 `json:"armor"`
}

// Gem is socketed into a sword. Carat counts toward Power.
type Gem struct {
	object.UID
	Colour string `json:"colour"`
	Carat  uint64 `json:"carat"`
}

// Item is a tradable record matched by category and variant.
type Item struct {
	object.UID
	Name     string `json:"name"`
	Category uint64 `json:"category"`
	Variant  uint64 `json:"variant"`
}

// Socket keys a gem slot on a sword.
type Socket struct {
	Index uint64 `json:"index"`
}

// NewHero creates a hero with an empty hand, held by the sender.
func NewHero(tx *object.Tx, name string) (ir.ID, error) {
	return object.Create(tx, Hero{UID: object.NewUID(tx), Name: name})
}

// NewSword creates a sword held by the sender.
func NewSword(tx *object.Tx, strength uint64) (ir.ID, error) {
	return object.Create(tx, Sword{UID: object.NewUID(tx), Strength: strength})
}

// NewShield creates a shield held by the sender.
func NewShield(tx *object.Tx, armor uint64) (ir.ID, error) {
	return object.Create(tx, Shield{UID: object.NewUID(tx), Armor: armor})
}

// NewGem creates a gem held by the sender.
func NewGem(tx *object.Tx, colour string, carat uint64) (ir.ID, error) {
	return object.Create(tx, Gem{UID: object.NewUID(tx), Colour: colour, Carat: carat})
}

// NewItem creates a tradable item held by the sender.
func NewItem(tx *object.Tx, name string, category, variant uint64) (ir.ID, error) {
	return object.Create(tx, Item{UID: object.NewUID(tx), Name: name, Category: category, Variant: variant})
}

// Equip puts sword in the hero's hand. A sword already wielded is removed
// first and returned to the sender; its ID is returned. Any other record
// in the hand, such as a shield, must be unequipped explicitly.
func Equip(tx *object.Tx, hero, sword ir.ID) (ir.ID, error) {
	var previous ir.ID
	if slot.ExistsWithType[Sword](tx, hero, HandSlot) {
		old, err := slot.Remove[Sword](tx, hero, HandSlot)
		if err != nil {
			return ir.ZeroID, err
		}
		previous = old.ID()
	}
	if err := slot.AttachObject(tx, hero, HandSlot, sword); err != nil {
		return ir.ZeroID, err
	}
	return previous, nil
}

// EquipShield puts shield in the hero's hand, which must be empty.
func EquipShield(tx *object.Tx, hero, shield ir.ID) error {
	return slot.AttachObject(tx, hero, HandSlot, shield)
}

// Unequip empties the hero's hand and returns the record it held, which is
// uniquely held by the sender again.
func Unequip(tx *object.Tx, hero ir.ID) (ir.ID, error) {
	switch {
	case slot.ExistsWithType[Sword](tx, hero, HandSlot):
		s, err := slot.Remove[Sword](tx, hero, HandSlot)
		return s.ID(), err
	case slot.ExistsWithType[Shield](tx, hero, HandSlot):
		s, err := slot.Remove[Shield](tx, hero, HandSlot)
		return s.ID(), err
	}
	// Neither type matched: report what is actually there.
	if _, err := slot.TypeOf(tx, hero, HandSlot); err != nil {
		return ir.ZeroID, err
	}
	_, err := slot.Remove[Sword](tx, hero, HandSlot)
	return ir.ZeroID, err
}

// Power is the hero's attack strength: the wielded sword's strength plus
// the carats of every gem socketed in it. An empty or shield hand is 0.
func Power(tx *object.Tx, hero ir.ID) (uint64, error) {
	if !slot.ExistsWithType[Sword](tx, hero, HandSlot) {
		return 0, nil
	}
	s, err := slot.Borrow[Sword](tx, hero, HandSlot)
	if err != nil {
		return 0, err
	}
	power := s.Strength
	for _, se := range tx.SlotsOf(s.ID()) {
		if !se.HoldsRecord() {
			continue
		}
		c, ok := tx.RecordCell(se.Child)
		if !ok || !cell.Is[Gem](c) {
			continue
		}
		g, err := cell.ExtractAs[Gem](c)
		if err != nil {
			return 0, err
		}
		power += g.Carat
	}
	return power, nil
}

// SocketGem embeds gem opaquely in sword at index. The gem disappears from
// the external index until it is unsocketed.
func SocketGem(tx *object.Tx, sword, gem ir.ID, index uint64) error {
	g, err := object.Get[Gem](tx, gem)
	if err != nil {
		return err
	}
	return slot.Attach(tx, sword, Socket{Index: index}, g)
}

// SocketWielded is SocketGem for the sword in the hero's hand, reached
// through a mutable borrow of the hand slot.
func SocketWielded(tx *object.Tx, hero, gem ir.ID, index uint64) error {
	g, err := object.Get[Gem](tx, gem)
	if err != nil {
		return err
	}
	return slot.BorrowMut(tx, hero, HandSlot, func(s *Sword) error {
		return slot.Attach(tx, s.ID(), Socket{Index: index}, g)
	})
}

// Unsocket removes the gem at index from sword and returns its ID.
func Unsocket(tx *object.Tx, sword ir.ID, index uint64) (ir.ID, error) {
	g, err := slot.Remove[Gem](tx, sword, Socket{Index: index})
	return g.ID(), err
}

// SetTitle stores or replaces the hero's title in an opaque value slot.
func SetTitle(tx *object.Tx, hero ir.ID, title string) error {
	if !slot.Exists(tx, hero, TitleSlot) {
		return slot.Attach(tx, hero, TitleSlot, title)
	}
	return slot.BorrowMut(tx, hero, TitleSlot, func(t *string) error {
		*t = title
		return nil
	})
}

// Title returns the hero's title, or "" if none is set.
func Title(tx *object.Tx, hero ir.ID) (string, error) {
	if !slot.ExistsWithType[string](tx, hero, TitleSlot) {
		return "", nil
	}
	return slot.Borrow[string](tx, hero, TitleSlot)
}
