package slot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/objstore/internal/fault"
	"github.com/roach88/objstore/internal/identity"
	"github.com/roach88/objstore/internal/ir"
	"github.com/roach88/objstore/internal/object"
)

type hero struct {
	object.UID
	Name string
}

type sword struct {
	object.UID
	Strength int
}

type gem struct {
	object.UID
	Carat int
}

type colour struct {
	R, G, B uint8
}

type gemKey struct {
	Socket int `json:"socket"`
}

var (
	alice = ir.AddressFromLabel("alice")
	bob   = ir.AddressFromLabel("bob")
)

type fixture struct {
	t     *testing.T
	store *object.Store
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, store: object.NewStore(identity.NewRegistry())}
}

// run executes fn as sender and commits only if fn succeeds.
func (f *fixture) run(sender ir.Address, fn func(tx *object.Tx) error) error {
	f.t.Helper()
	tx := f.store.Begin(sender, "tx")
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (f *fixture) must(sender ir.Address, fn func(tx *object.Tx) error) {
	f.t.Helper()
	require.NoError(f.t, f.run(sender, fn))
}

func (f *fixture) newHero(owner ir.Address) ir.ID {
	f.t.Helper()
	var id ir.ID
	f.must(owner, func(tx *object.Tx) error {
		var err error
		id, err = object.Create(tx, hero{UID: object.NewUID(tx), Name: "arthur"})
		return err
	})
	return id
}

func (f *fixture) newSword(owner ir.Address, strength int) ir.ID {
	f.t.Helper()
	var id ir.ID
	f.must(owner, func(tx *object.Tx) error {
		var err error
		id, err = object.Create(tx, sword{UID: object.NewUID(tx), Strength: strength})
		return err
	})
	return id
}

func TestAttachBorrowRoundTrip(t *testing.T) {
	f := newFixture(t)
	h := f.newHero(alice)

	f.must(alice, func(tx *object.Tx) error {
		return Attach(tx, h, "colour", colour{R: 255, G: 0, B: 128})
	})

	f.must(alice, func(tx *object.Tx) error {
		got, err := Borrow[colour](tx, h, "colour")
		require.NoError(t, err)
		assert.Equal(t, colour{R: 255, G: 0, B: 128}, got)

		_, err = Borrow[string](tx, h, "colour")
		assert.True(t, errors.Is(err, fault.ErrTypeMismatch))
		return nil
	})
}

func TestBorrowMissingSlot(t *testing.T) {
	f := newFixture(t)
	h := f.newHero(alice)

	err := f.run(alice, func(tx *object.Tx) error {
		_, err := Borrow[colour](tx, h, "nothing")
		return err
	})
	assert.True(t, fault.Is(err, fault.CodeSlotNotFound))
	assert.Contains(t, err.Error(), `string:"nothing"`)
}

func TestExistsWithTypeTruthTable(t *testing.T) {
	f := newFixture(t)
	h := f.newHero(alice)
	f.must(alice, func(tx *object.Tx) error { return Attach(tx, h, "level", uint64(3)) })

	f.must(alice, func(tx *object.Tx) error {
		assert.True(t, ExistsWithType[uint64](tx, h, "level"))
		assert.False(t, ExistsWithType[int64](tx, h, "level"))
		assert.False(t, ExistsWithType[uint64](tx, h, "other"))
		assert.False(t, ExistsWithType[uint64](tx, h, uint64(0)), "key type is part of the key")
		assert.True(t, Exists(tx, h, "level"))
		return nil
	})

	f.must(alice, func(tx *object.Tx) error {
		_, err := Remove[uint64](tx, h, "level")
		return err
	})
	f.must(alice, func(tx *object.Tx) error {
		assert.False(t, ExistsWithType[uint64](tx, h, "level"))
		assert.False(t, Exists(tx, h, "level"))
		return nil
	})

	// Never fails, even for an unreadable owner.
	f.must(bob, func(tx *object.Tx) error {
		assert.False(t, ExistsWithType[uint64](tx, h, "level"))
		return nil
	})
}

func TestAttachOccupiedLeavesEntryUntouched(t *testing.T) {
	f := newFixture(t)
	h := f.newHero(alice)
	f.must(alice, func(tx *object.Tx) error { return Attach(tx, h, "name", "first") })

	err := f.run(alice, func(tx *object.Tx) error { return Attach(tx, h, "name", "second") })
	assert.True(t, fault.Is(err, fault.CodeSlotOccupied))

	// A different type under the same key is still the same slot.
	err = f.run(alice, func(tx *object.Tx) error { return Attach(tx, h, "name", 42) })
	assert.True(t, fault.Is(err, fault.CodeSlotOccupied))

	f.must(alice, func(tx *object.Tx) error {
		got, err := Borrow[string](tx, h, "name")
		require.NoError(t, err)
		assert.Equal(t, "first", got)
		return nil
	})
}

func TestRemoveThenReattach(t *testing.T) {
	f := newFixture(t)
	h := f.newHero(alice)
	f.must(alice, func(tx *object.Tx) error { return Attach(tx, h, "title", "squire") })

	f.must(alice, func(tx *object.Tx) error {
		old, err := Remove[string](tx, h, "title")
		require.NoError(t, err)
		assert.Equal(t, "squire", old)
		return Attach(tx, h, "title", []string{"knight", "of the round table"})
	})

	f.must(alice, func(tx *object.Tx) error {
		got, err := Borrow[[]string](tx, h, "title")
		require.NoError(t, err)
		assert.Equal(t, []string{"knight", "of the round table"}, got)
		return nil
	})
}

func TestAttachRequiresOwnership(t *testing.T) {
	f := newFixture(t)
	h := f.newHero(alice)

	err := f.run(bob, func(tx *object.Tx) error { return Attach(tx, h, "x", 1) })
	assert.True(t, fault.Is(err, fault.CodeNotAuthorized))

	f.must(alice, func(tx *object.Tx) error { return object.Freeze(tx, h) })
	err = f.run(alice, func(tx *object.Tx) error { return Attach(tx, h, "x", 1) })
	assert.True(t, fault.Is(err, fault.CodeInvalidState))
}

func TestFrozenOwnerReadOnly(t *testing.T) {
	f := newFixture(t)
	h := f.newHero(alice)
	f.must(alice, func(tx *object.Tx) error { return Attach(tx, h, "motto", "ni") })
	f.must(alice, func(tx *object.Tx) error { return object.Freeze(tx, h) })

	f.must(bob, func(tx *object.Tx) error {
		got, err := Borrow[string](tx, h, "motto")
		require.NoError(t, err)
		assert.Equal(t, "ni", got)
		return nil
	})

	err := f.run(alice, func(tx *object.Tx) error {
		return BorrowMut(tx, h, "motto", func(s *string) error { *s = "ekke"; return nil })
	})
	assert.True(t, fault.Is(err, fault.CodeInvalidState))
}

func TestBorrowMutValue(t *testing.T) {
	f := newFixture(t)
	h := f.newHero(alice)
	f.must(alice, func(tx *object.Tx) error { return Attach(tx, h, "xp", uint64(10)) })

	f.must(alice, func(tx *object.Tx) error {
		return BorrowMut(tx, h, "xp", func(xp *uint64) error {
			*xp += 5
			return nil
		})
	})

	f.must(alice, func(tx *object.Tx) error {
		got, err := Borrow[uint64](tx, h, "xp")
		require.NoError(t, err)
		assert.Equal(t, uint64(15), got)
		return nil
	})
}

func TestBorrowMutNestedRejected(t *testing.T) {
	f := newFixture(t)
	h := f.newHero(alice)
	f.must(alice, func(tx *object.Tx) error { return Attach(tx, h, "xp", uint64(10)) })

	err := f.run(alice, func(tx *object.Tx) error {
		return BorrowMut(tx, h, "xp", func(*uint64) error {
			return BorrowMut(tx, h, "xp", func(*uint64) error { return nil })
		})
	})
	assert.True(t, fault.Is(err, fault.CodeInvalidState))

	err = f.run(alice, func(tx *object.Tx) error {
		return BorrowMut(tx, h, "xp", func(*uint64) error {
			_, err := Remove[uint64](tx, h, "xp")
			return err
		})
	})
	assert.True(t, fault.Is(err, fault.CodeInvalidState))
}

func TestOpaqueRecordHiddenWhileAttached(t *testing.T) {
	f := newFixture(t)
	h := f.newHero(alice)
	s := f.newSword(alice, 4)

	f.must(alice, func(tx *object.Tx) error {
		sw, err := object.Get[sword](tx, s)
		if err != nil {
			return err
		}
		return Attach(tx, h, "weapon", sw)
	})

	_, visible := f.store.Lookup(s)
	assert.False(t, visible, "opaque record must leave the index")

	err := f.run(alice, func(tx *object.Tx) error { return object.Transfer(tx, s, bob) })
	assert.True(t, fault.Is(err, fault.CodeNotAuthorized))

	f.must(alice, func(tx *object.Tx) error {
		got, err := Remove[sword](tx, h, "weapon")
		require.NoError(t, err)
		assert.Equal(t, s, got.ID(), "identity survives attach and remove")
		assert.Equal(t, 4, got.Strength)
		return nil
	})

	info, ok := f.store.Lookup(s)
	require.True(t, ok)
	assert.Equal(t, object.UniquelyHeld(alice), info.Owner)
}

func TestOpaqueFreshRecord(t *testing.T) {
	f := newFixture(t)
	h := f.newHero(alice)

	var gemID ir.ID
	f.must(alice, func(tx *object.Tx) error {
		g := gem{UID: object.NewUID(tx), Carat: 2}
		gemID = g.ID()
		return Attach(tx, h, gemKey{Socket: 1}, g)
	})

	_, visible := f.store.Lookup(gemID)
	assert.False(t, visible)

	f.must(alice, func(tx *object.Tx) error {
		assert.True(t, ExistsWithType[gem](tx, h, gemKey{Socket: 1}))
		assert.False(t, ExistsWithType[gem](tx, h, gemKey{Socket: 2}))
		return nil
	})
}

func TestTransparentRecordStaysIndexed(t *testing.T) {
	f := newFixture(t)
	h := f.newHero(alice)
	s := f.newSword(alice, 4)

	f.must(alice, func(tx *object.Tx) error { return AttachObject(tx, h, "sword", s) })

	info, ok := f.store.Lookup(s)
	require.True(t, ok, "transparent record stays resolvable")
	assert.Equal(t, object.KindSlotted, info.Owner.Kind)
	assert.Equal(t, h, info.Owner.Parent)

	// Not mutable through its own identifier.
	err := f.run(alice, func(tx *object.Tx) error {
		return object.Mutate(tx, s, func(sw *sword) error { sw.Strength = 100; return nil })
	})
	assert.True(t, fault.Is(err, fault.CodeNotAuthorized))

	// Mutable through the owning slot.
	f.must(alice, func(tx *object.Tx) error {
		return BorrowMut(tx, h, "sword", func(sw *sword) error {
			sw.Strength = 9
			return nil
		})
	})
	info, _ = f.store.Lookup(s)
	assert.Equal(t, 9, info.Value.(sword).Strength)
}

func TestNestedSlotsThroughBorrow(t *testing.T) {
	f := newFixture(t)
	h := f.newHero(alice)
	s := f.newSword(alice, 4)
	f.must(alice, func(tx *object.Tx) error { return AttachObject(tx, h, "sword", s) })

	f.must(alice, func(tx *object.Tx) error {
		return BorrowMut(tx, h, "sword", func(sw *sword) error {
			return Attach(tx, sw.ID(), "gem", gem{UID: object.NewUID(tx), Carat: 3})
		})
	})

	// Outside the borrow the sword's slots are not directly writable.
	err := f.run(alice, func(tx *object.Tx) error { return Attach(tx, s, "rune", "fire") })
	assert.True(t, fault.Is(err, fault.CodeNotAuthorized))

	f.must(alice, func(tx *object.Tx) error {
		return BorrowMut(tx, h, "sword", func(sw *sword) error {
			g, err := Borrow[gem](tx, sw.ID(), "gem")
			require.NoError(t, err)
			assert.Equal(t, 3, g.Carat)
			return nil
		})
	})
}

func TestAttachBeneathItselfRejected(t *testing.T) {
	f := newFixture(t)
	h := f.newHero(alice)
	s := f.newSword(alice, 1)
	f.must(alice, func(tx *object.Tx) error { return AttachObject(tx, h, "sword", s) })

	err := f.run(alice, func(tx *object.Tx) error { return AttachObject(tx, h, "self", h) })
	assert.True(t, fault.Is(err, fault.CodeInvalidState))

	err = f.run(alice, func(tx *object.Tx) error {
		return BorrowMut(tx, h, "sword", func(sw *sword) error {
			return AttachObject(tx, sw.ID(), "owner", h)
		})
	})
	assert.True(t, fault.Is(err, fault.CodeInvalidState))
}

func TestDeleteOwnerOrphansSlots(t *testing.T) {
	f := newFixture(t)
	h := f.newHero(alice)
	f.must(alice, func(tx *object.Tx) error { return Attach(tx, h, "motto", "ni") })

	f.must(alice, func(tx *object.Tx) error { return object.Delete(tx, h) })

	orphans := f.store.Orphans()
	require.Len(t, orphans, 1, "slot entry remains in the table")
	assert.Equal(t, h, orphans[0].Owner)

	err := f.run(alice, func(tx *object.Tx) error {
		_, err := Borrow[string](tx, h, "motto")
		return err
	})
	assert.True(t, fault.Is(err, fault.CodeInvalidState), "unreachable via the owner identifier")

	f.must(alice, func(tx *object.Tx) error {
		assert.False(t, Exists(tx, h, "motto"))
		return nil
	})
}

func TestDeleteOwnerOrphansTransparentChild(t *testing.T) {
	f := newFixture(t)
	h := f.newHero(alice)
	s := f.newSword(alice, 1)
	f.must(alice, func(tx *object.Tx) error { return AttachObject(tx, h, "sword", s) })
	f.must(alice, func(tx *object.Tx) error { return object.Delete(tx, h) })

	info, ok := f.store.Lookup(s)
	require.True(t, ok, "child is not resurrected, only left in place")
	assert.Equal(t, object.KindSlotted, info.Owner.Kind)

	err := f.run(alice, func(tx *object.Tx) error { return object.Transfer(tx, s, bob) })
	assert.True(t, fault.Is(err, fault.CodeNotAuthorized))
}

func TestTypeOfAndEntries(t *testing.T) {
	f := newFixture(t)
	h := f.newHero(alice)
	s := f.newSword(alice, 1)
	f.must(alice, func(tx *object.Tx) error {
		if err := Attach(tx, h, []byte{0xca, 0xfe}, colour{}); err != nil {
			return err
		}
		return AttachObject(tx, h, "sword", s)
	})

	f.must(alice, func(tx *object.Tx) error {
		tag, err := TypeOf(tx, h, []byte{0xca, 0xfe})
		require.NoError(t, err)
		assert.Equal(t, "colour", tag.Name)

		tag, err = TypeOf(tx, h, "sword")
		require.NoError(t, err)
		assert.Equal(t, "sword", tag.Name)

		_, err = TypeOf(tx, h, "missing")
		assert.True(t, fault.Is(err, fault.CodeSlotNotFound))

		entries, err := Entries(tx, h)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		return nil
	})

	slots := f.store.Slots(h)
	require.Len(t, slots, 2)
	keys := []string{slots[0].KeyString(), slots[1].KeyString()}
	assert.Contains(t, keys, `[]uint8:"0xcafe"`)
	assert.Contains(t, keys, `string:"sword"`)
}

func TestKeyOf(t *testing.T) {
	k, err := KeyOf(gemKey{Socket: 2})
	require.NoError(t, err)
	assert.Equal(t, `{"socket":2}`, string(k.Data))
	assert.Equal(t, "gemKey", k.Type.Name)

	owner := ir.ObjectID("tx", 1)
	a, _ := KeyOf("1")
	b, _ := KeyOf(1)
	assert.NotEqual(t, a.SlotID(owner), b.SlotID(owner))

	_, err = KeyOf(1.5)
	assert.True(t, fault.Is(err, fault.CodeInvalidState))
}

func TestAbortedTxLeavesSlotsUnchanged(t *testing.T) {
	f := newFixture(t)
	h := f.newHero(alice)

	err := f.run(alice, func(tx *object.Tx) error {
		if err := Attach(tx, h, "a", 1); err != nil {
			return err
		}
		return Attach(tx, h, "a", 2)
	})
	assert.True(t, fault.Is(err, fault.CodeSlotOccupied))
	assert.Empty(t, f.store.Slots(h))
}

func TestBorrowMutFailureLeavesSliceUnchanged(t *testing.T) {
	f := newFixture(t)
	h := f.newHero(alice)
	f.must(alice, func(tx *object.Tx) error { return Attach(tx, h, "scores", []int{1, 2, 3}) })

	err := f.run(alice, func(tx *object.Tx) error {
		return BorrowMut(tx, h, "scores", func(p *[]int) error {
			(*p)[0] = 99
			return errors.New("abandon")
		})
	})
	require.Error(t, err)

	f.must(alice, func(tx *object.Tx) error {
		got, err := Borrow[[]int](tx, h, "scores")
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, got)

		got[1] = 42
		again, err := Borrow[[]int](tx, h, "scores")
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, again, "borrowed copy does not alias the slot")
		return nil
	})
}

func TestAttachRejectsRecordsInsideContainers(t *testing.T) {
	f := newFixture(t)
	h := f.newHero(alice)
	s := f.newSword(alice, 4)

	err := f.run(alice, func(tx *object.Tx) error {
		sw, err := object.Get[sword](tx, s)
		if err != nil {
			return err
		}
		return Attach(tx, h, "copies", []sword{sw, sw})
	})
	assert.True(t, fault.Is(err, fault.CodeInvalidState))

	err = f.run(alice, func(tx *object.Tx) error {
		sw, err := object.Get[sword](tx, s)
		if err != nil {
			return err
		}
		return Attach(tx, h, "rack", map[string]*sword{"left": &sw})
	})
	assert.True(t, fault.Is(err, fault.CodeInvalidState))

	info, ok := f.store.Lookup(s)
	require.True(t, ok)
	assert.Equal(t, object.KindUniquelyHeld, info.Owner.Kind)
	assert.Empty(t, f.store.Slots(h))
}

func TestBorrowMutOwnerDeletedInsideCallback(t *testing.T) {
	f := newFixture(t)
	h := f.newHero(alice)
	f.must(alice, func(tx *object.Tx) error { return Attach(tx, h, "motto", "ni") })

	err := f.run(alice, func(tx *object.Tx) error {
		return BorrowMut(tx, h, "motto", func(m *string) error {
			*m = "ekke"
			return object.Delete(tx, h)
		})
	})
	assert.True(t, fault.Is(err, fault.CodeInvalidState))
	assert.False(t, f.store.Retired(h))

	f.must(alice, func(tx *object.Tx) error {
		got, err := Borrow[string](tx, h, "motto")
		require.NoError(t, err)
		assert.Equal(t, "ni", got)
		return nil
	})
}

func TestBorrowMutHeldRecordCannotBeDeleted(t *testing.T) {
	f := newFixture(t)
	h := f.newHero(alice)
	s := f.newSword(alice, 1)
	f.must(alice, func(tx *object.Tx) error { return AttachObject(tx, h, "sword", s) })

	err := f.run(alice, func(tx *object.Tx) error {
		return BorrowMut(tx, h, "sword", func(sw *sword) error {
			sw.Strength = 9
			return object.Delete(tx, sw.ID())
		})
	})
	assert.True(t, fault.Is(err, fault.CodeInvalidState))

	info, ok := f.store.Lookup(s)
	require.True(t, ok)
	assert.Equal(t, 1, info.Value.(sword).Strength)
}
