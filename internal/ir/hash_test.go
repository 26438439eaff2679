package ir

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectIDDeterministic(t *testing.T) {
	assert.Equal(t, ObjectID("tx-1", 1), ObjectID("tx-1", 1))
}

func TestObjectIDUniqueAcrossCounterAndDigest(t *testing.T) {
	seen := make(map[ID]bool)
	for _, digest := range []string{"tx-1", "tx-2"} {
		for counter := int64(0); counter < 50; counter++ {
			id := ObjectID(digest, counter)
			require.False(t, seen[id], "collision at %s/%d", digest, counter)
			seen[id] = true
		}
	}
}

func TestSlotIDSeparatesKeyTypes(t *testing.T) {
	owner := ObjectID("tx-1", 1)
	data := []byte(`"sword"`)

	a := SlotID(owner, "0x0::demo::SwordKey", data)
	b := SlotID(owner, "0x0::demo::GemKey", data)
	c := SlotID(ObjectID("tx-1", 2), "0x0::demo::SwordKey", data)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, SlotID(owner, "0x0::demo::SwordKey", data))
}

func TestHashWithDomainSeparatesParts(t *testing.T) {
	ab := hashWithDomain(DomainSlot, []byte("ab"), []byte("c"))
	bc := hashWithDomain(DomainSlot, []byte("a"), []byte("bc"))
	assert.NotEqual(t, ab, bc)

	assert.NotEqual(t,
		hashWithDomain(DomainObject, []byte("x")),
		hashWithDomain(DomainSlot, []byte("x")))
}

func TestAddressFromLabel(t *testing.T) {
	alice := AddressFromLabel("alice")
	assert.Equal(t, alice, AddressFromLabel("alice"))
	assert.NotEqual(t, alice, AddressFromLabel("bob"))
	assert.False(t, alice.IsZero())
}

func TestEventID(t *testing.T) {
	fields := IRObject{"to": IRString("bob")}

	id, err := EventID("tx-1", 3, EventTransferred, fields)
	require.NoError(t, err)

	raw, err := hex.DecodeString(id)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	assert.Equal(t, id, MustEventID("tx-1", 3, EventTransferred, IRObject{"to": IRString("bob")}))
	assert.NotEqual(t, id, MustEventID("tx-1", 4, EventTransferred, fields))
	assert.NotEqual(t, id, MustEventID("tx-1", 3, EventFrozen, fields))
}

func TestEventIDRejectsNull(t *testing.T) {
	_, err := EventID("tx-1", 1, EventCreated, IRObject{"x": IRNull{}})
	assert.Error(t, err)

	assert.Panics(t, func() {
		MustEventID("tx-1", 1, EventCreated, IRObject{"x": IRNull{}})
	})
}
