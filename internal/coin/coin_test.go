package coin

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/objstore/internal/fault"
	"github.com/roach88/objstore/internal/identity"
	"github.com/roach88/objstore/internal/ir"
	"github.com/roach88/objstore/internal/object"
	"github.com/roach88/objstore/internal/typetag"
)

var alice = ir.AddressFromLabel("alice")

func TestBalanceJoinOverflow(t *testing.T) {
	b, err := Balance{Value: 2}.Join(Balance{Value: 3})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), b.Value)

	_, err = Balance{Value: math.MaxUint64}.Join(Balance{Value: 1})
	assert.True(t, fault.Is(err, fault.CodeInvalidState))
}

func TestBalanceSplit(t *testing.T) {
	rest, taken, err := Balance{Value: 10}.Split(4)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), rest.Value)
	assert.Equal(t, uint64(4), taken.Value)

	rest, _, err = Balance{Value: 3}.Split(4)
	assert.True(t, fault.Is(err, fault.CodeInvalidState))
	assert.Equal(t, uint64(3), rest.Value)
}

func TestCoinLifecycle(t *testing.T) {
	s := object.NewStore(identity.NewRegistry())
	tx := s.Begin(alice, "tx")

	id, err := Mint(tx, 100)
	require.NoError(t, err)

	part, err := Split(tx, id, 30)
	require.NoError(t, err)

	v, err := Value(tx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(70), v)

	require.NoError(t, Join(tx, id, part))
	v, err = Value(tx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), v)

	assert.True(t, fault.Is(Join(tx, id, id), fault.CodeInvalidState))

	_, err = Split(tx, id, 101)
	assert.True(t, fault.Is(err, fault.CodeInvalidState))

	b, err := IntoBalance(tx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), b.Value)
	require.NoError(t, tx.Commit())
	assert.Equal(t, 0, s.Len())
}

func TestCoinTypeTag(t *testing.T) {
	assert.Equal(t, typetag.Origin()+"::coin::Coin", typetag.Of[Coin]().String())
}
