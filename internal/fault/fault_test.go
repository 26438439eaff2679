package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/objstore/internal/ir"
)

func TestAbortErrorMessage(t *testing.T) {
	id := ir.ObjectID("tx", 1)

	err := SlotNotFound(id, `"gem"`)
	assert.Contains(t, err.Error(), "SLOT_NOT_FOUND")
	assert.Contains(t, err.Error(), `no slot "gem"`)
	assert.Contains(t, err.Error(), id.Short())
	assert.Equal(t, `"gem"`, err.Details["key"])

	assert.Equal(t, "MISMATCHED_TERMS: variants equal", MismatchedTerms("variants equal").Error())
}

func TestErrorsIsMatchesCode(t *testing.T) {
	err := fmt.Errorf("borrow sword: %w", TypeMismatch(ir.ZeroID, "demo::Gem", "demo::Sword"))

	assert.True(t, errors.Is(err, ErrTypeMismatch))
	assert.False(t, errors.Is(err, ErrSlotNotFound))
	assert.True(t, Is(err, CodeTypeMismatch))
	assert.Equal(t, CodeTypeMismatch, CodeOf(err))
	assert.True(t, IsAbort(err))
}

func TestCodeOfNonAbort(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(errors.New("boom")))
	assert.Equal(t, Code(""), CodeOf(nil))
	assert.False(t, Is(errors.New("boom"), ""))
	assert.False(t, IsAbort(nil))
}

func TestWithDoesNotAliasDetails(t *testing.T) {
	base := TypeMismatch(ir.ZeroID, "a", "b")
	extended := base.With("extra", "1")

	assert.NotContains(t, base.Details, "extra")
	assert.Equal(t, "1", extended.Details["extra"])
	assert.Equal(t, "a", extended.Details["stored"])
}

func TestParseCode(t *testing.T) {
	for _, c := range Codes() {
		parsed, err := ParseCode(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}

	_, err := ParseCode("NOPE")
	assert.Error(t, err)
	assert.Len(t, Codes(), 6)
}
