package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryErrorMessage(t *testing.T) {
	err := NewEntryError(OpDecode, "Material", "cotton", ErrDecode, errors.New("bad yaml"))

	assert.Equal(t, "decode Material/cotton: decode failed: bad yaml", err.Error())
}

func TestEntryErrorMatchesKindAndCause(t *testing.T) {
	cause := errors.New("bad yaml")
	err := NewEntryError(OpDecode, "Material", "cotton", ErrDecode, cause)

	assert.ErrorIs(t, err, ErrDecode)
	assert.ErrorIs(t, err, cause)
}

func TestEntryErrorDoesNotDoubleWrapKind(t *testing.T) {
	inner := fmt.Errorf("%w: Material/cotton", ErrLinkNotFound)
	err := NewEntryError(OpRead, "Cup", "mug", ErrLinkNotFound, inner)

	assert.Equal(t, "read Cup/mug: linked entry not found: Material/cotton", err.Error())
}

func TestEntryErrorNested(t *testing.T) {
	inner := NewEntryError(OpRead, "Material", "cotton", ErrLinkNotFound, nil)
	outer := NewEntryError(OpDecode, "Shirt", "mike", ErrDecode, inner)

	assert.ErrorIs(t, outer, ErrLinkNotFound)
	assert.ErrorIs(t, outer, ErrDecode)

	var entryErr *EntryError
	require.ErrorAs(t, outer, &entryErr)
	assert.Equal(t, "Shirt", entryErr.Type)
}
