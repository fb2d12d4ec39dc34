package mosaic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/mosaic/pkg/types"
)

func TestRegister(t *testing.T) {
	assert.Equal(t, "Material", Register[Material]())
	assert.Equal(t, "swatch-v1", Register[Swatch]())
	assert.Subset(t, RegisteredTypes(), []string{"Material", "swatch-v1"})
}

func TestReadAny(t *testing.T) {
	Register[Garment]()
	m := openJSON(t)
	_, err := m.Write(shirt("oxford", warm()), types.DefaultWriteOptions())
	require.NoError(t, err)

	e, err := m.ReadAny("Garment", "oxford")
	require.NoError(t, err)
	g, ok := e.(Garment)
	require.True(t, ok)
	assert.Equal(t, cotton(), g.Fabric.Value)
	assert.Equal(t, "oxford", e.EntryName())

	_, err = m.ReadAny("Garment", "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = m.ReadAny("Unregistered", "oxford")
	assert.ErrorIs(t, err, types.ErrUnknownType)
}

func TestDecodeAny(t *testing.T) {
	Register[Material]()
	m := openJSON(t)

	e, err := m.DecodeAny([]byte(`{"Material":{"id":"silk","name":"Silk","weight":60}}`))
	require.NoError(t, err)
	assert.Equal(t, Material{ID: "silk", Name: "Silk", Weight: 60}, e)

	_, err = m.DecodeAny([]byte(`{"Unregistered":{}}`))
	assert.ErrorIs(t, err, types.ErrUnknownType)
}
