package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultWriteOptions(t *testing.T) {
	opts := DefaultWriteOptions()

	assert.True(t, opts.EmitChecksum)
	assert.True(t, opts.Pretty)
	assert.False(t, opts.Overwrite)
	assert.Equal(t, ConflictFail, opts.OnConflict)
	assert.Equal(t, ModeLink, opts.Mode)
}

func TestWriteOptionsFileName(t *testing.T) {
	opts := WriteOptions{Alias: map[string]string{
		"pure_cotton": "100percent_cotton",
		"blank":       "",
	}}

	assert.Equal(t, "100percent_cotton", opts.FileName("pure_cotton"))
	assert.Equal(t, "linen", opts.FileName("linen"))
	assert.Equal(t, "blank", opts.FileName("blank"), "empty alias is ignored")
}
