package mosaic

import (
	"github.com/mesh-intelligence/mosaic/pkg/types"
)

// Read decodes the entry of type T named name, resolving its links.
// A missing entry fails with types.ErrNotFound; a missing linked component
// fails with types.ErrLinkNotFound.
func Read[T types.Entry](m *Manager, name string) (T, error) {
	v, _, err := ReadVerbose[T](m, name)
	return v, err
}

// ReadVerbose is Read that also reports linked files whose checksum differs
// from the one their link carries.
func ReadVerbose[T types.Entry](m *Manager, name string) (T, types.ReadInfo, error) {
	f, exit := m.enter(frameRead, types.WriteOptions{})
	defer exit()

	var v T
	_, _, err := f.load(typeNameFor[T](), name, types.ErrNotFound, decodeInto(&v))
	if err != nil {
		var zero T
		return zero, f.readInfo, err
	}
	return v, f.readInfo, nil
}

// Decode decodes an enveloped document of type T held in memory. Links
// inside it resolve against the Manager's root.
func Decode[T types.Entry](m *Manager, data []byte) (T, error) {
	f, exit := m.enter(frameRead, types.WriteOptions{})
	defer exit()

	var v T
	if err := f.decode(typeNameFor[T](), "", data, decodeInto(&v)); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
