package mosaic

import (
	"slices"
	"sync"

	"github.com/mesh-intelligence/mosaic/pkg/types"
)

// entryDecoder decodes an envelope body into a fresh entry of one type.
type entryDecoder func(body func(target any) error) (types.Entry, error)

var registry = struct {
	sync.RWMutex
	decoders map[string]entryDecoder
}{decoders: make(map[string]entryDecoder)}

// Register makes T readable by type name through Manager.ReadAny and
// Manager.DecodeAny, and returns that name. Registering a second type under
// the same name replaces the first.
func Register[T types.Entry]() string {
	name := typeNameFor[T]()
	registry.Lock()
	defer registry.Unlock()
	registry.decoders[name] = func(body func(target any) error) (types.Entry, error) {
		var v T
		if err := body(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return name
}

// RegisteredTypes returns the registered type names, sorted.
func RegisteredTypes() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.decoders))
	for name := range registry.decoders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func registered(typeName string) (entryDecoder, bool) {
	registry.RLock()
	defer registry.RUnlock()
	dec, ok := registry.decoders[typeName]
	return dec, ok
}
