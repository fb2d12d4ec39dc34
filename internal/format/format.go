// Package format implements the JSON and YAML formats used by a store and the
// single-key envelope that tags every stored entry with its type name.
package format

import (
	"fmt"

	"github.com/mesh-intelligence/mosaic/pkg/types"
)

// ByName returns the format registered under name. An empty name selects
// JSON.
func ByName(name string) (types.Format, error) {
	switch name {
	case "", types.FormatJSON:
		return JSON{}, nil
	case types.FormatYAML:
		return YAML{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrFormatUnknown, name)
	}
}

// envelopeKey returns the only key of an envelope mapping.
func envelopeKey[V any](env map[string]V) (string, V, error) {
	var zero V
	if len(env) != 1 {
		return "", zero, fmt.Errorf("%w: want exactly one type key, got %d", types.ErrEnvelope, len(env))
	}
	for k, v := range env {
		if k == "" {
			return "", zero, fmt.Errorf("%w: empty type key", types.ErrEnvelope)
		}
		return k, v, nil
	}
	return "", zero, nil
}
