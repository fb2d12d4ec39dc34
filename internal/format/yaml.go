package format

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/mosaic/pkg/types"
)

var _ types.Format = YAML{}

// YAML stores entries as YAML documents in .yaml files.
type YAML struct{}

// Name returns "yaml".
func (YAML) Name() string { return types.FormatYAML }

// Ext returns "yaml".
func (YAML) Ext() string { return "yaml" }

// Encode marshals {typeName: v}. Pretty output uses a two-space indent;
// otherwise the yaml.v3 default of four is kept.
func (YAML) Encode(typeName string, v any, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	if pretty {
		enc.SetIndent(2)
	}
	if err := enc.Encode(map[string]any{typeName: v}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode splits a YAML envelope. The body stays a yaml.Node until the
// returned function decodes it.
func (YAML) Decode(data []byte) (string, func(target any) error, error) {
	var env map[string]yaml.Node
	if err := yaml.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("%w: %w", types.ErrEnvelope, err)
	}
	typeName, node, err := envelopeKey(env)
	if err != nil {
		return "", nil, err
	}
	return typeName, func(target any) error {
		return node.Decode(target)
	}, nil
}
