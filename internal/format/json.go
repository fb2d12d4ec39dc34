package format

import (
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/mosaic/pkg/types"
)

var _ types.Format = JSON{}

// JSON stores entries as JSON objects in .json files.
type JSON struct{}

// Name returns "json".
func (JSON) Name() string { return types.FormatJSON }

// Ext returns "json".
func (JSON) Ext() string { return "json" }

// Encode marshals {typeName: v}. Pretty output is indented by two spaces and
// ends with a newline.
func (JSON) Encode(typeName string, v any, pretty bool) ([]byte, error) {
	env := map[string]any{typeName: v}
	if !pretty {
		return json.Marshal(env)
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode splits a JSON envelope. The body stays raw until the returned
// function unmarshals it.
func (JSON) Decode(data []byte) (string, func(target any) error, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("%w: %w", types.ErrEnvelope, err)
	}
	typeName, raw, err := envelopeKey(env)
	if err != nil {
		return "", nil, err
	}
	return typeName, func(target any) error {
		return json.Unmarshal(raw, target)
	}, nil
}
