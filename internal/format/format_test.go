package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/mosaic/pkg/types"
)

type material struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

func TestByName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr error
	}{
		{name: "", want: types.FormatJSON},
		{name: "json", want: types.FormatJSON},
		{name: "yaml", want: types.FormatYAML},
		{name: "toml", wantErr: types.ErrFormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ByName(tt.name)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Name())
		})
	}
}

func TestFormatsRoundTripEnvelope(t *testing.T) {
	for _, f := range []types.Format{JSON{}, YAML{}} {
		for _, pretty := range []bool{true, false} {
			t.Run(f.Name(), func(t *testing.T) {
				in := material{ID: 7, Name: "cotton"}
				data, err := f.Encode("Material", in, pretty)
				require.NoError(t, err)

				typeName, body, err := f.Decode(data)
				require.NoError(t, err)
				assert.Equal(t, "Material", typeName)

				var out material
				require.NoError(t, body(&out))
				assert.Equal(t, in, out)
			})
		}
	}
}

func TestJSONEncodeShape(t *testing.T) {
	data, err := JSON{}.Encode("Material", material{ID: 1, Name: "wool"}, false)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Material":{"id":1,"name":"wool"}}`, string(data))

	pretty, err := JSON{}.Encode("Material", material{ID: 1, Name: "wool"}, true)
	require.NoError(t, err)
	assert.Contains(t, string(pretty), "\n  \"Material\": {")
	assert.Equal(t, byte('\n'), pretty[len(pretty)-1])
}

func TestYAMLEncodeShape(t *testing.T) {
	data, err := YAML{}.Encode("Material", material{ID: 1, Name: "wool"}, true)
	require.NoError(t, err)
	assert.Equal(t, "Material:\n  id: 1\n  name: wool\n", string(data))
}

func TestDecodeRejectsMalformedEnvelope(t *testing.T) {
	tests := []struct {
		name string
		f    types.Format
		data string
	}{
		{"json two keys", JSON{}, `{"A":{},"B":{}}`},
		{"json no keys", JSON{}, `{}`},
		{"json not an object", JSON{}, `[1,2]`},
		{"json empty key", JSON{}, `{"":{}}`},
		{"yaml two keys", YAML{}, "A: {}\nB: {}\n"},
		{"yaml empty document", YAML{}, ""},
		{"yaml scalar", YAML{}, "hello\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.f.Decode([]byte(tt.data))
			require.ErrorIs(t, err, types.ErrEnvelope)
		})
	}
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, "json", JSON{}.Ext())
	assert.Equal(t, "yaml", YAML{}.Ext())
}
