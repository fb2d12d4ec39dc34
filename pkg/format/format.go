// Package format provides the public constructors for the formats a mosaic
// store can be opened with, keeping the adapters themselves internal.
package format

import (
	"github.com/mesh-intelligence/mosaic/internal/format"
	"github.com/mesh-intelligence/mosaic/pkg/types"
)

// JSON returns the JSON format. Entries are stored as <name>.json.
//
// Example:
//
//	m, err := mosaic.Open(".mosaic-db", format.JSON())
func JSON() types.Format {
	return format.JSON{}
}

// YAML returns the YAML format. Entries are stored as <name>.yaml.
func YAML() types.Format {
	return format.YAML{}
}

// ByName returns the format named by a types.Config Format value. An empty
// name selects JSON; an unknown name fails with types.ErrFormatUnknown.
func ByName(name string) (types.Format, error) {
	return format.ByName(name)
}
