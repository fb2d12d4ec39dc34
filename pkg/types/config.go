package types

import "errors"

// Config holds the store root and format selection for mosaic.Open.
type Config struct {
	Root   string `json:"root" yaml:"root"`
	Format string `json:"format" yaml:"format"`
}

// Supported format names.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config validation errors.
var (
	ErrRootEmpty     = errors.New("root must not be empty")
	ErrFormatUnknown = errors.New("unknown format")
)

// knownFormats lists the formats that Validate accepts.
var knownFormats = map[string]bool{
	FormatJSON: true,
	FormatYAML: true,
}

// Validate checks that the Config is well-formed. An empty Format is valid and
// selects JSON.
func (c Config) Validate() error {
	if c.Root == "" {
		return ErrRootEmpty
	}
	if c.Format != "" && !knownFormats[c.Format] {
		return ErrFormatUnknown
	}
	return nil
}
