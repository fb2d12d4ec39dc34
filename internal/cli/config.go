package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/mosaic/internal/paths"
	"github.com/mesh-intelligence/mosaic/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyRoot   = "root"
	cfgKeyFormat = "format"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Root   string `yaml:"root,omitempty"`
	Format string `yaml:"format"`
}

// loadConfig reads config.yaml from configDir using Viper. A missing file is
// not an error; defaults apply.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyFormat, types.FormatJSON)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// resolveConfig returns the store configuration the command line selects:
// flags first, then config.yaml, then environment and defaults.
func resolveConfig() (types.Config, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return types.Config{}, err
	}

	root, err := paths.ResolveRoot(flags.root, v.GetString(cfgKeyRoot))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve root: %w", err)
	}
	format := flags.format
	if format == "" {
		format = v.GetString(cfgKeyFormat)
	}

	cfg := types.Config{Root: root, Format: format}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config (root %q, format %q): %w", root, format, err)
	}
	return cfg, nil
}

// writeConfigIfMissing creates config.yaml with the given values if the file
// does not exist. If it already exists, the function returns nil.
func writeConfigIfMissing(path string, cfg configFile) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	return true, os.WriteFile(path, data, 0o644)
}
