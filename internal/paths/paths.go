// Package paths resolves configuration and store root locations and maps
// entries onto the <root>/<type>/<name>.<ext> layout.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mesh-intelligence/mosaic/pkg/types"
)

// CWD-relative directory names.
const (
	DefaultConfigDirName = ".mosaic"
	DefaultRootDirName   = ".mosaic-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "MOSAIC_CONFIG_DIR"
	EnvRoot      = "MOSAIC_ROOT"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/mosaic (fallback ~/.config/mosaic)
// macOS:   ~/Library/Application Support/mosaic
// Windows: %APPDATA%/mosaic
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "mosaic"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "mosaic"), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "mosaic"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > MOSAIC_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveRoot returns the store root following the precedence chain:
// flag > configYAMLValue > MOSAIC_ROOT env > $(CWD)/.mosaic-db.
func ResolveRoot(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvRoot); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultRootDirName), nil
}

// ValidName checks that name can be used as a single path segment without
// escaping its directory. Empty names, "." and "..", separators, and NUL
// bytes are rejected with types.ErrInvalidName.
func ValidName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", types.ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", types.ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`+"\x00"):
		return fmt.Errorf("%w: %q contains a path separator", types.ErrInvalidName, name)
	case filepath.VolumeName(name) != "":
		return fmt.Errorf("%w: %q has a volume name", types.ErrInvalidName, name)
	}
	return nil
}

// FileName joins name and ext. An empty ext yields name unchanged.
func FileName(name, ext string) string {
	if ext == "" {
		return name
	}
	return name + "." + ext
}

// EntryPath returns <root>/<typeName>/<name>.<ext> after validating both
// segments.
func EntryPath(root, typeName, name, ext string) (string, error) {
	if err := ValidName(typeName); err != nil {
		return "", fmt.Errorf("type name: %w", err)
	}
	if err := ValidName(name); err != nil {
		return "", err
	}
	return filepath.Join(root, typeName, FileName(name, ext)), nil
}
