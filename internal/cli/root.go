// Package cli implements the mosaic command-line interface, a type-agnostic
// view over a store root: listing, inspecting, checksumming and removing
// stored entries.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/mosaic/pkg/mosaic"
	"github.com/mesh-intelligence/mosaic/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// envLogLevel overrides the log level (DEBUG, INFO, WARN, ERROR).
const envLogLevel = "MOSAIC_LOG_LEVEL"

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	root      string
	format    string
	jsonMode  bool
	verbose   bool
}

var flags rootFlags

// NewRootCmd creates the top-level "mosaic" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mosaic",
		Short: "Inspect and maintain a mosaic store",
		Long: "Mosaic stores structured values as one file per entry under\n" +
			"<root>/<Type>/<name>.<ext>. This tool lists, shows, checksums and\n" +
			"removes stored entries without knowing their Go types.",
		Version: mosaic.Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir/mosaic)")
	root.PersistentFlags().StringVar(&flags.root, "root", "", "store root (default: $(CWD)/.mosaic-db)")
	root.PersistentFlags().StringVar(&flags.format, "format", "", "store format: json or yaml (default: from config, else json)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log debug records to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newTypesCmd())
	root.AddCommand(newLsCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newExistsCmd())
	root.AddCommand(newChecksumCmd())
	root.AddCommand(newRmCmd())
	root.AddCommand(newPruneCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(report(os.Stderr, err))
	}
}

// exitError carries an exit code chosen by a command. A nil err exits
// silently.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// report prints err to w and returns the exit code for it.
func report(w io.Writer, err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(w, "mosaic:", ee.err)
		}
		return ee.code
	}
	fmt.Fprintln(w, "mosaic:", err)
	return exitCode(err)
}

// exitCode maps store errors to exit codes: problems with the request are
// user errors, everything else is a system error.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrInvalidName),
		errors.Is(err, types.ErrFormatUnknown),
		errors.Is(err, types.ErrNotDirectory):
		return exitUserError
	default:
		return exitSysError
	}
}

// newLogger returns the logger commands hand to the Manager. --verbose
// selects debug; otherwise MOSAIC_LOG_LEVEL applies, defaulting to warn.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if v := os.Getenv(envLogLevel); v != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(strings.ToUpper(v))); err == nil {
			level = l
		}
	}
	if flags.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
