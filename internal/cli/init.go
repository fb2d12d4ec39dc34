package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/mosaic/internal/paths"
	"github.com/mesh-intelligence/mosaic/pkg/format"
	"github.com/mesh-intelligence/mosaic/pkg/mosaic"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a mosaic store",
		Long:  "Create the configuration directory with a default config.yaml, then create the store root.",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return &exitError{code: exitSysError, err: fmt.Errorf("resolve config dir: %w", err)}
	}
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, configFileExt)
	wrote, err := writeConfigIfMissing(configPath, configFile{Root: flags.root, Format: cfg.Format})
	if err != nil {
		return &exitError{code: exitSysError, err: fmt.Errorf("write config: %w", err)}
	}
	if wrote {
		fmt.Fprintln(cmd.OutOrStdout(), "wrote", configPath)
	}

	f, err := format.ByName(cfg.Format)
	if err != nil {
		return err
	}
	m, err := mosaic.Open(cfg.Root, f, mosaic.WithLogger(newLogger(cmd.ErrOrStderr())))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "mosaic store ready at %s (%s)\n", m.Root(), m.Format().Name())
	return nil
}
