package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/mosaic/pkg/format"
	"github.com/mesh-intelligence/mosaic/pkg/mosaic"
)

// openStore opens the configured root. The root must already exist; only
// init creates it.
func openStore(cmd *cobra.Command) (*mosaic.Manager, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}
	f, err := format.ByName(cfg.Format)
	if err != nil {
		return nil, err
	}
	return mosaic.OpenExisting(cfg.Root, f, mosaic.WithLogger(newLogger(cmd.ErrOrStderr())))
}
