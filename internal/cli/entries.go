package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/mosaic/pkg/types"
)

// listing is one stored entry as printed by ls.
type listing struct {
	Type     string  `json:"type"`
	Name     string  `json:"name"`
	Checksum *uint32 `json:"checksum,omitempty"`
}

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the type directories of the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openStore(cmd)
			if err != nil {
				return err
			}
			typeNames, err := m.Types()
			if err != nil {
				return err
			}
			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), nonNil(typeNames))
			}
			for _, n := range typeNames {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func newLsCmd() *cobra.Command {
	var withChecksum bool
	cmd := &cobra.Command{
		Use:   "ls [type]",
		Short: "List stored entries",
		Long: `List stored entries as <type>/<name>, for one type or for all.

With --checksum the checksum of every listed file is computed, concurrently.

Example:
  mosaic ls
  mosaic ls Material --checksum`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openStore(cmd)
			if err != nil {
				return err
			}

			typeNames := args
			if len(typeNames) == 0 {
				if typeNames, err = m.Types(); err != nil {
					return err
				}
			}

			rows := []listing{}
			for _, typeName := range typeNames {
				names, err := m.List(typeName)
				if err != nil {
					return err
				}
				for _, name := range names {
					rows = append(rows, listing{Type: typeName, Name: name})
				}
			}

			if withChecksum {
				var g errgroup.Group
				g.SetLimit(runtime.GOMAXPROCS(0))
				for i := range rows {
					g.Go(func() error {
						sum, err := m.Checksum(rows[i].Type, rows[i].Name)
						if err != nil {
							return err
						}
						rows[i].Checksum = &sum
						return nil
					})
				}
				if err := g.Wait(); err != nil {
					return err
				}
			}

			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			for _, r := range rows {
				if r.Checksum != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s/%s\t%d\n", r.Type, r.Name, *r.Checksum)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s/%s\n", r.Type, r.Name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withChecksum, "checksum", false, "print the checksum of each entry")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <type> <name>",
		Short: "Print the stored bytes of an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openStore(cmd)
			if err != nil {
				return err
			}
			path, err := m.Path(args[0], args[1])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if errors.Is(err, fs.ErrNotExist) {
				return types.NewEntryError(types.OpRead, args[0], args[1], types.ErrNotFound, nil)
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newExistsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <type> <name>",
		Short: "Exit 0 if an entry is stored, 1 if not",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openStore(cmd)
			if err != nil {
				return err
			}
			ok := m.Exists(args[0], args[1])
			if flags.jsonMode {
				if err := writeJSON(cmd.OutOrStdout(), map[string]bool{"exists": ok}); err != nil {
					return err
				}
			}
			if !ok {
				return &exitError{code: exitUserError}
			}
			return nil
		},
	}
}

func newChecksumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checksum <type> <name>",
		Short: "Print the checksum of a stored entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openStore(cmd)
			if err != nil {
				return err
			}
			sum, err := m.Checksum(args[0], args[1])
			if err != nil {
				return err
			}
			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), listing{Type: args[0], Name: args[1], Checksum: &sum})
			}
			fmt.Fprintln(cmd.OutOrStdout(), sum)
			return nil
		},
	}
}

func newRmCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "rm <type> <name> | rm --all <name>",
		Short: "Remove stored entries",
		Long: `Remove one stored entry, or with --all the entry of that name under
every type. Links to removed entries are not updated.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.ExactArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openStore(cmd)
			if err != nil {
				return err
			}
			if all {
				n, err := m.RemoveAll(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries\n", n)
				return nil
			}
			if err := m.Remove(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s/%s\n", args[0], args[1])
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "remove the name from every type")
	return cmd
}

func newPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove empty type directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openStore(cmd)
			if err != nil {
				return err
			}
			removed, err := m.RemoveEmptyDirs()
			if err != nil {
				return err
			}
			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), nonNil(removed))
			}
			for _, n := range removed {
				fmt.Fprintln(cmd.OutOrStdout(), "removed", n)
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
