package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipeview/pkg/position"
)

// positionsCommand creates the positions command for managing stored maps.
func (c *CLI) positionsCommand() *cobra.Command {
	var store string
	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Inspect and delete stored position maps",
	}
	cmd.PersistentFlags().StringVar(&store, "store", "", "position store: directory, redis:// or mongodb:// URL (default: $"+envStore+" or the data dir)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show [name]",
		Short: "Print a stored position map",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), store, func(s position.Store) error {
				m, err := s.Load(cmd.Context(), nameArg(args))
				if err != nil {
					return err
				}
				return printPositions(cmd.OutOrStdout(), m)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a stored position map",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := nameArg(args)
			return withStore(cmd.Context(), store, func(s position.Store) error {
				if err := s.Delete(cmd.Context(), name); err != nil {
					return err
				}
				printSuccess("Deleted positions %q", name)
				return nil
			})
		},
	})

	return cmd
}

func nameArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return position.DefaultName
}

func withStore(ctx context.Context, dsn string, fn func(position.Store) error) error {
	s, err := openStore(ctx, dsn)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()
	return fn(s)
}

// printPositions writes one "label x y" line per decodable entry and marks
// entries that do not decode.
func printPositions(w io.Writer, m position.Map) error {
	if len(m) == 0 {
		printInfo("No stored positions")
		return nil
	}
	points, bad := position.DecodeAll(m)
	for _, label := range m.Labels() {
		if err, ok := bad[label]; ok {
			if _, werr := fmt.Fprintf(w, "%s\t%s\t(invalid: %v)\n", label, m[label], err); werr != nil {
				return werr
			}
			continue
		}
		p := points[label]
		if _, err := fmt.Fprintf(w, "%s\t%d\t%d\n", label, p.X, p.Y); err != nil {
			return err
		}
	}
	return nil
}
