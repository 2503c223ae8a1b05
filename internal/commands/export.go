package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/homeledger/internal/journal"
)

func newExportCommand(g *globalOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write monthly journal.csv files for every transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = filepath.Join(filepath.Dir(g.configPath), "journal")
			}
			return withSession(cmd.Context(), g, cmd.ErrOrStderr(), func(s *session) error {
				sep := s.eng.AccountSeparator()
				x := journal.NewExporter(dir, sep, journal.AccountPaths(s.eng.RootAccount(), sep))
				sum, err := x.Export(cmd.Context(), s.eng.Transactions())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries (%d legs) to %s\n", sum.Entries, sum.Legs, dir)
				if len(sum.Months) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Months: %s\n", strings.Join(sum.Months, ", "))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "output directory (default: journal/ next to the config)")

	return cmd
}
