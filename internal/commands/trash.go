package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/homeledger/internal/store"
)

func newTrashCommand(g *globalOptions) *cobra.Command {
	trashCmd := &cobra.Command{
		Use:   "trash",
		Short: "Inspect and empty the trash",
	}
	trashCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List removed objects awaiting purge",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd.Context(), g, cmd.ErrOrStderr(), func(s *session) error {
					tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "REMOVED\tKIND\tOBJECT")
					for _, t := range s.eng.TrashObjects() {
						fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Date.Format(time.RFC3339), store.Kind(t.Object), t.Object.StoredID())
					}
					return tw.Flush()
				})
			},
		},
		&cobra.Command{
			Use:   "empty",
			Short: "Purge trash older than the configured age",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd.Context(), g, cmd.ErrOrStderr(), func(s *session) error {
					before := len(s.eng.TrashObjects())
					if err := s.eng.EmptyTrash(); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Purged %d of %d objects\n", before-len(s.eng.TrashObjects()), before)
					return nil
				})
			},
		},
	)
	return trashCmd
}
