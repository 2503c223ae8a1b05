package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/homeledger/internal/config"
	"github.com/cleared-dev/homeledger/internal/gitops"
)

func newSnapshotCommand(g *globalOptions) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Commit the ledger directory to git",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(g.configPath)
			if err != nil {
				return err
			}
			dir := filepath.Dir(g.configPath)
			if !cfg.Git.Enabled || !gitops.IsRepo(dir) {
				return fmt.Errorf("%s is not kept under git (run init with --git)", dir)
			}

			if message == "" {
				message = "snapshot: " + time.Now().Format(time.RFC3339)
			}
			author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
			hash, err := gitops.CommitAll(cmd.Context(), dir, message, author)
			if errors.Is(err, gitops.ErrNothingToCommit) {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing changed since the last snapshot")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Snapshot %s\n", hash)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")

	return cmd
}
