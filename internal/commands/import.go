package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/homeledger/internal/importer"
)

func newImportCommand(g *globalOptions) *cobra.Command {
	var format, account, offset string

	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Import bank CSV exports into an account",
		Long: "Imports the given CSV files. Without arguments every CSV in the import/\n" +
			"directory next to the config is imported and then moved to import/processed/.",
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := importer.DefaultRegistry().Get(format)
			if parser == nil {
				return fmt.Errorf("unknown import format %q", format)
			}

			dir := filepath.Dir(g.configPath)
			files := args
			scanned := len(args) == 0
			if scanned {
				found, err := importer.Scan(dir)
				if err != nil {
					return err
				}
				for _, f := range found {
					files = append(files, f.Path)
				}
			}

			return withSession(cmd.Context(), g, cmd.ErrOrStderr(), func(s *session) error {
				acct, err := findAccount(s.eng, account)
				if err != nil {
					return err
				}
				off, err := findAccount(s.eng, offset)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, path := range files {
					txns, err := parseFile(parser, path)
					if err != nil {
						return err
					}
					res, err := importer.Post(cmd.Context(), s.eng, acct, off, txns)
					if err != nil {
						return fmt.Errorf("importing %s: %w", path, err)
					}
					fmt.Fprintf(out, "%s: %d added, %d skipped\n", filepath.Base(path), res.Added, res.Skipped)
					if scanned {
						if err := importer.MarkProcessed(dir, filepath.Base(path)); err != nil {
							return err
						}
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "chase", "CSV layout (chase, simple)")
	cmd.Flags().StringVarP(&account, "account", "a", "", "account the statement belongs to")
	cmd.Flags().StringVar(&offset, "offset", "Expenses", "account balancing each imported row")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func parseFile(p importer.Parser, path string) ([]importer.BankTransaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	txns, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return txns, nil
}
