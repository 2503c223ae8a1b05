package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/homeledger/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var opts globalOptions

	rootCmd := &cobra.Command{
		Use:     "homeledger",
		Short:   "Double-entry personal finance ledger",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "homeledger.yaml", "path to homeledger.yaml")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level from the config")

	rootCmd.AddCommand(
		newInitCommand(),
		newAccountCommand(&opts),
		newTxCommand(&opts),
		newCurrencyCommand(&opts),
		newRateCommand(&opts),
		newSecurityCommand(&opts),
		newTrashCommand(&opts),
		newImportCommand(&opts),
		newSnapshotCommand(&opts),
		newExportCommand(&opts),
	)

	return rootCmd
}

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
}
