package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/homeledger/internal/chart"
	"github.com/cleared-dev/homeledger/internal/config"
	"github.com/cleared-dev/homeledger/internal/gitops"
	"github.com/cleared-dev/homeledger/internal/ledger"
)

type initOptions struct {
	name      string
	currency  string
	template  string
	backend   string
	separator string
	git       bool
}

func newInitCommand() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "default", "ledger name")
	cmd.Flags().StringVar(&opts.currency, "currency", "USD", "default currency")
	cmd.Flags().StringVar(&opts.template, "chart", "personal", "starter chart of accounts ("+strings.Join(chart.Templates, ", ")+")")
	cmd.Flags().StringVar(&opts.backend, "backend", "sqlite", "storage backend (sqlite or memory)")
	cmd.Flags().StringVar(&opts.separator, "separator", ledger.DefaultAccountSeparator, "account path separator")
	cmd.Flags().BoolVar(&opts.git, "git", false, "keep the ledger directory under git")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, opts initOptions) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", cfgPath, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	// Write homeledger.yaml.
	cfg := config.Default()
	cfg.Data.Backend = opts.backend
	cfg.Engine.Name = opts.name
	cfg.Engine.DefaultCurrency = strings.ToUpper(opts.currency)
	cfg.Engine.AccountSeparator = opts.separator
	cfg.Git.Enabled = opts.git
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write chart of accounts.
	entries := chart.DefaultChart(opts.template)
	if err := chart.Save(dir, entries); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	loaded, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	s, err := open(cmd.Context(), loaded, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	n, err := seed(cmd.Context(), s, opts.separator, entries)
	if cerr := s.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("closing ledger: %w", cerr)
	}
	if err != nil {
		return err
	}

	if opts.git {
		if err := gitops.Init(cmd.Context(), dir); err != nil {
			return err
		}
		author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
		if _, err := gitops.CommitAll(cmd.Context(), dir, "init: "+opts.name, author); err != nil {
			return fmt.Errorf("initial commit: %w", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized ledger at %s (%d accounts, %s)\n", dir, n, cfg.Engine.DefaultCurrency)
	return nil
}

func seed(ctx context.Context, s *session, separator string, entries []chart.Entry) (int, error) {
	if separator != s.eng.AccountSeparator() {
		if err := s.eng.SetAccountSeparator(separator); err != nil {
			return 0, fmt.Errorf("setting account separator: %w", err)
		}
	}
	n, err := chart.Apply(ctx, s.eng, entries)
	if err != nil {
		return n, fmt.Errorf("applying chart of accounts: %w", err)
	}
	return n, nil
}
