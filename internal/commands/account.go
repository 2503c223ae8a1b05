package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/engine"
	"github.com/cleared-dev/homeledger/internal/ledger"
)

func newAccountCommand(g *globalOptions) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	accountCmd.AddCommand(
		newAccountAddCommand(g),
		newAccountListCommand(g),
		newAccountBalanceCommand(g),
	)
	return accountCmd
}

func newAccountAddCommand(g *globalOptions) *cobra.Command {
	var typeName, currency, description string
	var placeholder bool

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Add an account below an existing parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := ledger.ParseAccountType(typeName)
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), g, cmd.ErrOrStderr(), func(s *session) error {
				sep := s.eng.AccountSeparator()
				parentPath, name := splitPath(args[0], sep)

				parent := s.eng.RootAccount()
				if parentPath != "" {
					p, err := findAccount(s.eng, parentPath)
					if err != nil {
						return err
					}
					parent = p
				}

				cur := parent.Currency()
				if currency != "" {
					c, ok := s.eng.Currency(strings.ToUpper(currency))
					if !ok {
						return fmt.Errorf("unknown currency %q", currency)
					}
					cur = c
				}

				a := ledger.NewAccount(t, cur)
				a.SetName(name)
				a.SetDescription(description)
				a.SetPlaceholder(placeholder)
				if err := s.eng.AddAccount(parent, a); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s, %s)\n", a.PathName(sep), t, cur.Symbol)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&typeName, "type", "t", "EXPENSE", "account type")
	cmd.Flags().StringVar(&currency, "currency", "", "currency symbol (defaults to the parent's)")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().BoolVar(&placeholder, "placeholder", false, "group-only account that holds no transactions")

	return cmd
}

func newAccountListCommand(g *globalOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts with their balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), g, cmd.ErrOrStderr(), func(s *session) error {
				sep := s.eng.AccountSeparator()
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "PATH\tTYPE\tBALANCE")
				for _, a := range s.eng.RootAccount().Descendants() {
					if !all && !a.Visible() {
						continue
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", a.PathName(sep), a.Type(), a.Currency().Format(a.TreeBalance()))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include hidden accounts")

	return cmd
}

func newAccountBalanceCommand(g *globalOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "balance <path>",
		Short: "Show the balance of an account and its children",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), g, cmd.ErrOrStderr(), func(s *session) error {
				a, err := findAccount(s.eng, args[0])
				if err != nil {
					return err
				}

				bal := a.TreeBalance()
				if date != "" {
					d, err := day.Parse(date)
					if err != nil {
						return err
					}
					bal = a.TreeBalanceOn(d, a.Currency())
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s\t%s\n", a.PathName(s.eng.AccountSeparator()), a.Currency().Format(bal))
				if a.Group() == ledger.GroupInvest {
					fmt.Fprintf(out, "market value\t%s\n", a.Currency().Format(a.MarketValue()))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "balance as of this date (YYYY-MM-DD)")

	return cmd
}

// splitPath separates the parent path from the last name.
func splitPath(path, sep string) (parent, name string) {
	i := strings.LastIndex(path, sep)
	if i < 0 {
		return "", strings.TrimSpace(path)
	}
	return path[:i], strings.TrimSpace(path[i+len(sep):])
}

func findAccount(eng *engine.Engine, path string) (*ledger.Account, error) {
	a, ok := eng.AccountByPath(path)
	if !ok {
		return nil, fmt.Errorf("%w: account %q", engine.ErrNotFound, path)
	}
	return a, nil
}
