package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/homeledger/internal/commodity"
	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/engine"
)

func newCurrencyCommand(g *globalOptions) *cobra.Command {
	currencyCmd := &cobra.Command{
		Use:   "currency",
		Short: "Manage currencies",
	}
	currencyCmd.AddCommand(
		&cobra.Command{
			Use:   "add <symbol>",
			Short: "Add a currency",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd.Context(), g, cmd.ErrOrStderr(), func(s *session) error {
					c := commodity.NewCurrency(args[0])
					if err := s.eng.AddCurrency(c); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Added currency %s (scale %d)\n", c.Symbol, c.Scale)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List currencies",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd.Context(), g, cmd.ErrOrStderr(), func(s *session) error {
					def := s.eng.DefaultCurrency()
					tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "SYMBOL\tSCALE\tRATE\tDEFAULT")
					for _, c := range s.eng.Currencies() {
						mark := ""
						if c.Symbol == def.Symbol {
							mark = "*"
						}
						fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", c.Symbol, c.Scale, s.eng.ExchangeRateValue(c, def), mark)
					}
					return tw.Flush()
				})
			},
		},
		&cobra.Command{
			Use:   "default <symbol>",
			Short: "Change the reporting currency",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd.Context(), g, cmd.ErrOrStderr(), func(s *session) error {
					c, err := findCurrency(s.eng, args[0])
					if err != nil {
						return err
					}
					return s.eng.SetDefaultCurrency(c)
				})
			},
		},
	)
	return currencyCmd
}

func newRateCommand(g *globalOptions) *cobra.Command {
	rateCmd := &cobra.Command{
		Use:   "rate",
		Short: "Record and show exchange rates",
	}

	var date string
	setCmd := &cobra.Command{
		Use:   "set <from> <to> <rate>",
		Short: "Record that one unit of from is worth rate units of to",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, err := decimal.NewFromString(args[2])
			if err != nil {
				return fmt.Errorf("parsing rate %q: %w", args[2], err)
			}
			d, err := parseDate(date)
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), g, cmd.ErrOrStderr(), func(s *session) error {
				from, err := findCurrency(s.eng, args[0])
				if err != nil {
					return err
				}
				to, err := findCurrency(s.eng, args[1])
				if err != nil {
					return err
				}
				if err := s.eng.SetExchangeRate(from, to, rate, d); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "1 %s = %s %s on %s\n", from.Symbol, rate, to.Symbol, d)
				return nil
			})
		},
	}
	setCmd.Flags().StringVar(&date, "date", "", "rate date (YYYY-MM-DD, default today)")

	getCmd := &cobra.Command{
		Use:   "get <from> <to>",
		Short: "Show the latest rate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), g, cmd.ErrOrStderr(), func(s *session) error {
				from, err := findCurrency(s.eng, args[0])
				if err != nil {
					return err
				}
				to, err := findCurrency(s.eng, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "1 %s = %s %s\n", from.Symbol, s.eng.ExchangeRateValue(from, to), to.Symbol)
				return nil
			})
		},
	}

	rateCmd.AddCommand(setCmd, getCmd)
	return rateCmd
}

func newSecurityCommand(g *globalOptions) *cobra.Command {
	securityCmd := &cobra.Command{
		Use:   "security",
		Short: "Manage securities and their prices",
	}

	var currency, name, isin string
	addCmd := &cobra.Command{
		Use:   "add <symbol>",
		Short: "Add a security",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), g, cmd.ErrOrStderr(), func(s *session) error {
				cur := s.eng.DefaultCurrency()
				if currency != "" {
					c, err := findCurrency(s.eng, currency)
					if err != nil {
						return err
					}
					cur = c
				}
				sec := commodity.NewSecurity(args[0], cur)
				if name != "" {
					sec.Description = name
				}
				sec.ISIN = isin
				if err := s.eng.AddSecurity(sec); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added security %s (%s)\n", sec.Symbol, cur.Symbol)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&currency, "currency", "", "reporting currency (default: ledger default)")
	addCmd.Flags().StringVar(&name, "name", "", "description")
	addCmd.Flags().StringVar(&isin, "isin", "", "ISIN")

	var date string
	priceCmd := &cobra.Command{
		Use:   "price <symbol> [price]",
		Short: "Record a closing price, or list the price history",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), g, cmd.ErrOrStderr(), func(s *session) error {
				sec, ok := s.eng.Security(args[0])
				if !ok {
					return fmt.Errorf("%w: security %q", engine.ErrNotFound, args[0])
				}
				out := cmd.OutOrStdout()
				if len(args) == 1 {
					for _, n := range s.eng.SecurityHistory(sec) {
						fmt.Fprintf(out, "%s\t%s\n", n.Date, sec.Currency.Format(n.Price))
					}
					return nil
				}

				price, err := decimal.NewFromString(args[1])
				if err != nil {
					return fmt.Errorf("parsing price %q: %w", args[1], err)
				}
				d, err := parseDate(date)
				if err != nil {
					return err
				}
				n := commodity.HistoryNode{Date: d, Price: price, High: price, Low: price}
				if err := s.eng.AddSecurityHistory(sec, n); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %s on %s\n", sec.Symbol, sec.Currency.Format(price), d)
				return nil
			})
		},
	}
	priceCmd.Flags().StringVar(&date, "date", "", "price date (YYYY-MM-DD, default today)")

	securityCmd.AddCommand(addCmd, priceCmd)
	return securityCmd
}

func findCurrency(eng *engine.Engine, symbol string) (*commodity.Currency, error) {
	c, ok := eng.Currency(symbol)
	if !ok {
		return nil, fmt.Errorf("%w: currency %q", engine.ErrNotFound, symbol)
	}
	return c, nil
}

func parseDate(s string) (day.Date, error) {
	if s == "" {
		return day.Today(), nil
	}
	return day.Parse(s)
}
