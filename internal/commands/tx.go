package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/homeledger/internal/day"
	"github.com/cleared-dev/homeledger/internal/ledger"
)

func newTxCommand(g *globalOptions) *cobra.Command {
	txCmd := &cobra.Command{
		Use:   "tx",
		Short: "Record and reconcile transactions",
	}
	txCmd.AddCommand(
		newTxAddCommand(g),
		newTxListCommand(g),
		newTxReconcileCommand(g),
	)
	return txCmd
}

type txAddOptions struct {
	date, from, to   string
	amount, toAmount string
	memo, payee, num string
}

func newTxAddCommand(g *globalOptions) *cobra.Command {
	var opts txAddOptions

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Move an amount from one account to another",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date := day.Today()
			if opts.date != "" {
				d, err := day.Parse(opts.date)
				if err != nil {
					return err
				}
				date = d
			}
			amount, err := decimal.NewFromString(opts.amount)
			if err != nil {
				return fmt.Errorf("parsing amount %q: %w", opts.amount, err)
			}

			return withSession(cmd.Context(), g, cmd.ErrOrStderr(), func(s *session) error {
				from, err := findAccount(s.eng, opts.from)
				if err != nil {
					return err
				}
				to, err := findAccount(s.eng, opts.to)
				if err != nil {
					return err
				}

				entry := ledger.NewEntry(to, from, amount)
				if opts.toAmount != "" {
					received, err := decimal.NewFromString(opts.toAmount)
					if err != nil {
						return fmt.Errorf("parsing to-amount %q: %w", opts.toAmount, err)
					}
					entry = ledger.NewExchangeEntry(to, from, received.Abs(), amount.Abs().Neg())
				}
				entry.Memo = opts.memo

				tx := ledger.NewTransaction(date)
				tx.Payee = opts.payee
				tx.Number = opts.num
				if tx.Number == "" {
					tx.Number = from.NextTransactionNumber()
				}
				tx.SetMemo(opts.memo)
				if err := tx.AddEntry(entry); err != nil {
					return err
				}
				if err := s.eng.AddTransaction(tx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s -> %s (%s)\n",
					date, opts.from, opts.to, from.Currency().Format(amount.Abs()))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.date, "date", "", "transaction date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&opts.from, "from", "", "account the money leaves")
	cmd.Flags().StringVar(&opts.to, "to", "", "account the money goes to")
	cmd.Flags().StringVar(&opts.amount, "amount", "", "amount in the from account's currency")
	cmd.Flags().StringVar(&opts.toAmount, "to-amount", "", "amount received, when the accounts use different currencies")
	cmd.Flags().StringVar(&opts.memo, "memo", "", "memo")
	cmd.Flags().StringVar(&opts.payee, "payee", "", "payee")
	cmd.Flags().StringVar(&opts.num, "number", "", "check or reference number")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newTxListCommand(g *globalOptions) *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), g, cmd.ErrOrStderr(), func(s *session) error {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				defer tw.Flush()

				if account == "" {
					fmt.Fprintln(tw, "DATE\tNUM\tMEMO\tACCOUNTS")
					sep := s.eng.AccountSeparator()
					for _, t := range s.eng.Transactions() {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Date, t.Number, t.Memo(), accountNames(t, sep))
					}
					return nil
				}

				a, err := findAccount(s.eng, account)
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "DATE\tNUM\tMEMO\tAMOUNT\tBALANCE\tR")
				for i, t := range a.Transactions() {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", t.Date, t.Number, t.Memo(),
						a.Currency().Format(t.Amount(a)), a.Currency().Format(a.BalanceAt(i)), reconciledMark(t.Reconciled(a)))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&account, "account", "a", "", "show the register of one account")

	return cmd
}

func newTxReconcileCommand(g *globalOptions) *cobra.Command {
	var statement, closing string

	cmd := &cobra.Command{
		Use:   "reconcile <account>",
		Short: "Reconcile an account against a statement",
		Long: "Marks every unreconciled transaction dated on or before the statement date as\n" +
			"reconciled, provided the resulting balance equals the statement closing balance.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := day.Parse(statement)
			if err != nil {
				return err
			}
			closingBal, err := decimal.NewFromString(closing)
			if err != nil {
				return fmt.Errorf("parsing closing balance %q: %w", closing, err)
			}

			return withSession(cmd.Context(), g, cmd.ErrOrStderr(), func(s *session) error {
				a, err := findAccount(s.eng, args[0])
				if err != nil {
					return err
				}

				var txs []*ledger.Transaction
				for _, t := range a.Transactions() {
					if !t.Date.After(date) && t.Reconciled(a) != ledger.Reconciled {
						txs = append(txs, t)
					}
				}

				res, err := s.eng.Reconcile(a, txs, date, closingBal)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reconciled %d transactions: %s -> %s\n",
					len(res.Transactions), a.Currency().Format(res.Opening), a.Currency().Format(res.Closing))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statement, "statement-date", "", "statement date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&closing, "closing", "", "statement closing balance")
	_ = cmd.MarkFlagRequired("statement-date")
	_ = cmd.MarkFlagRequired("closing")

	return cmd
}

func accountNames(t *ledger.Transaction, sep string) string {
	var names []string
	for _, a := range t.Accounts() {
		names = append(names, a.PathName(sep))
	}
	return strings.Join(names, ", ")
}

func reconciledMark(s ledger.ReconciledState) string {
	switch s {
	case ledger.Reconciled:
		return "R"
	case ledger.Cleared:
		return "c"
	}
	return ""
}
