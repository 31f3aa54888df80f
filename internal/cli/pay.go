package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/hoaapi"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/models"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/payment"
)

func (a *app) payCmd() *cobra.Command {
	var in payment.Input
	var yes bool
	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Initiate and complete a payment",
		Long: `Initiate a payment, confirm it, then complete it with the backend.
Answering no at the prompt cancels the pending payment.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			sess, err := a.requireSession(ctx, models.RoleResident)
			if err != nil {
				return err
			}

			flow := payment.NewFlow(a.api)
			intent, err := flow.Initiate(ctx, sess.Token, in)
			if err != nil {
				if isInputError(err) {
					return err
				}
				return a.upstream(ctx, err, "payment initiation failed")
			}
			fmt.Fprintf(out, "Payment initiated\n  payment id:     %s\n  transaction id: %s\n  amount:         %.2f\n  bill type:      %s\n  method:         %s\n",
				intent.PaymentID, intent.TransactionID, intent.Amount, intent.BillType, intent.Method)

			if !yes {
				answer, err := prompt(cmd.InOrStdin(), out, "Complete payment? [y/N]: ")
				if err != nil {
					return err
				}
				if ans := strings.ToLower(answer); ans != "y" && ans != "yes" {
					if err := flow.Cancel(); err != nil {
						return err
					}
					fmt.Fprintln(out, "Payment cancelled")
					return nil
				}
			}

			done, err := flow.Complete(ctx, sess.Token)
			if err != nil {
				if errors.Is(err, payment.ErrPaymentFailed) {
					return err
				}
				return a.upstream(ctx, err, "payment completion failed")
			}
			fmt.Fprintf(out, "Payment completed (transaction %s)\n", done.TransactionID)
			fmt.Fprintf(out, "Download the receipt with: hoactl receipt %s\n", done.TransactionID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Amount, "amount", "", "Amount to pay")
	f.StringVar(&in.BillType, "bill-type", "", "Bill type, e.g. maintenance")
	f.StringVar(&in.Method, "method", payment.DefaultMethod, "Payment method")
	f.BoolVarP(&yes, "yes", "y", false, "Complete without asking")
	return cmd
}

func isInputError(err error) bool {
	return errors.Is(err, payment.ErrAmountRequired) ||
		errors.Is(err, payment.ErrInvalidAmount) ||
		errors.Is(err, payment.ErrBillTypeRequired)
}

func (a *app) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the payment history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sess, err := a.requireSession(ctx, models.RoleResident)
			if err != nil {
				return err
			}
			history, err := a.api.PaymentHistory(ctx, sess.Token)
			if err != nil {
				return a.upstream(ctx, err, "failed to load payment history")
			}
			return printHistory(cmd, history)
		},
	}
}

func printHistory(cmd *cobra.Command, history []hoaapi.Payment) error {
	if len(history) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No payments yet")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTRANSACTION\tBILL\tAMOUNT\tMETHOD\tSTATUS")
	for _, p := range history {
		date := "-"
		if !p.CreatedAt.IsZero() {
			date = p.CreatedAt.Local().Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\t%s\n", date, p.TransactionID, p.BillType, p.Amount, p.Method, p.Status)
	}
	return tw.Flush()
}

func (a *app) receiptCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "receipt <transactionId>",
		Short: "Download the receipt of a completed payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.requireSession(ctx, models.RoleResident)
			if err != nil {
				return err
			}
			rc, err := a.api.Receipt(ctx, sess.Token, args[0])
			if err != nil {
				return a.upstream(ctx, err, "failed to download receipt")
			}
			path := output
			if path == "" {
				path = filepath.Base(rc.Filename)
			}
			if err := os.WriteFile(path, rc.Data, 0644); err != nil {
				return fmt.Errorf("failed to write receipt: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Receipt saved to %s (%d bytes)\n", path, len(rc.Data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (defaults to the server's filename)")
	return cmd
}
