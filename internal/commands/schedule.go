package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/gdbank-dev/gdbank/internal/schedule"
)

func newScheduleCommand(dir *string) *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "One-shot scheduled transfers",
	}
	scheduleCmd.AddCommand(newScheduleAddCommand(dir))
	scheduleCmd.AddCommand(newScheduleListCommand(dir))
	scheduleCmd.AddCommand(newRunDueCommand(dir))
	return scheduleCmd
}

func newScheduleAddCommand(dir *string) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "add <from> <to> <amount>",
		Short: "Schedule a transfer for a future date",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			from, to, amount, err := parseTransferArgs(args)
			if err != nil {
				return err
			}
			executeAt, err := parseDate(at)
			if err != nil {
				return err
			}

			if err := a.engine.ScheduleTransfer(from, to, amount, executeAt); err != nil {
				return err
			}
			if err := a.saveJobs(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %s from %d to %d on %s\n",
				amount.StringFixed(2), from, to, executeAt.Format(dateFormat))
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "execution date (YYYY-MM-DD, required)")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func newScheduleListCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending scheduled transfers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			for _, job := range a.engine.ListScheduled() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s from %d to %d\n",
					job.ExecuteAt.Format(dateFormat), job.Amount.StringFixed(2), job.From, job.To)
			}
			return nil
		},
	}
}

func newRunDueCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run-due",
		Short: "Execute every scheduled and recurring job that is due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}

			now := time.Now()
			results := a.engine.RunDueScheduled(now)
			results = append(results, a.engine.RunDueRecurring(now)...)

			if err := a.saveAccounts(); err != nil {
				return err
			}
			if err := a.saveJobs(); err != nil {
				return err
			}

			printResults(cmd, results)
			return nil
		},
	}
}

func printResults(cmd *cobra.Command, results []schedule.Result) {
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "FAILED\t%s from %d to %d: %v\n",
				r.Amount.StringFixed(2), r.From, r.To, r.Err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "OK\t%s from %d to %d\n",
			r.Amount.StringFixed(2), r.From, r.To)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d jobs executed\n", len(results))
}

func newRecurringCommand(dir *string) *cobra.Command {
	recurringCmd := &cobra.Command{
		Use:   "recurring",
		Short: "Recurring payments",
	}
	recurringCmd.AddCommand(newRecurringAddCommand(dir))
	recurringCmd.AddCommand(newRecurringListCommand(dir))
	recurringCmd.AddCommand(newRecurringCancelCommand(dir))
	return recurringCmd
}

func newRecurringAddCommand(dir *string) *cobra.Command {
	var every int
	var start string

	cmd := &cobra.Command{
		Use:   "add <from> <to> <amount>",
		Short: "Register a recurring payment",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			from, to, amount, err := parseTransferArgs(args)
			if err != nil {
				return err
			}

			var first *time.Time
			if start != "" {
				t, err := parseDate(start)
				if err != nil {
					return err
				}
				first = &t
			}

			if err := a.engine.AddRecurring(from, to, amount, every, first); err != nil {
				return err
			}
			if err := a.saveJobs(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Recurring %s from %d to %d every %d days\n",
				amount.StringFixed(2), from, to, every)
			return nil
		},
	}

	cmd.Flags().IntVar(&every, "every", 30, "interval in days")
	cmd.Flags().StringVar(&start, "start", "", "first run date (YYYY-MM-DD), immediately due when omitted")
	return cmd
}

func newRecurringListCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recurring payments with their cancellation index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			for i, job := range a.engine.ListRecurring() {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s from %d to %d every %d days, next %s\n",
					i, job.Amount.StringFixed(2), job.From, job.To, job.IntervalDays,
					job.NextRun.Format(dateFormat))
			}
			return nil
		},
	}
}

func newRecurringCancelCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <index>",
		Short: "Cancel a recurring payment by its list index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}

			if err := a.engine.CancelRecurring(index); err != nil {
				return err
			}
			if err := a.saveJobs(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled recurring payment %d\n", index)
			return nil
		},
	}
}

func newBeneficiaryCommand(dir *string) *cobra.Command {
	beneficiaryCmd := &cobra.Command{
		Use:   "beneficiary",
		Short: "Saved transfer destinations",
	}
	beneficiaryCmd.AddCommand(newBeneficiaryAddCommand(dir))
	beneficiaryCmd.AddCommand(newBeneficiaryListCommand(dir))
	beneficiaryCmd.AddCommand(newBeneficiaryRemoveCommand(dir))
	return beneficiaryCmd
}

func newBeneficiaryAddCommand(dir *string) *cobra.Command {
	var nickname string

	cmd := &cobra.Command{
		Use:   "add <owner> <account>",
		Short: "Save a destination account for an owner",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			owner, err := parseAccountNumber(args[0])
			if err != nil {
				return err
			}
			account, err := parseAccountNumber(args[1])
			if err != nil {
				return err
			}

			if err := a.engine.AddBeneficiary(owner, account, nickname); err != nil {
				return err
			}
			if err := a.saveJobs(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added beneficiary %d for %d\n", account, owner)
			return nil
		},
	}

	cmd.Flags().StringVar(&nickname, "nickname", "", "display name for the destination")
	return cmd
}

func newBeneficiaryListCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list <owner>",
		Short: "List an owner's saved destinations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			owner, err := parseAccountNumber(args[0])
			if err != nil {
				return err
			}
			for _, b := range a.engine.ListBeneficiaries(owner) {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", b.Account, b.Nickname)
			}
			return nil
		},
	}
}

func newBeneficiaryRemoveCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <owner> <account>",
		Short: "Remove a saved destination",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			owner, err := parseAccountNumber(args[0])
			if err != nil {
				return err
			}
			account, err := parseAccountNumber(args[1])
			if err != nil {
				return err
			}

			if err := a.engine.RemoveBeneficiary(owner, account); err != nil {
				return err
			}
			if err := a.saveJobs(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed beneficiary %d for %d\n", account, owner)
			return nil
		},
	}
}

func parseTransferArgs(args []string) (from, to int, amount decimal.Decimal, err error) {
	from, err = parseAccountNumber(args[0])
	if err != nil {
		return 0, 0, decimal.Zero, err
	}
	to, err = parseAccountNumber(args[1])
	if err != nil {
		return 0, 0, decimal.Zero, err
	}
	amount, err = parseAmount(args[2])
	if err != nil {
		return 0, 0, decimal.Zero, err
	}
	return from, to, amount, nil
}
