package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDepositCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "deposit <account> <amount>",
		Short: "Credit an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			number, err := parseAccountNumber(args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			balance, err := a.ledger.Deposit(number, amount, a.dailyLimit())
			if err != nil {
				return err
			}
			if err := a.saveAccounts(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deposited %s, balance %s\n", amount.StringFixed(2), balance.StringFixed(2))
			return nil
		},
	}
}

func newWithdrawCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <account> <amount>",
		Short: "Debit an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			number, err := parseAccountNumber(args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			balance, err := a.ledger.Withdraw(number, amount, a.dailyLimit())
			if err != nil {
				return err
			}
			if err := a.saveAccounts(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Withdrew %s, balance %s\n", amount.StringFixed(2), balance.StringFixed(2))
			return nil
		},
	}
}

func newTransferCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <from> <to> <amount>",
		Short: "Move funds between two accounts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			from, err := parseAccountNumber(args[0])
			if err != nil {
				return err
			}
			to, err := parseAccountNumber(args[1])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}

			if err := a.ledger.Transfer(from, to, amount); err != nil {
				return err
			}
			if err := a.saveAccounts(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Transferred %s from %d to %d\n", amount.StringFixed(2), from, to)
			return nil
		},
	}
}

func newReverseCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reverse <account>",
		Short: "Reverse the account's most recent transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			number, err := parseAccountNumber(args[0])
			if err != nil {
				return err
			}

			tx, err := a.ledger.ReverseLastTransaction(number)
			if err != nil {
				return err
			}
			if err := a.saveAccounts(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s, balance %s\n", tx.Note, tx.BalanceAfter.StringFixed(2))
			return nil
		},
	}
}

func newHistoryCommand(dir *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <account>",
		Short: "Show recent transactions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			number, err := parseAccountNumber(args[0])
			if err != nil {
				return err
			}

			for _, tx := range a.log.ByAccount(number, limit) {
				note := tx.Note
				if tag, ok := a.log.GetTag(number, tx.ID); ok {
					note = fmt.Sprintf("%s [%s]", note, tag.Tag)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\tbalance %s\t%s\n",
					tx.ID, tx.Timestamp.Format("2006-01-02 15:04:05"), tx.Action,
					tx.Amount.StringFixed(2), tx.BalanceAfter.StringFixed(2), note)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries shown, 0 for all")
	return cmd
}

func newTagCommand(dir *string) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "tag <account> <tx-id> <tag>",
		Short: "Attach a tag to a logged transaction",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			number, err := parseAccountNumber(args[0])
			if err != nil {
				return err
			}

			found := false
			for _, tx := range a.log.ByAccount(number, 0) {
				if tx.ID == args[1] {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("no transaction %s for account %d", args[1], number)
			}

			a.log.SetTag(number, args[1], args[2], note)
			if err := a.saveTags(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Tagged %s as %s\n", args[1], args[2])
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "free-form note stored with the tag")
	return cmd
}
