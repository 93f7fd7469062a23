package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gdbank-dev/gdbank/internal/model"
)

func newAccountCommand(dir *string) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account management",
	}
	accountCmd.AddCommand(newAccountCreateCommand(dir))
	accountCmd.AddCommand(newAccountListCommand(dir))
	accountCmd.AddCommand(newAccountShowCommand(dir))
	accountCmd.AddCommand(newAccountSearchCommand(dir))
	accountCmd.AddCommand(newAccountRenameCommand(dir))
	accountCmd.AddCommand(newAccountCloseCommand(dir))
	accountCmd.AddCommand(newAccountReopenCommand(dir))
	accountCmd.AddCommand(newAccountUpgradeCommand(dir))
	accountCmd.AddCommand(newAccountLockCommand(dir))
	accountCmd.AddCommand(newAccountUnlockCommand(dir))
	accountCmd.AddCommand(newAccountSetPINCommand(dir))
	accountCmd.AddCommand(newAccountOverdraftCommand(dir))
	accountCmd.AddCommand(newAccountAlertCommand(dir))
	accountCmd.AddCommand(newAccountCurrencyCommand(dir))
	accountCmd.AddCommand(newAccountSummaryCommand(dir))
	accountCmd.AddCommand(newAccountExportCommand(dir))
	accountCmd.AddCommand(newAccountImportCommand(dir))
	return accountCmd
}

func newAccountCreateCommand(dir *string) *cobra.Command {
	var (
		name        string
		age         int
		accountType string
		deposit     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			amount, err := parseAmount(deposit)
			if err != nil {
				return err
			}

			acc, err := a.ledger.CreateAccount(name, age, model.AccountType(accountType), amount)
			if err != nil {
				return err
			}
			if err := a.saveAccounts(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Opened account %d for %s (%s, balance %s)\n",
				acc.Number, acc.Name, acc.Type, acc.Balance.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "account holder name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().IntVar(&age, "age", 0, "account holder age (required)")
	_ = cmd.MarkFlagRequired("age")
	cmd.Flags().StringVar(&accountType, "type", string(model.TypeSavings), "account type (Savings or Current)")
	cmd.Flags().StringVar(&deposit, "deposit", "", "initial deposit (required)")
	_ = cmd.MarkFlagRequired("deposit")

	return cmd
}

func newAccountListCommand(dir *string) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}

			var accounts []model.Account
			if status != "" {
				accounts = a.ledger.ListByStatus(model.AccountStatus(status))
			} else {
				accounts = a.ledger.Accounts()
			}
			printAccounts(cmd, accounts)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (Active or Inactive)")
	return cmd
}

func printAccounts(cmd *cobra.Command, accounts []model.Account) {
	for _, acc := range accounts {
		locked := ""
		if acc.Locked {
			locked = " [locked]"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\t%s%s\n",
			acc.Number, acc.Name, acc.Type, acc.Balance.StringFixed(2), acc.Status, locked)
	}
}

func newAccountShowCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <account>",
		Short: "Show one account",
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

			acc, err := a.ledger.Get(number)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Account:  %d\n", acc.Number)
			fmt.Fprintf(out, "Name:     %s\n", acc.Name)
			fmt.Fprintf(out, "Age:      %d\n", acc.Age)
			fmt.Fprintf(out, "Type:     %s\n", acc.Type)
			fmt.Fprintf(out, "Balance:  %s %s\n", acc.Balance.StringFixed(2), acc.Currency)
			fmt.Fprintf(out, "Status:   %s\n", acc.Status)
			fmt.Fprintf(out, "Locked:   %t\n", acc.Locked)
			fmt.Fprintf(out, "PIN set:  %t\n", acc.PINHash != "")
			if acc.Overdraft != nil {
				fmt.Fprintf(out, "Overdraft: limit %s, fee %s\n",
					acc.Overdraft.Limit.StringFixed(2), acc.Overdraft.Fee.StringFixed(2))
			}
			return nil
		},
	}
}

func newAccountSearchCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search accounts by holder name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			printAccounts(cmd, a.ledger.SearchByName(args[0]))
			return nil
		},
	}
}

func newAccountRenameCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <account> <name>",
		Short: "Rename the account holder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateAccount(cmd, *dir, args[0], func(a *app, number int) error {
				return a.ledger.Rename(number, args[1])
			})
		},
	}
}

func newAccountCloseCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "close <account>",
		Short: "Deactivate an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateAccount(cmd, *dir, args[0], func(a *app, number int) error {
				return a.ledger.Close(number)
			})
		},
	}
}

func newAccountReopenCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <account>",
		Short: "Reactivate a closed account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateAccount(cmd, *dir, args[0], func(a *app, number int) error {
				return a.ledger.Reopen(number)
			})
		},
	}
}

func newAccountUpgradeCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade <account> <type>",
		Short: "Change the account type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateAccount(cmd, *dir, args[0], func(a *app, number int) error {
				return a.ledger.UpgradeType(number, model.AccountType(args[1]))
			})
		},
	}
}

func newAccountLockCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "lock <account>",
		Short: "Lock an account against all mutations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateAccount(cmd, *dir, args[0], func(a *app, number int) error {
				return a.ledger.Lock(number)
			})
		},
	}
}

func newAccountUnlockCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <account>",
		Short: "Unlock an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateAccount(cmd, *dir, args[0], func(a *app, number int) error {
				return a.ledger.Unlock(number)
			})
		},
	}
}

func newAccountSetPINCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set-pin <account> <pin>",
		Short: "Set the account PIN",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateAccount(cmd, *dir, args[0], func(a *app, number int) error {
				return a.ledger.SetPIN(number, args[1])
			})
		},
	}
}

func newAccountOverdraftCommand(dir *string) *cobra.Command {
	var limit, fee string

	cmd := &cobra.Command{
		Use:   "set-overdraft <account>",
		Short: "Attach an overdraft policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limitAmount, err := parseAmount(limit)
			if err != nil {
				return err
			}
			feeAmount, err := parseAmount(fee)
			if err != nil {
				return err
			}
			return mutateAccount(cmd, *dir, args[0], func(a *app, number int) error {
				return a.ledger.SetOverdraft(number, limitAmount, feeAmount)
			})
		},
	}

	cmd.Flags().StringVar(&limit, "limit", "0", "overdraft limit")
	cmd.Flags().StringVar(&fee, "fee", "0", "fee charged per overdraft use")
	return cmd
}

func newAccountAlertCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set-alert <account> <threshold>",
		Short: "Arm a low-balance alert",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			threshold, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return mutateAccount(cmd, *dir, args[0], func(a *app, number int) error {
				return a.ledger.SetLowBalanceThreshold(number, threshold)
			})
		},
	}
}

func newAccountCurrencyCommand(dir *string) *cobra.Command {
	var convert string

	cmd := &cobra.Command{
		Use:   "currency <account> [code]",
		Short: "Set or convert the display currency",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			number, err := parseAccountNumber(args[0])
			if err != nil {
				return err
			}

			if convert != "" {
				value, err := a.ledger.ConvertBalance(number, convert)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", value.StringFixed(2), convert)
				return nil
			}
			if len(args) < 2 {
				return fmt.Errorf("currency code required")
			}
			if err := a.ledger.SetCurrency(number, args[1]); err != nil {
				return err
			}
			return a.saveAccounts()
		},
	}

	cmd.Flags().StringVar(&convert, "convert", "", "show the balance in this currency instead of setting")
	return cmd
}

func newAccountSummaryCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show ledger-wide totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}

			s := a.ledger.Summarize()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Accounts:       %d (%d active, %d closed)\n", s.TotalAccounts, s.ActiveAccounts, s.ClosedAccounts)
			fmt.Fprintf(out, "Total balance:  %s\n", s.TotalBalance.StringFixed(2))
			fmt.Fprintf(out, "Average:        %s\n", a.ledger.AverageBalance().StringFixed(2))

			for _, alert := range a.ledger.LowBalanceAlerts() {
				fmt.Fprintf(out, "Low balance:    %d at %s (threshold %s)\n",
					alert.Account, alert.Balance.StringFixed(2), alert.Threshold.StringFixed(2))
			}
			return nil
		},
	}
}

func newAccountExportCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export all accounts to a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}
			defer f.Close()

			n, err := a.store.ExportAccounts(f, a.ledger.Accounts())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d accounts to %s\n", n, args[0])
			return nil
		},
	}
}

func newAccountImportCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Bulk-import accounts from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening import file: %w", err)
			}
			defer f.Close()

			accounts, skipped, err := a.store.ImportAccounts(f)
			if err != nil {
				return err
			}
			imported := a.ledger.ImportAccounts(accounts)
			if err := a.saveAccounts(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d accounts (%d rows skipped)\n", imported, skipped)
			return nil
		},
	}
}

// mutateAccount runs one account mutation and persists the account table.
func mutateAccount(cmd *cobra.Command, dir, accountArg string, fn func(*app, int) error) error {
	a, err := openApp(dir)
	if err != nil {
		return err
	}
	number, err := parseAccountNumber(accountArg)
	if err != nil {
		return err
	}
	if err := fn(a, number); err != nil {
		return err
	}
	if err := a.saveAccounts(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Account %d updated\n", number)
	return nil
}
