package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gdbank-dev/gdbank/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var dir string

	rootCmd := &cobra.Command{
		Use:     "gdbank",
		Short:   "Single-tenant account ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dir, "dir", ".", "project directory containing gdbank.yaml")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newAccountCommand(&dir))
	rootCmd.AddCommand(newDepositCommand(&dir))
	rootCmd.AddCommand(newWithdrawCommand(&dir))
	rootCmd.AddCommand(newTransferCommand(&dir))
	rootCmd.AddCommand(newReverseCommand(&dir))
	rootCmd.AddCommand(newHistoryCommand(&dir))
	rootCmd.AddCommand(newTagCommand(&dir))
	rootCmd.AddCommand(newStatementCommand(&dir))
	rootCmd.AddCommand(newScheduleCommand(&dir))
	rootCmd.AddCommand(newRecurringCommand(&dir))
	rootCmd.AddCommand(newBeneficiaryCommand(&dir))
	rootCmd.AddCommand(newAdminCommand(&dir))
	rootCmd.AddCommand(newMetricsCommand(&dir))

	return rootCmd
}
