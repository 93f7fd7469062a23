package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAdminCommand(dir *string) *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Password-gated administrative operations",
	}
	adminCmd.AddCommand(newAdminSetPasswordCommand(dir))
	adminCmd.AddCommand(newAdminDeleteAllCommand(dir))
	return adminCmd
}

func newAdminSetPasswordCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set-password <password>",
		Short: "Set the admin password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			if err := a.store.SetAdminPassword(a.hasher, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Admin password set")
			return nil
		},
	}
}

func newAdminDeleteAllCommand(dir *string) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}

			ok, err := a.store.VerifyAdminPassword(a.hasher, password)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("admin password rejected")
			}

			removed := a.ledger.DeleteAll()
			if err := a.saveAccounts(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d accounts\n", removed)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "admin password (required)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
