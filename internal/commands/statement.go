package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newStatementCommand(dir *string) *cobra.Command {
	var from, to, export string

	cmd := &cobra.Command{
		Use:   "statement <account>",
		Short: "Print or export a date-filtered statement",
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

			var start, end *time.Time
			if from != "" {
				t, err := parseDate(from)
				if err != nil {
					return err
				}
				start = &t
			}
			if to != "" {
				t, err := parseDate(to)
				if err != nil {
					return err
				}
				// Include the whole end day.
				t = t.AddDate(0, 0, 1).Add(-time.Second)
				end = &t
			}

			if export != "" {
				f, err := os.Create(export)
				if err != nil {
					return fmt.Errorf("creating statement file: %w", err)
				}
				defer f.Close()

				n, err := a.statements.ExportCSV(f, number, start, end)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries to %s\n", n, export)
				return nil
			}

			for _, line := range a.statements.Statement(number, start, end) {
				tag := ""
				if line.Tag != "" {
					tag = "\t[" + line.Tag + "]"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\tbalance %s\t%s%s\n",
					line.Timestamp.Format("2006-01-02 15:04:05"), line.Action,
					line.Amount.StringFixed(2), line.BalanceAfter.StringFixed(2), line.Note, tag)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD, inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD, inclusive)")
	cmd.Flags().StringVar(&export, "export", "", "write CSV to this file instead of printing")
	return cmd
}
