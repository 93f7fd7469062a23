package commands

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func newMetricsCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Serve prometheus metrics until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			if !a.cfg.Metrics.Enabled {
				return fmt.Errorf("metrics disabled in config")
			}

			// Publish current balances so the gauge is populated before
			// the first scrape.
			for _, acc := range a.ledger.Accounts() {
				bal, _ := acc.Balance.Float64()
				a.metrics.SetBalance(fmt.Sprintf("%d", acc.Number), bal)
			}

			mux := http.NewServeMux()
			mux.Handle("/metrics", a.metrics.Handler())

			fmt.Fprintf(cmd.OutOrStdout(), "Serving metrics on %s\n", a.cfg.Metrics.Addr)
			return http.ListenAndServe(a.cfg.Metrics.Addr, mux)
		},
	}
}
