package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"universe-curator/internal/scan"
)

func newScanCmd(opts *rootOptions) *cobra.Command {
	var cadence string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan cadence and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger, err := opts.newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			st, err := openStores(ctx, cfg, opts.useMemory)
			if err != nil {
				return err
			}
			defer st.cleanup()

			sched, err := buildScheduler(cfg, st, logger, newMetrics())
			if err != nil {
				return err
			}

			var run func(context.Context) (scan.Stats, error)
			switch scan.Cadence(cadence) {
			case scan.CadenceDaily:
				run = sched.RunDaily
			case scan.CadenceWeekly:
				run = sched.RunWeekly
			case scan.CadenceMonthly:
				run = sched.RunMonthly
			default:
				return fmt.Errorf("unknown cadence %q (daily, weekly, monthly)", cadence)
			}

			stats, err := run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"%s scan: %d selected, %d processed, %d skipped, %d deferred, %d promoted, %d demoted, %d deactivated\n",
				cadence, stats.Selected, stats.Processed, stats.Skipped, stats.Deferred,
				stats.Promoted, stats.Demoted, stats.Deactivated)
			return nil
		},
	}

	cmd.Flags().StringVar(&cadence, "cadence", "daily", "scan cadence: daily, weekly, or monthly")
	return cmd
}
