package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"universe-curator/internal/bootstrap"
)

func newBootstrapCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap <constituents.csv>",
		Short: "Seed the universe from an index constituent CSV",
		Args:  cobra.ExactArgs(1),
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

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			loader := bootstrap.NewLoader(st.universe, st.journal, logger)
			summary, err := loader.LoadCSV(ctx, f)
			if err != nil {
				return err
			}

			for _, rowErr := range summary.Errors {
				logger.Warn("rejected row",
					zap.Int("line", rowErr.Line),
					zap.String("reason", rowErr.Reason))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d new tickers (%d already present, %d rows rejected)\n",
				summary.Loaded, summary.Existing, len(summary.Errors))
			return nil
		},
	}
}
