package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"universe-curator/internal/config"
)

type rootOptions struct {
	configPath string
	verbose    bool
	useMemory  bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "curator",
		Short:         "AI-stock universe curation engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (optional)")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&opts.useMemory, "use-memory", false, "use in-memory storage instead of PostgreSQL/ClickHouse")

	cmd.AddCommand(
		newBootstrapCmd(opts),
		newScanCmd(opts),
		newDaemonCmd(opts),
	)
	return cmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (o *rootOptions) newLogger() (*zap.Logger, error) {
	if o.verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
