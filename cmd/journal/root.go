package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trogers1052/trade-journal/internal/config"
	"github.com/trogers1052/trade-journal/internal/logger"
	"go.uber.org/zap"
)

type rootOptions struct {
	envFiles []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "journal",
		Short:         "Trading journal service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "dotenv files to load before reading the environment (default .env)")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newAuditCmd(opts),
	)

	return cmd
}

// load reads configuration and builds the process logger
func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.envFiles...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}
