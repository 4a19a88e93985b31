package main

import (
	"github.com/spf13/cobra"
	"github.com/trogers1052/trade-journal/internal/database"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, log, err := opts.load()
				if err != nil {
					return err
				}
				defer log.Sync()

				if err := database.Migrate(cfg.Database.ConnectionString()); err != nil {
					return err
				}
				log.Info("Migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, log, err := opts.load()
				if err != nil {
					return err
				}
				defer log.Sync()

				if err := database.MigrateDown(cfg.Database.ConnectionString()); err != nil {
					return err
				}
				log.Info("Migrations rolled back")
				return nil
			},
		},
	)

	return cmd
}
