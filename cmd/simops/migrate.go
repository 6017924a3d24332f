package main

import (
	"github.com/spf13/cobra"

	"simopsbot/internal/bootstrap"
)

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations to SIMOPS_DB_DSN and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			app, err := c.build(cmd.Context(), cfg, bootstrap.Options{WithoutJournalFiles: true})
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.RequireDatabase(); err != nil {
				return err
			}
			c.printf("migrations applied\n")
			return nil
		},
	}
}
