package main

import (
	"github.com/spf13/cobra"

	"simopsbot/internal/app/agent"
	"simopsbot/internal/bootstrap"
	"simopsbot/internal/domain/journal"
	"simopsbot/internal/domain/ops"
)

func (c *cli) runCmd() *cobra.Command {
	var (
		seed     int64
		profile  string
		incident string
		out      string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one seeded scenario and write its journal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if out != "" {
				cfg.Journal.Dir = out
			}
			if profile == "" {
				profile = cfg.Run.Profile
			}
			app, err := c.build(cmd.Context(), cfg, bootstrap.Options{})
			if err != nil {
				return err
			}
			defer app.Close()

			resp, err := app.Run.Execute(cmd.Context(), agent.Request{
				Seed:     seed,
				Profile:  profile,
				Incident: ops.IncidentType(incident),
			})
			if err != nil {
				return err
			}
			b, err := journal.Canonical(resp.Result.ToJSON())
			if err != nil {
				return err
			}
			c.printf("%s\n", b)
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "scenario seed")
	cmd.Flags().StringVar(&profile, "profile", "", "agent profile (rules, proposals, hypotheses, verified, guarded)")
	cmd.Flags().StringVar(&incident, "incident", "", "force an incident instead of the seeded one")
	cmd.Flags().StringVar(&out, "out", "", "journal directory (overrides config)")
	_ = cmd.MarkFlagRequired("seed")
	return cmd
}
