package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"simopsbot/internal/adapter/journal/jsonl"
	"simopsbot/internal/app/replay"
)

func (c *cli) replayCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "replay <run-id>",
		Short: "Summarize a recorded run from its journal file without re-running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				cfg, err := c.loadConfig()
				if err != nil {
					return err
				}
				dir = cfg.Journal.Dir
			}
			uc := replay.UseCase{Journal: jsonl.Dir{Root: dir}}
			resp, err := uc.Execute(cmd.Context(), replay.Request{RunID: args[0]})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(c.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp.Summary)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "journal directory (defaults to config)")
	return cmd
}
