package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"simopsbot/internal/adapter/world/sim"
)

func (c *cli) redteamCmd() *cobra.Command {
	var (
		seed int64
		n    int
		out  string
	)
	cmd := &cobra.Command{
		Use:   "redteam",
		Short: "Emit seeded prompt-injection snippets for manual testing",
		RunE: func(_ *cobra.Command, _ []string) error {
			cases := sim.GenerateRedTeamCases(seed, n)
			text := strings.Join(cases, "\n")
			if len(cases) > 0 {
				text += "\n"
			}
			if out == "" {
				c.printf("%s", text)
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
				return fmt.Errorf("write red-team cases: %w", err)
			}
			c.printf("Wrote %d cases to %s\n", len(cases), out)
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "shuffle seed")
	cmd.Flags().IntVar(&n, "n", 5, "number of cases")
	cmd.Flags().StringVar(&out, "out", "", "write cases to this file instead of stdout")
	return cmd
}
