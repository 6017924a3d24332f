// Command simops runs SimOps incidents, evaluations and journal tooling from
// the command line.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"simopsbot/internal/bootstrap"
	"simopsbot/internal/config"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

type cli struct {
	configPath string
	stdout     io.Writer
	stderr     io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:   "simops",
		Short: "Seeded incident-response agent for a simulated two-service system",
		Long: `simops drives the SimOps agent against deterministic simulated incidents.

Every run writes an append-only JSONL journal. The same seed and profile
always produce the same journal.`,
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&c.configPath, "config", os.Getenv("SIMOPS_CONFIG"), "optional YAML config file")

	root.AddCommand(
		c.runCmd(),
		c.evalCmd(),
		c.journalCmd(),
		c.replayCmd(),
		c.redteamCmd(),
		c.migrateCmd(),
	)
	return root
}

func (c *cli) loadConfig() (config.Config, error) {
	return config.Load(c.configPath)
}

func (c *cli) build(ctx context.Context, cfg config.Config, opts bootstrap.Options) (*bootstrap.App, error) {
	logger := slog.New(slog.NewJSONHandler(c.stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	return bootstrap.Build(ctx, cfg, logger, opts)
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.stdout, format, args...)
}
