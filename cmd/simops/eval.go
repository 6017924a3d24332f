package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"simopsbot/internal/app/eval"
	"simopsbot/internal/bootstrap"
)

var errGateFailed = errors.New("regression gate failed")

func (c *cli) evalCmd() *cobra.Command {
	var (
		profile string
		seeds   string
		out     string
		strict  bool
	)
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Run the offline evaluation suite and check the regression gate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := parseSeeds(seeds)
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if profile == "" {
				profile = cfg.Run.Profile
			}
			cfg.Journal.Dir = filepath.Join(out, "journals")
			app, err := c.build(cmd.Context(), cfg, bootstrap.Options{})
			if err != nil {
				return err
			}
			defer app.Close()

			thresholds := cfg.Gate
			report, err := app.Eval.Run(cmd.Context(), eval.Request{
				Profile:    profile,
				Seeds:      list,
				OutDir:     out,
				Thresholds: &thresholds,
			})
			if err != nil {
				return err
			}
			c.printf("%s\n", report.Markdown())
			c.printf("Gate passed: %t\n", report.Gate.Passed)
			if strict && !report.Gate.Passed {
				return errGateFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "agent profile to evaluate")
	cmd.Flags().StringVar(&seeds, "seeds", "0:50", "seed range 'a:b' (end exclusive) or list '1,2,3'")
	cmd.Flags().StringVar(&out, "out", filepath.Join("outputs", "eval"), "output directory")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when the gate fails")
	return cmd
}

// parseSeeds accepts "a:b" with b exclusive, or a comma-separated list.
// Repeated list entries are dropped; at most eval.MaxSeeds seeds are allowed.
func parseSeeds(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("seeds: empty")
	}
	if lo, hi, ok := strings.Cut(s, ":"); ok {
		a, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("seeds: bad range start %q", lo)
		}
		b, err := strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("seeds: bad range end %q", hi)
		}
		if b <= a {
			return nil, fmt.Errorf("seeds: empty range %s", s)
		}
		// the difference of two int64 always fits in uint64
		if uint64(b)-uint64(a) > eval.MaxSeeds {
			return nil, fmt.Errorf("seeds: range %s exceeds %d seeds", s, eval.MaxSeeds)
		}
		out := make([]int64, 0, b-a)
		for v := a; v < b; v++ {
			out = append(out, v)
		}
		return out, nil
	}
	var out []int64
	seen := make(map[int64]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("seeds: bad seed %q", part)
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("seeds: empty")
	}
	if len(out) > eval.MaxSeeds {
		return nil, fmt.Errorf("seeds: list exceeds %d seeds", eval.MaxSeeds)
	}
	return out, nil
}
