package eval

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"simopsbot/internal/app/agent"
	"simopsbot/internal/domain/ops"
)

const (
	DefaultConcurrency = 4
	// MaxSeeds bounds one evaluation request.
	MaxSeeds           = 500
)

// RunExecutor executes one agent run.
type RunExecutor interface {
	Execute(ctx context.Context, req agent.Request) (agent.Response, error)
}

type Request struct {
	Profile string
	Seeds   []int64
	// OutDir receives the summary files; empty skips writing them.
	OutDir     string
	Thresholds *Thresholds
}

// IncidentForSeed spreads evaluation seeds evenly over the incident types.
func IncidentForSeed(seed int64) ops.IncidentType {
	return ops.Incidents[((seed%3)+3)%3]
}

type Runner struct {
	Agent       RunExecutor
	Concurrency int
	Logger      *slog.Logger
}

// Run executes every distinct seed with its incident fixed by IncidentForSeed.
// Runs are independent, so they proceed concurrently; results keep the order
// of first appearance.
func (r Runner) Run(ctx context.Context, req Request) (Report, error) {
	if len(req.Seeds) == 0 {
		return Report{}, fmt.Errorf("%w: no seeds", ErrNoResults)
	}
	profile, err := agent.ParseProfile(req.Profile)
	if err != nil {
		return Report{}, err
	}
	thresholds := DefaultThresholds()
	if req.Thresholds != nil {
		thresholds = *req.Thresholds
	}
	if err := thresholds.Validate(); err != nil {
		return Report{}, err
	}

	seeds := UniqueSeeds(req.Seeds)
	outcomes := make([]Outcome, len(seeds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency())
	for i, seed := range seeds {
		g.Go(func() error {
			resp, err := r.Agent.Execute(gctx, agent.Request{
				Seed:     seed,
				Profile:  string(profile),
				Incident: IncidentForSeed(seed),
			})
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			outcomes[i] = Outcome{Result: resp.Result, Events: resp.Events}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	metrics, err := ComputeMetrics(outcomes)
	if err != nil {
		return Report{}, err
	}
	gate, err := CheckGate(metrics, thresholds)
	if err != nil {
		return Report{}, err
	}
	report := Report{Profile: profile, Seeds: seeds, Metrics: metrics, Gate: gate}
	for _, o := range outcomes {
		report.Results = append(report.Results, o.Result)
	}
	r.logger().Info("evaluation finished",
		"profile", string(profile),
		"runs", metrics.TotalRuns,
		"recovery_rate", metrics.RecoveryRate,
		"gate_passed", gate.Passed,
	)

	if req.OutDir != "" {
		if err := WriteOutputs(req.OutDir, report); err != nil {
			return Report{}, err
		}
	}
	return report, nil
}

// UniqueSeeds drops repeated seeds, keeping the first occurrence. A repeated
// seed would map to the same run id and journal.
func UniqueSeeds(seeds []int64) []int64 {
	seen := make(map[int64]struct{}, len(seeds))
	out := make([]int64, 0, len(seeds))
	for _, s := range seeds {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func (r Runner) concurrency() int {
	if r.Concurrency > 0 {
		return r.Concurrency
	}
	return DefaultConcurrency
}

func (r Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// WriteOutputs writes eval_summary.json, eval_summary.md and results.jsonl.
func WriteOutputs(dir string, report Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create eval dir: %w", err)
	}
	summary, err := report.SummaryJSON()
	if err != nil {
		return err
	}
	results, err := report.ResultsJSONL()
	if err != nil {
		return err
	}
	files := map[string][]byte{
		"eval_summary.json": summary,
		"eval_summary.md":   []byte(report.Markdown()),
		"results.jsonl":     results,
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
