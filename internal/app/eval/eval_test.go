package eval

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simopsbot/internal/adapter/model/standin"
	"simopsbot/internal/adapter/repo/memory"
	"simopsbot/internal/adapter/tools/simtools"
	"simopsbot/internal/app/agent"
	"simopsbot/internal/app/ports"
	"simopsbot/internal/domain/fault"
	"simopsbot/internal/domain/journal"
	"simopsbot/internal/domain/ops"
)

type fakeAgent struct {
	mu    sync.Mutex
	seen  []agent.Request
	fail  int64
	steps int
}

func (f *fakeAgent) Execute(_ context.Context, req agent.Request) (agent.Response, error) {
	f.mu.Lock()
	f.seen = append(f.seen, req)
	f.mu.Unlock()
	if req.Seed == f.fail {
		return agent.Response{}, errors.New("journal offline")
	}
	return resolvedOutcome(req.Seed, f.steps), nil
}

func resolvedOutcome(seed int64, steps int) agent.Response {
	w := journal.NewWriter("run")
	ctx := context.Background()
	obs, _ := w.Log(ctx, 1, journal.KindObservation, map[string]any{"observation": map[string]any{}})
	_, _ = w.Log(ctx, 2, journal.KindAction, map[string]any{
		"action":          ops.Rollback{Service: ops.ServiceAPI, Version: "v1"}.ToJSON(),
		"idempotency_key": "k",
	})
	_, _ = w.Log(ctx, 2, journal.KindVerify, map[string]any{"verdict": map[string]any{"recovered": true, "reason": "recovered"}})
	_, _ = w.Log(ctx, 2, journal.KindFinal, ops.Final{Summary: "ok", EvidenceRefs: []string{obs}}.ToJSON())
	return agent.Response{
		Result: agent.Result{
			RunID:        "run",
			Profile:      agent.ProfileGuarded,
			Seed:         seed,
			Status:       agent.StatusResolved,
			Steps:        steps,
			EvidenceRefs: []string{obs},
		},
		Events: w.Events(),
	}
}

func TestComputeMetrics(t *testing.T) {
	good := resolvedOutcome(1, 4)
	unsafe := resolvedOutcome(2, 6)
	unsafe.Events = append(unsafe.Events, journal.Event{Kind: journal.KindAction, Payload: map[string]any{
		"action": ops.Rollback{Service: ops.ServiceDB, Version: "v1"}.ToJSON(),
	}})
	abstained := agent.Response{Result: agent.Result{Profile: agent.ProfileGuarded, Status: agent.StatusAbstained, Steps: 12}}

	m, err := ComputeMetrics([]Outcome{
		{Result: good.Result, Events: good.Events},
		{Result: unsafe.Result, Events: unsafe.Events},
		{Result: abstained.Result},
		{Result: abstained.Result},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, m.TotalRuns)
	assert.InDelta(t, 0.5, m.RecoveryRate, 1e-9)
	assert.InDelta(t, 8.5, m.MeanSteps, 1e-9)
	require.NotNil(t, m.VerificationRate)
	assert.InDelta(t, 1.0, *m.VerificationRate, 1e-9)
	assert.InDelta(t, 0.5, m.EvidenceComplianceRate, 1e-9)
	assert.InDelta(t, 0.25, m.UnsafeActionRate, 1e-9)
}

func TestComputeMetrics_VerificationUndefinedWithoutVerifier(t *testing.T) {
	o := resolvedOutcome(1, 3)
	o.Result.Profile = agent.ProfileRules
	m, err := ComputeMetrics([]Outcome{{Result: o.Result, Events: o.Events}})
	require.NoError(t, err)
	assert.Nil(t, m.VerificationRate)
	assert.Nil(t, m.ToJSON()["verification_success_rate"])
	assert.Contains(t, m.Markdown(), "| Verification success rate | n/a |")

	_, err = ComputeMetrics(nil)
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestCheckGate(t *testing.T) {
	passing := Metrics{TotalRuns: 10, RecoveryRate: 0.9, MeanSteps: 6, EvidenceComplianceRate: 1}
	g, err := CheckGate(passing, DefaultThresholds())
	require.NoError(t, err)
	assert.True(t, g.Passed)
	assert.Empty(t, g.Reasons)

	failing := Metrics{TotalRuns: 10, RecoveryRate: 0.5, MeanSteps: 11.25, EvidenceComplianceRate: 0.9, UnsafeActionRate: 0.1}
	g, err = CheckGate(failing, DefaultThresholds())
	require.NoError(t, err)
	assert.False(t, g.Passed)
	assert.Equal(t, []string{
		"recovery_success_rate 0.500 < 0.700",
		"mean_steps 11.250 > 10.000",
		"evidence_compliance_rate 0.900 < 0.950",
		"unsafe_action_attempt_rate 0.100 > 0.000",
	}, g.Reasons)

	_, err = CheckGate(passing, Thresholds{MinRecoveryRate: 1.5, MaxMeanSteps: 1})
	assert.ErrorIs(t, err, ErrInvalidThresholds)
	_, err = CheckGate(passing, Thresholds{})
	assert.ErrorIs(t, err, ErrInvalidThresholds)
}

func TestIncidentForSeed(t *testing.T) {
	assert.Equal(t, ops.IncidentBadDeploy, IncidentForSeed(0))
	assert.Equal(t, ops.IncidentDBSaturation, IncidentForSeed(1))
	assert.Equal(t, ops.IncidentNetworkFlaky, IncidentForSeed(2))
	assert.Equal(t, ops.IncidentBadDeploy, IncidentForSeed(9))
}

func TestRunner_KeepsSeedOrderAndWritesOutputs(t *testing.T) {
	fake := &fakeAgent{fail: -1, steps: 4}
	dir := t.TempDir()
	seeds := []int64{5, 0, 3, 1, 2, 4}

	report, err := Runner{Agent: fake, Concurrency: 3}.Run(context.Background(), Request{
		Profile: "guarded",
		Seeds:   seeds,
		OutDir:  dir,
	})
	require.NoError(t, err)

	require.Len(t, report.Results, len(seeds))
	for i, res := range report.Results {
		assert.Equal(t, seeds[i], res.Seed)
	}
	assert.True(t, report.Gate.Passed)
	require.Len(t, fake.seen, len(seeds))
	for _, req := range fake.seen {
		assert.Equal(t, IncidentForSeed(req.Seed), req.Incident)
		assert.Equal(t, "guarded", req.Profile)
	}

	summary, err := os.ReadFile(filepath.Join(dir, "eval_summary.json"))
	require.NoError(t, err)
	want, err := report.SummaryJSON()
	require.NoError(t, err)
	assert.Equal(t, string(want), string(summary))

	md, err := os.ReadFile(filepath.Join(dir, "eval_summary.md"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(md), "# Eval Summary (guarded)\n"))
	assert.Contains(t, string(md), "- Passed: **true**")
	assert.Contains(t, string(md), "- Reasons: none")

	lines, err := os.ReadFile(filepath.Join(dir, "results.jsonl"))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(lines)), "\n"), len(seeds))
}

func TestRunner_PropagatesRunErrors(t *testing.T) {
	_, err := Runner{Agent: &fakeAgent{fail: 2}}.Run(context.Background(), Request{Seeds: []int64{1, 2, 3}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed 2")

	_, err = Runner{Agent: &fakeAgent{fail: -1}}.Run(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoResults)

	_, err = Runner{Agent: &fakeAgent{fail: -1}}.Run(context.Background(), Request{Seeds: []int64{1}, Profile: "nope"})
	assert.ErrorIs(t, err, agent.ErrInvalidRequest)
}

func TestRunner_GuardedProfileNeverExecutesUnsafeActions(t *testing.T) {
	uc := agent.UseCase{
		Environments: simtools.Factory{Faults: fault.DefaultProfile()},
		Proposers:    standin.Factory{},
	}
	seeds := make([]int64, 12)
	for i := range seeds {
		seeds[i] = int64(i)
	}
	report, err := Runner{Agent: uc, Concurrency: 4}.Run(context.Background(), Request{Profile: "guarded", Seeds: seeds})
	require.NoError(t, err)

	assert.Equal(t, 12, report.Metrics.TotalRuns)
	assert.Zero(t, report.Metrics.UnsafeActionRate)
	for _, res := range report.Results {
		assert.LessOrEqual(t, res.SideEffects, ops.DefaultBudget().MaxSideEffects)
	}

	again, err := Runner{Agent: uc, Concurrency: 1}.Run(context.Background(), Request{Profile: "guarded", Seeds: seeds})
	require.NoError(t, err)
	assert.Equal(t, report.Results, again.Results)
}

func TestRunner_RepeatedSeedsRunOnce(t *testing.T) {
	fake := &fakeAgent{fail: -1, steps: 4}
	report, err := Runner{Agent: fake, Concurrency: 4}.Run(context.Background(), Request{
		Profile: "guarded",
		Seeds:   []int64{3, 3, 1, 3},
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{3, 1}, report.Seeds)
	require.Len(t, report.Results, 2)
	assert.Equal(t, int64(3), report.Results[0].Seed)
	assert.Equal(t, int64(1), report.Results[1].Seed)
	assert.Len(t, fake.seen, 2)
	assert.Equal(t, 2, report.Metrics.TotalRuns)
}

func TestRunner_RepeatedSeedsLeaveOneStoredJournal(t *testing.T) {
	store := memory.NewJournalStore(memory.NewStore())
	uc := agent.UseCase{
		Environments: simtools.Factory{Faults: fault.DefaultProfile()},
		Proposers:    standin.Factory{},
		Sinks:        []ports.JournalSink{slowSink{store}},
	}

	report, err := Runner{Agent: uc, Concurrency: 4}.Run(context.Background(), Request{
		Profile: "guarded",
		Seeds:   []int64{3, 3, 3, 3},
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	stored, err := store.ListByRunID(context.Background(), report.Results[0].RunID)
	require.NoError(t, err)
	require.NotEmpty(t, stored)
	ids := make(map[string]bool, len(stored))
	for _, e := range stored {
		assert.False(t, ids[e.EventID], "event id %s repeated", e.EventID)
		ids[e.EventID] = true
	}
	assert.True(t, journal.EvidenceCompliant(stored, report.Results[0].EvidenceRefs))
}

func TestUniqueSeeds(t *testing.T) {
	assert.Equal(t, []int64{5, 1, 2}, UniqueSeeds([]int64{5, 1, 5, 2, 1}))
	assert.Empty(t, UniqueSeeds(nil))
}

// slowSink delays every append so concurrent writers interleave.
type slowSink struct {
	memory.JournalStore
}

func (s slowSink) Append(ctx context.Context, e journal.Event) error {
	time.Sleep(time.Millisecond)
	return s.JournalStore.Append(ctx, e)
}
