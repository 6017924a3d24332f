// Package agent runs one seeded incident-response episode: decide, mediate,
// execute, verify, and journal every transition.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"simopsbot/internal/app/decide"
	"simopsbot/internal/app/ports"
	"simopsbot/internal/app/reliability"
	"simopsbot/internal/app/verify"
	"simopsbot/internal/domain/journal"
	"simopsbot/internal/domain/ops"
)

var (
	ErrInvalidRequest = errors.New("invalid run request")
	// ErrUnhandledAction means an action kind has no executor. It is a
	// programming error and is raised with panic.
	ErrUnhandledAction = errors.New("unhandled action")
)

var tracer = otel.Tracer("simopsbot/agent")

type UseCase struct {
	Environments ports.EnvironmentFactory
	Proposers    ports.ProposerFactory
	Sinks        []ports.JournalSink
	Files        ports.JournalFiles
	Runs         ports.RunRepository
	// Tx, when set, makes the journal archive and the run record of one run
	// commit together.
	Tx           ports.TxManager
	Metrics      ports.RunMetrics
	Logger       *slog.Logger
	Policy       ops.Policy
	Thresholds   ops.VerifyThresholds
	Budget       ops.Budget
	MaxAttempts  int
	Backoff      reliability.Backoff
	Now          func() time.Time
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	profile, budget, err := u.validate(req)
	if err != nil {
		return Response{}, err
	}
	if u.Environments == nil || (profile.UsesModel() && u.Proposers == nil) {
		return Response{}, fmt.Errorf("run use case: %w", ports.ErrNotConfigured)
	}

	runID := journal.MakeRunID(req.Seed, string(profile))
	unlock, err := activeRuns.acquire(ctx, runID)
	if err != nil {
		return Response{}, err
	}
	defer unlock()

	ctx, span := tracer.Start(ctx, "simops.run", trace.WithAttributes(
		attribute.String("simops.run_id", runID),
		attribute.Int64("simops.seed", req.Seed),
		attribute.String("simops.profile", string(profile)),
	))
	defer span.End()

	var (
		res    Result
		events []journal.Event
	)
	err = u.inTx(ctx, func(ctx context.Context) error {
		var err error
		res, events, err = u.run(ctx, runID, profile, budget, req)
		if err != nil {
			return err
		}
		if u.Runs == nil {
			return nil
		}
		if err := u.Runs.Save(ctx, u.record(res)); err != nil {
			return fmt.Errorf("save run %s: %w", runID, err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Response{}, err
	}
	span.SetAttributes(attribute.String("simops.status", string(res.Status)))
	u.metrics().RecordRun(string(profile), string(res.Status), res.Steps, res.ToolCalls)
	return Response{Result: res, Events: events}, nil
}

func (u UseCase) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if u.Tx == nil {
		return fn(ctx)
	}
	return u.Tx.RunInTx(ctx, fn)
}

func (u UseCase) run(ctx context.Context, runID string, profile Profile, budget ops.Budget, req Request) (Result, []journal.Event, error) {
	env, err := u.Environments.Open(ctx, req.Seed, req.Incident)
	if err != nil {
		return Result{}, nil, fmt.Errorf("open environment: %w", err)
	}
	tools, err := reliability.NewTools(env, profile.MaxAttempts(u.MaxAttempts), u.Backoff)
	if err != nil {
		return Result{}, nil, err
	}

	sinks := make([]ports.JournalSink, 0, len(u.Sinks)+1)
	for _, s := range u.Sinks {
		if r, ok := s.(interface {
			Reset(ctx context.Context, runID string) error
		}); ok {
			if err := r.Reset(ctx, runID); err != nil {
				return Result{}, nil, fmt.Errorf("reset journal %s: %w", runID, err)
			}
		}
		sinks = append(sinks, s)
	}
	var file ports.JournalFile
	if u.Files != nil {
		file, err = u.Files.Create(journal.FileName(req.Seed, string(profile)))
		if err != nil {
			return Result{}, nil, fmt.Errorf("create journal file: %w", err)
		}
		sinks = append(sinks, file)
	}

	r := u.newRun(runID, profile, budget, req.Seed, env, tools, journal.NewWriter(runID, sinks...))
	res, runErr := r.loop(ctx)
	if file != nil {
		if err := file.Close(); err != nil && runErr == nil {
			runErr = fmt.Errorf("close journal file: %w", err)
		}
		res.JournalPath = file.Path()
	}
	if runErr != nil {
		return Result{}, nil, runErr
	}
	return res, r.journal.Events(), nil
}

func (u UseCase) newRun(runID string, profile Profile, budget ops.Budget, seed int64, env ports.Environment, tools *reliability.Tools, w *journal.Writer) *run {
	r := &run{
		logger:   u.logger().With("run_id", runID, "profile", string(profile), "seed", seed),
		metrics:  u.metrics(),
		profile:  profile,
		seed:     seed,
		incident: env.Incident(),
		state:    newState(runID, profile, budget),
		journal:  w,
		tools:    tools,
		specs:    actionRegistry(),
	}
	if profile.UsesModel() {
		r.decider = decide.ModelBased{Proposer: u.Proposers.NewProposer(seed), ScrubUntrusted: profile.Guarded()}
	} else {
		r.decider = decide.RuleBased{}
	}
	if profile.TracksHypotheses() {
		r.hyps = ops.NewHypotheses()
	}
	if profile.Verifies() {
		r.verifier = &verify.Verifier{Tools: tools, Journal: w, Thresholds: u.Thresholds, Metrics: r.metrics}
	}
	if profile.Guarded() {
		p := u.Policy
		r.policy = &p
	}
	return r
}

func (u UseCase) validate(req Request) (Profile, ops.Budget, error) {
	profile, err := ParseProfile(req.Profile)
	if err != nil {
		return "", ops.Budget{}, err
	}
	if req.Seed < 0 {
		return "", ops.Budget{}, fmt.Errorf("%w: seed must be non-negative", ErrInvalidRequest)
	}
	if req.Incident != "" {
		if _, err := ops.ParseIncident(string(req.Incident)); err != nil {
			return "", ops.Budget{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}
	budget := req.Budget
	if budget == (ops.Budget{}) {
		budget = u.Budget
	}
	if budget == (ops.Budget{}) {
		budget = ops.DefaultBudget()
	}
	if err := budget.Validate(); err != nil {
		return "", ops.Budget{}, err
	}
	return profile, budget, nil
}

func (u UseCase) record(res Result) ports.RunRecord {
	now := time.Now
	if u.Now != nil {
		now = u.Now
	}
	return ports.RunRecord{
		RunID:                res.RunID,
		Profile:              string(res.Profile),
		Seed:                 res.Seed,
		Incident:             string(res.Incident),
		Status:               string(res.Status),
		Steps:                res.Steps,
		ToolCalls:            res.ToolCalls,
		SideEffects:          res.SideEffects,
		FinalSummary:         res.FinalSummary,
		JournalPath:          res.JournalPath,
		UnsafeActionAttempts: res.UnsafeActionAttempts,
		FinishedAt:           now().UTC(),
	}
}

func (u UseCase) logger() *slog.Logger {
	if u.Logger != nil {
		return u.Logger
	}
	return slog.Default()
}

func (u UseCase) metrics() ports.RunMetrics {
	if u.Metrics != nil {
		return u.Metrics
	}
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) RecordRun(string, string, int, int) {}
func (noopMetrics) RecordPolicyBlock(string)           {}
func (noopMetrics) RecordValidationFailure()           {}
func (noopMetrics) RecordToolError(string)             {}
