package agent

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"simopsbot/internal/app/decide"
	"simopsbot/internal/app/ports"
	"simopsbot/internal/app/reliability"
	"simopsbot/internal/app/verify"
	"simopsbot/internal/domain/journal"
	"simopsbot/internal/domain/ops"
)

const (
	summaryToolBudget = "Tool-call budget exhausted."
	summaryStepBudget = "Step budget exhausted."
	summaryVerified   = "Recovered and verified."
)

// terminal ends a run with a status and a human-readable summary.
type terminal struct {
	status  Status
	summary string
}

type run struct {
	logger   *slog.Logger
	metrics  ports.RunMetrics
	profile  Profile
	seed     int64
	incident ops.IncidentType

	state   *State
	journal *journal.Writer
	tools   *reliability.Tools
	decider ports.Decider

	// nil when the profile does not carry the layer
	hyps     *ops.Hypotheses
	policy   *ops.Policy
	verifier *verify.Verifier

	specs    map[ops.ActionKind]ActionSpec
	reverify bool
}

func (r *run) loop(ctx context.Context) (Result, error) {
	r.logger.Debug("run started", "incident", string(r.incident))
	for step := 1; step <= r.state.budget.MaxSteps; step++ {
		r.state.stepID = step
		term, err := r.step(ctx)
		if err != nil {
			return Result{}, err
		}
		if term != nil {
			return r.finish(ctx, *term)
		}
	}
	return r.finish(ctx, terminal{status: StatusAbstained, summary: summaryStepBudget})
}

func (r *run) step(ctx context.Context) (*terminal, error) {
	ctx, span := tracer.Start(ctx, "simops.step", trace.WithAttributes(
		attribute.Int("simops.step", r.state.stepID),
	))
	defer span.End()

	if _, err := r.log(ctx, journal.KindStepStart, decide.Summary(r.state, r.hyps)); err != nil {
		return nil, err
	}
	if r.state.toolCalls >= r.state.budget.MaxToolCalls {
		return &terminal{status: StatusAbstained, summary: summaryToolBudget}, nil
	}
	if r.reverify {
		ok, err := r.verify(ctx)
		if err != nil || ok {
			return resolvedIf(ok), err
		}
	}

	action, term, err := r.decide(ctx)
	if err != nil || term != nil {
		return term, err
	}
	if action, err = r.gate(ctx, action); err != nil {
		return nil, err
	}
	if r.policy != nil {
		if action, err = r.guard(ctx, action); err != nil {
			return nil, err
		}
	}
	span.SetAttributes(attribute.String("simops.action", string(action.Kind())))
	r.logger.Debug("executing action", "step", r.state.stepID, "action", string(action.Kind()))

	before := len(r.state.observations)
	term, err = r.execute(ctx, action)
	if err != nil {
		return nil, err
	}
	r.updateHypotheses(before)
	if term != nil {
		return term, nil
	}

	if r.verifier != nil && ops.IsSideEffect(action) {
		ok, err := r.verify(ctx)
		if err != nil || ok {
			return resolvedIf(ok), err
		}
	}
	return nil, nil
}

// decide asks the decider and journals the proposal and its validation. A
// decider failure ends the run as failed.
func (r *run) decide(ctx context.Context) (ops.Action, *terminal, error) {
	d, err := r.decider.Decide(ctx, ports.DecideInput{State: r.state, Hypotheses: r.hyps})
	if err == nil && d.Action == nil {
		err = fmt.Errorf("decider returned no action")
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		if _, logErr := r.log(ctx, journal.KindError, map[string]any{
			"decider": "decide",
			"error":   err.Error(),
		}); logErr != nil {
			return nil, nil, logErr
		}
		r.logger.Error("decider failed", "step", r.state.stepID, "err", err)
		return nil, &terminal{status: StatusFailed, summary: "Decider failed: " + err.Error()}, nil
	}

	if d.Proposed {
		if _, err := r.log(ctx, journal.KindProposal, map[string]any{"proposal": d.Proposal}); err != nil {
			return nil, nil, err
		}
		var reason any
		if d.ValidationErr != nil {
			reason = d.ValidationErr.Error()
			r.metrics.RecordValidationFailure()
			r.logger.Info("proposal rejected", "step", r.state.stepID, "reason", reason)
		}
		if _, err := r.log(ctx, journal.KindValidation, map[string]any{
			"valid":         d.ValidationErr == nil,
			"error":         reason,
			"chosen_action": d.Action.ToJSON(),
		}); err != nil {
			return nil, nil, err
		}
	}
	return d.Action, nil, nil
}

// verify runs the verifier and remembers an inconclusive verdict so the next
// step checks again before deciding.
func (r *run) verify(ctx context.Context) (bool, error) {
	res, err := r.verifier.VerifyRecovery(ctx, r.state)
	if err != nil {
		return false, err
	}
	if _, err := r.log(ctx, journal.KindVerify, map[string]any{"verdict": res.ToJSON()}); err != nil {
		return false, err
	}
	r.reverify = !res.Recovered && res.Inconclusive()
	r.logger.Debug("verification", "step", r.state.stepID, "recovered", res.Recovered, "reason", res.Reason)
	return res.Recovered, nil
}

func (r *run) updateHypotheses(before int) {
	if r.hyps == nil {
		return
	}
	for i := before; i < len(r.state.observations); i++ {
		r.hyps.UpdateFromObservation(r.state.observations[i], r.state.evidenceIDs[i])
	}
}

func (r *run) finish(ctx context.Context, t terminal) (Result, error) {
	refs := r.state.EvidenceIDs()
	final := ops.Final{Summary: t.summary, EvidenceRefs: refs}
	if _, err := r.log(ctx, journal.KindFinal, final.ToJSON()); err != nil {
		return Result{}, err
	}
	r.logger.Info("run finished", "status", string(t.status), "steps", r.state.stepID, "summary", t.summary)
	return Result{
		RunID:                r.state.runID,
		Profile:              r.profile,
		Seed:                 r.seed,
		Incident:             r.incident,
		Status:               t.status,
		Steps:                r.state.stepID,
		ToolCalls:            r.state.toolCalls,
		SideEffects:          r.state.SideEffects(),
		FinalSummary:         t.summary,
		EvidenceRefs:         final.EvidenceRefs,
		UnsafeActionAttempts: r.state.UnsafeAttempts(),
	}, nil
}

func (r *run) log(ctx context.Context, kind journal.Kind, payload map[string]any) (string, error) {
	return r.journal.Log(ctx, r.state.stepID, kind, payload)
}

func resolvedIf(ok bool) *terminal {
	if !ok {
		return nil
	}
	return &terminal{status: StatusResolved, summary: summaryVerified}
}
