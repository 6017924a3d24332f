package agent

import (
	"context"

	"simopsbot/internal/domain/journal"
	"simopsbot/internal/domain/ops"
)

// gate replaces a side effect with more evidence gathering while the best
// hypothesis is still low confidence.
func (r *run) gate(ctx context.Context, action ops.Action) (ops.Action, error) {
	if r.hyps == nil || !ops.IsSideEffect(action) {
		return action, nil
	}
	best := r.hyps.Best()
	if best.Confidence != ops.ConfidenceLow {
		return action, nil
	}

	var fallback ops.Action = ops.ObserveLogs{Service: ops.ServiceAPI, N: 10}
	if r.state.haveObserved(ops.ToolTailLogs) {
		fallback = ops.ObserveMetrics{Service: ops.ServiceAPI, WindowMinutes: 5}
	}
	if _, err := r.log(ctx, journal.KindPolicy, map[string]any{
		"policy":          "uncertainty_gate",
		"decision":        "override",
		"reason":          "low confidence; gathering more evidence",
		"fallback_action": fallback.ToJSON(),
		"best_hypothesis": best.ToJSON(),
	}); err != nil {
		return nil, err
	}
	r.logger.Debug("uncertainty gate override", "step", r.state.stepID, "action", string(action.Kind()))
	return fallback, nil
}

// guard applies the guardrail policy. Every decision is journaled; a block
// counts as an unsafe attempt and swaps in the policy fallback.
func (r *run) guard(ctx context.Context, action ops.Action) (ops.Action, error) {
	in := ops.PolicyInput{
		Action:           action,
		SideEffectsSoFar: r.state.SideEffects(),
		MaxSideEffects:   r.state.budget.MaxSideEffects,
		HaveAnyMetrics:   r.state.haveObserved(ops.ToolGetMetrics),
	}
	if r.hyps != nil {
		best := r.hyps.Best()
		in.Best = &best
	}
	out := r.policy.Evaluate(in)

	var fallback any
	if out.Blocked() {
		if out.Fallback == nil {
			out.Fallback = ops.ObserveMetrics{Service: ops.ServiceAPI, WindowMinutes: 5}
		}
		fallback = out.Fallback.ToJSON()
	}
	if _, err := r.log(ctx, journal.KindPolicy, map[string]any{
		"policy":   "guardrails",
		"decision": string(out.Decision),
		"reason":   out.Reason,
		"action":   action.ToJSON(),
		"fallback": fallback,
	}); err != nil {
		return nil, err
	}
	if !out.Blocked() {
		return action, nil
	}

	r.state.RecordUnsafeAttempt()
	r.metrics.RecordPolicyBlock(out.Reason)
	r.logger.Info("action blocked", "step", r.state.stepID, "action", string(action.Kind()), "reason", out.Reason)
	return out.Fallback, nil
}
