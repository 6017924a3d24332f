package decide

import (
	"context"
	"fmt"

	"simopsbot/internal/app/ports"
	"simopsbot/internal/app/validation"
	"simopsbot/internal/domain/ops"
)

// ModelBased asks a proposer for the next action and validates the text it
// returns. An invalid proposal degrades to an evidence-gathering action.
type ModelBased struct {
	Proposer ports.Proposer
	// ScrubUntrusted strips instruction-like text from observations before
	// they are shown to the proposer.
	ScrubUntrusted bool
}

func (d ModelBased) Decide(ctx context.Context, in ports.DecideInput) (ports.Decision, error) {
	observations := in.State.Observations()
	if d.ScrubUntrusted {
		observations = Scrub(observations)
	}
	raw, err := d.Proposer.Propose(ctx, ports.ProposalContext{
		StepID:             in.State.StepID(),
		StateSummary:       Summary(in.State, in.Hypotheses),
		Observations:       observations,
		AllowedActionTypes: ops.ActionKinds,
	})
	if err != nil {
		return ports.Decision{}, fmt.Errorf("propose next action: %w", err)
	}

	action, err := validation.ParseProposal(raw)
	if err != nil {
		return ports.Decision{
			Action:        Fallback(in.State.Observations()),
			Proposal:      raw,
			Proposed:      true,
			ValidationErr: err,
		}, nil
	}
	return ports.Decision{Action: action, Proposal: raw, Proposed: true}, nil
}

// Fallback picks the cheapest missing evidence: api metrics, then api logs,
// then api health.
func Fallback(observations []map[string]any) ops.Action {
	if !hasObservation(observations, ops.ToolGetMetrics) {
		return ops.ObserveMetrics{Service: ops.ServiceAPI, WindowMinutes: 5}
	}
	if !hasObservation(observations, ops.ToolTailLogs) {
		return ops.ObserveLogs{Service: ops.ServiceAPI, N: 10}
	}
	return ops.ObserveHealth{Service: ops.ServiceAPI}
}

// Summary is the structured state shown to a proposer and journaled at each
// step start.
func Summary(state ports.StateView, hypotheses *ops.Hypotheses) map[string]any {
	out := map[string]any{
		"step_id":             state.StepID(),
		"tool_calls":          state.ToolCalls(),
		"side_effect_actions": state.SideEffects(),
		"budget":              state.Budget().ToJSON(),
	}
	if hypotheses != nil {
		top := hypotheses.Top(3)
		hs := make([]any, 0, len(top))
		for _, h := range top {
			hs = append(hs, h.ToJSON())
		}
		out["hypotheses"] = hs
	}
	return out
}
