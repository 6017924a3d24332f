package ports

import (
	"context"

	"simopsbot/internal/domain/ops"
)

// StateView is the read-only face of a run's agent state.
type StateView interface {
	RunID() string
	StepID() int
	ToolCalls() int
	SideEffects() int
	Budget() ops.Budget
	Observations() []map[string]any
}

type DecideInput struct {
	State      StateView
	Hypotheses *ops.Hypotheses
}

// Decision is what a decider hands the run loop. Proposal is set when the
// action came from untrusted text; ValidationErr is set when that text was
// rejected and Action is the decider's fallback.
type Decision struct {
	Action        ops.Action
	Proposal      string
	Proposed      bool
	ValidationErr error
}

type Decider interface {
	Decide(ctx context.Context, in DecideInput) (Decision, error)
}

type ProposalContext struct {
	StepID             int
	StateSummary       map[string]any
	Observations       []map[string]any
	AllowedActionTypes []ops.ActionKind
}

// Proposer produces a raw, untrusted action proposal.
type Proposer interface {
	Propose(ctx context.Context, pc ProposalContext) (string, error)
}

// ProposerFactory builds a proposer seeded for one run.
type ProposerFactory interface {
	NewProposer(seed int64) Proposer
}
