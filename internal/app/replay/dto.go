package replay

import "simopsbot/internal/domain/journal"

type Request struct {
	RunID string
}

type Response struct {
	Events  []journal.Event
	Summary Summary
}

// Summary is what a run's journal says happened, reconstructed without
// re-running anything.
type Summary struct {
	RunID              string       `json:"run_id"`
	Steps              int          `json:"steps"`
	FinalSummary       string       `json:"final_summary"`
	EvidenceRefs       []string     `json:"evidence_refs"`
	EvidenceCompliant  bool         `json:"evidence_compliant"`
	PolicyBlocks       []PolicyStep `json:"policy_blocks"`
	SideEffects        []SideEffect `json:"side_effects"`
	Verdicts           []Verdict    `json:"verdicts"`
	ValidationFailures int          `json:"validation_failures"`
	ToolErrors         int          `json:"tool_errors"`
	UnsafeExecuted     bool         `json:"unsafe_executed"`
}

type PolicyStep struct {
	StepID   int            `json:"step_id"`
	Policy   string         `json:"policy"`
	Reason   string         `json:"reason"`
	Action   map[string]any `json:"action,omitempty"`
	Fallback map[string]any `json:"fallback,omitempty"`
}

type SideEffect struct {
	StepID         int            `json:"step_id"`
	Action         map[string]any `json:"action"`
	IdempotencyKey string         `json:"idempotency_key"`
	Attempts       int            `json:"attempts"`
	Applied        bool           `json:"applied"`
	Error          string         `json:"error,omitempty"`
}

type Verdict struct {
	StepID    int    `json:"step_id"`
	Recovered bool   `json:"recovered"`
	Reason    string `json:"reason"`
}
