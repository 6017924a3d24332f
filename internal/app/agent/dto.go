package agent

import (
	"simopsbot/internal/domain/journal"
	"simopsbot/internal/domain/ops"
)

type Status string

const (
	StatusResolved  Status = "resolved"
	StatusAbstained Status = "abstained"
	StatusFailed    Status = "failed"
)

type Request struct {
	Seed    int64
	Profile string
	// Budget falls back to the use case default when zero.
	Budget ops.Budget
	// Incident forces the scenario; empty lets the seed choose.
	Incident ops.IncidentType
}

type Result struct {
	RunID                string           `json:"run_id"`
	Profile              Profile          `json:"profile"`
	Seed                 int64            `json:"seed"`
	Incident             ops.IncidentType `json:"incident"`
	Status               Status           `json:"status"`
	Steps                int              `json:"steps"`
	ToolCalls            int              `json:"tool_calls"`
	SideEffects          int              `json:"side_effect_actions"`
	FinalSummary         string           `json:"final_summary"`
	EvidenceRefs         []string         `json:"evidence_refs"`
	JournalPath          string           `json:"journal_path,omitempty"`
	UnsafeActionAttempts int              `json:"unsafe_action_attempts"`
}

func (r Result) ToJSON() map[string]any {
	refs := r.EvidenceRefs
	if refs == nil {
		refs = []string{}
	}
	return map[string]any{
		"run_id":                 r.RunID,
		"profile":                string(r.Profile),
		"seed":                   r.Seed,
		"incident":               string(r.Incident),
		"status":                 string(r.Status),
		"steps":                  r.Steps,
		"tool_calls":             r.ToolCalls,
		"side_effect_actions":    r.SideEffects,
		"final_summary":          r.FinalSummary,
		"evidence_refs":          refs,
		"journal_path":           r.JournalPath,
		"unsafe_action_attempts": r.UnsafeActionAttempts,
	}
}

type Response struct {
	Result Result
	Events []journal.Event
}
