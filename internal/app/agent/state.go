package agent

import (
	"slices"

	"simopsbot/internal/domain/ops"
)

// State is owned by one run. Collaborators read it through ports.StateView
// and mutate it only through the methods below.
type State struct {
	runID   string
	profile Profile
	budget  ops.Budget

	stepID      int
	toolCalls   int
	sideEffects int
	unsafe      int

	observations []map[string]any
	evidenceIDs  []string
}

func newState(runID string, profile Profile, budget ops.Budget) *State {
	return &State{runID: runID, profile: profile, budget: budget}
}

func (s *State) RunID() string       { return s.runID }
func (s *State) StepID() int         { return s.stepID }
func (s *State) ToolCalls() int      { return s.toolCalls }
func (s *State) SideEffects() int    { return s.sideEffects }
func (s *State) Budget() ops.Budget  { return s.budget }
func (s *State) UnsafeAttempts() int { return s.unsafe }

// Observations returns a copy of the slice; the maps themselves are shared
// and must be treated as read-only.
func (s *State) Observations() []map[string]any {
	return slices.Clone(s.observations)
}

func (s *State) EvidenceIDs() []string {
	return slices.Clone(s.evidenceIDs)
}

func (s *State) BumpToolCalls(n int) {
	s.toolCalls += n
}

func (s *State) BumpSideEffects() {
	s.sideEffects++
}

// RecordUnsafeAttempt counts an action the guardrails blocked.
func (s *State) RecordUnsafeAttempt() {
	s.unsafe++
}

func (s *State) RecordObservation(obs map[string]any, evidenceID string) {
	s.observations = append(s.observations, obs)
	s.evidenceIDs = append(s.evidenceIDs, evidenceID)
}

func (s *State) haveObserved(tool ops.ToolName) bool {
	for _, obs := range s.observations {
		if obs["tool"] == string(tool) {
			return true
		}
	}
	return false
}
