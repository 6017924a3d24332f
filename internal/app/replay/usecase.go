// Package replay rebuilds a run summary from its journal alone.
package replay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"simopsbot/internal/app/ports"
	"simopsbot/internal/domain/journal"
	"simopsbot/internal/domain/ops"
)

var ErrInvalidRequest = errors.New("invalid replay request")

type UseCase struct {
	Journal ports.JournalSource
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	runID := strings.TrimSpace(req.RunID)
	if runID == "" {
		return Response{}, ErrInvalidRequest
	}
	if u.Journal == nil {
		return Response{}, fmt.Errorf("replay use case: %w", ports.ErrNotConfigured)
	}
	events, err := u.Journal.ListByRunID(ctx, runID)
	if err != nil {
		return Response{}, err
	}
	if len(events) == 0 {
		return Response{}, fmt.Errorf("journal for run %s: %w", runID, ports.ErrNotFound)
	}
	return Response{Events: events, Summary: Summarize(events)}, nil
}

// Summarize folds events in journal order. The last final event wins.
func Summarize(events []journal.Event) Summary {
	s := Summary{
		PolicyBlocks: []PolicyStep{},
		SideEffects:  []SideEffect{},
		Verdicts:     []Verdict{},
	}
	for _, e := range events {
		if s.RunID == "" {
			s.RunID = e.RunID
		}
		s.Steps = max(s.Steps, e.StepID)
		switch e.Kind {
		case journal.KindFinal:
			s.FinalSummary, _ = e.Payload["summary"].(string)
			s.EvidenceRefs, _ = ops.Strings(e.Payload["evidence_refs"])
		case journal.KindValidation:
			if valid, ok := e.Payload["valid"].(bool); ok && !valid {
				s.ValidationFailures++
			}
		case journal.KindPolicy:
			if e.Payload["decision"] == "block" || e.Payload["decision"] == "override" {
				s.PolicyBlocks = append(s.PolicyBlocks, policyStep(e))
			}
		case journal.KindAction:
			if se, ok := sideEffect(e); ok {
				s.SideEffects = append(s.SideEffects, se)
			}
		case journal.KindVerify:
			if v, ok := e.Payload["verdict"].(map[string]any); ok {
				recovered, _ := v["recovered"].(bool)
				reason, _ := v["reason"].(string)
				s.Verdicts = append(s.Verdicts, Verdict{StepID: e.StepID, Recovered: recovered, Reason: reason})
			}
		case journal.KindError:
			if _, ok := e.Payload["tool"]; ok {
				s.ToolErrors++
			}
		}
	}
	if s.EvidenceRefs == nil {
		s.EvidenceRefs = []string{}
	}
	s.EvidenceCompliant = journal.EvidenceCompliant(events, s.EvidenceRefs)
	s.UnsafeExecuted = ContainsUnsafeExecutedAction(events)
	return s
}

// ContainsUnsafeExecutedAction reports whether an action event shows a db
// rollback or an action against an unknown service. Guardrails should keep
// this false.
func ContainsUnsafeExecutedAction(events []journal.Event) bool {
	for _, e := range events {
		if e.Kind != journal.KindAction {
			continue
		}
		action, ok := e.Payload["action"].(map[string]any)
		if !ok {
			continue
		}
		service, ok := action["service"].(string)
		if !ok {
			continue
		}
		if !ops.IsKnownService(ops.ServiceName(service)) {
			return true
		}
		if action["type"] == string(ops.KindRollback) && service == string(ops.ServiceDB) {
			return true
		}
	}
	return false
}

func policyStep(e journal.Event) PolicyStep {
	p := PolicyStep{StepID: e.StepID}
	p.Policy, _ = e.Payload["policy"].(string)
	p.Reason, _ = e.Payload["reason"].(string)
	p.Action, _ = e.Payload["action"].(map[string]any)
	if fb, ok := e.Payload["fallback"].(map[string]any); ok {
		p.Fallback = fb
	} else if fb, ok := e.Payload["fallback_action"].(map[string]any); ok {
		p.Fallback = fb
	}
	return p
}

// sideEffect reads an action event that carries an idempotency key. Ask-user
// events have none and are skipped.
func sideEffect(e journal.Event) (SideEffect, bool) {
	key, ok := e.Payload["idempotency_key"].(string)
	if !ok {
		return SideEffect{}, false
	}
	se := SideEffect{StepID: e.StepID, IdempotencyKey: key}
	se.Action, _ = e.Payload["action"].(map[string]any)
	switch attempts := e.Payload["attempts"].(type) {
	case []any:
		se.Attempts = len(attempts)
	case []map[string]any:
		se.Attempts = len(attempts)
	}
	if receipt, ok := e.Payload["receipt"].(map[string]any); ok {
		se.Applied, _ = receipt["applied"].(bool)
	}
	se.Error, _ = e.Payload["error"].(string)
	return se, true
}
