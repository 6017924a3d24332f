// Package decide holds the deciders that pick the next action for a run.
package decide

import (
	"context"

	"simopsbot/internal/app/ports"
	"simopsbot/internal/domain/ops"
)

const (
	rollbackErrorRate = 0.25
	restartDBLatency  = 300.0
)

// RuleBased walks a fixed checklist. It ignores hypotheses.
type RuleBased struct{}

func (RuleBased) Decide(_ context.Context, in ports.DecideInput) (ports.Decision, error) {
	return ports.Decision{Action: nextByRules(in.State.Observations())}, nil
}

func nextByRules(observations []map[string]any) ops.Action {
	apiMetrics := lastObservation(observations, ops.ToolGetMetrics, ops.ServiceAPI)
	if apiMetrics == nil {
		return ops.ObserveMetrics{Service: ops.ServiceAPI, WindowMinutes: 5}
	}
	dbMetrics := lastObservation(observations, ops.ToolGetMetrics, ops.ServiceDB)
	if dbMetrics == nil {
		return ops.ObserveMetrics{Service: ops.ServiceDB, WindowMinutes: 5}
	}
	if v, ok := ops.Number(apiMetrics["error_rate"]); ok && v > rollbackErrorRate {
		return ops.Rollback{Service: ops.ServiceAPI, Version: ops.VersionV1}
	}
	if v, ok := ops.Number(dbMetrics["latency_ms"]); ok && v > restartDBLatency {
		return ops.Restart{Service: ops.ServiceDB}
	}
	apiLogs := lastObservation(observations, ops.ToolTailLogs, ops.ServiceAPI)
	if apiLogs == nil {
		return ops.ObserveLogs{Service: ops.ServiceAPI, N: 10}
	}
	if mentionsTimeout(apiLogs) {
		return ops.Restart{Service: ops.ServiceAPI}
	}
	if !hasObservation(observations, ops.ToolRunbookSearch) {
		return ops.RunbookSearch{Query: "incident response api db"}
	}
	return ops.ObserveHealth{Service: ops.ServiceAPI}
}
