package ops

import (
	"errors"
	"fmt"
)

type ServiceName string

const (
	ServiceAPI ServiceName = "api"
	ServiceDB  ServiceName = "db"
)

// Services lists every service the simulated environment exposes.
var Services = []ServiceName{ServiceAPI, ServiceDB}

func IsKnownService(s ServiceName) bool {
	return s == ServiceAPI || s == ServiceDB
}

type IncidentType string

const (
	IncidentBadDeploy    IncidentType = "api_bad_deploy"
	IncidentDBSaturation IncidentType = "db_saturation"
	IncidentNetworkFlaky IncidentType = "network_flaky"
)

var Incidents = []IncidentType{IncidentBadDeploy, IncidentDBSaturation, IncidentNetworkFlaky}

func ParseIncident(s string) (IncidentType, error) {
	for _, it := range Incidents {
		if string(it) == s {
			return it, nil
		}
	}
	return "", fmt.Errorf("unknown incident %q", s)
}

type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

type ToolName string

const (
	ToolGetMetrics    ToolName = "get_metrics"
	ToolTailLogs      ToolName = "tail_logs"
	ToolHealthCheck   ToolName = "health_check"
	ToolRunbookSearch ToolName = "runbook_search"
	ToolRestart       ToolName = "restart"
	ToolRollback      ToolName = "rollback"
)

type HealthStatus string

const (
	HealthOK       HealthStatus = "ok"
	HealthDegraded HealthStatus = "degraded"
	HealthDown     HealthStatus = "down"
)

const (
	VersionV1 = "v1"
	VersionV2 = "v2"
)

var ErrInvalidBudget = errors.New("invalid budget")

// Budget caps a single run. It is compared against live counters and never mutated.
type Budget struct {
	MaxSteps       int `json:"max_steps" yaml:"max_steps" validate:"gt=0"`
	MaxToolCalls   int `json:"max_tool_calls" yaml:"max_tool_calls" validate:"gt=0"`
	MaxSideEffects int `json:"max_side_effect_actions" yaml:"max_side_effect_actions" validate:"gte=0"`
}

func DefaultBudget() Budget {
	return Budget{MaxSteps: 12, MaxToolCalls: 40, MaxSideEffects: 3}
}

func (b Budget) Validate() error {
	switch {
	case b.MaxSteps <= 0:
		return fmt.Errorf("%w: max_steps must be positive", ErrInvalidBudget)
	case b.MaxToolCalls <= 0:
		return fmt.Errorf("%w: max_tool_calls must be positive", ErrInvalidBudget)
	case b.MaxSideEffects < 0:
		return fmt.Errorf("%w: max_side_effect_actions must be non-negative", ErrInvalidBudget)
	}
	return nil
}

func (b Budget) ToJSON() map[string]any {
	return map[string]any{
		"max_steps":               b.MaxSteps,
		"max_tool_calls":          b.MaxToolCalls,
		"max_side_effect_actions": b.MaxSideEffects,
	}
}
