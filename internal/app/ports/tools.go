package ports

import (
	"context"

	"simopsbot/internal/domain/ops"
)

// ToolBoundary is the untrusted interface to the environment. Any call may
// fail with an *ops.ToolError.
type ToolBoundary interface {
	GetMetrics(ctx context.Context, service ops.ServiceName, windowMinutes int) (ops.MetricsObservation, error)
	TailLogs(ctx context.Context, service ops.ServiceName, n int) (ops.LogsObservation, error)
	HealthCheck(ctx context.Context, service ops.ServiceName) (ops.HealthObservation, error)
	RunbookSearch(ctx context.Context, query string) (ops.RunbookObservation, error)
	Restart(ctx context.Context, service ops.ServiceName, idempotencyKey string) (ops.ActionReceipt, error)
	Rollback(ctx context.Context, service ops.ServiceName, version, idempotencyKey string) (ops.ActionReceipt, error)
}

// Environment is one seeded incident reachable only through its tools.
type Environment interface {
	ToolBoundary
	Incident() ops.IncidentType
}

// EnvironmentFactory opens a fresh environment per run. An empty incident
// lets the seed choose.
type EnvironmentFactory interface {
	Open(ctx context.Context, seed int64, incident ops.IncidentType) (Environment, error)
}
