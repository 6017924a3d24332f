// Package simtools exposes the simulated world through the untrusted tool
// boundary: every call may fault, reads are noisy or stale, and side effects
// are deduplicated by idempotency key.
package simtools

import (
	"context"
	"errors"
	"math/rand/v2"

	"simopsbot/internal/adapter/world/sim"
	"simopsbot/internal/domain/ops"
	"simopsbot/internal/domain/seed"
)

const (
	staleRate         = 0.30
	errorNoiseSigma   = 0.01
	latencyNoiseSigma = 12.0
	// timeoutApplyRate is how often a timed-out side effect still landed.
	timeoutApplyRate = 0.50
)

// Faults decides whether the next call to a tool fails.
type Faults interface {
	Err(tool ops.ToolName) error
}

type Tools struct {
	world   *sim.World
	faults  Faults
	rng     *rand.Rand
	seen    map[string]struct{}
	applied map[ops.ServiceName]int
}

func New(world *sim.World, faults Faults, base int64) *Tools {
	return &Tools{
		world:   world,
		faults:  faults,
		rng:     seed.Derive(base, seed.SaltToolNoise),
		seen:    map[string]struct{}{},
		applied: map[ops.ServiceName]int{},
	}
}

// AppliedCount reports how many side effects actually changed service.
func (t *Tools) AppliedCount(service ops.ServiceName) int {
	return t.applied[service]
}

func (t *Tools) GetMetrics(ctx context.Context, service ops.ServiceName, windowMinutes int) (ops.MetricsObservation, error) {
	if err := t.precheck(ctx, ops.ToolGetMetrics); err != nil {
		return ops.MetricsObservation{}, err
	}
	delay := 0
	if t.rng.Float64() < staleRate {
		delay = 1
	}
	errRate, lat, err := t.world.TrueMetrics(service, delay)
	if err != nil {
		return ops.MetricsObservation{}, err
	}
	return ops.MetricsObservation{
		Service:       service,
		WindowMinutes: windowMinutes,
		ErrorRate:     clip01(errRate + t.rng.NormFloat64()*errorNoiseSigma),
		LatencyMS:     max(0, lat+t.rng.NormFloat64()*latencyNoiseSigma),
	}, nil
}

func (t *Tools) TailLogs(ctx context.Context, service ops.ServiceName, n int) (ops.LogsObservation, error) {
	if err := t.precheck(ctx, ops.ToolTailLogs); err != nil {
		return ops.LogsObservation{}, err
	}
	lines, err := t.world.TailLogs(service, n)
	if err != nil {
		return ops.LogsObservation{}, err
	}
	if injected, ok := sim.MaybeInject(t.rng); ok {
		lines = append([]string{injected}, lines...)
	}
	return ops.LogsObservation{Service: service, Lines: lines}, nil
}

func (t *Tools) HealthCheck(ctx context.Context, service ops.ServiceName) (ops.HealthObservation, error) {
	if err := t.precheck(ctx, ops.ToolHealthCheck); err != nil {
		return ops.HealthObservation{}, err
	}
	status, details, err := t.world.Health(service)
	if err != nil {
		return ops.HealthObservation{}, err
	}
	return ops.HealthObservation{Service: service, Status: status, Details: details}, nil
}

func (t *Tools) RunbookSearch(ctx context.Context, query string) (ops.RunbookObservation, error) {
	if err := t.precheck(ctx, ops.ToolRunbookSearch); err != nil {
		return ops.RunbookObservation{}, err
	}
	return ops.RunbookObservation{
		Query:    query,
		Snippets: sim.SearchRunbooks(t.world.Incident(), query, t.rng),
	}, nil
}

func (t *Tools) Restart(ctx context.Context, service ops.ServiceName, key string) (ops.ActionReceipt, error) {
	return t.applyOnce(ctx, ops.ToolRestart, service, key, func() (string, error) {
		return t.world.Restart(service)
	})
}

func (t *Tools) Rollback(ctx context.Context, service ops.ServiceName, version, key string) (ops.ActionReceipt, error) {
	return t.applyOnce(ctx, ops.ToolRollback, service, key, func() (string, error) {
		return t.world.Rollback(service, version)
	})
}

// applyOnce never applies the same key twice. A timeout is ambiguous: the
// effect may have landed before the error.
func (t *Tools) applyOnce(ctx context.Context, tool ops.ToolName, service ops.ServiceName, key string, apply func() (string, error)) (ops.ActionReceipt, error) {
	if _, ok := t.seen[key]; ok {
		return ops.ActionReceipt{
			Tool:           tool,
			Service:        service,
			IdempotencyKey: key,
			Applied:        false,
			Message:        "idempotent replay: action already applied",
		}, nil
	}

	if err := t.precheck(ctx, tool); err != nil {
		if errors.Is(err, ops.ErrToolTimeout) && t.rng.Float64() < timeoutApplyRate {
			if _, applyErr := apply(); applyErr == nil {
				t.record(key, service)
			}
		}
		return ops.ActionReceipt{}, err
	}

	msg, err := apply()
	if err != nil {
		return ops.ActionReceipt{}, err
	}
	t.record(key, service)
	return ops.ActionReceipt{
		Tool:           tool,
		Service:        service,
		IdempotencyKey: key,
		Applied:        true,
		Message:        msg,
	}, nil
}

func (t *Tools) record(key string, service ops.ServiceName) {
	t.seen[key] = struct{}{}
	t.applied[service]++
}

func (t *Tools) precheck(ctx context.Context, tool ops.ToolName) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.faults.Err(tool)
}

func clip01(v float64) float64 {
	return min(1, max(0, v))
}
