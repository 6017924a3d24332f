// Package reliability wraps the tool boundary: reads pass straight through,
// side effects are retried with a stable idempotency key.
package reliability

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"simopsbot/internal/app/ports"
	"simopsbot/internal/domain/ops"
)

const DefaultMaxAttempts = 3

var ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

var idempotencyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("simopsbot/idempotency"))

type AttemptOutcome string

const (
	AttemptSuccess AttemptOutcome = "success"
	AttemptError   AttemptOutcome = "error"
)

type Attempt struct {
	AttemptNo    int
	Outcome      AttemptOutcome
	ErrorType    string
	ErrorMessage string
}

func (a Attempt) ToJSON() map[string]any {
	out := map[string]any{"attempt_no": a.AttemptNo, "outcome": string(a.Outcome)}
	if a.ErrorType != "" {
		out["error_type"] = a.ErrorType
	}
	if a.ErrorMessage != "" {
		out["error_message"] = a.ErrorMessage
	}
	return out
}

// SideEffectResult holds a receipt on success, otherwise the last error.
// ToolCalls always equals len(Attempts).
type SideEffectResult struct {
	Receipt   *ops.ActionReceipt
	Attempts  []Attempt
	ToolCalls int
	LastErr   error
}

func (r SideEffectResult) AttemptsJSON() []any {
	out := make([]any, 0, len(r.Attempts))
	for _, a := range r.Attempts {
		out = append(out, a.ToJSON())
	}
	return out
}

// MakeIdempotencyKey derives the same key for the same logical intent, so a
// re-run of an identical step cannot double-apply.
func MakeIdempotencyKey(runID string, stepID int, tool ops.ToolName, service ops.ServiceName) string {
	name := fmt.Sprintf("%s:%d:%s:%s", runID, stepID, tool, service)
	return uuid.NewSHA1(idempotencyNamespace, []byte(name)).String()
}

type Backoff struct {
	BaseDelay time.Duration
	Jitter    bool
}

type Tools struct {
	raw         ports.ToolBoundary
	maxAttempts int
	backoff     Backoff
}

func NewTools(raw ports.ToolBoundary, maxAttempts int, backoff Backoff) (*Tools, error) {
	if maxAttempts <= 0 {
		return nil, ErrInvalidMaxAttempts
	}
	return &Tools{raw: raw, maxAttempts: maxAttempts, backoff: backoff}, nil
}

func (t *Tools) MaxAttempts() int { return t.maxAttempts }

func (t *Tools) GetMetrics(ctx context.Context, service ops.ServiceName, windowMinutes int) (ops.MetricsObservation, error) {
	return t.raw.GetMetrics(ctx, service, windowMinutes)
}

func (t *Tools) TailLogs(ctx context.Context, service ops.ServiceName, n int) (ops.LogsObservation, error) {
	return t.raw.TailLogs(ctx, service, n)
}

func (t *Tools) HealthCheck(ctx context.Context, service ops.ServiceName) (ops.HealthObservation, error) {
	return t.raw.HealthCheck(ctx, service)
}

func (t *Tools) RunbookSearch(ctx context.Context, query string) (ops.RunbookObservation, error) {
	return t.raw.RunbookSearch(ctx, query)
}

func (t *Tools) Restart(ctx context.Context, service ops.ServiceName, key string) SideEffectResult {
	return t.retry(ctx, func() (ops.ActionReceipt, error) {
		return t.raw.Restart(ctx, service, key)
	})
}

func (t *Tools) Rollback(ctx context.Context, service ops.ServiceName, version, key string) SideEffectResult {
	return t.retry(ctx, func() (ops.ActionReceipt, error) {
		return t.raw.Rollback(ctx, service, version, key)
	})
}

func (t *Tools) retry(ctx context.Context, call func() (ops.ActionReceipt, error)) SideEffectResult {
	var res SideEffectResult
	delay := t.backoff.BaseDelay
	for i := 1; i <= t.maxAttempts; i++ {
		res.ToolCalls++
		receipt, err := call()
		if err == nil {
			res.Attempts = append(res.Attempts, Attempt{AttemptNo: i, Outcome: AttemptSuccess})
			res.Receipt = &receipt
			res.LastErr = nil
			return res
		}
		res.Attempts = append(res.Attempts, Attempt{
			AttemptNo:    i,
			Outcome:      AttemptError,
			ErrorType:    errorType(err),
			ErrorMessage: err.Error(),
		})
		res.LastErr = err
		if !ops.IsRetryable(err) || i == t.maxAttempts {
			break
		}
		if err := wait(ctx, delay, t.backoff.Jitter); err != nil {
			res.LastErr = err
			break
		}
		delay *= 2
	}
	return res
}

func wait(ctx context.Context, delay time.Duration, jitter bool) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if jitter {
		delay += time.Duration(rand.Int64N(int64(delay))) //nolint:gosec // wall-clock jitter only
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func errorType(err error) string {
	var te *ops.ToolError
	if errors.As(err, &te) {
		return te.TypeName()
	}
	return "Error"
}
