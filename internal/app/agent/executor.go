package agent

import (
	"context"
	"fmt"

	"simopsbot/internal/app/reliability"
	"simopsbot/internal/domain/journal"
	"simopsbot/internal/domain/ops"
)

type ActionSpec struct {
	Kind       ops.ActionKind
	SideEffect bool
	Handler    ActionHandler
}

// ActionHandler executes one action kind. A non-nil terminal ends the run.
type ActionHandler interface {
	Execute(ctx context.Context, r *run, a ops.Action) (*terminal, error)
}

func actionRegistry() map[ops.ActionKind]ActionSpec {
	return map[ops.ActionKind]ActionSpec{
		ops.KindObserveMetrics: {Kind: ops.KindObserveMetrics, Handler: observeMetricsHandler{}},
		ops.KindObserveLogs:    {Kind: ops.KindObserveLogs, Handler: observeLogsHandler{}},
		ops.KindObserveHealth:  {Kind: ops.KindObserveHealth, Handler: observeHealthHandler{}},
		ops.KindRunbookSearch:  {Kind: ops.KindRunbookSearch, Handler: runbookSearchHandler{}},
		ops.KindRestart:        {Kind: ops.KindRestart, SideEffect: true, Handler: restartHandler{}},
		ops.KindRollback:       {Kind: ops.KindRollback, SideEffect: true, Handler: rollbackHandler{}},
		ops.KindAskUser:        {Kind: ops.KindAskUser, Handler: askUserHandler{}},
		ops.KindFinal:          {Kind: ops.KindFinal, Handler: finalHandler{}},
	}
}

func (r *run) execute(ctx context.Context, a ops.Action) (*terminal, error) {
	spec, ok := r.specs[a.Kind()]
	if !ok {
		panic(fmt.Errorf("%w: %s", ErrUnhandledAction, a.Kind()))
	}
	return spec.Handler.Execute(ctx, r, a)
}

type observeMetricsHandler struct{}

func (observeMetricsHandler) Execute(ctx context.Context, r *run, a ops.Action) (*terminal, error) {
	act := a.(ops.ObserveMetrics)
	return nil, r.observe(ctx, ops.ToolGetMetrics, func() (ops.Observation, error) {
		return r.tools.GetMetrics(ctx, act.Service, act.WindowMinutes)
	})
}

type observeLogsHandler struct{}

func (observeLogsHandler) Execute(ctx context.Context, r *run, a ops.Action) (*terminal, error) {
	act := a.(ops.ObserveLogs)
	return nil, r.observe(ctx, ops.ToolTailLogs, func() (ops.Observation, error) {
		return r.tools.TailLogs(ctx, act.Service, act.N)
	})
}

type observeHealthHandler struct{}

func (observeHealthHandler) Execute(ctx context.Context, r *run, a ops.Action) (*terminal, error) {
	act := a.(ops.ObserveHealth)
	return nil, r.observe(ctx, ops.ToolHealthCheck, func() (ops.Observation, error) {
		return r.tools.HealthCheck(ctx, act.Service)
	})
}

type runbookSearchHandler struct{}

func (runbookSearchHandler) Execute(ctx context.Context, r *run, a ops.Action) (*terminal, error) {
	act := a.(ops.RunbookSearch)
	return nil, r.observe(ctx, ops.ToolRunbookSearch, func() (ops.Observation, error) {
		return r.tools.RunbookSearch(ctx, act.Query)
	})
}

type restartHandler struct{}

func (restartHandler) Execute(ctx context.Context, r *run, a ops.Action) (*terminal, error) {
	act := a.(ops.Restart)
	return nil, r.sideEffect(ctx, a, ops.ToolRestart, act.Service, func(key string) reliability.SideEffectResult {
		return r.tools.Restart(ctx, act.Service, key)
	})
}

type rollbackHandler struct{}

func (rollbackHandler) Execute(ctx context.Context, r *run, a ops.Action) (*terminal, error) {
	act := a.(ops.Rollback)
	return nil, r.sideEffect(ctx, a, ops.ToolRollback, act.Service, func(key string) reliability.SideEffectResult {
		return r.tools.Rollback(ctx, act.Service, act.Version, key)
	})
}

type askUserHandler struct{}

func (askUserHandler) Execute(ctx context.Context, r *run, a ops.Action) (*terminal, error) {
	act := a.(ops.AskUser)
	if _, err := r.log(ctx, journal.KindAction, map[string]any{"action": a.ToJSON()}); err != nil {
		return nil, err
	}
	return &terminal{status: StatusAbstained, summary: act.Question}, nil
}

type finalHandler struct{}

func (finalHandler) Execute(ctx context.Context, r *run, a ops.Action) (*terminal, error) {
	act := a.(ops.Final)
	if _, err := r.log(ctx, journal.KindFinal, a.ToJSON()); err != nil {
		return nil, err
	}
	return &terminal{status: StatusAbstained, summary: act.Summary}, nil
}

// observe runs one read tool call. Tool errors are journaled and the run
// continues; only cancellation aborts.
func (r *run) observe(ctx context.Context, tool ops.ToolName, call func() (ops.Observation, error)) error {
	r.state.BumpToolCalls(1)
	obs, err := call()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		r.metrics.RecordToolError(string(tool))
		r.logger.Warn("tool call failed", "step", r.state.stepID, "tool", string(tool), "err", err)
		_, logErr := r.log(ctx, journal.KindError, map[string]any{"tool": string(tool), "error": err.Error()})
		return logErr
	}
	payload := obs.ToJSON()
	id, err := r.log(ctx, journal.KindObservation, map[string]any{"observation": payload})
	if err != nil {
		return err
	}
	r.state.RecordObservation(payload, id)
	return nil
}

func (r *run) sideEffect(ctx context.Context, a ops.Action, tool ops.ToolName, service ops.ServiceName, call func(key string) reliability.SideEffectResult) error {
	r.state.BumpSideEffects()
	key := reliability.MakeIdempotencyKey(r.state.runID, r.state.stepID, tool, service)
	res := call(key)
	r.state.BumpToolCalls(res.ToolCalls)
	if res.LastErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		r.metrics.RecordToolError(string(tool))
		r.logger.Warn("side effect failed", "step", r.state.stepID, "tool", string(tool),
			"attempts", len(res.Attempts), "err", res.LastErr)
	}

	payload := map[string]any{
		"action":          a.ToJSON(),
		"idempotency_key": key,
		"attempts":        res.AttemptsJSON(),
	}
	if res.Receipt != nil {
		payload["receipt"] = res.Receipt.ToJSON()
	}
	if res.LastErr != nil {
		payload["error"] = res.LastErr.Error()
	}
	_, err := r.log(ctx, journal.KindAction, payload)
	return err
}
