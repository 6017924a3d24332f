// Package verify certifies recovery after a side effect from fresh,
// independently sampled evidence.
package verify

import (
	"context"

	"simopsbot/internal/app/ports"
	"simopsbot/internal/domain/journal"
	"simopsbot/internal/domain/ops"
)

const (
	ReasonRecovered       = "recovered"
	ReasonHealthToolError = "verification tool error (health)"
	ReasonMetricToolError = "verification tool error (metrics)"
	ReasonHealthNotOK     = "health not ok"
	ReasonMissingFields   = "missing metric fields"
	ReasonAPIErrorHigh    = "api error rate still high"
	ReasonAPILatencyHigh  = "api latency still high"
	ReasonDBLatencyHigh   = "db latency still high"
)

const samplesPerService = 2

type Reader interface {
	GetMetrics(ctx context.Context, service ops.ServiceName, windowMinutes int) (ops.MetricsObservation, error)
	HealthCheck(ctx context.Context, service ops.ServiceName) (ops.HealthObservation, error)
}

type Journal interface {
	Log(ctx context.Context, stepID int, kind journal.Kind, payload map[string]any) (string, error)
}

// Recorder is the narrow mutation surface the verifier gets on run state.
type Recorder interface {
	StepID() int
	BumpToolCalls(n int)
	RecordObservation(obs map[string]any, evidenceID string)
}

type Result struct {
	Recovered   bool
	Reason      string
	EvidenceIDs []string
}

func (r Result) ToJSON() map[string]any {
	ids := r.EvidenceIDs
	if ids == nil {
		ids = []string{}
	}
	return map[string]any{"recovered": r.Recovered, "reason": r.Reason, "evidence_ids": ids}
}

// Inconclusive reports whether the verdict came from missing samples rather
// than from a measured failure.
func (r Result) Inconclusive() bool {
	return r.Reason == ReasonHealthToolError || r.Reason == ReasonMetricToolError
}

type Verifier struct {
	Tools      Reader
	Journal    Journal
	Thresholds ops.VerifyThresholds
	Metrics    ports.RunMetrics
}

// VerifyRecovery samples health once per service and metrics twice per
// service, in that order. A failed sample is journaled and treated as absent.
// The only error returned is a journal failure.
func (v *Verifier) VerifyRecovery(ctx context.Context, state Recorder) (Result, error) {
	var res Result
	sample := func(tool ops.ToolName, call func() (ops.Observation, error)) (map[string]any, error) {
		state.BumpToolCalls(1)
		obs, err := call()
		if err != nil {
			if v.Metrics != nil {
				v.Metrics.RecordToolError(string(tool))
			}
			_, logErr := v.Journal.Log(ctx, state.StepID(), journal.KindError, map[string]any{
				"tool":  string(tool),
				"error": err.Error(),
			})
			return nil, logErr
		}
		payload := obs.ToJSON()
		id, err := v.Journal.Log(ctx, state.StepID(), journal.KindVerify, map[string]any{"observation": payload})
		if err != nil {
			return nil, err
		}
		state.RecordObservation(payload, id)
		res.EvidenceIDs = append(res.EvidenceIDs, id)
		return payload, nil
	}
	health := func(s ops.ServiceName) (map[string]any, error) {
		return sample(ops.ToolHealthCheck, func() (ops.Observation, error) {
			return v.Tools.HealthCheck(ctx, s)
		})
	}
	metrics := func(s ops.ServiceName) ([]map[string]any, error) {
		var out []map[string]any
		for range samplesPerService {
			m, err := sample(ops.ToolGetMetrics, func() (ops.Observation, error) {
				return v.Tools.GetMetrics(ctx, s, 5)
			})
			if err != nil {
				return nil, err
			}
			if m != nil {
				out = append(out, m)
			}
		}
		return out, nil
	}

	apiHealth, err := health(ops.ServiceAPI)
	if err != nil {
		return Result{}, err
	}
	dbHealth, err := health(ops.ServiceDB)
	if err != nil {
		return Result{}, err
	}
	apiSamples, err := metrics(ops.ServiceAPI)
	if err != nil {
		return Result{}, err
	}
	dbSamples, err := metrics(ops.ServiceDB)
	if err != nil {
		return Result{}, err
	}

	res.Reason = v.judge(apiHealth, dbHealth, apiSamples, dbSamples)
	res.Recovered = res.Reason == ReasonRecovered
	return res, nil
}

func (v *Verifier) judge(apiHealth, dbHealth map[string]any, apiSamples, dbSamples []map[string]any) string {
	if apiHealth == nil || dbHealth == nil {
		return ReasonHealthToolError
	}
	apiMetrics := best(apiSamples, "error_rate", 1.0)
	dbMetrics := best(dbSamples, "latency_ms", 1e9)
	if apiMetrics == nil || dbMetrics == nil {
		return ReasonMetricToolError
	}
	if apiHealth["status"] != string(ops.HealthOK) || dbHealth["status"] != string(ops.HealthOK) {
		return ReasonHealthNotOK
	}
	apiErr, ok1 := ops.Number(apiMetrics["error_rate"])
	apiLat, ok2 := ops.Number(apiMetrics["latency_ms"])
	dbLat, ok3 := ops.Number(dbMetrics["latency_ms"])
	if !ok1 || !ok2 || !ok3 {
		return ReasonMissingFields
	}
	th := v.Thresholds
	if th == (ops.VerifyThresholds{}) {
		th = ops.DefaultVerifyThresholds()
	}
	switch {
	case apiErr >= th.MaxAPIErrorRate:
		return ReasonAPIErrorHigh
	case apiLat >= th.MaxAPILatencyMS:
		return ReasonAPILatencyHigh
	case dbLat >= th.MaxDBLatencyMS:
		return ReasonDBLatencyHigh
	}
	return ReasonRecovered
}

// best returns the sample with the lowest value for field. Non-numeric values
// rank as fallback. Ties keep the earliest sample.
func best(samples []map[string]any, field string, fallback float64) map[string]any {
	var (
		out   map[string]any
		score float64
	)
	for _, s := range samples {
		v, ok := ops.Number(s[field])
		if !ok {
			v = fallback
		}
		if out == nil || v < score {
			out, score = s, v
		}
	}
	return out
}
