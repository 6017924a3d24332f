package ops

import "math"

// Observation is a flat record returned by a read tool.
type Observation interface {
	ToJSON() map[string]any
}

type MetricsObservation struct {
	Service       ServiceName
	WindowMinutes int
	ErrorRate     float64
	LatencyMS     float64
}

func (o MetricsObservation) ToJSON() map[string]any {
	return map[string]any{
		"tool":           string(ToolGetMetrics),
		"service":        string(o.Service),
		"window_minutes": o.WindowMinutes,
		"error_rate":     round(o.ErrorRate, 6),
		"latency_ms":     round(o.LatencyMS, 3),
	}
}

type LogsObservation struct {
	Service ServiceName
	Lines   []string
}

func (o LogsObservation) ToJSON() map[string]any {
	return map[string]any{
		"tool":    string(ToolTailLogs),
		"service": string(o.Service),
		"lines":   nonNil(o.Lines),
	}
}

type HealthObservation struct {
	Service ServiceName
	Status  HealthStatus
	Details map[string]string
}

func (o HealthObservation) ToJSON() map[string]any {
	details := make(map[string]any, len(o.Details))
	for k, v := range o.Details {
		details[k] = v
	}
	return map[string]any{
		"tool":    string(ToolHealthCheck),
		"service": string(o.Service),
		"status":  string(o.Status),
		"details": details,
	}
}

type RunbookObservation struct {
	Query    string
	Snippets []string
}

func (o RunbookObservation) ToJSON() map[string]any {
	return map[string]any{
		"tool":     string(ToolRunbookSearch),
		"query":    o.Query,
		"snippets": nonNil(o.Snippets),
	}
}

// ActionReceipt is what the effect layer returns for a side effect. Applied is
// false when the idempotency key was already seen.
type ActionReceipt struct {
	Tool           ToolName
	Service        ServiceName
	IdempotencyKey string
	Applied        bool
	Message        string
}

func (r ActionReceipt) ToJSON() map[string]any {
	return map[string]any{
		"tool":            string(r.Tool),
		"service":         string(r.Service),
		"idempotency_key": r.IdempotencyKey,
		"applied":         r.Applied,
		"message":         r.Message,
	}
}

// Number reads a numeric field. Strings are never coerced.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Strings reads a list-of-strings field as produced in memory or decoded from JSON.
func Strings(v any) ([]string, bool) {
	switch l := v.(type) {
	case []string:
		return l, true
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			s, ok := item.(string)
			if !ok {
				continue
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
