package ops

// VerifyThresholds are strict upper bounds a recovered system must stay below.
type VerifyThresholds struct {
	MaxAPIErrorRate float64 `json:"max_api_error_rate" yaml:"max_api_error_rate" validate:"gt=0,lte=1"`
	MaxAPILatencyMS float64 `json:"max_api_latency_ms" yaml:"max_api_latency_ms" validate:"gt=0"`
	MaxDBLatencyMS  float64 `json:"max_db_latency_ms" yaml:"max_db_latency_ms" validate:"gt=0"`
}

func DefaultVerifyThresholds() VerifyThresholds {
	return VerifyThresholds{MaxAPIErrorRate: 0.05, MaxAPILatencyMS: 200, MaxDBLatencyMS: 140}
}
