package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfidenceFor(t *testing.T) {
	assert.Equal(t, ConfidenceLow, ConfidenceFor(0))
	assert.Equal(t, ConfidenceLow, ConfidenceFor(1.49))
	assert.Equal(t, ConfidenceMedium, ConfidenceFor(1.5))
	assert.Equal(t, ConfidenceMedium, ConfidenceFor(2.49))
	assert.Equal(t, ConfidenceHigh, ConfidenceFor(2.5))
}

func TestHypotheses_InitialBestIsLowAndOrderedByName(t *testing.T) {
	h := NewHypotheses()
	top := h.Top(3)
	require.Len(t, top, 3)
	assert.Equal(t, IncidentBadDeploy, top[0].Cause)
	assert.Equal(t, IncidentDBSaturation, top[1].Cause)
	assert.Equal(t, IncidentNetworkFlaky, top[2].Cause)
	assert.Equal(t, ConfidenceLow, h.Best().Confidence)
}

func TestHypotheses_MetricsDriveBadDeploy(t *testing.T) {
	h := NewHypotheses()
	h.UpdateFromObservation(MetricsObservation{Service: ServiceAPI, WindowMinutes: 5, ErrorRate: 0.34, LatencyMS: 221}.ToJSON(), "e1")

	best := h.Best()
	assert.Equal(t, IncidentBadDeploy, best.Cause)
	assert.Equal(t, ConfidenceMedium, best.Confidence)
	assert.Equal(t, []string{"e1"}, best.EvidenceIDs)

	h.UpdateFromObservation(LogsObservation{Service: ServiceAPI, Lines: []string{"ERROR 5xx spike detected after deploy v2"}}.ToJSON(), "e2")
	best = h.Best()
	assert.Equal(t, ConfidenceHigh, best.Confidence)
	assert.Equal(t, []string{"e1", "e2"}, best.EvidenceIDs)
}

func TestHypotheses_DBLatencyAndCascade(t *testing.T) {
	h := NewHypotheses()
	h.UpdateFromObservation(MetricsObservation{Service: ServiceAPI, ErrorRate: 0.05, LatencyMS: 420}.ToJSON(), "a")
	h.UpdateFromObservation(MetricsObservation{Service: ServiceDB, ErrorRate: 0.01, LatencyMS: 520}.ToJSON(), "b")
	best := h.Best()
	assert.Equal(t, IncidentDBSaturation, best.Cause)
	assert.InDelta(t, 2.6, best.Score, 1e-9)
	assert.Equal(t, ConfidenceHigh, best.Confidence)
}

func TestHypotheses_RunbookAndFlaky(t *testing.T) {
	h := NewHypotheses()
	h.UpdateFromObservation(MetricsObservation{Service: ServiceAPI, ErrorRate: 0.12, LatencyMS: 320}.ToJSON(), "m")
	h.UpdateFromObservation(map[string]any{"tool": "runbook_search", "snippets": []any{"network timeouts in logs"}}, "r")
	best := h.Best()
	assert.Equal(t, IncidentNetworkFlaky, best.Cause)
	assert.InDelta(t, 1.4, best.Score, 1e-9)
}

func TestHypotheses_IgnoresHealthAndTextNumbers(t *testing.T) {
	h := NewHypotheses()
	h.UpdateFromObservation(HealthObservation{Service: ServiceAPI, Status: HealthDown}.ToJSON(), "h")
	h.UpdateFromObservation(map[string]any{"tool": "get_metrics", "service": "api", "error_rate": "0.9"}, "x")
	for _, hy := range h.Top(3) {
		assert.Zero(t, hy.Score)
		assert.Empty(t, hy.EvidenceIDs)
	}
}

func TestHypotheses_EvidenceListedOncePerCause(t *testing.T) {
	h := NewHypotheses()
	metrics := map[string]any{"tool": string(ToolGetMetrics), "service": string(ServiceAPI), "error_rate": 0.3}
	logs := map[string]any{"tool": string(ToolTailLogs), "lines": []string{"deploy v2 rolled out"}}

	h.UpdateFromObservation(metrics, "e1")
	h.UpdateFromObservation(logs, "e2")
	h.UpdateFromObservation(metrics, "e1")

	best := h.Best()
	assert.Equal(t, IncidentBadDeploy, best.Cause)
	assert.InDelta(t, 5.2, best.Score, 1e-9)
	assert.Equal(t, []string{"e1", "e2"}, best.EvidenceIDs)
}
