// Package standin is an offline, seeded substitute for a language model. It
// proposes structured actions, sometimes malformed and sometimes forbidden.
package standin

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"strings"

	"simopsbot/internal/app/ports"
	"simopsbot/internal/domain/ops"
	"simopsbot/internal/domain/seed"
)

const (
	invalidRate   = 0.15
	forbiddenRate = 0.10

	InvalidOutput = "I think you should restart everything. Trust me."
)

type Model struct {
	rng *rand.Rand
}

func New(base int64) *Model {
	return &Model{rng: seed.Derive(base, seed.SaltModelStandIn)}
}

func (m *Model) Propose(ctx context.Context, pc ports.ProposalContext) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.rng.Float64() < invalidRate {
		return InvalidOutput, nil
	}
	return encode(m.choose(pc.Observations))
}

func (m *Model) choose(observations []map[string]any) ops.Action {
	apiErr, haveAPIErr := lastMetric(observations, ops.ServiceAPI, "error_rate")
	dbLat, haveDBLat := lastMetric(observations, ops.ServiceDB, "latency_ms")

	switch {
	case !haveAPIErr && !haveDBLat:
		return ops.ObserveMetrics{Service: ops.ServiceAPI, WindowMinutes: 5}
	case haveAPIErr && apiErr > 0.25:
		return ops.Rollback{Service: ops.ServiceAPI, Version: ops.VersionV1}
	case haveDBLat && dbLat > 300:
		if m.rng.Float64() < forbiddenRate {
			return ops.Rollback{Service: ops.ServiceDB, Version: ops.VersionV2}
		}
		return ops.Restart{Service: ops.ServiceDB}
	case timeoutLogs(observations, ops.ServiceAPI):
		return ops.Restart{Service: ops.ServiceAPI}
	default:
		return ops.ObserveLogs{Service: ops.ServiceAPI, N: 8}
	}
}

func encode(a ops.Action) (string, error) {
	b, err := json.Marshal(a.ToJSON())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func lastMetric(observations []map[string]any, service ops.ServiceName, field string) (float64, bool) {
	for i := len(observations) - 1; i >= 0; i-- {
		obs := observations[i]
		if obs["tool"] != string(ops.ToolGetMetrics) || obs["service"] != string(service) {
			continue
		}
		if v, ok := ops.Number(obs[field]); ok {
			return v, true
		}
	}
	return 0, false
}

func timeoutLogs(observations []map[string]any, service ops.ServiceName) bool {
	for i := len(observations) - 1; i >= 0; i-- {
		obs := observations[i]
		if obs["tool"] != string(ops.ToolTailLogs) || obs["service"] != string(service) {
			continue
		}
		lines, _ := ops.Strings(obs["lines"])
		for _, l := range lines {
			if strings.Contains(strings.ToLower(l), "timeout") {
				return true
			}
		}
	}
	return false
}

type Factory struct{}

func (Factory) NewProposer(base int64) ports.Proposer {
	return New(base)
}
