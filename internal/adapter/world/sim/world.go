// Package sim is a deterministic two-service toy production environment:
// an api that depends on a db, with one active incident.
package sim

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"simopsbot/internal/domain/ops"
	"simopsbot/internal/domain/seed"
)

var ErrUnknownService = errors.New("unknown service")

type Config struct {
	Seed     int64
	Incident ops.IncidentType
}

type serviceState struct {
	version string
	running bool
}

type sample struct {
	errorRate float64
	latencyMS float64
}

// World holds the ground truth. Tools read it with noise and delay; nothing
// else should.
type World struct {
	incident ops.IncidentType
	rng      *rand.Rand
	t        int
	resolved bool
	services map[ops.ServiceName]*serviceState
	history  []map[ops.ServiceName]sample
}

func NewWorld(cfg Config) *World {
	apiVersion := ops.VersionV1
	if cfg.Incident == ops.IncidentBadDeploy {
		apiVersion = ops.VersionV2
	}
	w := &World{
		incident: cfg.Incident,
		rng:      seed.Derive(cfg.Seed, seed.SaltWorld),
		services: map[ops.ServiceName]*serviceState{
			ops.ServiceAPI: {version: apiVersion, running: true},
			ops.ServiceDB:  {version: ops.VersionV1, running: true},
		},
	}
	w.snapshot()
	return w
}

func (w *World) Incident() ops.IncidentType { return w.incident }
func (w *World) Resolved() bool             { return w.resolved }
func (w *World) TimeIndex() int             { return w.t }

// Version reports the deployed version of a service.
func (w *World) Version(service ops.ServiceName) (string, error) {
	s, err := w.service(service)
	if err != nil {
		return "", err
	}
	return s.version, nil
}

func (w *World) Tick() {
	w.t++
	w.snapshot()
}

// TrueMetrics returns noise-free metrics as they were delaySteps ticks ago.
func (w *World) TrueMetrics(service ops.ServiceName, delaySteps int) (errorRate, latencyMS float64, err error) {
	if _, err := w.service(service); err != nil {
		return 0, 0, err
	}
	idx := w.t - max(0, delaySteps)
	if idx < 0 {
		idx = 0
	}
	s := w.history[idx][service]
	return s.errorRate, s.latencyMS, nil
}

func (w *World) Health(service ops.ServiceName) (ops.HealthStatus, map[string]string, error) {
	st, err := w.service(service)
	if err != nil {
		return "", nil, err
	}
	errRate, lat, _ := w.TrueMetrics(service, 0)
	switch {
	case !st.running:
		return ops.HealthDown, map[string]string{"reason": "process_not_running"}, nil
	case errRate > 0.60:
		return ops.HealthDown, map[string]string{"reason": "error_rate_critical"}, nil
	case errRate > 0.20 || lat > 400:
		return ops.HealthDegraded, map[string]string{"reason": "unhealthy_metrics"}, nil
	default:
		return ops.HealthOK, map[string]string{"reason": "healthy"}, nil
	}
}

func (w *World) TailLogs(service ops.ServiceName, n int) ([]string, error) {
	if _, err := w.service(service); err != nil {
		return nil, err
	}
	templates := w.logTemplates(service)
	lines := make([]string, 0, max(0, n))
	for range max(0, n) {
		lines = append(lines, templates[w.rng.IntN(len(templates))])
	}
	return lines, nil
}

// Restart brings a service up and ticks time. It fixes db saturation when
// aimed at the db and flaky networking when aimed at the api.
func (w *World) Restart(service ops.ServiceName) (string, error) {
	st, err := w.service(service)
	if err != nil {
		return "", err
	}
	st.running = true
	msg := fmt.Sprintf("restarted %s", service)
	if !w.resolved {
		switch {
		case w.incident == ops.IncidentDBSaturation && service == ops.ServiceDB:
			w.resolved = true
			msg = "restarted db (cleared saturation)"
		case w.incident == ops.IncidentNetworkFlaky && service == ops.ServiceAPI:
			w.resolved = true
			msg = "restarted api (reset connections)"
		}
	}
	w.Tick()
	return msg, nil
}

// Rollback pins a service to version and ticks time. Rolling the api back to
// v1 reverts a bad deploy.
func (w *World) Rollback(service ops.ServiceName, version string) (string, error) {
	st, err := w.service(service)
	if err != nil {
		return "", err
	}
	st.version = version
	msg := fmt.Sprintf("rolled back %s to %s", service, version)
	if !w.resolved && w.incident == ops.IncidentBadDeploy && service == ops.ServiceAPI && version == ops.VersionV1 {
		w.resolved = true
		msg = "rolled back api to v1 (bad deploy reverted)"
	}
	w.Tick()
	return msg, nil
}

func (w *World) service(name ops.ServiceName) (*serviceState, error) {
	st, ok := w.services[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, name)
	}
	return st, nil
}

func (w *World) snapshot() {
	w.history = append(w.history, map[ops.ServiceName]sample{
		ops.ServiceAPI: w.apiMetrics(),
		ops.ServiceDB:  w.dbMetrics(),
	})
}

func (w *World) apiMetrics() sample {
	baseline := sample{errorRate: 0.01, latencyMS: 120}
	if w.resolved {
		return baseline
	}
	switch w.incident {
	case ops.IncidentBadDeploy:
		if w.services[ops.ServiceAPI].version == ops.VersionV2 {
			return sample{errorRate: 0.35, latencyMS: 220}
		}
	case ops.IncidentDBSaturation:
		return sample{errorRate: 0.05, latencyMS: 420}
	case ops.IncidentNetworkFlaky:
		return sample{errorRate: 0.12, latencyMS: 320}
	}
	return baseline
}

func (w *World) dbMetrics() sample {
	if !w.resolved && w.incident == ops.IncidentDBSaturation {
		return sample{errorRate: 0.01, latencyMS: 520}
	}
	return sample{errorRate: 0.005, latencyMS: 60}
}

func (w *World) logTemplates(service ops.ServiceName) []string {
	active := !w.resolved
	if service == ops.ServiceAPI {
		switch {
		case active && w.incident == ops.IncidentBadDeploy:
			return []string{
				"ERROR 5xx spike detected after deploy v2",
				"stacktrace: NullPointerException in handler /checkout",
				"INFO request_id=abc123 latency_ms=480",
				"WARN retry exhausted talking to db",
			}
		case active && w.incident == ops.IncidentDBSaturation:
			return []string{
				"WARN upstream db latency high; request slow",
				"INFO request_id=def456 latency_ms=610",
				"ERROR timeout when calling db",
				"INFO circuit_breaker=open",
			}
		case active && w.incident == ops.IncidentNetworkFlaky:
			return []string{
				"ERROR timeout when calling db (network)",
				"WARN socket hang up; retrying",
				"INFO request_id=ghi789 latency_ms=350",
				"WARN retry budget exceeded",
			}
		}
		return []string{
			"INFO api serving traffic normally",
			"INFO request_id=ok123 latency_ms=110",
			"INFO healthcheck passed",
		}
	}
	if active && w.incident == ops.IncidentDBSaturation {
		return []string{
			"WARN queue depth high; saturation suspected",
			"INFO slow query detected latency_ms=900",
			"WARN connection pool exhausted",
			"INFO vacuum started",
		}
	}
	return []string{
		"INFO db healthy",
		"INFO checkpoint complete",
		"INFO connections=42",
	}
}
