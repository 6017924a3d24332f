package sim

import (
	"errors"

	"simopsbot/internal/domain/ops"
	"simopsbot/internal/domain/seed"
)

var ErrInvalidSeed = errors.New("seed must be non-negative")

type Scenario struct {
	Seed     int64
	Incident ops.IncidentType
	World    *World
}

// NewScenario picks the incident from the seed unless override is set.
func NewScenario(base int64, override ops.IncidentType) (Scenario, error) {
	if base < 0 {
		return Scenario{}, ErrInvalidSeed
	}
	incident := override
	if incident == "" {
		rng := seed.Derive(base, seed.SaltScenario)
		incident = ops.Incidents[rng.IntN(len(ops.Incidents))]
	}
	return Scenario{
		Seed:     base,
		Incident: incident,
		World:    NewWorld(Config{Seed: base, Incident: incident}),
	}, nil
}
