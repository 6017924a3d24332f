package simtools

import (
	"context"

	"simopsbot/internal/adapter/world/sim"
	"simopsbot/internal/app/ports"
	"simopsbot/internal/domain/fault"
	"simopsbot/internal/domain/ops"
)

// Environment is a seeded scenario behind its tool boundary.
type Environment struct {
	*Tools
	Scenario sim.Scenario
}

func (e Environment) Incident() ops.IncidentType {
	return e.Scenario.Incident
}

// Factory opens simulated environments with a fixed fault profile.
type Factory struct {
	Faults fault.Profile
}

func (f Factory) Open(ctx context.Context, base int64, incident ops.IncidentType) (ports.Environment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sc, err := sim.NewScenario(base, incident)
	if err != nil {
		return nil, err
	}
	schedule, err := fault.NewSchedule(base, f.Faults)
	if err != nil {
		return nil, err
	}
	return Environment{Tools: New(sc.World, schedule, base), Scenario: sc}, nil
}
