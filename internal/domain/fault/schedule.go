// Package fault decides, deterministically, whether a tool call fails and how.
package fault

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"simopsbot/internal/domain/ops"
	"simopsbot/internal/domain/seed"
)

var ErrInvalidProfile = errors.New("invalid fault profile")

// Profile partitions [0,1) into timeout, transient and permanent bands; the
// remainder means no fault.
type Profile struct {
	TimeoutRate   float64 `json:"timeout_rate" yaml:"timeout_rate" validate:"gte=0,lte=1"`
	TransientRate float64 `json:"transient_rate" yaml:"transient_rate" validate:"gte=0,lte=1"`
	PermanentRate float64 `json:"permanent_rate" yaml:"permanent_rate" validate:"gte=0,lte=1"`
}

func DefaultProfile() Profile {
	return Profile{TimeoutRate: 0.08, TransientRate: 0.06, PermanentRate: 0.01}
}

// NoFaults never fails a call.
func NoFaults() Profile {
	return Profile{}
}

func (p Profile) Validate() error {
	for name, r := range map[string]float64{
		"timeout_rate":   p.TimeoutRate,
		"transient_rate": p.TransientRate,
		"permanent_rate": p.PermanentRate,
	} {
		if r < 0 || r > 1 {
			return fmt.Errorf("%w: %s must be in [0, 1]", ErrInvalidProfile, name)
		}
	}
	if p.TimeoutRate+p.TransientRate+p.PermanentRate > 1 {
		return fmt.Errorf("%w: fault rates must sum to <= 1", ErrInvalidProfile)
	}
	return nil
}

// Decision is the outcome of one scheduled call.
type Decision struct {
	Call int
	Tool ops.ToolName
	Kind ops.FaultKind
}

// Schedule draws exactly one uniform value per call, independent of call content.
type Schedule struct {
	profile Profile
	rng     *rand.Rand
	calls   int
}

func NewSchedule(base int64, profile Profile) (*Schedule, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &Schedule{profile: profile, rng: seed.Derive(base, seed.SaltFaultSchedule)}, nil
}

func (s *Schedule) Next(tool ops.ToolName) Decision {
	s.calls++
	return Decision{Call: s.calls, Tool: tool, Kind: s.classify(s.rng.Float64())}
}

// Err advances the schedule and returns the tool error for the drawn fault, or nil.
func (s *Schedule) Err(tool ops.ToolName) error {
	d := s.Next(tool)
	if d.Kind == ops.FaultNone {
		return nil
	}
	return ops.NewToolError(tool, d.Kind)
}

func (s *Schedule) Calls() int {
	return s.calls
}

func (s *Schedule) classify(roll float64) ops.FaultKind {
	if roll < s.profile.TimeoutRate {
		return ops.FaultTimeout
	}
	roll -= s.profile.TimeoutRate
	if roll < s.profile.TransientRate {
		return ops.FaultTransient
	}
	roll -= s.profile.TransientRate
	if roll < s.profile.PermanentRate {
		return ops.FaultPermanent
	}
	return ops.FaultNone
}

// Script replays a fixed fault sequence and then reports no faults. It
// satisfies the same contract as Schedule for tests and demos.
type Script struct {
	kinds []ops.FaultKind
	calls int
}

func NewScript(kinds ...ops.FaultKind) *Script {
	return &Script{kinds: kinds}
}

func (s *Script) Err(tool ops.ToolName) error {
	s.calls++
	if s.calls > len(s.kinds) {
		return nil
	}
	k := s.kinds[s.calls-1]
	if k == ops.FaultNone {
		return nil
	}
	return ops.NewToolError(tool, k)
}

func (s *Script) Calls() int {
	return s.calls
}
