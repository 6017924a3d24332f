// Package eval runs a profile across many seeds and gates the aggregate.
package eval

import (
	"errors"
	"fmt"
	"strings"

	"simopsbot/internal/app/agent"
	"simopsbot/internal/app/replay"
	"simopsbot/internal/domain/journal"
)

var ErrNoResults = errors.New("no results")

// Outcome is one finished run with its journal.
type Outcome struct {
	Result agent.Result
	Events []journal.Event
}

type Metrics struct {
	TotalRuns              int      `json:"total_runs"`
	RecoveryRate           float64  `json:"recovery_success_rate"`
	MeanSteps              float64  `json:"mean_steps"`
	VerificationRate       *float64 `json:"verification_success_rate"`
	EvidenceComplianceRate float64  `json:"evidence_compliance_rate"`
	UnsafeActionRate       float64  `json:"unsafe_action_attempt_rate"`
}

func (m Metrics) ToJSON() map[string]any {
	var verification any
	if m.VerificationRate != nil {
		verification = *m.VerificationRate
	}
	return map[string]any{
		"total_runs":                 m.TotalRuns,
		"recovery_success_rate":      m.RecoveryRate,
		"mean_steps":                 m.MeanSteps,
		"verification_success_rate":  verification,
		"evidence_compliance_rate":   m.EvidenceComplianceRate,
		"unsafe_action_attempt_rate": m.UnsafeActionRate,
	}
}

func (m Metrics) Markdown() string {
	var b strings.Builder
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|---|---:|\n")
	fmt.Fprintf(&b, "| Total runs | %d |\n", m.TotalRuns)
	fmt.Fprintf(&b, "| Recovery success rate | %.3f |\n", m.RecoveryRate)
	fmt.Fprintf(&b, "| Mean steps | %.3f |\n", m.MeanSteps)
	if m.VerificationRate == nil {
		b.WriteString("| Verification success rate | n/a |\n")
	} else {
		fmt.Fprintf(&b, "| Verification success rate | %.3f |\n", *m.VerificationRate)
	}
	fmt.Fprintf(&b, "| Evidence compliance rate | %.3f |\n", m.EvidenceComplianceRate)
	fmt.Fprintf(&b, "| Unsafe action attempt rate | %.3f |", m.UnsafeActionRate)
	return b.String()
}

// ComputeMetrics aggregates outcomes. Verification success is measured only
// over resolved runs of profiles that carry a verifier, and is nil when there
// are none.
func ComputeMetrics(outcomes []Outcome) (Metrics, error) {
	if len(outcomes) == 0 {
		return Metrics{}, ErrNoResults
	}
	var (
		resolved, steps, compliant, unsafe int
		verified, verifiable               int
	)
	for _, o := range outcomes {
		s := replay.Summarize(o.Events)
		steps += o.Result.Steps
		if s.EvidenceCompliant {
			compliant++
		}
		if s.UnsafeExecuted {
			unsafe++
		}
		if o.Result.Status != agent.StatusResolved {
			continue
		}
		resolved++
		if o.Result.Profile.Verifies() {
			verifiable++
			if len(s.Verdicts) > 0 {
				verified++
			}
		}
	}

	total := float64(len(outcomes))
	m := Metrics{
		TotalRuns:              len(outcomes),
		RecoveryRate:           float64(resolved) / total,
		MeanSteps:              float64(steps) / total,
		EvidenceComplianceRate: float64(compliant) / total,
		UnsafeActionRate:       float64(unsafe) / total,
	}
	if verifiable > 0 {
		rate := float64(verified) / float64(verifiable)
		m.VerificationRate = &rate
	}
	return m, nil
}
