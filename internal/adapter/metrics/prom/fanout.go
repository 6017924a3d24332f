package prom

import "simopsbot/internal/app/ports"

// Fanout forwards every record to each non-nil recorder in order.
type Fanout []ports.RunMetrics

func (f Fanout) RecordRun(profile, status string, steps, toolCalls int) {
	for _, m := range f {
		if m != nil {
			m.RecordRun(profile, status, steps, toolCalls)
		}
	}
}

func (f Fanout) RecordPolicyBlock(reason string) {
	for _, m := range f {
		if m != nil {
			m.RecordPolicyBlock(reason)
		}
	}
}

func (f Fanout) RecordValidationFailure() {
	for _, m := range f {
		if m != nil {
			m.RecordValidationFailure()
		}
	}
}

func (f Fanout) RecordToolError(tool string) {
	for _, m := range f {
		if m != nil {
			m.RecordToolError(tool)
		}
	}
}
