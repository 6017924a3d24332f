package ports

// RunMetrics receives operational counters from the run loop.
type RunMetrics interface {
	RecordRun(profile, status string, steps, toolCalls int)
	RecordPolicyBlock(reason string)
	RecordValidationFailure()
	RecordToolError(tool string)
}
