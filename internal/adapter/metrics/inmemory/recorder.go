package inmemory

import (
	"maps"
	"sync"
)

type Snapshot struct {
	RunsTotal          uint64            `json:"runs_total"`
	RunsByStatus       map[string]uint64 `json:"runs_by_status"`
	RunsByProfile      map[string]uint64 `json:"runs_by_profile"`
	StepsTotal         uint64            `json:"steps_total"`
	ToolCallsTotal     uint64            `json:"tool_calls_total"`
	PolicyBlocks       map[string]uint64 `json:"policy_blocks"`
	ValidationFailures uint64            `json:"validation_failures"`
	ToolErrors         map[string]uint64 `json:"tool_errors"`
}

// Recorder keeps process-local counters for the KPI endpoint.
type Recorder struct {
	mu          sync.Mutex
	runs        uint64
	byStatus    map[string]uint64
	byProfile   map[string]uint64
	steps       uint64
	toolCalls   uint64
	blocks      map[string]uint64
	validations uint64
	toolErrors  map[string]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		byStatus:   map[string]uint64{},
		byProfile:  map[string]uint64{},
		blocks:     map[string]uint64{},
		toolErrors: map[string]uint64{},
	}
}

func (r *Recorder) RecordRun(profile, status string, steps, toolCalls int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
	r.byStatus[status]++
	r.byProfile[profile]++
	r.steps += uint64(max(steps, 0))
	r.toolCalls += uint64(max(toolCalls, 0))
}

func (r *Recorder) RecordPolicyBlock(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks[reason]++
}

func (r *Recorder) RecordValidationFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validations++
}

func (r *Recorder) RecordToolError(tool string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toolErrors[tool]++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Snapshot{
		RunsTotal:          r.runs,
		RunsByStatus:       maps.Clone(r.byStatus),
		RunsByProfile:      maps.Clone(r.byProfile),
		StepsTotal:         r.steps,
		ToolCallsTotal:     r.toolCalls,
		PolicyBlocks:       maps.Clone(r.blocks),
		ValidationFailures: r.validations,
		ToolErrors:         maps.Clone(r.toolErrors),
	}
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}
