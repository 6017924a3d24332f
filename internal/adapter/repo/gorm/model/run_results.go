package model

import (
	"time"
)

const TableNameRunResult = "run_results"

// RunResult mapped from table <run_results>
type RunResult struct {
	RunID                string    `gorm:"column:run_id;type:text;primaryKey" json:"run_id"`
	Profile              string    `gorm:"column:profile;type:text;not null" json:"profile"`
	Seed                 int64     `gorm:"column:seed;type:bigint;not null" json:"seed"`
	Incident             string    `gorm:"column:incident;type:text;not null" json:"incident"`
	Status               string    `gorm:"column:status;type:text;not null" json:"status"`
	Steps                int32     `gorm:"column:steps;type:integer;not null" json:"steps"`
	ToolCalls            int32     `gorm:"column:tool_calls;type:integer;not null" json:"tool_calls"`
	SideEffectActions    int32     `gorm:"column:side_effect_actions;type:integer;not null" json:"side_effect_actions"`
	UnsafeActionAttempts int32     `gorm:"column:unsafe_action_attempts;type:integer;not null" json:"unsafe_action_attempts"`
	FinalSummary         string    `gorm:"column:final_summary;type:text;not null" json:"final_summary"`
	JournalPath          string    `gorm:"column:journal_path;type:text;not null" json:"journal_path"`
	FinishedAt           time.Time `gorm:"column:finished_at;type:timestamp with time zone;not null" json:"finished_at"`
}

// TableName RunResult's table name
func (*RunResult) TableName() string {
	return TableNameRunResult
}
