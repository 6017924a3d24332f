package model

const TableNameJournalEvent = "journal_events"

// JournalEvent mapped from table <journal_events>
type JournalEvent struct {
	ID      int64  `gorm:"column:id;type:bigint;primaryKey;autoIncrement:true" json:"id"`
	EventID string `gorm:"column:event_id;type:text;not null" json:"event_id"`
	RunID   string `gorm:"column:run_id;type:text;not null;index:idx_journal_events_run_id" json:"run_id"`
	StepID  int32  `gorm:"column:step_id;type:integer;not null" json:"step_id"`
	Kind    string `gorm:"column:kind;type:text;not null" json:"kind"`
	Payload []byte `gorm:"column:payload;type:jsonb;not null" json:"payload"`
}

// TableName JournalEvent's table name
func (*JournalEvent) TableName() string {
	return TableNameJournalEvent
}
