package ports

import (
	"context"
	"time"

	"simopsbot/internal/domain/journal"
)

type RunRecord struct {
	RunID                string    `json:"run_id"`
	Profile              string    `json:"profile"`
	Seed                 int64     `json:"seed"`
	Incident             string    `json:"incident"`
	Status               string    `json:"status"`
	Steps                int       `json:"steps"`
	ToolCalls            int       `json:"tool_calls"`
	SideEffects          int       `json:"side_effect_actions"`
	FinalSummary         string    `json:"final_summary"`
	JournalPath          string    `json:"journal_path,omitempty"`
	UnsafeActionAttempts int       `json:"unsafe_action_attempts"`
	FinishedAt           time.Time `json:"finished_at"`
}

type RunRepository interface {
	Save(ctx context.Context, rec RunRecord) error
	GetByRunID(ctx context.Context, runID string) (RunRecord, error)
	List(ctx context.Context, limit int) ([]RunRecord, error)
}

// JournalSink is satisfied by every journal store.
type JournalSink = journal.Sink

type JournalSource interface {
	ListByRunID(ctx context.Context, runID string) ([]journal.Event, error)
}

// JournalStore both persists and serves journals. Reset drops a run's
// previous events so a re-run starts clean.
type JournalStore interface {
	JournalSink
	JournalSource
	Reset(ctx context.Context, runID string) error
}

// JournalFile is a per-run append-only journal file.
type JournalFile interface {
	JournalSink
	Path() string
	Close() error
}

type JournalFiles interface {
	Create(name string) (JournalFile, error)
}

type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
