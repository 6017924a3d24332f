package gormrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"simopsbot/internal/adapter/repo/gorm/model"
	"simopsbot/internal/app/ports"
	"simopsbot/internal/domain/journal"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JournalRepo archives journal events in append order. An event id appears at
// most once per run. Inside RunInTx every call joins the surrounding
// transaction.
type JournalRepo struct {
	db *gorm.DB
}

func NewJournalRepo(db *gorm.DB) JournalRepo {
	return JournalRepo{db: db}
}

func (r JournalRepo) Append(ctx context.Context, e journal.Event) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("encode payload %s: %w", e.EventID, err)
	}
	row := model.JournalEvent{
		EventID: e.EventID,
		RunID:   e.RunID,
		StepID:  int32(e.StepID),
		Kind:    string(e.Kind),
		Payload: payload,
	}
	err = conn(ctx, r.db).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: event %s already archived for run %s", ports.ErrConflict, e.EventID, e.RunID)
	}
	return err
}

func (r JournalRepo) ListByRunID(ctx context.Context, runID string) ([]journal.Event, error) {
	rows := []model.JournalEvent{}
	err := conn(ctx, r.db).
		Where(&model.JournalEvent{RunID: runID}).
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{{Column: clause.Column{Name: "id"}}},
		}).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]journal.Event, 0, len(rows))
	for _, row := range rows {
		var payload map[string]any
		if err := json.Unmarshal(row.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode payload %s: %w", row.EventID, err)
		}
		out = append(out, journal.Event{
			EventID: row.EventID,
			RunID:   row.RunID,
			StepID:  int(row.StepID),
			Kind:    journal.Kind(row.Kind),
			Payload: payload,
		})
	}
	return out, nil
}

// Reset deletes a run's archived events and its result row.
func (r JournalRepo) Reset(ctx context.Context, runID string) error {
	db := conn(ctx, r.db)
	if err := db.Where("run_id = ?", runID).Delete(&model.JournalEvent{}).Error; err != nil {
		return fmt.Errorf("reset journal %s: %w", runID, err)
	}
	if err := db.Where("run_id = ?", runID).Delete(&model.RunResult{}).Error; err != nil {
		return fmt.Errorf("reset run %s: %w", runID, err)
	}
	return nil
}
