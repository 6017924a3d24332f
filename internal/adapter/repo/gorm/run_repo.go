package gormrepo

import (
	"context"
	"errors"

	"simopsbot/internal/adapter/repo/gorm/model"
	"simopsbot/internal/app/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RunRepo struct {
	db *gorm.DB
}

func NewRunRepo(db *gorm.DB) RunRepo {
	return RunRepo{db: db}
}

func (r RunRepo) Save(ctx context.Context, rec ports.RunRecord) error {
	m := model.RunResult{
		RunID:                rec.RunID,
		Profile:              rec.Profile,
		Seed:                 rec.Seed,
		Incident:             rec.Incident,
		Status:               rec.Status,
		Steps:                int32(rec.Steps),
		ToolCalls:            int32(rec.ToolCalls),
		SideEffectActions:    int32(rec.SideEffects),
		UnsafeActionAttempts: int32(rec.UnsafeActionAttempts),
		FinalSummary:         rec.FinalSummary,
		JournalPath:          rec.JournalPath,
		FinishedAt:           rec.FinishedAt,
	}
	return conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "run_id"}},
			UpdateAll: true,
		}).
		Create(&m).Error
}

func (r RunRepo) GetByRunID(ctx context.Context, runID string) (ports.RunRecord, error) {
	var m model.RunResult
	err := conn(ctx, r.db).
		Where(&model.RunResult{RunID: runID}).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.RunRecord{}, ports.ErrNotFound
		}
		return ports.RunRecord{}, err
	}
	return toRecord(m), nil
}

// List returns the most recently finished runs first.
func (r RunRepo) List(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	rows := []model.RunResult{}
	query := conn(ctx, r.db).
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{
				{Column: clause.Column{Name: "finished_at"}, Desc: true},
				{Column: clause.Column{Name: "run_id"}},
			},
		})
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]ports.RunRecord, 0, len(rows))
	for _, m := range rows {
		out = append(out, toRecord(m))
	}
	return out, nil
}

func toRecord(m model.RunResult) ports.RunRecord {
	return ports.RunRecord{
		RunID:                m.RunID,
		Profile:              m.Profile,
		Seed:                 m.Seed,
		Incident:             m.Incident,
		Status:               m.Status,
		Steps:                int(m.Steps),
		ToolCalls:            int(m.ToolCalls),
		SideEffects:          int(m.SideEffectActions),
		FinalSummary:         m.FinalSummary,
		JournalPath:          m.JournalPath,
		UnsafeActionAttempts: int(m.UnsafeActionAttempts),
		FinishedAt:           m.FinishedAt,
	}
}
