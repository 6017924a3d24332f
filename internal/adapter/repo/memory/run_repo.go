package memory

import (
	"context"

	"simopsbot/internal/app/ports"
)

type RunRepo struct {
	store *Store
}

func NewRunRepo(store *Store) RunRepo {
	return RunRepo{store: store}
}

// Save upserts by run id. A re-saved run moves to the most recent position.
func (r RunRepo) Save(_ context.Context, rec ports.RunRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.runs[rec.RunID]; ok {
		for i, id := range r.store.order {
			if id == rec.RunID {
				r.store.order = append(r.store.order[:i], r.store.order[i+1:]...)
				break
			}
		}
	}
	r.store.runs[rec.RunID] = rec
	r.store.order = append(r.store.order, rec.RunID)
	return nil
}

func (r RunRepo) GetByRunID(_ context.Context, runID string) (ports.RunRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rec, ok := r.store.runs[runID]
	if !ok {
		return ports.RunRecord{}, ports.ErrNotFound
	}
	return rec, nil
}

// List returns the most recently saved runs first.
func (r RunRepo) List(_ context.Context, limit int) ([]ports.RunRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	n := len(r.store.order)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]ports.RunRecord, 0, n)
	for i := len(r.store.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.store.runs[r.store.order[i]])
	}
	return out, nil
}
