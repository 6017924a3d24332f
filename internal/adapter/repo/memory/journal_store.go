package memory

import (
	"context"
	"slices"

	"simopsbot/internal/domain/journal"
)

type JournalStore struct {
	store *Store
}

func NewJournalStore(store *Store) JournalStore {
	return JournalStore{store: store}
}

func (r JournalStore) Append(_ context.Context, e journal.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.events[e.RunID] = append(r.store.events[e.RunID], e)
	return nil
}

func (r JournalStore) ListByRunID(_ context.Context, runID string) ([]journal.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return slices.Clone(r.store.events[runID]), nil
}

// Reset forgets a run's events and its stored record.
func (r JournalStore) Reset(_ context.Context, runID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.events, runID)
	if _, ok := r.store.runs[runID]; ok {
		delete(r.store.runs, runID)
		r.store.order = slices.DeleteFunc(r.store.order, func(id string) bool { return id == runID })
	}
	return nil
}
