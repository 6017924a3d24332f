package memory

import (
	"sync"

	"simopsbot/internal/app/ports"
	"simopsbot/internal/domain/journal"
)

// Store keeps journals and run records in process. Every repository built on
// it takes the lock per call, so one Store is safe to share across runs.
type Store struct {
	mu     sync.RWMutex
	runs   map[string]ports.RunRecord
	order  []string
	events map[string][]journal.Event
}

func NewStore() *Store {
	return &Store{
		runs:   make(map[string]ports.RunRecord),
		events: make(map[string][]journal.Event),
	}
}
