package agent

import (
	"context"
	"sync"
)

// runLocks serializes runs that share a run id. Two such runs would reset
// and append to the same stored journal and truncate the same journal file.
type runLocks struct {
	mu    sync.Mutex
	locks map[string]*runLock
}

type runLock struct {
	sem  chan struct{}
	refs int
}

var activeRuns = &runLocks{locks: make(map[string]*runLock)}

// acquire blocks until no other run holds runID or ctx is done.
func (l *runLocks) acquire(ctx context.Context, runID string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	lk, ok := l.locks[runID]
	if !ok {
		lk = &runLock{sem: make(chan struct{}, 1)}
		l.locks[runID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(runID, lk)
		return nil, ctx.Err()
	}
	return func() {
		<-lk.sem
		l.release(runID, lk)
	}, nil
}

func (l *runLocks) release(runID string, lk *runLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, runID)
	}
}
