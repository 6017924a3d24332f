package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simopsbot/internal/app/ports"
	"simopsbot/internal/domain/journal"
)

var (
	_ ports.JournalStore  = JournalStore{}
	_ ports.RunRepository = RunRepo{}
)

func TestJournalStore_AppendListReset(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	js := NewJournalStore(store)
	runs := NewRunRepo(store)

	w := journal.NewWriter("run-a", js)
	_, err := w.Log(ctx, 1, journal.KindStepStart, map[string]any{})
	require.NoError(t, err)
	_, err = w.Log(ctx, 1, journal.KindFinal, map[string]any{"summary": "x"})
	require.NoError(t, err)
	require.NoError(t, runs.Save(ctx, ports.RunRecord{RunID: "run-a"}))

	got, err := js.ListByRunID(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, w.Events(), got)

	empty, err := js.ListByRunID(ctx, "run-b")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, js.Reset(ctx, "run-a"))
	got, err = js.ListByRunID(ctx, "run-a")
	require.NoError(t, err)
	assert.Empty(t, got)
	_, err = runs.GetByRunID(ctx, "run-a")
	assert.ErrorIs(t, err, ports.ErrNotFound)
	list, err := runs.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRunRepo_UpsertAndListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepo(NewStore())
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Save(ctx, ports.RunRecord{RunID: id, Status: "abstained"}))
	}
	require.NoError(t, repo.Save(ctx, ports.RunRecord{RunID: "a", Status: "resolved"}))

	got, err := repo.GetByRunID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "resolved", got.Status)

	list, err := repo.List(ctx, 0)
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.RunID)
	}
	assert.Equal(t, []string{"a", "c", "b"}, ids)

	list, err = repo.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestStore_ConcurrentRuns(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	js := NewJournalStore(store)
	runs := NewRunRepo(store)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runID := fmt.Sprintf("run-%d", i)
			w := journal.NewWriter(runID, js)
			for step := 1; step <= 5; step++ {
				_, _ = w.Log(ctx, step, journal.KindStepStart, map[string]any{})
			}
			_ = runs.Save(ctx, ports.RunRecord{RunID: runID})
		}()
	}
	wg.Wait()

	list, err := runs.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, 8)
	for i := range 8 {
		events, err := js.ListByRunID(ctx, fmt.Sprintf("run-%d", i))
		require.NoError(t, err)
		assert.Len(t, events, 5)
	}
}
