package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventlight-labs/eventql/internal/state"
	"github.com/eventlight-labs/eventql/internal/store"
	"github.com/eventlight-labs/eventql/internal/testutil"
	"github.com/eventlight-labs/eventql/pkg/core"
	"github.com/eventlight-labs/eventql/pkg/query"
)

func newTestEngine(t *testing.T) (*Engine, *store.MemoryStore, *state.SQLiteStore) {
	t.Helper()
	logger := testutil.NewTestLogger(t)

	ds := store.NewMemoryStore(logger)
	st := state.NewSQLiteStore(logger)
	require.NoError(t, st.Open(filepath.Join(t.TempDir(), "state.db")))
	require.NoError(t, st.Migrate())
	t.Cleanup(func() { _ = st.Close() })

	eng, err := New(Config{Datastore: ds, Store: st, Logger: logger})
	require.NoError(t, err)
	return eng, ds, st
}

func TestNewRequiresDatastore(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestEngineRun(t *testing.T) {
	ctx := context.Background()
	eng, ds, st := newTestEngine(t)

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	period := Period{Start: start, End: start.Add(time.Hour)}

	require.NoError(t, ds.CreateBucket(ctx, core.Bucket{ID: "b", Type: "t", Client: "c", Hostname: "h"}))
	require.NoError(t, ds.InsertEvents(ctx, "b", []core.Event{
		{Timestamp: start.Add(time.Minute), Duration: time.Minute, Data: map[string]any{"app": "vim"}},
	}))

	res, err := eng.Run(ctx, "test", `RETURN = query_bucket("b");`, period)
	require.NoError(t, err)
	events := res.Value.(query.Host).V.([]core.Event)
	assert.Len(t, events, 1)

	runs, err := st.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, state.RunStatusCompleted, runs[0].Status)
	assert.Equal(t, "test", runs[0].Name)
}

func TestEngineRunRecordsFailure(t *testing.T) {
	ctx := context.Background()
	eng, _, st := newTestEngine(t)

	period := Period{Start: time.Now().Add(-time.Hour), End: time.Now()}
	_, err := eng.Run(ctx, "bad", "x =", period)
	require.Error(t, err)

	runs, err := st.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, state.RunStatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "nothing to assign")
}

func TestEngineRunWithoutHistoryStore(t *testing.T) {
	ctx := context.Background()
	eng, err := New(Config{Datastore: store.NewMemoryStore(nil)})
	require.NoError(t, err)

	period := Period{Start: time.Now().Add(-time.Hour), End: time.Now()}
	res, err := eng.Run(ctx, "t", "RETURN = nop();", period)
	require.NoError(t, err)
	assert.Equal(t, query.Int(1), res.Value)
}

func TestEngineRunPeriods(t *testing.T) {
	ctx := context.Background()
	eng, ds, _ := newTestEngine(t)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, ds.CreateBucket(ctx, core.Bucket{ID: "b", Type: "t", Client: "c", Hostname: "h"}))
	require.NoError(t, ds.InsertEvents(ctx, "b", []core.Event{
		{Timestamp: start.Add(time.Hour), Duration: time.Minute, Data: map[string]any{"day": "one"}},
		{Timestamp: start.Add(25 * time.Hour), Duration: time.Minute, Data: map[string]any{"day": "two"}},
	}))

	periods := []Period{
		{Start: start, End: start.Add(24 * time.Hour)},
		{Start: start.Add(24 * time.Hour), End: start.Add(48 * time.Hour)},
		{Start: start.Add(48 * time.Hour), End: start.Add(72 * time.Hour)},
	}
	results, err := eng.RunPeriods(ctx, "t", `RETURN = query_bucket("b");`, periods)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Results arrive in period order regardless of completion order.
	for i, res := range results {
		assert.Equal(t, periods[i], res.Period)
	}
	assert.Len(t, results[0].Value.(query.Host).V.([]core.Event), 1)
	assert.Len(t, results[1].Value.(query.Host).V.([]core.Event), 1)
	assert.Empty(t, results[2].Value.(query.Host).V.([]core.Event))
}

func TestEngineRunPeriodsError(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	periods := []Period{{Start: time.Now().Add(-time.Hour), End: time.Now()}}
	_, err := eng.RunPeriods(ctx, "t", `RETURN = query_bucket("missing");`, periods)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "there's no bucket named")
}
