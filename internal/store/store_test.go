package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventlight-labs/eventql/internal/testutil"
	"github.com/eventlight-labs/eventql/pkg/core"
	"github.com/eventlight-labs/eventql/pkg/datastore"
)

// openBackends returns one instance of every backend, already opened and
// migrated, so the whole suite runs against both.
func openBackends(t *testing.T) map[string]datastore.Datastore {
	t.Helper()
	logger := testutil.NewTestLogger(t)

	sqlite := NewSQLiteStore(logger)
	require.NoError(t, sqlite.Open(filepath.Join(t.TempDir(), "events.db")))
	require.NoError(t, sqlite.Migrate())
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]datastore.Datastore{
		"sqlite": sqlite,
		"memory": NewMemoryStore(logger),
	}
}

func TestBucketLifecycle(t *testing.T) {
	ctx := context.Background()

	for name, ds := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			buckets, err := ds.Buckets(ctx)
			require.NoError(t, err)
			assert.Empty(t, buckets)

			b := core.Bucket{
				ID:       "aw-watcher-window_host",
				Type:     "currentwindow",
				Client:   "aw-watcher-window",
				Hostname: "host",
				Created:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			}
			require.NoError(t, ds.CreateBucket(ctx, b))

			got, err := ds.GetBucket(ctx, b.ID)
			require.NoError(t, err)
			assert.Equal(t, b.Type, got.Type)
			assert.Equal(t, b.Client, got.Client)

			err = ds.CreateBucket(ctx, b)
			require.Error(t, err, "duplicate bucket")

			buckets, err = ds.Buckets(ctx)
			require.NoError(t, err)
			require.Len(t, buckets, 1)

			require.NoError(t, ds.DeleteBucket(ctx, b.ID))
			_, err = ds.GetBucket(ctx, b.ID)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "bucket not found")

			err = ds.DeleteBucket(ctx, b.ID)
			require.Error(t, err, "deleting twice")
		})
	}
}

func TestEventStorage(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, ds := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, ds.CreateBucket(ctx, core.Bucket{
				ID: "b", Type: "test", Client: "test", Hostname: "host",
			}))

			events := []core.Event{
				{Timestamp: base, Duration: time.Minute, Data: map[string]any{"app": "vim"}},
				{Timestamp: base.Add(time.Minute), Duration: 30 * time.Second, Data: map[string]any{"app": "firefox"}},
				{Timestamp: base.Add(2 * time.Minute), Duration: time.Second, Data: map[string]any{"app": "slack"}},
			}
			require.NoError(t, ds.InsertEvents(ctx, "b", events))

			t.Run("descending order", func(t *testing.T) {
				got, err := ds.GetEvents(ctx, "b", base, base.Add(time.Hour), 0)
				require.NoError(t, err)
				require.Len(t, got, 3)
				assert.Equal(t, "slack", got[0].Data["app"])
				assert.Equal(t, "vim", got[2].Data["app"])
				assert.Equal(t, time.Minute, got[2].Duration)
			})

			t.Run("window is half open", func(t *testing.T) {
				got, err := ds.GetEvents(ctx, "b", base, base.Add(2*time.Minute), 0)
				require.NoError(t, err)
				assert.Len(t, got, 2, "event at the end boundary excluded")

				got, err = ds.GetEvents(ctx, "b", base.Add(time.Minute), base.Add(time.Hour), 0)
				require.NoError(t, err)
				assert.Len(t, got, 2, "event at the start boundary included")
			})

			t.Run("limit", func(t *testing.T) {
				got, err := ds.GetEvents(ctx, "b", base, base.Add(time.Hour), 2)
				require.NoError(t, err)
				require.Len(t, got, 2)
				assert.Equal(t, "slack", got[0].Data["app"], "limit keeps newest")
			})

			t.Run("count", func(t *testing.T) {
				n, err := ds.EventCount(ctx, "b", base, base.Add(time.Hour))
				require.NoError(t, err)
				assert.Equal(t, 3, n)

				n, err = ds.EventCount(ctx, "b", base.Add(time.Hour), base.Add(2*time.Hour))
				require.NoError(t, err)
				assert.Zero(t, n)
			})

			t.Run("unknown bucket", func(t *testing.T) {
				_, err := ds.GetEvents(ctx, "nope", base, base.Add(time.Hour), 0)
				require.Error(t, err)

				err = ds.InsertEvents(ctx, "nope", events)
				require.Error(t, err)
			})
		})
	}
}

func TestSQLiteDeleteBucketCascades(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	s := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, s.Open(filepath.Join(t.TempDir(), "events.db")))
	require.NoError(t, s.Migrate())
	defer func() { _ = s.Close() }()

	require.NoError(t, s.CreateBucket(ctx, core.Bucket{ID: "b", Type: "t", Client: "c", Hostname: "h"}))
	require.NoError(t, s.InsertEvents(ctx, "b", []core.Event{
		{Timestamp: base, Duration: time.Minute, Data: map[string]any{"k": "v"}},
	}))
	require.NoError(t, s.DeleteBucket(ctx, "b"))

	// Recreating the bucket must not resurrect old events.
	require.NoError(t, s.CreateBucket(ctx, core.Bucket{ID: "b", Type: "t", Client: "c", Hostname: "h"}))
	n, err := s.EventCount(ctx, "b", base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpenViaRegistry(t *testing.T) {
	ds, err := datastore.Open(datastore.Config{Type: "memory"}, nil)
	require.NoError(t, err)
	defer func() { _ = ds.Close() }()

	ds2, err := datastore.Open(datastore.Config{
		Type: "sqlite",
		Path: filepath.Join(t.TempDir(), "events.db"),
	}, testutil.NewTestLogger(t))
	require.NoError(t, err)
	defer func() { _ = ds2.Close() }()

	ctx := context.Background()
	require.NoError(t, ds2.CreateBucket(ctx, core.Bucket{ID: "b", Type: "t", Client: "c", Hostname: "h"}))
	got, err := ds2.GetBucket(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)
}
