package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/eventlight-labs/eventql/pkg/core"
	"github.com/eventlight-labs/eventql/pkg/datastore"
)

func init() {
	datastore.Register("memory", func(_ datastore.Config, logger *slog.Logger) (datastore.Datastore, error) {
		return NewMemoryStore(logger), nil
	})
}

// MemoryStore implements datastore.Datastore in memory. It is safe for
// concurrent use and intended for tests and transient REPL sessions.
type MemoryStore struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	buckets map[string]core.Bucket
	events  map[string][]core.Event
	nextID  int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MemoryStore{
		logger:  logger,
		buckets: make(map[string]core.Bucket),
		events:  make(map[string][]core.Event),
		nextID:  1,
	}
}

// Buckets returns metadata for all buckets ordered by id.
func (s *MemoryStore) Buckets(_ context.Context) ([]core.Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	buckets := make([]core.Bucket, 0, len(s.buckets))
	for _, b := range s.buckets {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].ID < buckets[j].ID })
	return buckets, nil
}

// GetBucket returns metadata for a single bucket.
func (s *MemoryStore) GetBucket(_ context.Context, id string) (*core.Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.buckets[id]
	if !ok {
		return nil, fmt.Errorf("bucket not found: %s", id)
	}
	return &b, nil
}

// CreateBucket creates a bucket. Creating an existing bucket is an error.
func (s *MemoryStore) CreateBucket(_ context.Context, b core.Bucket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[b.ID]; ok {
		return fmt.Errorf("bucket already exists: %s", b.ID)
	}
	if b.Created.IsZero() {
		b.Created = time.Now().UTC()
	}
	s.buckets[b.ID] = b
	return nil
}

// DeleteBucket removes a bucket and all its events.
func (s *MemoryStore) DeleteBucket(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[id]; !ok {
		return fmt.Errorf("bucket not found: %s", id)
	}
	delete(s.buckets, id)
	delete(s.events, id)
	return nil
}

// InsertEvents appends events to a bucket.
func (s *MemoryStore) InsertEvents(_ context.Context, bucket string, events []core.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[bucket]; !ok {
		return fmt.Errorf("bucket not found: %s", bucket)
	}
	for _, e := range events {
		e.ID = s.nextID
		s.nextID++
		s.events[bucket] = append(s.events[bucket], e)
	}
	return nil
}

// GetEvents returns events in [start, end) ordered by timestamp descending.
// limit <= 0 means no limit.
func (s *MemoryStore) GetEvents(_ context.Context, bucket string, start, end time.Time, limit int) ([]core.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.buckets[bucket]; !ok {
		return nil, fmt.Errorf("bucket not found: %s", bucket)
	}

	var out []core.Event
	for _, e := range s.events[bucket] {
		if !e.Timestamp.Before(start) && e.Timestamp.Before(end) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// EventCount returns the number of events in [start, end).
func (s *MemoryStore) EventCount(_ context.Context, bucket string, start, end time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.buckets[bucket]; !ok {
		return 0, fmt.Errorf("bucket not found: %s", bucket)
	}

	count := 0
	for _, e := range s.events[bucket] {
		if !e.Timestamp.Before(start) && e.Timestamp.Before(end) {
			count++
		}
	}
	return count, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
