// Package datastore defines the storage contract for EventQL.
//
// A Datastore holds buckets of timestamped events. The query language core
// treats the handle as opaque and passes it through to query functions
// unexamined; concrete backends live in internal/store and register
// themselves with this package's registry.
package datastore

import (
	"context"
	"time"

	"github.com/eventlight-labs/eventql/pkg/core"
)

// Datastore is the interface all event store backends implement.
type Datastore interface {
	// Buckets returns metadata for all buckets.
	Buckets(ctx context.Context) ([]core.Bucket, error)

	// GetBucket returns metadata for a single bucket.
	GetBucket(ctx context.Context, id string) (*core.Bucket, error)

	// CreateBucket creates a bucket. Creating an existing bucket is an error.
	CreateBucket(ctx context.Context, b core.Bucket) error

	// DeleteBucket removes a bucket and all its events.
	DeleteBucket(ctx context.Context, id string) error

	// InsertEvents appends events to a bucket.
	InsertEvents(ctx context.Context, bucket string, events []core.Event) error

	// GetEvents returns events in [start, end) ordered by timestamp
	// descending. limit <= 0 means no limit.
	GetEvents(ctx context.Context, bucket string, start, end time.Time, limit int) ([]core.Event, error)

	// EventCount returns the number of events in [start, end).
	EventCount(ctx context.Context, bucket string, start, end time.Time) (int, error)

	// Close releases backend resources.
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Type is the backend name ("sqlite", "memory").
	Type string `koanf:"type"`
	// Path is the database file path for file-backed stores
	// (":memory:" for a transient sqlite store).
	Path string `koanf:"path"`
}
