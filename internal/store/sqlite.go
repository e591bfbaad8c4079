// Package store provides the event datastore backends: a SQLite store for
// persistence and an in-memory store for tests and transient sessions.
// Backends register themselves with pkg/datastore.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eventlight-labs/eventql/pkg/core"
	"github.com/eventlight-labs/eventql/pkg/datastore"

	_ "modernc.org/sqlite"
)

func init() {
	datastore.Register("sqlite", func(cfg datastore.Config, logger *slog.Logger) (datastore.Datastore, error) {
		s := NewSQLiteStore(logger)
		if err := s.Open(cfg.Path); err != nil {
			return nil, err
		}
		if err := s.Migrate(); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	})
}

// SQLiteStore implements datastore.Datastore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store instance. A nil logger
// discards all log output.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	} else {
		dsn = ":memory:?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	s.logger.Debug("opened event store", "path", path)
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Buckets returns metadata for all buckets ordered by id.
func (s *SQLiteStore) Buckets(ctx context.Context) ([]core.Bucket, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, client, hostname, name, created FROM buckets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}
	defer rows.Close()

	var buckets []core.Bucket
	for rows.Next() {
		var b core.Bucket
		if err := rows.Scan(&b.ID, &b.Type, &b.Client, &b.Hostname, &b.Name, &b.Created); err != nil {
			return nil, fmt.Errorf("failed to scan bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// GetBucket returns metadata for a single bucket.
func (s *SQLiteStore) GetBucket(ctx context.Context, id string) (*core.Bucket, error) {
	var b core.Bucket
	err := s.db.QueryRowContext(ctx,
		`SELECT id, type, client, hostname, name, created FROM buckets WHERE id = ?`, id,
	).Scan(&b.ID, &b.Type, &b.Client, &b.Hostname, &b.Name, &b.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bucket not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}
	return &b, nil
}

// CreateBucket creates a bucket. Creating an existing bucket is an error.
func (s *SQLiteStore) CreateBucket(ctx context.Context, b core.Bucket) error {
	if b.Created.IsZero() {
		b.Created = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO buckets (id, type, client, hostname, name, created) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.Type, b.Client, b.Hostname, b.Name, b.Created.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", b.ID, err)
	}
	s.logger.Debug("created bucket", "id", b.ID, "type", b.Type)
	return nil
}

// DeleteBucket removes a bucket and all its events.
func (s *SQLiteStore) DeleteBucket(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM buckets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bucket %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("bucket not found: %s", id)
	}
	return nil
}

// InsertEvents appends events to a bucket inside one transaction.
func (s *SQLiteStore) InsertEvents(ctx context.Context, bucket string, events []core.Event) error {
	if _, err := s.GetBucket(ctx, bucket); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (bucket_id, timestamp, duration_ns, data) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		data, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("failed to encode event data: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, bucket, e.Timestamp.UTC(), int64(e.Duration), string(data)); err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit events: %w", err)
	}
	s.logger.Debug("inserted events", "bucket", bucket, "count", len(events))
	return nil
}

// GetEvents returns events in [start, end) ordered by timestamp descending.
// limit <= 0 means no limit.
func (s *SQLiteStore) GetEvents(ctx context.Context, bucket string, start, end time.Time, limit int) ([]core.Event, error) {
	if _, err := s.GetBucket(ctx, bucket); err != nil {
		return nil, err
	}

	q := `SELECT id, timestamp, duration_ns, data FROM events
	      WHERE bucket_id = ? AND timestamp >= ? AND timestamp < ?
	      ORDER BY timestamp DESC`
	args := []any{bucket, start.UTC(), end.UTC()}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []core.Event
	for rows.Next() {
		var e core.Event
		var durationNs int64
		var data string
		if err := rows.Scan(&e.ID, &e.Timestamp, &durationNs, &data); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Duration = time.Duration(durationNs)
		if err := json.Unmarshal([]byte(data), &e.Data); err != nil {
			return nil, fmt.Errorf("failed to decode event data: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// EventCount returns the number of events in [start, end).
func (s *SQLiteStore) EventCount(ctx context.Context, bucket string, start, end time.Time) (int, error) {
	if _, err := s.GetBucket(ctx, bucket); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE bucket_id = ? AND timestamp >= ? AND timestamp < ?`,
		bucket, start.UTC(), end.UTC(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}
