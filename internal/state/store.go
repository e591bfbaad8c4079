// Package state tracks query run history using SQLite: which queries ran,
// when, and how they ended.
package state

import "time"

// RunStatus is the lifecycle state of a query run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded query run.
type Run struct {
	ID          string
	Name        string
	Script      string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// Store is the run-history contract.
type Store interface {
	// Open opens the store at path (":memory:" for transient history).
	Open(path string) error

	// Migrate brings the schema up to date.
	Migrate() error

	// CreateRun records the start of a query run.
	CreateRun(name, script string) (*Run, error)

	// CompleteRun marks a run as finished with the given status.
	CompleteRun(id string, status RunStatus, errMsg string) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]*Run, error)

	// Close releases store resources.
	Close() error
}
