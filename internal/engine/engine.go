// Package engine runs query scripts against a datastore and records
// run history.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eventlight-labs/eventql/internal/state"
	"github.com/eventlight-labs/eventql/pkg/datastore"
	"github.com/eventlight-labs/eventql/pkg/query"
)

// Engine orchestrates query execution.
type Engine struct {
	ds       datastore.Datastore
	registry *query.Registry
	store    state.Store
	logger   *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// Datastore holds the event data queries run against.
	Datastore datastore.Datastore
	// Registry is the function registry (defaults to query.StdRegistry).
	Registry *query.Registry
	// Store records run history (optional).
	Store state.Store
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Period is a time window a query is evaluated over.
type Period struct {
	Start time.Time
	End   time.Time
}

// Result is the outcome of one query evaluation.
type Result struct {
	Period   Period
	Value    query.Value
	Duration time.Duration
}

// New creates a new engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Datastore == nil {
		return nil, fmt.Errorf("engine requires a datastore")
	}
	registry := cfg.Registry
	if registry == nil {
		registry = query.StdRegistry()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		ds:       cfg.Datastore,
		registry: registry,
		store:    cfg.Store,
		logger:   logger,
	}, nil
}

// Run evaluates a query script over one time period and returns its
// RETURN binding. The run is recorded in the history store when one is
// configured.
func (e *Engine) Run(ctx context.Context, name, script string, period Period) (*Result, error) {
	var run *state.Run
	if e.store != nil {
		var err error
		run, err = e.store.CreateRun(name, script)
		if err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
	}

	e.logger.Info("running query", "name", name, "start", period.Start, "end", period.End)
	began := time.Now()
	value, err := query.Run(ctx, name, script, period.Start, period.End, e.ds, e.registry)
	elapsed := time.Since(began)

	if e.store != nil {
		status := state.RunStatusCompleted
		errMsg := ""
		if err != nil {
			status = state.RunStatusFailed
			errMsg = err.Error()
		}
		if cerr := e.store.CompleteRun(run.ID, status, errMsg); cerr != nil {
			e.logger.Warn("failed to finalize run record", "id", run.ID, "error", cerr)
		}
	}
	if err != nil {
		return nil, err
	}

	e.logger.Debug("query completed", "name", name, "duration", elapsed)
	return &Result{Period: period, Value: value, Duration: elapsed}, nil
}

// RunPeriods evaluates the same script once per period, concurrently.
// Results are returned in period order. The first error cancels the
// remaining evaluations.
func (e *Engine) RunPeriods(ctx context.Context, name, script string, periods []Period) ([]*Result, error) {
	results := make([]*Result, len(periods))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, p := range periods {
		g.Go(func() error {
			res, err := e.Run(gctx, name, script, p)
			if err != nil {
				return fmt.Errorf("period %s/%s: %w",
					p.Start.Format(time.RFC3339), p.End.Format(time.RFC3339), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
