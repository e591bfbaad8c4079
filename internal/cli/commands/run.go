package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/eventlight-labs/eventql/internal/engine"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Start string
	End   string
	Name  string
	Watch bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run <file.eql>",
		Short: "Run a query script from a file",
		Long: `Run a query script against the configured datastore.

The script is a sequence of assignments separated by semicolons. The
value bound to RETURN is printed when the script completes. The time
window defaults to the last 24 hours.`,
		Example: `  # Run over the last 24 hours
  eventql run afk.eql

  # Run over an explicit window
  eventql run afk.eql --start 2024-01-01 --end 2024-01-02

  # Re-run whenever the file changes
  eventql run afk.eql --watch

  # Raw JSON output
  eventql run afk.eql -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Start, "start", "", "Start of the query window (default: 24h ago)")
	cmd.Flags().StringVar(&opts.End, "end", "", "End of the query window (default: now)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Query name (default: file name without extension)")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run the query when the file changes")

	return cmd
}

func runRun(cmd *cobra.Command, path string, opts *RunOptions) error {
	period, err := resolvePeriod(opts.Start, opts.End)
	if err != nil {
		return err
	}

	name := opts.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	runOnce := func(ctx context.Context) error {
		script, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read query file: %w", err)
		}
		res, err := cmdCtx.Engine.Run(ctx, name, string(script), period)
		if err != nil {
			return err
		}
		return renderValue(cmd.OutOrStdout(), res.Value, cmdCtx.Cfg.Output)
	}

	if !opts.Watch {
		return runOnce(cmd.Context())
	}
	return watchAndRun(cmd, path, runOnce)
}

// resolvePeriod parses the --start/--end flags, defaulting to the last
// 24 hours.
func resolvePeriod(startStr, endStr string) (engine.Period, error) {
	end := time.Now().UTC()
	if endStr != "" {
		t, err := dateparse.ParseAny(endStr)
		if err != nil {
			return engine.Period{}, fmt.Errorf("invalid --end %q: %w", endStr, err)
		}
		end = t
	}

	start := end.Add(-24 * time.Hour)
	if startStr != "" {
		t, err := dateparse.ParseAny(startStr)
		if err != nil {
			return engine.Period{}, fmt.Errorf("invalid --start %q: %w", startStr, err)
		}
		start = t
	}

	if !start.Before(end) {
		return engine.Period{}, fmt.Errorf("query window start %s is not before end %s", start, end)
	}
	return engine.Period{Start: start, End: end}, nil
}

// watchAndRun runs the query once, then re-runs it on every write to
// the script file until the context is cancelled. Run errors are
// printed rather than terminating the watch.
func watchAndRun(cmd *cobra.Command, path string, runOnce func(context.Context) error) error {
	ctx := cmd.Context()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory rather than the file so editors that replace
	// the file on save keep triggering events.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	report := func() {
		if err := runOnce(ctx); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}
	report()

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, report)

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Watch error: %v\n", werr)
		}
	}
}
