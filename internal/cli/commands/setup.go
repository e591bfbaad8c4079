package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/eventlight-labs/eventql/internal/cli/config"
	"github.com/eventlight-labs/eventql/internal/engine"
	"github.com/eventlight-labs/eventql/internal/state"
	"github.com/eventlight-labs/eventql/pkg/datastore"

	// register datastore backends
	_ "github.com/eventlight-labs/eventql/internal/store"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	DS     datastore.Datastore
	Store  state.Store
	Engine *engine.Engine
}

// NewCommandContext opens the datastore and run-history store and wires
// them into an engine. Returns the context and a cleanup function that
// must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := newLogger(cmd, cfg)

	ds, err := datastore.Open(datastore.Config{Type: cfg.Backend, Path: cfg.DBPath}, logger)
	if err != nil {
		return nil, nil, err
	}

	st := state.NewSQLiteStore(logger)
	if err := st.Open(cfg.StatePath); err != nil {
		_ = ds.Close()
		return nil, nil, err
	}
	if err := st.Migrate(); err != nil {
		_ = st.Close()
		_ = ds.Close()
		return nil, nil, err
	}

	eng, err := engine.New(engine.Config{
		Datastore: ds,
		Store:     st,
		Logger:    logger,
	})
	if err != nil {
		_ = st.Close()
		_ = ds.Close()
		return nil, nil, err
	}

	cleanup := func() {
		_ = st.Close()
		_ = ds.Close()
	}

	return &CommandContext{
		Cfg:    cfg,
		Logger: logger,
		DS:     ds,
		Store:  st,
		Engine: eng,
	}, cleanup, nil
}

// getConfig returns the current configuration, falling back to defaults
// when the root command's PersistentPreRunE has not loaded one.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		Backend:   config.DefaultBackend,
		DBPath:    config.DefaultDBPath,
		StatePath: config.DefaultStateFile,
		Port:      config.DefaultPort,
		Output:    config.DefaultOutput,
	}
}

// newLogger builds the command logger. Verbose enables debug output on
// stderr; otherwise only warnings and errors are shown.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	w := cmd.ErrOrStderr()
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
