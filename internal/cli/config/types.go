// Package config provides configuration management for the EventQL CLI.
package config

// Defaults applied before the config file, env vars, and flags.
const (
	DefaultBackend   = "sqlite"
	DefaultDBPath    = "eventql.db"
	DefaultStateFile = "eventql_state.db"
	DefaultPort      = 5600
	DefaultOutput    = "table"
)

// Config holds all CLI configuration options.
type Config struct {
	// Backend selects the datastore backend ("sqlite" or "memory").
	Backend string `koanf:"backend"`
	// DBPath is the path to the event database (":memory:" for transient).
	DBPath string `koanf:"db_path"`
	// StatePath is the path to the run-history database.
	StatePath string `koanf:"state_path"`
	// Port is the HTTP API port.
	Port int `koanf:"port"`
	// Output is the output format (table or json).
	Output  string `koanf:"output"`
	Verbose bool   `koanf:"verbose"`
}
