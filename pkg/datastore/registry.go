package datastore

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(Config, *slog.Logger) (Datastore, error))
)

// Register adds a backend factory to the registry.
// Called by backend implementations in their init() functions.
func Register(name string, factory func(Config, *slog.Logger) (Datastore, error)) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Open creates a datastore for the configured backend type.
// A nil logger falls back to a discard logger inside the backend.
func Open(cfg Config, logger *slog.Logger) (Datastore, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("datastore type not specified")
	}

	registryMu.RLock()
	factory, ok := registry[cfg.Type]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnknownBackendError{
			Type:      cfg.Type,
			Available: ListBackends(),
		}
	}
	return factory(cfg, logger)
}

// ListBackends returns all registered backend names (sorted).
func ListBackends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownBackendError is returned when an unknown backend type is requested.
type UnknownBackendError struct {
	Type      string
	Available []string
}

func (e *UnknownBackendError) Error() string {
	return fmt.Sprintf("unknown datastore type %q (available: %v)", e.Type, e.Available)
}
