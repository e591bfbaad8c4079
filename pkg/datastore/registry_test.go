package datastore

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(Config{Type: "does-not-exist"}, nil)
	require.Error(t, err)

	var unknown *UnknownBackendError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "does-not-exist", unknown.Type)
}

func TestOpenMissingType(t *testing.T) {
	_, err := Open(Config{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "datastore type not specified")
}

func TestRegisterAndOpen(t *testing.T) {
	called := false
	Register("test-backend", func(cfg Config, _ *slog.Logger) (Datastore, error) {
		called = true
		assert.Equal(t, "some/path", cfg.Path)
		return nil, nil
	})

	_, err := Open(Config{Type: "test-backend", Path: "some/path"}, nil)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Contains(t, ListBackends(), "test-backend")
}
