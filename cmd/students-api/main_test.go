package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-management-api/internal/config"
	"github.com/aanand-mishra/student-management-api/internal/http/middleware"
	"github.com/aanand-mishra/student-management-api/internal/storage"
	"github.com/aanand-mishra/student-management-api/internal/storage/memory"
	"github.com/aanand-mishra/student-management-api/internal/storage/sqlite"
)

func TestOpenStorage(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		s, err := openStorage(&config.Config{Storage: config.Storage{Driver: config.DriverMemory}})
		require.NoError(t, err)
		assert.IsType(t, &memory.Memory{}, s)
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := openStorage(&config.Config{Storage: config.Storage{Driver: config.DriverSQLite, Path: ":memory:"}})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &sqlite.SQLite{}, s)
	})
}

func TestSetupLogger(t *testing.T) {
	ctx := context.Background()

	assert.False(t, setupLogger(config.EnvProd).Enabled(ctx, slog.LevelDebug))
	assert.True(t, setupLogger(config.EnvProd).Enabled(ctx, slog.LevelInfo))
	assert.True(t, setupLogger(config.EnvStaging).Enabled(ctx, slog.LevelDebug))
	assert.True(t, setupLogger(config.EnvDev).Enabled(ctx, slog.LevelDebug))
}

type fakeServer struct{ err error }

func (f fakeServer) Shutdown(context.Context) error { return f.err }

type closeRecorder struct {
	storage.Storage
	closed bool
	err    error
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return c.err
}

func TestStop(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name        string
		shutdownErr error
		closeErr    error
		wantCode    int
	}{
		{name: "clean", wantCode: 0},
		{name: "shutdown fails", shutdownErr: context.DeadlineExceeded, wantCode: 1},
		{name: "close fails", closeErr: errors.New("locked"), wantCode: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &closeRecorder{Storage: memory.New(), err: tt.closeErr}
			limiter := middleware.NewFixedWindowLimiter(5, time.Minute)

			code := stop(log, fakeServer{err: tt.shutdownErr}, time.Second, limiter, store)

			assert.Equal(t, tt.wantCode, code)
			assert.True(t, store.closed, "store is closed even when shutdown fails")
		})
	}
}
