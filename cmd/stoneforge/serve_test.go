// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package main

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stoneforge/stoneforge/internal/observability"
	"github.com/stoneforge/stoneforge/pkg/errutil"
)

// fakePool satisfies Pool without a database. The serve command never
// queries it directly, so the query methods can return zero values.
type fakePool struct{}

func (fakePool) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakePool) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (fakePool) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (fakePool) Begin(context.Context) (pgx.Tx, error)                   { return nil, nil }
func (fakePool) Ping(context.Context) error                              { return nil }
func (fakePool) Close()                                                  {}

// fakeServer records lifecycle calls for both server kinds.
type fakeServer struct {
	mu      sync.Mutex
	started bool
	stopped bool
	errCh   chan error
}

func newFakeServer() *fakeServer {
	return &fakeServer{errCh: make(chan error, 1)}
}

func (s *fakeServer) Start() (<-chan error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	return s.errCh, nil
}

func (s *fakeServer) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

func (s *fakeServer) Addr() string { return "127.0.0.1:0" }

func (s *fakeServer) state() (started, stopped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started, s.stopped
}

func testServeConfig() *serveConfig {
	return &serveConfig{
		httpAddr:     "localhost:0",
		metricsAddr:  "127.0.0.1:0",
		logFormat:    "text",
		logLevel:     "error",
		algorithm:    "HS256",
		accessTTL:    15 * time.Minute,
		refreshTTL:   14 * 24 * time.Hour,
		reapInterval: time.Hour,
	}
}

func testServeDeps(apiSrv, obsSrv *fakeServer) *ServeDeps {
	return &ServeDeps{
		PoolFactory: func(context.Context, string) (Pool, error) {
			return fakePool{}, nil
		},
		APIServerFactory: func(string, http.Handler) APIServer {
			return apiSrv
		},
		ObservabilityServerFactory: func(string, observability.ReadinessChecker) ObservabilityServer {
			return obsSrv
		},
		DatabaseURLGetter:   func() string { return "postgres://localhost/test" },
		SigningSecretGetter: func() string { return "test-secret" },
	}
}

func TestRunServe_StartsAndStopsBothServers(t *testing.T) {
	apiSrv := newFakeServer()
	obsSrv := newFakeServer()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := runServeWithDeps(ctx, testServeConfig(), NewServeCmd(), testServeDeps(apiSrv, obsSrv))
	require.NoError(t, err)

	started, stopped := apiSrv.state()
	assert.True(t, started, "api server should have started")
	assert.True(t, stopped, "api server should have stopped")

	started, stopped = obsSrv.state()
	assert.True(t, started, "observability server should have started")
	assert.True(t, stopped, "observability server should have stopped")
}

func TestRunServe_APIServerErrorTriggersShutdown(t *testing.T) {
	apiSrv := newFakeServer()
	obsSrv := newFakeServer()

	deps := testServeDeps(apiSrv, obsSrv)

	go func() {
		time.Sleep(50 * time.Millisecond)
		apiSrv.errCh <- oops.Errorf("listener exploded")
	}()

	err := runServeWithDeps(context.Background(), testServeConfig(), NewServeCmd(), deps)
	require.NoError(t, err, "server errors shut down gracefully rather than failing the command")

	_, stopped := obsSrv.state()
	assert.True(t, stopped, "observability server stops when the api server dies")
}

func TestRunServe_SkipsObservabilityWhenUnconfigured(t *testing.T) {
	apiSrv := newFakeServer()
	obsSrv := newFakeServer()

	cfg := testServeConfig()
	cfg.metricsAddr = ""

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := runServeWithDeps(ctx, cfg, NewServeCmd(), testServeDeps(apiSrv, obsSrv))
	require.NoError(t, err)

	started, _ := obsSrv.state()
	assert.False(t, started, "observability server must not start with an empty metrics addr")
}

func TestRunServe_ConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *serveConfig, deps *ServeDeps)
		errCode string
	}{
		{
			name:    "invalid log format",
			mutate:  func(cfg *serveConfig, _ *ServeDeps) { cfg.logFormat = "xml" },
			errCode: "CONFIG_INVALID",
		},
		{
			name: "missing database URL",
			mutate: func(_ *serveConfig, deps *ServeDeps) {
				deps.DatabaseURLGetter = func() string { return "" }
			},
			errCode: "CONFIG_INVALID",
		},
		{
			name: "missing signing secret",
			mutate: func(_ *serveConfig, deps *ServeDeps) {
				deps.SigningSecretGetter = func() string { return "" }
			},
			errCode: "CONFIG_INVALID",
		},
		{
			name: "pool factory failure",
			mutate: func(_ *serveConfig, deps *ServeDeps) {
				deps.PoolFactory = func(context.Context, string) (Pool, error) {
					return nil, oops.Errorf("no database")
				}
			},
			errCode: "DB_CONNECT_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testServeConfig()
			deps := testServeDeps(newFakeServer(), newFakeServer())
			tt.mutate(cfg, deps)

			err := runServeWithDeps(context.Background(), cfg, NewServeCmd(), deps)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.errCode)
		})
	}
}

func TestServeCommand_Properties(t *testing.T) {
	cmd := NewServeCmd()

	assert.Equal(t, "serve", cmd.Use)
	assert.Contains(t, cmd.Long, "refresh", "Long description should mention token refresh")

	for _, flag := range []string{
		"http-addr", "metrics-addr", "log-format", "log-level",
		"jwt-algorithm", "access-ttl", "refresh-ttl", "reap-interval",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "missing flag %q", flag)
	}
}
