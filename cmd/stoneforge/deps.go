package main

import (
	"context"
	"net/http"

	"github.com/stoneforge/stoneforge/internal/auth/postgres"
	"github.com/stoneforge/stoneforge/internal/observability"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// PoolFactory creates a database pool from a database URL.
	// Default: store.NewPool
	PoolFactory func(ctx context.Context, url string) (Pool, error)

	// APIServerFactory creates the public HTTP API server.
	// Default: httpapi.NewServer
	APIServerFactory func(addr string, handler http.Handler) APIServer

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// DatabaseURLGetter returns the database URL.
	// Default: reads from DATABASE_URL environment variable
	DatabaseURLGetter func() string

	// SigningSecretGetter returns the JWT signing secret.
	// Default: reads from STONEFORGE_JWT_SECRET environment variable
	SigningSecretGetter func() string
}

// Pool is the subset of pgxpool.Pool the serve command needs: the
// repository query surface plus lifecycle.
type Pool interface {
	postgres.DB
	Ping(ctx context.Context) error
	Close()
}

// APIServer interface wraps the methods used from httpapi.Server.
type APIServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}
