// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/stoneforge/stoneforge/internal/auth"
	"github.com/stoneforge/stoneforge/internal/auth/postgres"
	"github.com/stoneforge/stoneforge/internal/httpapi"
	"github.com/stoneforge/stoneforge/internal/logging"
	"github.com/stoneforge/stoneforge/internal/observability"
	"github.com/stoneforge/stoneforge/internal/store"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication server",
		Long: `Start the HTTP server that handles login, token refresh, logout,
and device management, plus the background reaper for expired
refresh tokens.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadServeConfig(cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}

	cmd.Flags().String("http-addr", defaultHTTPAddr, "HTTP API listen address")
	cmd.Flags().String("metrics-addr", defaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log-format", defaultLogFormat, "log format (json or text)")
	cmd.Flags().String("log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	cmd.Flags().String("jwt-algorithm", defaultAlgorithm, "JWT signing algorithm (HS256, HS384, HS512)")
	cmd.Flags().Duration("access-ttl", auth.DefaultAccessTTL, "access token lifetime")
	cmd.Flags().Duration("refresh-ttl", auth.DefaultRefreshTTL, "refresh token lifetime")
	cmd.Flags().Duration("reap-interval", defaultReapInterval, "expired token sweep interval")

	return cmd
}

// runServeWithDeps starts the auth server with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cfg *serveConfig, cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}

	if deps.PoolFactory == nil {
		deps.PoolFactory = func(ctx context.Context, url string) (Pool, error) {
			return store.NewPool(ctx, url)
		}
	}
	if deps.APIServerFactory == nil {
		deps.APIServerFactory = func(addr string, handler http.Handler) APIServer {
			return httpapi.NewServer(addr, handler)
		}
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if deps.DatabaseURLGetter == nil {
		deps.DatabaseURLGetter = func() string {
			return os.Getenv("DATABASE_URL")
		}
	}
	if deps.SigningSecretGetter == nil {
		deps.SigningSecretGetter = func() string {
			return os.Getenv("STONEFORGE_JWT_SECRET")
		}
	}

	if err := cfg.Validate(); err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	logging.SetDefault("stoneforge", version, cfg.logFormat, cfg.logLevel)

	slog.Info("starting auth server",
		"http_addr", cfg.httpAddr,
		"log_format", cfg.logFormat,
	)

	databaseURL := deps.DatabaseURLGetter()
	if databaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
	}

	secret := deps.SigningSecretGetter()
	if secret == "" {
		return oops.Code("CONFIG_INVALID").Errorf("STONEFORGE_JWT_SECRET environment variable is required")
	}

	codec, err := auth.NewTokenCodec(auth.CodecConfig{
		Secret:     []byte(secret),
		Algorithm:  cfg.algorithm,
		AccessTTL:  cfg.accessTTL,
		RefreshTTL: cfg.refreshTTL,
	})
	if err != nil {
		return err
	}

	pool, err := deps.PoolFactory(ctx, databaseURL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	slog.Info("connected to database")

	players := postgres.NewPlayerRepository(pool)
	refreshStore := postgres.NewRefreshRepository(pool)

	issuer, err := auth.NewTokenIssuer(players, refreshStore, codec, auth.NewArgon2idHasher())
	if err != nil {
		return err
	}
	rotator, err := auth.NewRotationEngine(refreshStore, codec)
	if err != nil {
		return err
	}
	revoker, err := auth.NewRevocationService(refreshStore)
	if err != nil {
		return err
	}
	validator, err := auth.NewAccessValidator(codec)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start observability server if configured. Readiness tracks the
	// database connection.
	var obsServer ObservabilityServer
	var metrics *observability.Metrics
	if cfg.metricsAddr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.metricsAddr, func() bool {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer pingCancel()
			return pool.Ping(pingCtx) == nil
		})
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("SERVER_START_FAILED").With("server", "observability").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		slog.Info("observability server started", "addr", obsServer.Addr())

		if real, ok := obsServer.(*observability.Server); ok {
			metrics = real.Metrics()
		}
	}

	api, err := httpapi.NewAPI(issuer, rotator, revoker, validator, players, codec.RefreshTTL(), slog.Default(), metrics)
	if err != nil {
		return err
	}

	apiServer := deps.APIServerFactory(cfg.httpAddr, api.Handler())
	apiErrChan, err := apiServer.Start()
	if err != nil {
		if obsServer != nil {
			stopServer(obsServer, "observability")
		}
		return oops.Code("SERVER_START_FAILED").With("server", "api").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, apiErrChan, "api")

	// Background reaper for expired refresh tokens.
	reaper, err := auth.NewExpiryReaper(refreshStore, cfg.reapInterval, slog.Default())
	if err != nil {
		return err
	}
	reaper.ObserveSweeps(observability.RecordReaperDeleted)
	reaperDone := make(chan struct{})
	go func() {
		defer close(reaperDone)
		reaper.Run(ctx)
	}()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Auth server started")
	slog.Info("auth server ready", "http_addr", apiServer.Addr())

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	// Graceful shutdown
	slog.Info("shutting down...")
	cancel()
	<-reaperDone

	stopServer(apiServer, "api")
	if obsServer != nil {
		stopServer(obsServer, "observability")
	}

	slog.Info("shutdown complete")
	return nil
}

// stopServer stops a server with a bounded timeout, logging rather than
// failing on error since shutdown continues regardless.
func stopServer(s interface{ Stop(context.Context) error }, name string) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := s.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping server", "server", name, "error", err)
	}
}

// monitorServerErrors monitors a server's error channel and cancels the
// context on error so a failed listener takes the whole process down
// gracefully. It exits when an error arrives, the channel closes, or
// the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
