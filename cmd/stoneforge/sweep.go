// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package main

import (
	"context"
	"os"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/stoneforge/stoneforge/internal/auth"
	"github.com/stoneforge/stoneforge/internal/auth/postgres"
	"github.com/stoneforge/stoneforge/internal/store"
)

// NewSweepCmd creates the sweep subcommand.
func NewSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired refresh tokens once and exit",
		Long: `Run one sweep of the refresh token table, deleting every expired
record. The serve command runs this periodically on its own; sweep
exists for cron jobs and operational cleanup.`,
		RunE: runSweep,
	}
}

func runSweep(cmd *cobra.Command, _ []string) error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pool, err := store.NewPool(ctx, databaseURL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	reaper, err := auth.NewExpiryReaper(postgres.NewRefreshRepository(pool), time.Hour, nil)
	if err != nil {
		return err
	}

	count, err := reaper.Sweep(ctx, time.Now())
	if err != nil {
		return err
	}

	cmd.Printf("Deleted %d expired refresh token(s)\n", count)
	return nil
}
