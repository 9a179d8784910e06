// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package main

import (
	"context"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/stoneforge/stoneforge/internal/auth"
	"github.com/stoneforge/stoneforge/internal/auth/postgres"
	"github.com/stoneforge/stoneforge/internal/store"
)

// NewPlayerCmd creates the player subcommand.
func NewPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Manage player accounts",
	}
	cmd.AddCommand(newPlayerCreateCmd())
	return cmd
}

func newPlayerCreateCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a player account",
		Long: `Create a player account with an argon2id password hash. The password
is read from the STONEFORGE_PLAYER_PASSWORD environment variable so it
never appears in shell history or the process list.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlayerCreate(cmd, args[0], role)
		},
	}

	cmd.Flags().StringVar(&role, "role", string(auth.RolePlayer), "account role (player or admin)")

	return cmd
}

func runPlayerCreate(cmd *cobra.Command, username, role string) error {
	if err := auth.ValidateUsername(username); err != nil {
		return err
	}

	password := os.Getenv("STONEFORGE_PLAYER_PASSWORD")
	if password == "" {
		return oops.Code("CONFIG_INVALID").Errorf("STONEFORGE_PLAYER_PASSWORD environment variable is required")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
	}

	hash, err := auth.NewArgon2idHasher().Hash(password)
	if err != nil {
		return err
	}

	player, err := auth.NewPlayer(username, hash, auth.Role(role))
	if err != nil {
		return err
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

	if err := postgres.NewPlayerRepository(pool).Create(ctx, player); err != nil {
		return err
	}

	cmd.Printf("Created %s %q (%s)\n", player.Role, player.Username, player.ID)
	return nil
}
