// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stoneforge/stoneforge/pkg/errutil"
)

func TestPlayerCreate_RequiresUsernameArg(t *testing.T) {
	require.Error(t, execute(t, "player", "create"))
}

func TestPlayerCreate_RejectsInvalidUsername(t *testing.T) {
	t.Setenv("STONEFORGE_PLAYER_PASSWORD", "password")
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	err := execute(t, "player", "create", "no spaces allowed")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_USERNAME")
}

func TestPlayerCreate_RequiresPasswordEnv(t *testing.T) {
	t.Setenv("STONEFORGE_PLAYER_PASSWORD", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	err := execute(t, "player", "create", "alice")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	assert.Contains(t, err.Error(), "STONEFORGE_PLAYER_PASSWORD")
}

func TestPlayerCreate_RejectsInvalidRole(t *testing.T) {
	t.Setenv("STONEFORGE_PLAYER_PASSWORD", "password")
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	err := execute(t, "player", "create", "alice", "--role", "emperor")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_ROLE")
}

func TestPlayerCreate_NoDatabaseURL(t *testing.T) {
	t.Setenv("STONEFORGE_PLAYER_PASSWORD", "password")
	t.Setenv("DATABASE_URL", "")

	err := execute(t, "player", "create", "alice")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
