// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestMigrateCommand_Properties(t *testing.T) {
	cmd := NewMigrateCmd()

	assert.Equal(t, "migrate", cmd.Use)
	assert.Contains(t, cmd.Long, "PostgreSQL", "Long description should mention PostgreSQL")

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"up", "down", "steps", "version", "force"}, names)
}

func TestMigrateCommand_NoDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	for _, sub := range []string{"up", "down", "version"} {
		t.Run(sub, func(t *testing.T) {
			err := execute(t, "migrate", sub)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "DATABASE_URL")
		})
	}
}

func TestMigrateCommand_InvalidDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "://not-a-url")

	err := execute(t, "migrate", "up")
	require.Error(t, err)
}

func TestMigrateSteps_RejectsNonInteger(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	err := execute(t, "migrate", "steps", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "integer")
}

func TestMigrateForce_RejectsNonInteger(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	err := execute(t, "migrate", "force", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "integer")
}

func TestMigrateSteps_RequiresArgument(t *testing.T) {
	err := execute(t, "migrate", "steps")
	require.Error(t, err)
}
