// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stoneforge/stoneforge/pkg/errutil"
)

func TestSweepCommand_Properties(t *testing.T) {
	cmd := NewSweepCmd()

	assert.Equal(t, "sweep", cmd.Use)
	assert.Contains(t, cmd.Long, "expired", "Long description should mention expired tokens")
}

func TestSweepCommand_NoDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	err := execute(t, "sweep")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
