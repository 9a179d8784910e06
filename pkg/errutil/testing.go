// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err is an oops error carrying the given
// string code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	got, ok := oopsErr.Code().(string)
	require.True(t, ok, "expected string code, got %T (%v)", oopsErr.Code(), oopsErr.Code())
	assert.Equal(t, code, got)
}

// AssertErrorContext asserts that err is an oops error whose context
// contains the given key/value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	ctx := oopsErr.Context()
	assert.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}
