// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package auth_test

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stoneforge/stoneforge/internal/auth"
)

func TestNewAccessValidator_NilCodec(t *testing.T) {
	validator, err := auth.NewAccessValidator(nil)
	require.Error(t, err)
	assert.Nil(t, validator)
}

func TestAccessValidator_VerifyBearer(t *testing.T) {
	codec := newTestCodec(t)
	validator, err := auth.NewAccessValidator(codec)
	require.NoError(t, err)

	userID := ulid.Make()
	access, err := codec.IssueAccess(userID)
	require.NoError(t, err)
	refresh, err := codec.IssueRefresh(userID)
	require.NoError(t, err)

	t.Run("valid bearer token", func(t *testing.T) {
		claims, verr := validator.VerifyBearer("Bearer " + access)
		require.NoError(t, verr)
		gotID, verr := claims.UserID()
		require.NoError(t, verr)
		assert.Equal(t, userID, gotID)
	})

	t.Run("scheme is case-insensitive", func(t *testing.T) {
		_, verr := validator.VerifyBearer("bearer " + access)
		assert.NoError(t, verr)
	})

	t.Run("missing header", func(t *testing.T) {
		_, verr := validator.VerifyBearer("")
		assert.ErrorIs(t, verr, auth.ErrMissingAuthHeader)
	})

	t.Run("malformed header", func(t *testing.T) {
		for _, header := range []string{
			"Bearer",
			"Basic " + access,
			"Bearer too many parts",
		} {
			_, verr := validator.VerifyBearer(header)
			assert.ErrorIs(t, verr, auth.ErrMalformedAuthHeader, "header %q", header)
		}
	})

	t.Run("refresh token is rejected", func(t *testing.T) {
		_, verr := validator.VerifyBearer("Bearer " + refresh)
		assert.ErrorIs(t, verr, auth.ErrWrongTokenType)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, verr := validator.VerifyBearer("Bearer garbage")
		assert.ErrorIs(t, verr, auth.ErrMalformedToken)
	})
}
