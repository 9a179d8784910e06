// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/oklog/ulid/v2"

	"github.com/stoneforge/stoneforge/internal/auth"
)

type contextKey string

const userIDKey contextKey = "user_id"

// userIDFrom returns the authenticated user's ID placed in the context
// by requireAuth.
func userIDFrom(ctx context.Context) (ulid.ULID, bool) {
	id, ok := ctx.Value(userIDKey).(ulid.ULID)
	return id, ok
}

// requireAuth verifies the Bearer access token and stores the caller's
// user ID in the request context.
func (a *API) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.validator.VerifyBearer(r.Header.Get("Authorization"))
		if err != nil {
			writeDomainError(w, a.logger, err)
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			writeDomainError(w, a.logger, auth.ErrInvalidOrExpiredToken)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	}
}

// requireAdmin layers an admin role check on top of requireAuth. The
// role lives in the player record, not the token, so demotion takes
// effect on the next request rather than at next token issue.
func (a *API) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return a.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_authorization", "missing Authorization header")
			return
		}

		player, err := a.players.GetByID(r.Context(), userID)
		if err != nil {
			// A valid token whose subject no longer exists is an auth
			// failure, not a lookup miss.
			if errors.Is(err, auth.ErrNotFound) {
				writeDomainError(w, a.logger, auth.ErrInvalidOrExpiredToken)
				return
			}
			writeDomainError(w, a.logger, err)
			return
		}
		if !player.IsAdmin() {
			writeError(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}

		next(w, r)
	})
}
