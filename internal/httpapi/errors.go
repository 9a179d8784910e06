// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/stoneforge/stoneforge/internal/auth"
	"github.com/stoneforge/stoneforge/pkg/errutil"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // response write error means the client is gone
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeDomainError maps a domain error onto an HTTP status and a stable
// error code. Storage and other unexpected failures become opaque 500s;
// their detail goes to the log, never to the client.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		writeError(w, http.StatusBadRequest, "missing_credentials", "missing login or password")
	case errors.Is(err, auth.ErrMalformedToken):
		writeError(w, http.StatusBadRequest, "malformed_token", "malformed token")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
	case errors.Is(err, auth.ErrAccountLocked):
		writeError(w, http.StatusTooManyRequests, "account_locked", "account temporarily locked")
	case errors.Is(err, auth.ErrInvalidOrExpiredToken):
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid or expired token")
	case errors.Is(err, auth.ErrWrongTokenType):
		writeError(w, http.StatusUnauthorized, "wrong_token_type", "wrong token type")
	case errors.Is(err, auth.ErrTokenNotFound):
		writeError(w, http.StatusUnauthorized, "token_revoked", "refresh token is not active")
	case errors.Is(err, auth.ErrMissingAuthHeader):
		writeError(w, http.StatusUnauthorized, "missing_authorization", "missing Authorization header")
	case errors.Is(err, auth.ErrMalformedAuthHeader):
		writeError(w, http.StatusUnauthorized, "malformed_authorization", "malformed Authorization header")
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "not found")
	default:
		errutil.LogError(logger, "request failed", err)
		code := errutil.CodeOf(err)
		if code == "" {
			code = "internal_error"
		}
		writeError(w, http.StatusInternalServerError, code, "internal error")
	}
}
