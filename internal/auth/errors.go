// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package auth

import "errors"

// Sentinel errors for errors.Is checks. Failure sites wrap these with
// oops codes so callers can branch on kind while logs keep full context.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMissingCredentials is returned when login or password is absent.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords. The two cases are never distinguished to the caller.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAccountLocked is returned when too many failed logins have
	// temporarily locked the account.
	ErrAccountLocked = errors.New("account is temporarily locked")

	// ErrMalformedToken is returned for tokens that do not parse at all.
	ErrMalformedToken = errors.New("malformed token")

	// ErrInvalidOrExpiredToken is returned for tokens with a bad
	// signature or a past expiry. The two causes are indistinguishable.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

	// ErrWrongTokenType is returned when an access token is presented
	// where a refresh token is required, or vice versa.
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrTokenNotFound is returned when a presented refresh token has no
	// live store record. Unknown, already-rotated, and revoked tokens all
	// produce this error; callers must not be able to tell which.
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrMissingAuthHeader is returned when no Authorization header is present.
	ErrMissingAuthHeader = errors.New("missing authorization header")

	// ErrMalformedAuthHeader is returned when the Authorization header is
	// not a well-formed bearer credential.
	ErrMalformedAuthHeader = errors.New("malformed authorization header")
)
