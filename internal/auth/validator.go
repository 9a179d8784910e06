// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package auth

import (
	"strings"

	"github.com/samber/oops"
)

// AccessValidator verifies presented access tokens. It is the sole
// authentication gate for every other subsystem and never touches the
// refresh store, so revocation has no effect on access tokens already
// in flight.
type AccessValidator struct {
	codec *TokenCodec
}

// NewAccessValidator creates an AccessValidator.
func NewAccessValidator(codec *TokenCodec) (*AccessValidator, error) {
	if codec == nil {
		return nil, oops.Errorf("token codec is required")
	}
	return &AccessValidator{codec: codec}, nil
}

// VerifyBearer parses an "Authorization: Bearer <token>" header value
// and validates the token as an access token.
func (v *AccessValidator) VerifyBearer(header string) (*Claims, error) {
	if header == "" {
		return nil, oops.Code("AUTH_MISSING_HEADER").Wrap(ErrMissingAuthHeader)
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, oops.Code("AUTH_MALFORMED_HEADER").Wrap(ErrMalformedAuthHeader)
	}

	return v.codec.VerifyAccess(parts[1])
}
