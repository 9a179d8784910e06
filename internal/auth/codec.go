// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Token type markers carried in the "typ" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Default token lifetimes, matching the game client's expectations:
// access tokens live minutes, refresh tokens live days.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 14 * 24 * time.Hour
)

// Claims is the signed claim set for both token kinds. Refresh tokens
// additionally carry a jti so two tokens for the same user never hash
// to the same store key.
type Claims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// CodecConfig holds the process-wide signing configuration. The secret
// and algorithm come from the environment so the key can be rotated
// without a code change.
type CodecConfig struct {
	Secret     []byte
	Algorithm  string // HS256, HS384, or HS512
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenCodec signs and verifies access and refresh claim sets. It is
// stateless and safe for concurrent use.
type TokenCodec struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenCodec creates a TokenCodec from the given configuration.
// Zero TTLs fall back to the defaults.
func NewTokenCodec(cfg CodecConfig) (*TokenCodec, error) {
	if len(cfg.Secret) == 0 {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").Errorf("signing secret is required")
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = jwt.SigningMethodHS256.Alg()
	}
	if !strings.HasPrefix(cfg.Algorithm, "HS") {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").
			With("algorithm", cfg.Algorithm).
			Errorf("only HMAC signing algorithms are supported")
	}
	method := jwt.GetSigningMethod(cfg.Algorithm)
	if method == nil {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").
			With("algorithm", cfg.Algorithm).
			Errorf("unknown signing algorithm")
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.AccessTTL < 0 || cfg.RefreshTTL < 0 {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").Errorf("token TTLs must be positive")
	}

	return &TokenCodec{
		secret:     cfg.Secret,
		method:     method,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

// AccessTTL returns the configured access-token lifetime.
func (c *TokenCodec) AccessTTL() time.Duration {
	return c.accessTTL
}

// RefreshTTL returns the configured refresh-token lifetime.
func (c *TokenCodec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

// IssueAccess signs a short-lived access token for the user.
func (c *TokenCodec) IssueAccess(userID ulid.ULID) (string, error) {
	return c.sign(userID, TokenTypeAccess, "", c.accessTTL)
}

// IssueRefresh signs a long-lived refresh token for the user. The
// returned string is the raw secret handed to the client; only
// HashRefreshSecret of it is ever persisted.
func (c *TokenCodec) IssueRefresh(userID ulid.ULID) (string, error) {
	return c.sign(userID, TokenTypeRefresh, uuid.NewString(), c.refreshTTL)
}

func (c *TokenCodec) sign(userID ulid.ULID, tokenType, jti string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").
			With("token_type", tokenType).
			Wrap(err)
	}
	return signed, nil
}

// Verify parses and validates a token of either kind.
// Fails with ErrMalformedToken or ErrInvalidOrExpiredToken.
func (c *TokenCodec) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
	)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, oops.Code("TOKEN_MALFORMED").Wrap(ErrMalformedToken)
	default:
		// Bad signature and past expiry are deliberately indistinguishable.
		return nil, oops.Code("TOKEN_INVALID").Wrap(ErrInvalidOrExpiredToken)
	}
}

// VerifyAccess validates an access token and returns its claims.
// Refresh tokens are rejected with ErrWrongTokenType.
func (c *TokenCodec) VerifyAccess(token string) (*Claims, error) {
	return c.verifyType(token, TokenTypeAccess)
}

// VerifyRefresh validates a refresh token and returns its claims.
// Access tokens are rejected with ErrWrongTokenType.
func (c *TokenCodec) VerifyRefresh(token string) (*Claims, error) {
	return c.verifyType(token, TokenTypeRefresh)
}

func (c *TokenCodec) verifyType(token, wantType string) (*Claims, error) {
	claims, err := c.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != wantType {
		return nil, oops.Code("TOKEN_WRONG_TYPE").
			With("want", wantType).
			With("got", claims.TokenType).
			Wrap(ErrWrongTokenType)
	}
	return claims, nil
}

// UserID parses the subject claim back into a player ID.
func (cl *Claims) UserID() (ulid.ULID, error) {
	id, err := ulid.Parse(cl.Subject)
	if err != nil {
		return ulid.ULID{}, oops.Code("TOKEN_INVALID_SUBJECT").
			With("subject", cl.Subject).
			Wrap(ErrMalformedToken)
	}
	return id, nil
}
