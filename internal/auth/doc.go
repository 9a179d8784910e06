// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

// Package auth implements the credential and session lifecycle for
// Stoneforge's multi-device clients.
//
// # Domain Types
//
// Domain types (Player, RefreshRecord) should be created using their
// respective constructors:
//   - NewPlayer - creates a Player with validated username and password hash
//   - NewRefreshRecord - creates a RefreshRecord with validated owner and expiry
//
// Direct struct initialization bypasses validation and may create invalid state.
// Repository implementations receive pre-validated types from these constructors.
//
// # Services
//
// Service types coordinate domain operations:
//   - TokenIssuer - login, issuing a bound access/refresh pair
//   - RotationEngine - atomic refresh-token rotation
//   - RevocationService - per-token, per-device, and per-user revocation
//   - ExpiryReaper - periodic purge of expired refresh records
//   - AccessValidator - stateless bearer-token verification
//
// Services are created with New* constructors that validate dependencies.
// Access tokens are stateless: revoking a refresh token never recalls
// access tokens already in flight, it only blocks future rotations.
package auth
