// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/stoneforge/stoneforge/internal/auth"
	"github.com/stoneforge/stoneforge/internal/observability"
)

// refreshCookieName is the cookie carrying the refresh token for
// browser clients. Game clients send it in the request body instead.
const refreshCookieName = "refresh_token"

// API holds the handlers for the authentication endpoints.
type API struct {
	issuer     *auth.TokenIssuer
	rotator    *auth.RotationEngine
	revoker    *auth.RevocationService
	validator  *auth.AccessValidator
	players    auth.PlayerRepository
	refreshTTL time.Duration
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewAPI creates the handler set. metrics may be nil, in which case no
// counters are recorded.
func NewAPI(
	issuer *auth.TokenIssuer,
	rotator *auth.RotationEngine,
	revoker *auth.RevocationService,
	validator *auth.AccessValidator,
	players auth.PlayerRepository,
	refreshTTL time.Duration,
	logger *slog.Logger,
	metrics *observability.Metrics,
) (*API, error) {
	if issuer == nil || rotator == nil || revoker == nil || validator == nil || players == nil {
		return nil, oops.Errorf("all auth services are required")
	}
	if refreshTTL <= 0 {
		return nil, oops.Errorf("refresh TTL must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		issuer:     issuer,
		rotator:    rotator,
		revoker:    revoker,
		validator:  validator,
		players:    players,
		refreshTTL: refreshTTL,
		logger:     logger,
		metrics:    metrics,
	}, nil
}

// Handler builds the route table.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", a.instrument("/auth/login", a.handleLogin))
	mux.HandleFunc("POST /auth/refresh", a.instrument("/auth/refresh", a.handleRefresh))
	mux.HandleFunc("POST /auth/logout", a.instrument("/auth/logout", a.handleLogout))
	mux.HandleFunc("POST /auth/logout_all", a.instrument("/auth/logout_all", a.requireAuth(a.handleLogoutAll)))
	mux.HandleFunc("GET /auth/devices", a.instrument("/auth/devices", a.requireAuth(a.handleListDevices)))
	mux.HandleFunc("POST /auth/devices/{device_id}/revoke",
		a.instrument("/auth/devices/revoke", a.requireAuth(a.handleRevokeDevice)))
	mux.HandleFunc("POST /admin/users/{user_id}/revoke",
		a.instrument("/admin/users/revoke", a.requireAdmin(a.handleAdminRevoke)))
	return mux
}

// statusWriter captures the response status for the request counter.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (a *API) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)
		if a.metrics != nil {
			a.metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(sw.status)).Inc()
		}
	}
}

func (a *API) recordLogin(result string) {
	if a.metrics != nil {
		a.metrics.LoginsTotal.WithLabelValues(result).Inc()
	}
}

func (a *API) recordRotation(result string) {
	if a.metrics != nil {
		a.metrics.RotationsTotal.WithLabelValues(result).Inc()
	}
}

func (a *API) recordRevocation(scope string) {
	if a.metrics != nil {
		a.metrics.Revocations.WithLabelValues(scope).Inc()
	}
}

func (a *API) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(a.refreshTTL.Seconds()),
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

type loginRequest struct {
	Login      string `json:"login"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	DeviceID    string       `json:"device_id"`
	DeviceName  string       `json:"device_name"`
	User        userResponse `json:"user"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return
	}

	username := req.Login
	if username == "" {
		username = req.Username
	}

	pair, player, err := a.issuer.Login(r.Context(), username, req.Password, req.DeviceID, req.DeviceName)
	if err != nil {
		a.recordLogin("failure")
		writeDomainError(w, a.logger, err)
		return
	}
	a.recordLogin("success")

	a.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: pair.AccessToken,
		DeviceID:    pair.DeviceID,
		DeviceName:  pair.DeviceName,
		User: userResponse{
			ID:        player.ID.String(),
			Username:  player.Username,
			Role:      string(player.Role),
			CreatedAt: player.CreatedAt,
		},
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	DeviceID     string `json:"device_id"`
}

// refreshTokenFrom pulls the refresh token from the body, falling back
// to the cookie for browser clients.
func refreshTokenFrom(r *http.Request) string {
	var req refreshRequest
	//nolint:errcheck // an unreadable body just means fall through to the cookie
	json.NewDecoder(r.Body).Decode(&req)
	if req.RefreshToken != "" {
		return req.RefreshToken
	}
	if c, err := r.Cookie(refreshCookieName); err == nil {
		return c.Value
	}
	return ""
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	oldRefresh := refreshTokenFrom(r)
	if oldRefresh == "" {
		writeError(w, http.StatusBadRequest, "missing_refresh_token", "missing refresh_token")
		return
	}

	pair, err := a.rotator.Rotate(r.Context(), oldRefresh)
	if err != nil {
		a.recordRotation("failure")
		writeDomainError(w, a.logger, err)
		return
	}
	a.recordRotation("success")

	a.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, refreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		DeviceID:     pair.DeviceID,
	})
}

type messageResponse struct {
	Message string `json:"message"`
}

// handleLogout revokes the presented refresh token. It always answers
// 200: logging out with a token that is already gone is still logged
// out.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := refreshTokenFrom(r); token != "" {
		if err := a.revoker.RevokeToken(r.Context(), token); err != nil {
			a.logger.Warn("logout revocation failed", "error", err)
		} else {
			a.recordRevocation("token")
		}
	}

	clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
}

type revokedResponse struct {
	Revoked int64 `json:"revoked"`
}

// countResponse is the logout_all shape; the device-revoke routes use
// revokedResponse instead.
type countResponse struct {
	Count int64 `json:"count"`
}

func (a *API) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_authorization", "missing Authorization header")
		return
	}

	count, err := a.revoker.RevokeAllForUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, a.logger, err)
		return
	}
	a.recordRevocation("user")

	clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, countResponse{Count: count})
}

type deviceResponse struct {
	DeviceID   string    `json:"device_id"`
	DeviceName string    `json:"device_name"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type devicesResponse struct {
	Devices []deviceResponse `json:"devices"`
}

func (a *API) handleListDevices(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_authorization", "missing Authorization header")
		return
	}

	records, err := a.revoker.ListDevices(r.Context(), userID)
	if err != nil {
		writeDomainError(w, a.logger, err)
		return
	}

	devices := make([]deviceResponse, 0, len(records))
	for _, rec := range records {
		devices = append(devices, deviceResponse{
			DeviceID:   rec.DeviceID,
			DeviceName: rec.DeviceName,
			CreatedAt:  rec.CreatedAt,
			ExpiresAt:  rec.ExpiresAt,
		})
	}

	writeJSON(w, http.StatusOK, devicesResponse{Devices: devices})
}

func (a *API) handleRevokeDevice(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_authorization", "missing Authorization header")
		return
	}

	deviceID := r.PathValue("device_id")
	if deviceID == "" {
		writeError(w, http.StatusBadRequest, "missing_device_id", "missing device_id")
		return
	}

	count, err := a.revoker.RevokeDevice(r.Context(), userID, deviceID)
	if err != nil {
		writeDomainError(w, a.logger, err)
		return
	}
	a.recordRevocation("device")

	writeJSON(w, http.StatusOK, revokedResponse{Revoked: count})
}

// handleAdminRevoke force-logs-out every device of the named user.
func (a *API) handleAdminRevoke(w http.ResponseWriter, r *http.Request) {
	targetID, err := ulid.Parse(r.PathValue("user_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_user_id", "invalid user_id")
		return
	}

	count, err := a.revoker.RevokeAllForUser(r.Context(), targetID)
	if err != nil {
		writeDomainError(w, a.logger, err)
		return
	}
	a.recordRevocation("admin")

	writeJSON(w, http.StatusOK, revokedResponse{Revoked: count})
}
