package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"meridianbank.org/internal/auth"
)

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

type identityResponse struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type loginResponse struct {
	AccessToken      string           `json:"access_token"`
	RefreshToken     string           `json:"refresh_token"`
	TokenType        string           `json:"token_type"`
	AccessExpiresAt  time.Time        `json:"access_expires_at"`
	RefreshExpiresAt time.Time        `json:"refresh_expires_at"`
	User             identityResponse `json:"user"`
}

type refreshResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func toIdentityResponse(identity auth.Identity) identityResponse {
	return identityResponse{
		ID:       identity.ID,
		FullName: identity.FullName,
		Email:    identity.Email,
		Phone:    identity.Phone,
		Role:     string(identity.Role),
	}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	identity, err := a.svc.Register(r.Context(), auth.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/users/%d", identity.ID))
	writeJSON(w, http.StatusCreated, toIdentityResponse(identity))
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if a.limiter != nil {
		key := strings.TrimSpace(req.Email)
		if key == "" {
			key = clientIP(r)
		}
		allowed, err := a.limiter.Allow(r.Context(), key)
		if err == nil && !allowed {
			logAuditEvent(r.Context(), "auth.login.throttled", map[string]any{
				"email": req.Email,
			})
			writeError(w, r, http.StatusTooManyRequests, "too many login attempts, try again later")
			return
		}
		// Limiter errors fail open: a cache outage must not lock users out.
	}

	result, err := a.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken:      result.Tokens.AccessToken,
		RefreshToken:     result.Tokens.RefreshToken,
		TokenType:        "Bearer",
		AccessExpiresAt:  result.Tokens.AccessExpiresAt,
		RefreshExpiresAt: result.Tokens.RefreshExpiresAt,
		User:             toIdentityResponse(result.Identity),
	})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		writeError(w, r, http.StatusBadRequest, "refresh_token is required")
		return
	}
	access, exp, err := a.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresAt:   exp,
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	claim, ok := auth.ClaimFromContext(r.Context())
	if !ok {
		unauthenticated(w, r, "authentication required")
		return
	}
	identity, err := a.svc.Identity(r.Context(), claim)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdentityResponse(identity))
}

// handleUserRole serves PATCH /v1/users/{id}/role. The route is wrapped by
// RequireRole(admin); the service authorizes again from the claim, so a
// non-HTTP caller hits the same gate.
func (a *API) handleUserRole(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/users/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "role" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, r, http.MethodPatch)
		return
	}
	targetID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || targetID <= 0 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	claim, ok := auth.ClaimFromContext(r.Context())
	if !ok {
		unauthenticated(w, r, "authentication required")
		return
	}
	var req changeRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	identity, err := a.svc.ChangeRole(r.Context(), claim, targetID, req.Role)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "role updated",
		"user_id": identity.ID,
		"role":    string(identity.Role),
	})
}
