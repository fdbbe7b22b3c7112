package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"meridianbank.org/internal/audit"
	"meridianbank.org/internal/auth"
	"meridianbank.org/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/register",
	"/v1/auth/login",
	"/v1/auth/refresh",
	"/v1/info",
	"/metrics",
	"/healthz",
	"/readyz",
	"/",
}

// withAuth validates the bearer token on protected paths and attaches the
// verified claim to the request context. Only access tokens authenticate
// requests; a refresh token presented here is rejected.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			unauthenticated(w, r, err.Error())
			return
		}

		claim, err := a.tokens.Validate(token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				unauthenticated(w, r, "token expired")
			default:
				unauthenticated(w, r, "invalid token")
			}
			return
		}
		if claim.Kind != auth.KindAccess {
			unauthenticated(w, r, "invalid token")
			return
		}

		ctx := auth.ContextWithClaim(r.Context(), claim)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a handler by the caller's proven role. Denials are
// audited; an unauthenticated caller and an insufficient role are distinct
// outcomes.
func RequireRole(allowed ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claim, ok := auth.ClaimFromContext(r.Context())
			if !ok {
				unauthenticated(w, r, "authentication required")
				return
			}
			if err := auth.Authorize(claim, allowed...); err != nil {
				logAuditEvent(r.Context(), "authz.denied", map[string]any{
					"path": r.URL.Path,
					"role": string(claim.Role),
				})
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, r, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// logAuditEvent appends to the audit log, best effort. A failed write must not
// fail the request, but it leaves a diagnostic trace.
func logAuditEvent(ctx context.Context, event string, fields map[string]any) {
	if err := audit.LogEvent(ctx, event, fields); err != nil {
		obs.Log(map[string]any{
			"level": "error",
			"msg":   "audit write failed",
			"event": event,
			"error": err.Error(),
		})
	}
}

func unauthenticated(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, r, http.StatusUnauthorized, msg)
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
