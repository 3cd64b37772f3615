package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/climbing-section/backoffice/internal/domain"
)

// SessionCookieName carries the session token for browser clients.
const SessionCookieName = "session"

// Authenticator resolves a session token to the active admin it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Admin, error)
}

// AdminLookup loads an admin by id.
type AdminLookup interface {
	GetAdmin(ctx context.Context, id domain.AdminID) (domain.Admin, error)
}

// NewAuthMiddleware requires a session token, from Authorization: Bearer <token> or the
// session cookie, and stores the authenticated admin in request context.
func NewAuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := sessionToken(r)
			if !ok {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "missing session token", nil)
				return
			}
			a, err := auth.Authenticate(r.Context(), raw)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid or expired session", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), a)))
		})
	}
}

func sessionToken(r *http.Request) (string, bool) {
	if authz := r.Header.Get("Authorization"); authz != "" {
		const prefix = "Bearer "
		if !strings.HasPrefix(authz, prefix) {
			return "", false
		}
		raw := strings.TrimSpace(strings.TrimPrefix(authz, prefix))
		return raw, raw != ""
	}
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

// NewDevAuthMiddleware is a local/dev-only auth shim.
//
// It accepts an explicit admin id via X-Debug-Admin and loads that admin. If the header
// is absent, it falls back to defaultAdminID (if provided). Do NOT use this in
// production deployments.
func NewDevAuthMiddleware(lookup AdminLookup, defaultAdminID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get("X-Debug-Admin"))
			if id == "" {
				id = strings.TrimSpace(defaultAdminID)
			}
			if id == "" {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "missing admin (set X-Debug-Admin)", nil)
				return
			}
			a, err := lookup.GetAdmin(r.Context(), domain.AdminID(id))
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "unknown admin", nil)
				return
			}
			if !a.IsActive() {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "admin is not active", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), a)))
		})
	}
}
