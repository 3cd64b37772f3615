package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/climbing-section/backoffice/internal/app/admins"
)

func TestAuthMiddleware_RejectsMissingOrMalformedToken(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	cases := []struct {
		name  string
		authz string
	}{
		{name: "missing", authz: ""},
		{name: "not bearer", authz: "Basic abc"},
		{name: "empty bearer", authz: "Bearer "},
		{name: "garbage", authz: "Bearer not-a-token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/members", nil)
			if tc.authz != "" {
				req.Header.Set("Authorization", tc.authz)
			}
			rec := httptest.NewRecorder()
			api.h.ServeHTTP(rec, req)
			er := requireError(t, rec, http.StatusUnauthorized, "UNAUTHENTICATED")
			if !er.Error.RequestId.IsSpecified() {
				t.Fatalf("expected requestId in %s", rec.Body.String())
			}
		})
	}
}

func TestAuthMiddleware_AcceptsSessionCookie(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: api.token})
	rec := httptest.NewRecorder()
	api.h.ServeHTTP(rec, req)
	requireStatus(t, rec, http.StatusOK)
	if got := decode[AdminResponse](t, rec).Admin.AdminId; got != string(api.owner.ID) {
		t.Fatalf("adminId=%q want %q", got, api.owner.ID)
	}
}

func TestAuthMiddleware_DisabledAdminLosesAccess(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/admins", map[string]any{"email": "second@example.org", "firstName": "Sam", "lastName": "Roche"})
	requireStatus(t, rec, http.StatusCreated)
	second := decode[AdminResponse](t, rec).Admin
	rec = api.do(t, http.MethodPost, "/auth/activate", map[string]any{"token": api.mail.lastToken(t), "password": ownerPassword}, "Authorization", "")
	requireStatus(t, rec, http.StatusOK)

	rec = api.do(t, http.MethodPost, "/auth/login", map[string]any{"email": "second@example.org", "password": ownerPassword}, "Authorization", "")
	requireStatus(t, rec, http.StatusOK)
	secondToken := decode[LoginResponse](t, rec).Token

	requireStatus(t, api.do(t, http.MethodGet, "/auth/me", nil, "Authorization", "Bearer "+secondToken), http.StatusOK)
	requireStatus(t, api.do(t, http.MethodPost, "/admins/"+second.AdminId+"/disable", nil), http.StatusOK)
	requireError(t, api.do(t, http.MethodGet, "/auth/me", nil, "Authorization", "Bearer "+secondToken), http.StatusUnauthorized, "UNAUTHENTICATED")
}

func TestHealthz_IsPublic(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	api.h.ServeHTTP(rec, req)
	requireStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "ok" {
		t.Fatalf("body=%q", rec.Body.String())
	}
}

func TestDevAuthMiddleware(t *testing.T) {
	t.Parallel()
	api := newTestAPIWithOptions(t, apiOptions{auth: func(svc *admins.Service) func(http.Handler) http.Handler {
		return NewDevAuthMiddleware(svc, "")
	}})

	rec := api.do(t, http.MethodGet, "/auth/me", nil, "Authorization", "", "X-Debug-Admin", string(api.owner.ID))
	requireStatus(t, rec, http.StatusOK)

	requireError(t, api.do(t, http.MethodGet, "/auth/me", nil, "Authorization", ""), http.StatusUnauthorized, "UNAUTHENTICATED")
	requireError(t, api.do(t, http.MethodGet, "/auth/me", nil, "Authorization", "", "X-Debug-Admin", "nobody"), http.StatusUnauthorized, "UNAUTHENTICATED")
}

func TestDevAuthMiddleware_RejectsInactiveAdmins(t *testing.T) {
	t.Parallel()
	api := newTestAPIWithOptions(t, apiOptions{auth: func(svc *admins.Service) func(http.Handler) http.Handler {
		return NewDevAuthMiddleware(svc, "")
	}})
	asOwner := []string{"Authorization", "", "X-Debug-Admin", string(api.owner.ID)}

	rec := api.do(t, http.MethodPost, "/admins", map[string]any{"email": "invited@example.org", "firstName": "Lou", "lastName": "Vidal"}, asOwner...)
	requireStatus(t, rec, http.StatusCreated)
	invited := decode[AdminResponse](t, rec).Admin
	requireError(t, api.do(t, http.MethodGet, "/auth/me", nil, "Authorization", "", "X-Debug-Admin", invited.AdminId), http.StatusUnauthorized, "UNAUTHENTICATED")

	rec = api.do(t, http.MethodPost, "/admins", map[string]any{"email": "leaver@example.org", "firstName": "Noa", "lastName": "Blanc"}, asOwner...)
	requireStatus(t, rec, http.StatusCreated)
	leaver := decode[AdminResponse](t, rec).Admin
	rec = api.do(t, http.MethodPost, "/auth/activate", map[string]any{"token": api.mail.lastToken(t), "password": ownerPassword}, "Authorization", "")
	requireStatus(t, rec, http.StatusOK)
	requireStatus(t, api.do(t, http.MethodGet, "/auth/me", nil, "Authorization", "", "X-Debug-Admin", leaver.AdminId), http.StatusOK)

	requireStatus(t, api.do(t, http.MethodPost, "/admins/"+leaver.AdminId+"/disable", nil, asOwner...), http.StatusOK)
	requireError(t, api.do(t, http.MethodGet, "/auth/me", nil, "Authorization", "", "X-Debug-Admin", leaver.AdminId), http.StatusUnauthorized, "UNAUTHENTICATED")
}
