package itest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/climbing-section/backoffice/internal/adapters/httpapi"
	"github.com/climbing-section/backoffice/internal/adapters/mailer"
	memadminrepo "github.com/climbing-section/backoffice/internal/adapters/memory/adminrepo"
	memblobstore "github.com/climbing-section/backoffice/internal/adapters/memory/blobstore"
	memclock "github.com/climbing-section/backoffice/internal/adapters/memory/clock"
	memidempotency "github.com/climbing-section/backoffice/internal/adapters/memory/idempotency"
	meminvitationrepo "github.com/climbing-section/backoffice/internal/adapters/memory/invitationrepo"
	memmemberrepo "github.com/climbing-section/backoffice/internal/adapters/memory/memberrepo"
	memmembershiprepo "github.com/climbing-section/backoffice/internal/adapters/memory/membershiprepo"
	memseasonrepo "github.com/climbing-section/backoffice/internal/adapters/memory/seasonrepo"
	pgadminrepo "github.com/climbing-section/backoffice/internal/adapters/postgres/adminrepo"
	pgidempotency "github.com/climbing-section/backoffice/internal/adapters/postgres/idempotency"
	pginvitationrepo "github.com/climbing-section/backoffice/internal/adapters/postgres/invitationrepo"
	pgmemberrepo "github.com/climbing-section/backoffice/internal/adapters/postgres/memberrepo"
	pgmembershiprepo "github.com/climbing-section/backoffice/internal/adapters/postgres/membershiprepo"
	pgseasonrepo "github.com/climbing-section/backoffice/internal/adapters/postgres/seasonrepo"
	postgres_testutil "github.com/climbing-section/backoffice/internal/adapters/postgres/testutil"
	"github.com/climbing-section/backoffice/internal/app/admins"
	"github.com/climbing-section/backoffice/internal/app/export"
	"github.com/climbing-section/backoffice/internal/app/members"
	"github.com/climbing-section/backoffice/internal/app/memberships"
	"github.com/climbing-section/backoffice/internal/app/seasons"
	"github.com/climbing-section/backoffice/internal/platform/auth/session"
	"github.com/climbing-section/backoffice/internal/platform/config"
	"github.com/climbing-section/backoffice/internal/platform/password"
	adminrepoport "github.com/climbing-section/backoffice/internal/ports/out/adminrepo"
	idempotencyport "github.com/climbing-section/backoffice/internal/ports/out/idempotency"
	invitationrepoport "github.com/climbing-section/backoffice/internal/ports/out/invitationrepo"
	memberrepoport "github.com/climbing-section/backoffice/internal/ports/out/memberrepo"
	membershiprepoport "github.com/climbing-section/backoffice/internal/ports/out/membershiprepo"
	seasonrepoport "github.com/climbing-section/backoffice/internal/ports/out/seasonrepo"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"

	adminEmail    = "itest-admin@example.org"
	adminPassword = "itest-password-2025"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2025, 9, 15, 9, 0, 0, 0, time.UTC))

	var (
		memberRepo     memberrepoport.Repository
		seasonRepo     seasonrepoport.Repository
		membershipRepo membershiprepoport.Repository
		adminRepo      adminrepoport.Repository
		invitationRepo invitationrepoport.Repository
		idemStore      idempotencyport.Store
	)

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		memberRepo = pgmemberrepo.NewRepo(pool)
		seasonRepo = pgseasonrepo.NewRepo(pool)
		membershipRepo = pgmembershiprepo.NewRepo(pool)
		adminRepo = pgadminrepo.NewRepo(pool)
		invitationRepo = pginvitationrepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool)
	case backendMemory:
		memberRepo = memmemberrepo.NewRepo()
		seasonRepo = memseasonrepo.NewRepo()
		membershipRepo = memmembershiprepo.NewRepo()
		adminRepo = memadminrepo.NewRepo()
		invitationRepo = meminvitationrepo.NewRepo()
		idemStore = memidempotency.NewStore()
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	sessions := session.NewWithOptions(config.SessionConfig{
		Secret:   []byte("itest-secret-itest-secret-itest-secret"),
		Issuer:   "itest",
		Audience: "itest",
		TTL:      time.Hour,
	}, clk)
	adminSvc := admins.NewService(
		adminRepo,
		invitationRepo,
		sessions,
		password.Hasher{Params: password.Params{Time: 1, Memory: 8, Threads: 1}},
		mailer.NewLogMailer(nil),
		clk,
		nil,
		admins.Options{PublicBaseURL: "http://localhost"},
	)
	if _, _, err := adminSvc.BootstrapAdmin(context.Background(), adminEmail, adminPassword); err != nil {
		t.Fatalf("BootstrapAdmin: %v", err)
	}

	api := httpapi.NewServer(httpapi.Deps{
		Members:     members.NewService(memberRepo, membershipRepo, memblobstore.NewStore(), clk, nil),
		Seasons:     seasons.NewService(seasonRepo, membershipRepo, clk, nil),
		Memberships: memberships.NewService(membershipRepo, memberRepo, seasonRepo, clk, nil),
		Admins:      adminSvc,
		Export:      export.NewService(memberRepo, membershipRepo, seasonRepo, clk, nil),
		Idem:        idemStore,
		Clock:       clk,
	})
	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{LoginRateLimitRPM: 100})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

// login returns a bearer token for the bootstrap admin.
func (s *testServer) login(t *testing.T) string {
	t.Helper()
	status, body, _ := s.doJSON(t, http.MethodPost, "/auth/login", "", map[string]any{"email": adminEmail, "password": adminPassword})
	if status != http.StatusOK {
		t.Fatalf("login status=%d body=%s", status, string(body))
	}
	return mustUnmarshal[struct {
		Token string `json:"token"`
	}](t, body).Token
}

func (s *testServer) doJSON(t *testing.T, method string, path string, token string, body any, headers ...string) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestId string `json:"requestId"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireStatus(t *testing.T, status int, body []byte, want int) {
	t.Helper()
	if status != want {
		t.Fatalf("status=%d want=%d body=%s", status, want, string(body))
	}
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	requireStatus(t, status, body, wantStatus)
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
}

func requireHeaderPresent(t *testing.T, h http.Header, key string) {
	t.Helper()
	if strings.TrimSpace(h.Get(key)) == "" {
		t.Fatalf("expected header %q to be present", key)
	}
}
