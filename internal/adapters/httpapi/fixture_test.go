package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"sync"
	"testing"
	"time"

	memadminrepo "github.com/climbing-section/backoffice/internal/adapters/memory/adminrepo"
	memblobstore "github.com/climbing-section/backoffice/internal/adapters/memory/blobstore"
	memclock "github.com/climbing-section/backoffice/internal/adapters/memory/clock"
	memidempotency "github.com/climbing-section/backoffice/internal/adapters/memory/idempotency"
	meminvitationrepo "github.com/climbing-section/backoffice/internal/adapters/memory/invitationrepo"
	memmemberrepo "github.com/climbing-section/backoffice/internal/adapters/memory/memberrepo"
	memmembershiprepo "github.com/climbing-section/backoffice/internal/adapters/memory/membershiprepo"
	memseasonrepo "github.com/climbing-section/backoffice/internal/adapters/memory/seasonrepo"
	"github.com/climbing-section/backoffice/internal/app/admins"
	"github.com/climbing-section/backoffice/internal/app/export"
	"github.com/climbing-section/backoffice/internal/app/members"
	"github.com/climbing-section/backoffice/internal/app/memberships"
	"github.com/climbing-section/backoffice/internal/app/seasons"
	"github.com/climbing-section/backoffice/internal/domain"
	"github.com/climbing-section/backoffice/internal/platform/auth/session"
	"github.com/climbing-section/backoffice/internal/platform/config"
	"github.com/climbing-section/backoffice/internal/platform/password"
	"github.com/climbing-section/backoffice/internal/ports/out/mailer"
)

const (
	ownerEmail    = "owner@example.org"
	ownerPassword = "correct-horse-42-battery"
	pngHeader     = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *recordingMailer) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatalf("no email sent")
	}
	body := m.sent[len(m.sent)-1].Text
	i := strings.Index(body, "/activate?token=")
	if i < 0 {
		t.Fatalf("no activation link in %q", body)
	}
	rest := body[i+len("/activate?token="):]
	if j := strings.IndexByte(rest, '\n'); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

type testAPI struct {
	h      http.Handler
	clk    *memclock.ManualClock
	mail   *recordingMailer
	blobs  *memblobstore.Store
	admins *admins.Service
	owner  domain.Admin
	token  string
}

type apiOptions struct {
	loginRPM int
	now      func() time.Time
	auth     func(*admins.Service) func(http.Handler) http.Handler
	trusted  []netip.Prefix
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	return newTestAPIWithOptions(t, apiOptions{})
}

func newTestAPIWithOptions(t *testing.T, o apiOptions) *testAPI {
	t.Helper()
	ctx := context.Background()
	clk := memclock.NewManualClock(time.Date(2025, 9, 15, 9, 0, 0, 0, time.UTC))

	memberRepo := memmemberrepo.NewRepo()
	membershipRepo := memmembershiprepo.NewRepo()
	seasonRepo := memseasonrepo.NewRepo()
	blobs := memblobstore.NewStore()
	mail := &recordingMailer{}

	sessions := session.NewWithOptions(config.SessionConfig{
		Secret:   []byte("0123456789abcdef0123456789abcdef"),
		Issuer:   "backoffice-test",
		Audience: "backoffice-test",
		TTL:      time.Hour,
	}, clk)
	adminSvc := admins.NewService(
		memadminrepo.NewRepo(),
		meminvitationrepo.NewRepo(),
		sessions,
		password.Hasher{Params: password.Params{Time: 1, Memory: 8, Threads: 1}},
		mail,
		clk,
		nil,
		admins.Options{PublicBaseURL: "https://backoffice.example.org"},
	)
	owner, _, err := adminSvc.BootstrapAdmin(ctx, ownerEmail, ownerPassword)
	if err != nil {
		t.Fatalf("BootstrapAdmin() err=%v", err)
	}
	sess, err := adminSvc.Login(ctx, ownerEmail, ownerPassword)
	if err != nil {
		t.Fatalf("Login() err=%v", err)
	}

	memberSvc := members.NewService(memberRepo, membershipRepo, blobs, clk, nil)
	memberSvc.PictureMaxBytes = 1024
	api := NewServer(Deps{
		Members:     memberSvc,
		Seasons:     seasons.NewService(seasonRepo, membershipRepo, clk, nil),
		Memberships: memberships.NewService(membershipRepo, memberRepo, seasonRepo, clk, nil),
		Admins:      adminSvc,
		Export:      export.NewService(memberRepo, membershipRepo, seasonRepo, clk, nil),
		Idem:        memidempotency.NewStore(),
		Clock:       clk,
	})

	rpm := o.loginRPM
	if rpm == 0 {
		rpm = 1000
	}
	opts := RouterOptions{LoginRateLimitRPM: rpm, Now: o.now, TrustedProxies: o.trusted}
	if o.auth != nil {
		opts.AuthMiddleware = o.auth(adminSvc)
	}
	return &testAPI{
		h:      NewRouterWithOptions(api, opts),
		clk:    clk,
		mail:   mail,
		blobs:  blobs,
		admins: adminSvc,
		owner:  owner,
		token:  sess.Token.Value,
	}
}

// do sends body as JSON with the owner's bearer token. Extra headers come as key/value pairs;
// an empty Authorization value removes the token.
func (a *testAPI) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	return a.doFrom(t, "", method, path, body, headers...)
}

// doFrom sends the request from the given socket address; empty keeps httptest's default.
func (a *testAPI) doFrom(t *testing.T, remoteAddr, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	for i := 0; i+1 < len(headers); i += 2 {
		if headers[i+1] == "" {
			req.Header.Del(headers[i])
			continue
		}
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) raw(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req.Header.Set("Authorization", "Bearer "+a.token)
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, rec.Body.String())
	}
	return out
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status=%d want=%d body=%s", rec.Code, want, rec.Body.String())
	}
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) ErrorResponse {
	t.Helper()
	requireStatus(t, rec, status)
	er := decode[ErrorResponse](t, rec)
	if er.Error.Code != code {
		t.Fatalf("error.code=%q want=%q body=%s", er.Error.Code, code, rec.Body.String())
	}
	return er
}

func memberBody(email string) map[string]any {
	return map[string]any{
		"firstName": " Alice ",
		"lastName":  "Martin",
		"birthDate": "1990-04-12",
		"gender":    "F",
		"email":     email,
		"phone":     "06 12 34 56 78",
		"address": map[string]any{
			"street":     "12 rue des Lilas",
			"postalCode": "69003",
			"city":       "Lyon",
		},
	}
}

func (a *testAPI) createMember(t *testing.T, email string) Member {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/members", memberBody(email))
	requireStatus(t, rec, http.StatusCreated)
	return decode[MemberResponse](t, rec).Member
}

func (a *testAPI) createSeason(t *testing.T) Season {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/seasons", map[string]any{
		"label":         "2025-2026",
		"startsOn":      "2025-09-01",
		"endsOn":        "2026-08-31",
		"licenseFees":   map[string]int64{"ADULT": 8000, "YOUTH": 6000},
		"insuranceFees": map[string]int64{"BASE": 1000, "BASE_PLUS": 1500},
		"makeCurrent":   true,
	})
	requireStatus(t, rec, http.StatusCreated)
	return decode[SeasonResponse](t, rec).Season
}
