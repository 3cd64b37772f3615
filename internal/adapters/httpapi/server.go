package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/climbing-section/backoffice/internal/app/admins"
	"github.com/climbing-section/backoffice/internal/app/export"
	"github.com/climbing-section/backoffice/internal/app/members"
	"github.com/climbing-section/backoffice/internal/app/memberships"
	"github.com/climbing-section/backoffice/internal/app/seasons"
	"github.com/climbing-section/backoffice/internal/domain"
	clockport "github.com/climbing-section/backoffice/internal/ports/out/clock"
	"github.com/climbing-section/backoffice/internal/ports/out/idempotency"
)

const (
	maxJSONBody           = 1 << 20
	maxIdempotencyKeySize = 255
)

// Deps are the application services behind the HTTP adapter.
type Deps struct {
	Members     *members.Service
	Seasons     *seasons.Service
	Memberships *memberships.Service
	Admins      *admins.Service
	Export      *export.Service
	Idem        idempotency.Store
	Clock       clockport.Clock
	Logger      *zap.Logger

	// SecureCookies marks the session cookie Secure; off only for plain-HTTP local dev.
	SecureCookies bool
}

// Server is the HTTP adapter. It decodes requests, calls the application services, and
// encodes their results or errors.
type Server struct {
	members     *members.Service
	seasons     *seasons.Service
	memberships *memberships.Service
	admins      *admins.Service
	exports     *export.Service
	idem        idempotency.Store
	clock       clockport.Clock
	logger      *zap.Logger

	secureCookies bool
}

func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		members:       d.Members,
		seasons:       d.Seasons,
		memberships:   d.Memberships,
		admins:        d.Admins,
		exports:       d.Export,
		idem:          d.Idem,
		clock:         d.Clock,
		logger:        logger,
		secureCookies: d.SecureCookies,
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "request body is too large", nil)
			return false
		}
		writeError(w, r, http.StatusBadRequest, "MALFORMED_REQUEST", "request body is not valid JSON", map[string]any{"reason": err.Error()})
		return false
	}
	return true
}

func (s *Server) currentAdmin(w http.ResponseWriter, r *http.Request) (domain.Admin, bool) {
	a, ok := AdminFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "missing admin", nil)
	}
	return a, ok
}

// createResult is what a create handler produces when it succeeds.
type createResult struct {
	status  int
	payload any
}

// idempotentCreate runs create under the Idempotency-Key contract when the header is present:
// - the first body seen for (key, admin, route) is pinned; another body is rejected with 409
// - a retry with the same body replays the stored response without calling create again
func (s *Server) idempotentCreate(w http.ResponseWriter, r *http.Request, route string, body any, create func() (createResult, error)) {
	ctx := r.Context()
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" || s.idem == nil {
		res, err := create()
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, res.status, res.payload)
		return
	}
	if len(key) > maxIdempotencyKeySize {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid Idempotency-Key", map[string]any{"Idempotency-Key": "must be at most 255 characters"})
		return
	}

	actor, _ := AdminFromContext(ctx)
	bodyHash, err := hashBody(body)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	metaFP := idempotency.Fingerprint{
		Key:    idempotency.Key(key),
		Actor:  actor.ID,
		Method: r.Method,
		Route:  route,
	}
	if meta, ok, err := s.idem.Get(ctx, metaFP); err != nil {
		s.writeServiceError(w, r, err)
		return
	} else if ok {
		if string(meta.Body) != bodyHash {
			writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", "idempotency key reuse with different payload", nil)
			return
		}
	} else if err := s.idem.Put(ctx, metaFP, idempotency.Record{
		ContentType: "text/plain",
		Body:        []byte(bodyHash),
		CreatedAt:   s.clock.Now().UTC(),
	}); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	respFP := metaFP
	respFP.BodyHash = bodyHash
	if rec, ok, err := s.idem.Get(ctx, respFP); err != nil {
		s.writeServiceError(w, r, err)
		return
	} else if ok && rec.StatusCode != 0 {
		w.Header().Set("Content-Type", rec.ContentType)
		w.Header().Set("Idempotent-Replayed", "true")
		w.WriteHeader(rec.StatusCode)
		_, _ = w.Write(rec.Body)
		return
	}

	res, err := create()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	b, err := json.Marshal(res.payload)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	b = append(b, '\n')
	if err := s.idem.Put(ctx, respFP, idempotency.Record{
		StatusCode:  res.status,
		ContentType: "application/json",
		Body:        b,
		CreatedAt:   s.clock.Now().UTC(),
	}); err != nil {
		s.logger.Warn("store idempotent response", zap.String("route", route), zap.Error(err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.status)
	_, _ = w.Write(b)
}

func hashBody(body any) (string, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
