package idempotency

import (
	"context"
	"time"

	"github.com/climbing-section/backoffice/internal/domain"
)

// Key is the caller-provided idempotency key (Idempotency-Key header).
type Key string

// Fingerprint identifies a request uniquely for idempotency purposes:
// key + route + acting admin + request body hash.
// Route is represented as HTTP method + path template (e.g. "POST /members").
type Fingerprint struct {
	Key      Key
	Actor    domain.AdminID
	Method   string
	Route    string
	BodyHash string
}

// Record is the stored response we can replay for a duplicate request.
type Record struct {
	StatusCode  int
	ContentType string
	Body        []byte
	CreatedAt   time.Time
}

// Store persists idempotency records for replaying safe responses on retries.
type Store interface {
	Get(ctx context.Context, fp Fingerprint) (Record, bool, error)
	Put(ctx context.Context, fp Fingerprint, rec Record) error

	// DeleteBefore drops records created before the cutoff and reports how many were removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)
}
