// Package session issues and verifies the HS256 session tokens handed to admins at login.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/climbing-section/backoffice/internal/domain"
	"github.com/climbing-section/backoffice/internal/platform/config"
)

var ErrUnauthorized = errors.New("unauthorized")

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// DefaultClockSkew is tolerated on exp and nbf.
const DefaultClockSkew = 30 * time.Second

// Token is a freshly issued session.
type Token struct {
	Value     string
	AdminID   domain.AdminID
	ExpiresAt time.Time
}

type Manager struct {
	cfg   config.SessionConfig
	clock Clock
	skew  time.Duration
}

func New(cfg config.SessionConfig) *Manager {
	return NewWithOptions(cfg, nil)
}

func NewWithOptions(cfg config.SessionConfig, clock Clock) *Manager {
	if clock == nil {
		clock = realClock{}
	}
	return &Manager{cfg: cfg, clock: clock, skew: DefaultClockSkew}
}

func (m *Manager) TTL() time.Duration { return m.cfg.TTL }

// Issue signs a session token whose subject is the admin id.
func (m *Manager) Issue(adminID domain.AdminID) (Token, error) {
	if adminID == "" {
		return Token{}, errors.New("empty admin id")
	}
	now := m.clock.Now().UTC()
	exp := now.Add(m.cfg.TTL)
	claims := jwt.RegisteredClaims{
		Issuer:    m.cfg.Issuer,
		Subject:   string(adminID),
		Audience:  jwt.ClaimStrings{m.cfg.Audience},
		ExpiresAt: jwt.NewNumericDate(exp),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.cfg.Secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign session: %w", err)
	}
	return Token{Value: signed, AdminID: adminID, ExpiresAt: exp.Truncate(time.Second)}, nil
}

// Verify checks signature, iss, aud, exp and nbf and returns the admin id from `sub`.
func (m *Manager) Verify(ctx context.Context, token string) (domain.AdminID, error) {
	_ = ctx
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return m.cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithAudience(m.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.skew),
		jwt.WithTimeFunc(m.clock.Now),
	)
	if err != nil || !parsed.Valid {
		return "", ErrUnauthorized
	}
	if claims.Subject == "" {
		return "", ErrUnauthorized
	}
	return domain.AdminID(claims.Subject), nil
}
