package invitationrepo

import (
	"context"
	"errors"
	"time"

	"github.com/climbing-section/backoffice/internal/domain"
)

var (
	ErrNotFound      = errors.New("invitation not found")
	ErrAlreadyExists = errors.New("invitation already exists")
)

// Repository persists admin invitation tokens by their digest.
type Repository interface {
	Create(ctx context.Context, inv domain.Invitation) error
	GetByTokenHash(ctx context.Context, tokenHash string) (domain.Invitation, error)

	// MarkUsed records the first use of an invitation. It returns ErrNotFound when the
	// digest is unknown.
	MarkUsed(ctx context.Context, tokenHash string, at time.Time) error

	// DeleteByAdmin revokes every invitation issued for the admin.
	DeleteByAdmin(ctx context.Context, adminID domain.AdminID) error
}
