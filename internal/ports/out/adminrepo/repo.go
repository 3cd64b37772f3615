package adminrepo

import (
	"context"
	"errors"

	"github.com/climbing-section/backoffice/internal/domain"
)

var (
	ErrNotFound      = errors.New("admin not found")
	ErrAlreadyExists = errors.New("admin already exists")
	ErrEmailTaken    = errors.New("admin email already in use")
)

// Repository persists back-office administrators.
//
// List returns admins ordered by lower(Email) ascending.
type Repository interface {
	Create(ctx context.Context, a domain.Admin) error
	Update(ctx context.Context, a domain.Admin) error
	Delete(ctx context.Context, id domain.AdminID) error

	GetByID(ctx context.Context, id domain.AdminID) (domain.Admin, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (domain.Admin, error)
	List(ctx context.Context) ([]domain.Admin, error)

	CountByStatus(ctx context.Context, status domain.AdminStatus) (int, error)
}
