package seasonrepo

import (
	"context"
	"errors"

	"github.com/climbing-section/backoffice/internal/domain"
)

var (
	ErrNotFound      = errors.New("season not found")
	ErrAlreadyExists = errors.New("season already exists")
	ErrLabelTaken    = errors.New("season label already in use")
)

// Repository persists seasons and their fee tables.
//
// List returns seasons ordered by StartsOn descending (most recent first).
type Repository interface {
	Create(ctx context.Context, s domain.Season) error
	Update(ctx context.Context, s domain.Season) error
	Delete(ctx context.Context, id domain.SeasonID) error

	GetByID(ctx context.Context, id domain.SeasonID) (domain.Season, error)
	// GetCurrent returns the season flagged as current, or ErrNotFound.
	GetCurrent(ctx context.Context) (domain.Season, error)
	List(ctx context.Context) ([]domain.Season, error)

	// SetCurrent flags id as the current season and clears the flag on every other season.
	SetCurrent(ctx context.Context, id domain.SeasonID) error
}
