package memberrepo

import (
	"context"
	"time"

	"github.com/climbing-section/backoffice/internal/domain"
)

// Member is the persistence shape used by the member repository.
// It is an internal record, not an HTTP DTO.
type Member struct {
	ID domain.MemberID

	FirstName string
	LastName  string
	BirthDate time.Time
	Gender    domain.Gender

	// Email is unique across members, compared case-insensitively.
	Email   string
	Phone   *string
	Address domain.Address

	// LegalContact is stored alongside the member; nil means none.
	LegalContact *domain.LegalContact
	// PictureKey is the blob store key of the profile picture; nil means unset.
	PictureKey *string
	Notes      *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Query selects a page of members.
type Query struct {
	// Search is matched token by token (AND), case-insensitively, against first name,
	// last name and email.
	Search string

	// When FilterByIDs is set only members whose ID is in IDs are returned
	// (an empty IDs then yields an empty result).
	FilterByIDs bool
	IDs         []domain.MemberID

	Offset int
	// Limit <= 0 means no limit.
	Limit int
}

// Repository provides access to persisted members.
//
// Result ordering expectations:
// - List methods return members ordered by lower(LastName), lower(FirstName), ID ascending.
type Repository interface {
	Create(ctx context.Context, m Member) error
	Update(ctx context.Context, m Member) error
	Delete(ctx context.Context, id domain.MemberID) error

	GetByID(ctx context.Context, id domain.MemberID) (Member, error)
	GetByEmail(ctx context.Context, email string) (Member, error)

	// List returns the requested page and the total number of matching members.
	List(ctx context.Context, q Query) ([]Member, int, error)
	ListByIDs(ctx context.Context, ids []domain.MemberID) ([]Member, error)
}
