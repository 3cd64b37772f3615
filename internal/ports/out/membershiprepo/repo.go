package membershiprepo

import (
	"context"
	"errors"

	"github.com/climbing-section/backoffice/internal/domain"
)

var ErrNotFound = errors.New("membership not found")

// Repository persists season memberships keyed by (season, member).
type Repository interface {
	// Get returns the membership for (member, season). If it does not exist, ErrNotFound is returned.
	Get(ctx context.Context, memberID domain.MemberID, seasonID domain.SeasonID) (domain.Membership, error)

	// Upsert writes the membership for (member, season) using last-write-wins semantics.
	Upsert(ctx context.Context, m domain.Membership) error

	Delete(ctx context.Context, memberID domain.MemberID, seasonID domain.SeasonID) error
	DeleteByMember(ctx context.Context, memberID domain.MemberID) error

	// ListByMember returns the memberships of a member, ordered by SeasonID.
	ListByMember(ctx context.Context, memberID domain.MemberID) ([]domain.Membership, error)

	// ListBySeason returns all memberships of a season, ordered by MemberID.
	ListBySeason(ctx context.Context, seasonID domain.SeasonID) ([]domain.Membership, error)

	CountBySeason(ctx context.Context, seasonID domain.SeasonID) (int, error)
}
