package invitationrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/climbing-section/backoffice/internal/adapters/postgres"
	"github.com/climbing-section/backoffice/internal/domain"
	"github.com/climbing-section/backoffice/internal/ports/out/invitationrepo"
)

// Repo is a Postgres implementation of invitationrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, inv domain.Invitation) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	adminID, err := uuid.Parse(string(inv.AdminID))
	if err != nil {
		return fmt.Errorf("invalid admin id: %w", err)
	}
	ct, err := r.pool.Exec(ctx, `
		INSERT INTO admin_invitations (token_hash, admin_id, expires_at, used_at, created_at)
		SELECT $1, a.id, $3, $4, $5 FROM admins a WHERE a.external_id = $2
	`,
		inv.TokenHash,
		adminID,
		inv.ExpiresAt.UTC(),
		inv.UsedAt,
		inv.CreatedAt.UTC(),
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return invitationrepo.ErrAlreadyExists
		}
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("invitation admin %s not found", inv.AdminID)
	}
	return nil
}

func (r *Repo) GetByTokenHash(ctx context.Context, tokenHash string) (domain.Invitation, error) {
	if r.pool == nil {
		return domain.Invitation{}, errors.New("nil postgres pool")
	}
	var (
		inv       domain.Invitation
		adminID   uuid.UUID
		expiresAt time.Time
		createdAt time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT i.token_hash, a.external_id, i.expires_at, i.used_at, i.created_at
		FROM admin_invitations i
		JOIN admins a ON a.id = i.admin_id
		WHERE i.token_hash = $1
	`, tokenHash).Scan(&inv.TokenHash, &adminID, &expiresAt, &inv.UsedAt, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Invitation{}, invitationrepo.ErrNotFound
		}
		return domain.Invitation{}, err
	}
	inv.AdminID = domain.AdminID(adminID.String())
	inv.ExpiresAt = expiresAt.UTC()
	inv.CreatedAt = createdAt.UTC()
	if inv.UsedAt != nil {
		v := inv.UsedAt.UTC()
		inv.UsedAt = &v
	}
	return inv, nil
}

func (r *Repo) MarkUsed(ctx context.Context, tokenHash string, at time.Time) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE admin_invitations
		SET used_at = COALESCE(used_at, $2)
		WHERE token_hash = $1
	`, tokenHash, at.UTC())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return invitationrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) DeleteByAdmin(ctx context.Context, adminID domain.AdminID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(adminID))
	if err != nil {
		return nil
	}
	_, err = r.pool.Exec(ctx, `
		DELETE FROM admin_invitations
		WHERE admin_id = (SELECT id FROM admins WHERE external_id = $1)
	`, uid)
	return err
}
