package adminrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/climbing-section/backoffice/internal/adapters/postgres"
	"github.com/climbing-section/backoffice/internal/domain"
	"github.com/climbing-section/backoffice/internal/ports/out/adminrepo"
)

const (
	constraintEmail      = "admins_email_unique"
	constraintExternalID = "admins_external_id_unique"
)

const selectAdmin = `
	SELECT
		a.external_id,
		a.email,
		a.first_name,
		a.last_name,
		a.password_hash,
		a.status,
		inviter.external_id,
		a.last_login_at,
		a.created_at,
		a.updated_at
	FROM admins a
	LEFT JOIN admins inviter ON inviter.id = a.invited_by
`

// Repo is a Postgres implementation of adminrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, a domain.Admin) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(a.ID))
	if err != nil {
		return fmt.Errorf("invalid admin id: %w", err)
	}
	inviter, err := parseOptionalID(a.InvitedBy)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO admins (
			external_id,
			email,
			first_name,
			last_name,
			password_hash,
			status,
			invited_by,
			last_login_at,
			created_at,
			updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			(SELECT id FROM admins WHERE external_id = $7),
			$8, $9, $10
		)
	`,
		id,
		a.Email,
		a.FirstName,
		a.LastName,
		a.PasswordHash,
		string(a.Status),
		inviter,
		utcPtr(a.LastLoginAt),
		a.CreatedAt.UTC(),
		a.UpdatedAt.UTC(),
	)
	return mapWriteError(err)
}

func (r *Repo) Update(ctx context.Context, a domain.Admin) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(a.ID))
	if err != nil {
		return adminrepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE admins
		SET email = $2,
		    first_name = $3,
		    last_name = $4,
		    password_hash = $5,
		    status = $6,
		    last_login_at = $7,
		    updated_at = $8
		WHERE external_id = $1
	`,
		id,
		a.Email,
		a.FirstName,
		a.LastName,
		a.PasswordHash,
		string(a.Status),
		utcPtr(a.LastLoginAt),
		a.UpdatedAt.UTC(),
	)
	if err != nil {
		return mapWriteError(err)
	}
	if ct.RowsAffected() == 0 {
		return adminrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.AdminID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return adminrepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM admins WHERE external_id = $1`, uid)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return adminrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.AdminID) (domain.Admin, error) {
	if r.pool == nil {
		return domain.Admin{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Admin{}, adminrepo.ErrNotFound
	}
	return scanAdmin(r.pool.QueryRow(ctx, selectAdmin+` WHERE a.external_id = $1`, uid))
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (domain.Admin, error) {
	if r.pool == nil {
		return domain.Admin{}, errors.New("nil postgres pool")
	}
	return scanAdmin(r.pool.QueryRow(ctx, selectAdmin+` WHERE lower(a.email) = lower($1)`, strings.TrimSpace(email)))
}

func (r *Repo) List(ctx context.Context) ([]domain.Admin, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, selectAdmin+` ORDER BY lower(a.email) ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Admin, 0)
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) CountByStatus(ctx context.Context, status domain.AdminStatus) (int, error) {
	if r.pool == nil {
		return 0, errors.New("nil postgres pool")
	}
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM admins WHERE status = $1`, string(status)).Scan(&n)
	return n, err
}

// --- helpers ---

func mapWriteError(err error) error {
	switch {
	case err == nil:
		return nil
	case postgres.IsUniqueViolation(err, constraintEmail):
		return adminrepo.ErrEmailTaken
	case postgres.IsUniqueViolation(err, constraintExternalID):
		return adminrepo.ErrAlreadyExists
	}
	return err
}

func parseOptionalID(id *domain.AdminID) (*uuid.UUID, error) {
	if id == nil {
		return nil, nil
	}
	uid, err := uuid.Parse(string(*id))
	if err != nil {
		return nil, fmt.Errorf("invalid inviter id: %w", err)
	}
	return &uid, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func scanAdmin(row interface {
	Scan(dest ...any) error
}) (domain.Admin, error) {
	var (
		externalID           uuid.UUID
		inviter              *uuid.UUID
		status               string
		a                    domain.Admin
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(
		&externalID,
		&a.Email,
		&a.FirstName,
		&a.LastName,
		&a.PasswordHash,
		&status,
		&inviter,
		&a.LastLoginAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Admin{}, adminrepo.ErrNotFound
		}
		return domain.Admin{}, err
	}
	a.ID = domain.AdminID(externalID.String())
	a.Status = domain.AdminStatus(status)
	if inviter != nil {
		id := domain.AdminID(inviter.String())
		a.InvitedBy = &id
	}
	a.LastLoginAt = utcPtr(a.LastLoginAt)
	a.CreatedAt = createdAt.UTC()
	a.UpdatedAt = updatedAt.UTC()
	return a, nil
}
