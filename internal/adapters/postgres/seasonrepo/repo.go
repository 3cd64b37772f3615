package seasonrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/climbing-section/backoffice/internal/adapters/postgres"
	"github.com/climbing-section/backoffice/internal/domain"
	"github.com/climbing-section/backoffice/internal/ports/out/seasonrepo"
)

const (
	constraintLabel      = "seasons_label_unique"
	constraintExternalID = "seasons_external_id_unique"
)

const selectSeason = `
	SELECT
		external_id,
		label,
		starts_on,
		ends_on,
		is_current,
		license_fees,
		insurance_fees,
		created_at,
		updated_at
	FROM seasons
`

// Repo is a Postgres implementation of seasonrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, s domain.Season) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(s.ID))
	if err != nil {
		return fmt.Errorf("invalid season id: %w", err)
	}
	licenseFees, insuranceFees, err := encodeFees(s)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if s.IsCurrent {
			if _, err := tx.Exec(ctx, `UPDATE seasons SET is_current = false WHERE is_current`); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO seasons (
				external_id,
				label,
				starts_on,
				ends_on,
				is_current,
				license_fees,
				insurance_fees,
				created_at,
				updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			id,
			s.Label,
			domain.DateOnly(s.StartsOn),
			domain.DateOnly(s.EndsOn),
			s.IsCurrent,
			licenseFees,
			insuranceFees,
			s.CreatedAt.UTC(),
			s.UpdatedAt.UTC(),
		)
		return mapWriteError(err)
	})
}

// Update rewrites label, dates and fee tables. The current flag is only changed by SetCurrent.
func (r *Repo) Update(ctx context.Context, s domain.Season) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(s.ID))
	if err != nil {
		return seasonrepo.ErrNotFound
	}
	licenseFees, insuranceFees, err := encodeFees(s)
	if err != nil {
		return err
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE seasons
		SET label = $2,
		    starts_on = $3,
		    ends_on = $4,
		    license_fees = $5,
		    insurance_fees = $6,
		    updated_at = $7
		WHERE external_id = $1
	`,
		id,
		s.Label,
		domain.DateOnly(s.StartsOn),
		domain.DateOnly(s.EndsOn),
		licenseFees,
		insuranceFees,
		s.UpdatedAt.UTC(),
	)
	if err != nil {
		return mapWriteError(err)
	}
	if ct.RowsAffected() == 0 {
		return seasonrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.SeasonID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return seasonrepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM seasons WHERE external_id = $1`, uid)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return seasonrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.SeasonID) (domain.Season, error) {
	if r.pool == nil {
		return domain.Season{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Season{}, seasonrepo.ErrNotFound
	}
	return scanSeason(r.pool.QueryRow(ctx, selectSeason+` WHERE external_id = $1`, uid))
}

func (r *Repo) GetCurrent(ctx context.Context) (domain.Season, error) {
	if r.pool == nil {
		return domain.Season{}, errors.New("nil postgres pool")
	}
	return scanSeason(r.pool.QueryRow(ctx, selectSeason+` WHERE is_current`))
}

func (r *Repo) List(ctx context.Context) ([]domain.Season, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, selectSeason+` ORDER BY starts_on DESC, external_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Season, 0)
	for rows.Next() {
		s, err := scanSeason(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) SetCurrent(ctx context.Context, id domain.SeasonID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return seasonrepo.ErrNotFound
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM seasons WHERE external_id = $1)`, uid).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return seasonrepo.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `UPDATE seasons SET is_current = false WHERE is_current AND external_id <> $1`, uid); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE seasons SET is_current = true WHERE external_id = $1`, uid)
		return err
	})
}

// --- helpers ---

func mapWriteError(err error) error {
	switch {
	case err == nil:
		return nil
	case postgres.IsUniqueViolation(err, constraintLabel):
		return seasonrepo.ErrLabelTaken
	case postgres.IsUniqueViolation(err, constraintExternalID):
		return seasonrepo.ErrAlreadyExists
	}
	return err
}

func encodeFees(s domain.Season) ([]byte, []byte, error) {
	lf := s.LicenseFees
	if lf == nil {
		lf = map[domain.LicenseType]int64{}
	}
	inf := s.InsuranceFees
	if inf == nil {
		inf = map[domain.InsuranceOption]int64{}
	}
	licenseFees, err := json.Marshal(lf)
	if err != nil {
		return nil, nil, fmt.Errorf("encode license fees: %w", err)
	}
	insuranceFees, err := json.Marshal(inf)
	if err != nil {
		return nil, nil, fmt.Errorf("encode insurance fees: %w", err)
	}
	return licenseFees, insuranceFees, nil
}

func scanSeason(row interface {
	Scan(dest ...any) error
}) (domain.Season, error) {
	var (
		externalID    uuid.UUID
		s             domain.Season
		licenseFees   []byte
		insuranceFees []byte
		createdAt     time.Time
		updatedAt     time.Time
	)
	if err := row.Scan(
		&externalID,
		&s.Label,
		&s.StartsOn,
		&s.EndsOn,
		&s.IsCurrent,
		&licenseFees,
		&insuranceFees,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Season{}, seasonrepo.ErrNotFound
		}
		return domain.Season{}, err
	}
	s.ID = domain.SeasonID(externalID.String())
	s.StartsOn = domain.DateOnly(s.StartsOn)
	s.EndsOn = domain.DateOnly(s.EndsOn)
	s.CreatedAt = createdAt.UTC()
	s.UpdatedAt = updatedAt.UTC()
	if err := json.Unmarshal(licenseFees, &s.LicenseFees); err != nil {
		return domain.Season{}, fmt.Errorf("decode license fees: %w", err)
	}
	if err := json.Unmarshal(insuranceFees, &s.InsuranceFees); err != nil {
		return domain.Season{}, fmt.Errorf("decode insurance fees: %w", err)
	}
	return s, nil
}
