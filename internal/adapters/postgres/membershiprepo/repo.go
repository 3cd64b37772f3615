package membershiprepo

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
	"github.com/climbing-section/backoffice/internal/ports/out/membershiprepo"
)

const selectMembership = `
	SELECT
		m.external_id,
		s.external_id,
		ms.license_type,
		ms.insurance,
		ms.license_number,
		ms.fee_cents,
		ms.medical_certificate_on,
		ms.paid_at,
		ms.created_at,
		ms.updated_at
	FROM memberships ms
	JOIN members m ON m.id = ms.member_id
	JOIN seasons s ON s.id = ms.season_id
`

// Repo is a Postgres implementation of membershiprepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Get(ctx context.Context, memberID domain.MemberID, seasonID domain.SeasonID) (domain.Membership, error) {
	if r.pool == nil {
		return domain.Membership{}, errors.New("nil postgres pool")
	}
	mid, sid, ok := parseKey(memberID, seasonID)
	if !ok {
		return domain.Membership{}, membershiprepo.ErrNotFound
	}
	return scanMembership(r.pool.QueryRow(ctx, selectMembership+`
		WHERE m.external_id = $1 AND s.external_id = $2
	`, mid, sid))
}

func (r *Repo) Upsert(ctx context.Context, rec domain.Membership) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	mid, sid, ok := parseKey(rec.MemberID, rec.SeasonID)
	if !ok {
		return fmt.Errorf("invalid membership key %s/%s", rec.MemberID, rec.SeasonID)
	}
	var certOn *time.Time
	if rec.MedicalCertificateOn != nil {
		d := domain.DateOnly(*rec.MedicalCertificateOn)
		certOn = &d
	}
	ct, err := r.pool.Exec(ctx, `
		INSERT INTO memberships (
			season_id,
			member_id,
			license_type,
			insurance,
			license_number,
			fee_cents,
			medical_certificate_on,
			paid_at,
			created_at,
			updated_at
		)
		SELECT s.id, m.id, $3, $4, $5, $6, $7, $8, $9, $10
		FROM seasons s, members m
		WHERE s.external_id = $2 AND m.external_id = $1
		ON CONFLICT (season_id, member_id) DO UPDATE SET
			license_type = EXCLUDED.license_type,
			insurance = EXCLUDED.insurance,
			license_number = EXCLUDED.license_number,
			fee_cents = EXCLUDED.fee_cents,
			medical_certificate_on = EXCLUDED.medical_certificate_on,
			paid_at = EXCLUDED.paid_at,
			updated_at = EXCLUDED.updated_at
	`,
		mid,
		sid,
		string(rec.LicenseType),
		string(rec.Insurance),
		rec.LicenseNumber,
		rec.FeeCents,
		certOn,
		utcPtr(rec.PaidAt),
		rec.CreatedAt.UTC(),
		rec.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.ForeignKeyViolationCode {
			return fmt.Errorf("membership parent missing: %w", err)
		}
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("membership parent missing for %s/%s", rec.MemberID, rec.SeasonID)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, memberID domain.MemberID, seasonID domain.SeasonID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	mid, sid, ok := parseKey(memberID, seasonID)
	if !ok {
		return membershiprepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM memberships
		WHERE member_id = (SELECT id FROM members WHERE external_id = $1)
		  AND season_id = (SELECT id FROM seasons WHERE external_id = $2)
	`, mid, sid)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return membershiprepo.ErrNotFound
	}
	return nil
}

func (r *Repo) DeleteByMember(ctx context.Context, memberID domain.MemberID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	mid, err := uuid.Parse(string(memberID))
	if err != nil {
		return nil
	}
	_, err = r.pool.Exec(ctx, `
		DELETE FROM memberships
		WHERE member_id = (SELECT id FROM members WHERE external_id = $1)
	`, mid)
	return err
}

func (r *Repo) ListByMember(ctx context.Context, memberID domain.MemberID) ([]domain.Membership, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	mid, err := uuid.Parse(string(memberID))
	if err != nil {
		return []domain.Membership{}, nil
	}
	return r.query(ctx, selectMembership+`
		WHERE m.external_id = $1
		ORDER BY s.external_id ASC
	`, mid)
}

func (r *Repo) ListBySeason(ctx context.Context, seasonID domain.SeasonID) ([]domain.Membership, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	sid, err := uuid.Parse(string(seasonID))
	if err != nil {
		return []domain.Membership{}, nil
	}
	return r.query(ctx, selectMembership+`
		WHERE s.external_id = $1
		ORDER BY m.external_id ASC
	`, sid)
}

func (r *Repo) CountBySeason(ctx context.Context, seasonID domain.SeasonID) (int, error) {
	if r.pool == nil {
		return 0, errors.New("nil postgres pool")
	}
	sid, err := uuid.Parse(string(seasonID))
	if err != nil {
		return 0, nil
	}
	var n int
	err = r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM memberships ms
		JOIN seasons s ON s.id = ms.season_id
		WHERE s.external_id = $1
	`, sid).Scan(&n)
	return n, err
}

func (r *Repo) query(ctx context.Context, sql string, args ...any) ([]domain.Membership, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Membership, 0)
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// --- helpers ---

func parseKey(memberID domain.MemberID, seasonID domain.SeasonID) (uuid.UUID, uuid.UUID, bool) {
	mid, err := uuid.Parse(string(memberID))
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	sid, err := uuid.Parse(string(seasonID))
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	return mid, sid, true
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func scanMembership(row interface {
	Scan(dest ...any) error
}) (domain.Membership, error) {
	var (
		memberID, seasonID   uuid.UUID
		licenseType, insure  string
		out                  domain.Membership
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(
		&memberID,
		&seasonID,
		&licenseType,
		&insure,
		&out.LicenseNumber,
		&out.FeeCents,
		&out.MedicalCertificateOn,
		&out.PaidAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Membership{}, membershiprepo.ErrNotFound
		}
		return domain.Membership{}, err
	}
	out.MemberID = domain.MemberID(memberID.String())
	out.SeasonID = domain.SeasonID(seasonID.String())
	out.LicenseType = domain.LicenseType(licenseType)
	out.Insurance = domain.InsuranceOption(insure)
	out.PaidAt = utcPtr(out.PaidAt)
	if out.MedicalCertificateOn != nil {
		d := domain.DateOnly(*out.MedicalCertificateOn)
		out.MedicalCertificateOn = &d
	}
	out.CreatedAt = createdAt.UTC()
	out.UpdatedAt = updatedAt.UTC()
	return out, nil
}
