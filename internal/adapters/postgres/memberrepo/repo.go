package memberrepo

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
	"github.com/climbing-section/backoffice/internal/ports/out/memberrepo"
)

const (
	constraintEmail      = "members_email_unique"
	constraintExternalID = "members_external_id_unique"
)

const selectMember = `
	SELECT
		m.external_id,
		m.first_name,
		m.last_name,
		m.birth_date,
		m.gender,
		m.email,
		m.phone,
		m.address_street,
		m.address_complement,
		m.address_postal_code,
		m.address_city,
		m.address_country,
		m.picture_key,
		m.notes,
		m.created_at,
		m.updated_at,
		lc.first_name,
		lc.last_name,
		lc.relationship,
		lc.email,
		lc.phone
	FROM members m
	LEFT JOIN member_legal_contacts lc ON lc.member_id = m.id
`

// orderMembers pins the ICU root collation so ordering does not depend on the database locale.
const orderMembers = ` ORDER BY lower(m.last_name) COLLATE "und-x-icu" ASC, lower(m.first_name) COLLATE "und-x-icu" ASC, m.external_id ASC `

// Repo is a Postgres implementation of memberrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, m memberrepo.Member) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(m.ID))
	if err != nil {
		return fmt.Errorf("invalid member id: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO members (
				external_id,
				first_name,
				last_name,
				birth_date,
				gender,
				email,
				phone,
				address_street,
				address_complement,
				address_postal_code,
				address_city,
				address_country,
				picture_key,
				notes,
				created_at,
				updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		`,
			id,
			m.FirstName,
			m.LastName,
			domain.DateOnly(m.BirthDate),
			string(m.Gender),
			m.Email,
			m.Phone,
			m.Address.Street,
			m.Address.Complement,
			m.Address.PostalCode,
			m.Address.City,
			m.Address.Country,
			m.PictureKey,
			m.Notes,
			m.CreatedAt.UTC(),
			m.UpdatedAt.UTC(),
		)
		if err != nil {
			return mapWriteError(err)
		}
		if m.LegalContact != nil {
			return upsertLegalContact(ctx, tx, id, m.LegalContact)
		}
		return nil
	})
}

func (r *Repo) Update(ctx context.Context, m memberrepo.Member) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(m.ID))
	if err != nil {
		return memberrepo.ErrNotFound
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `
			UPDATE members
			SET first_name = $2,
			    last_name = $3,
			    birth_date = $4,
			    gender = $5,
			    email = $6,
			    phone = $7,
			    address_street = $8,
			    address_complement = $9,
			    address_postal_code = $10,
			    address_city = $11,
			    address_country = $12,
			    picture_key = $13,
			    notes = $14,
			    updated_at = $15
			WHERE external_id = $1
		`,
			id,
			m.FirstName,
			m.LastName,
			domain.DateOnly(m.BirthDate),
			string(m.Gender),
			m.Email,
			m.Phone,
			m.Address.Street,
			m.Address.Complement,
			m.Address.PostalCode,
			m.Address.City,
			m.Address.Country,
			m.PictureKey,
			m.Notes,
			m.UpdatedAt.UTC(),
		)
		if err != nil {
			return mapWriteError(err)
		}
		if ct.RowsAffected() == 0 {
			return memberrepo.ErrNotFound
		}

		if m.LegalContact != nil {
			return upsertLegalContact(ctx, tx, id, m.LegalContact)
		}
		_, err = tx.Exec(ctx, `
			DELETE FROM member_legal_contacts
			WHERE member_id = (SELECT id FROM members WHERE external_id = $1)
		`, id)
		return err
	})
}

func (r *Repo) Delete(ctx context.Context, id domain.MemberID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return memberrepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM members WHERE external_id = $1`, uid)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return memberrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.MemberID) (memberrepo.Member, error) {
	if r.pool == nil {
		return memberrepo.Member{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return memberrepo.Member{}, memberrepo.ErrNotFound
	}
	return scanMember(r.pool.QueryRow(ctx, selectMember+` WHERE m.external_id = $1`, uid))
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (memberrepo.Member, error) {
	if r.pool == nil {
		return memberrepo.Member{}, errors.New("nil postgres pool")
	}
	return scanMember(r.pool.QueryRow(ctx, selectMember+` WHERE lower(m.email) = lower($1)`, strings.TrimSpace(email)))
}

func (r *Repo) List(ctx context.Context, q memberrepo.Query) ([]memberrepo.Member, int, error) {
	if r.pool == nil {
		return nil, 0, errors.New("nil postgres pool")
	}
	if q.FilterByIDs && len(q.IDs) == 0 {
		return []memberrepo.Member{}, 0, nil
	}

	var where strings.Builder
	where.WriteString(" WHERE true ")
	args := make([]any, 0)
	for _, tok := range tokenize(q.Search) {
		// Match all tokens (AND) in a case-insensitive way.
		args = append(args, "%"+escapeLike(tok)+"%")
		where.WriteString(fmt.Sprintf(" AND lower(m.first_name || ' ' || m.last_name || ' ' || m.email) LIKE $%d ", len(args)))
	}
	if q.FilterByIDs {
		args = append(args, parseIDs(q.IDs))
		where.WriteString(fmt.Sprintf(" AND m.external_id = ANY($%d) ", len(args)))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM members m `+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := selectMember + where.String() + orderMembers
	if q.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d ", q.Limit)
	}
	if q.Offset > 0 {
		sql += fmt.Sprintf(" OFFSET %d ", q.Offset)
	}
	out, err := r.query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Repo) ListByIDs(ctx context.Context, ids []domain.MemberID) ([]memberrepo.Member, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	if len(ids) == 0 {
		return []memberrepo.Member{}, nil
	}
	return r.query(ctx, selectMember+` WHERE m.external_id = ANY($1) `+orderMembers, parseIDs(ids))
}

func (r *Repo) query(ctx context.Context, sql string, args ...any) ([]memberrepo.Member, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]memberrepo.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
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

func mapWriteError(err error) error {
	switch {
	case postgres.IsUniqueViolation(err, constraintEmail):
		return memberrepo.ErrEmailTaken
	case postgres.IsUniqueViolation(err, constraintExternalID):
		return memberrepo.ErrAlreadyExists
	}
	return err
}

func upsertLegalContact(ctx context.Context, tx pgx.Tx, memberExternalID uuid.UUID, lc *domain.LegalContact) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO member_legal_contacts (member_id, first_name, last_name, relationship, email, phone)
		SELECT id, $2, $3, $4, $5, $6 FROM members WHERE external_id = $1
		ON CONFLICT (member_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			relationship = EXCLUDED.relationship,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone
	`, memberExternalID, lc.FirstName, lc.LastName, lc.Relationship, lc.Email, lc.Phone)
	return err
}

// parseIDs drops ids that are not UUIDs; they cannot match a stored member.
func parseIDs(ids []domain.MemberID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if uid, err := uuid.Parse(string(id)); err == nil {
			out = append(out, uid)
		}
	}
	return out
}

func tokenize(s string) []string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanMember(row interface {
	Scan(dest ...any) error
}) (memberrepo.Member, error) {
	var (
		externalID uuid.UUID
		m          memberrepo.Member
		gender     string
		createdAt  time.Time
		updatedAt  time.Time

		lcFirst, lcLast, lcRel, lcEmail, lcPhone *string
	)
	if err := row.Scan(
		&externalID,
		&m.FirstName,
		&m.LastName,
		&m.BirthDate,
		&gender,
		&m.Email,
		&m.Phone,
		&m.Address.Street,
		&m.Address.Complement,
		&m.Address.PostalCode,
		&m.Address.City,
		&m.Address.Country,
		&m.PictureKey,
		&m.Notes,
		&createdAt,
		&updatedAt,
		&lcFirst,
		&lcLast,
		&lcRel,
		&lcEmail,
		&lcPhone,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return memberrepo.Member{}, memberrepo.ErrNotFound
		}
		return memberrepo.Member{}, err
	}
	m.ID = domain.MemberID(externalID.String())
	m.Gender = domain.Gender(gender)
	m.BirthDate = domain.DateOnly(m.BirthDate)
	m.CreatedAt = createdAt.UTC()
	m.UpdatedAt = updatedAt.UTC()
	if lcFirst != nil {
		m.LegalContact = &domain.LegalContact{
			FirstName:    *lcFirst,
			LastName:     deref(lcLast),
			Relationship: deref(lcRel),
			Email:        lcEmail,
			Phone:        deref(lcPhone),
		}
	}
	return m, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
