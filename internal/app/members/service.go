package members

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/climbing-section/backoffice/internal/domain"
	"github.com/climbing-section/backoffice/internal/ports/out/blobstore"
	clockport "github.com/climbing-section/backoffice/internal/ports/out/clock"
	"github.com/climbing-section/backoffice/internal/ports/out/memberrepo"
	"github.com/climbing-section/backoffice/internal/ports/out/membershiprepo"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 100

	DefaultPictureMaxBytes = 5 << 20
)

type Service struct {
	repo        memberrepo.Repository
	memberships membershiprepo.Repository
	blobs       blobstore.Store
	clk         clockport.Clock
	logger      *zap.Logger

	newMemberID func() domain.MemberID
	newBlobName func() string

	// PictureMaxBytes bounds uploaded profile pictures.
	PictureMaxBytes int64
}

func NewService(repo memberrepo.Repository, memberships membershiprepo.Repository, blobs blobstore.Store, clk clockport.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:        repo,
		memberships: memberships,
		blobs:       blobs,
		clk:         clk,
		logger:      logger,
		newMemberID: func() domain.MemberID {
			return domain.MemberID(uuid.NewString())
		},
		newBlobName:     uuid.NewString,
		PictureMaxBytes: DefaultPictureMaxBytes,
	}
}

func (s *Service) CreateMember(ctx context.Context, in CreateMemberInput) (domain.Member, error) {
	now := s.clk.Now()
	fe := fieldErrors{}

	m := memberrepo.Member{
		FirstName: validateName(fe, "firstName", in.FirstName),
		LastName:  validateName(fe, "lastName", in.LastName),
		BirthDate: validateBirthDate(fe, in.BirthDate, now),
		Gender:    in.Gender,
		Email:     domain.NormalizeEmail(in.Email),
		Address:   validateAddress(fe, in.Address),
		Notes:     optionalText(in.Notes),
	}
	if !m.Gender.Valid() {
		fe.add("gender", "must be one of F, M, X")
	}
	if err := validateEmail(m.Email); err != nil {
		fe.add("email", err.Error())
	}
	if p := optionalText(in.Phone); p != nil {
		phone := validatePhone(fe, "phone", *p)
		m.Phone = &phone
	}
	if in.LegalContact != nil {
		m.LegalContact = validateLegalContact(fe, *in.LegalContact)
	}
	requireLegalContactForMinor(fe, m, now)
	if err := fe.err(); err != nil {
		return domain.Member{}, err
	}

	if err := s.ensureEmailUnique(ctx, m.Email, ""); err != nil {
		return domain.Member{}, err
	}

	m.ID = s.newMemberID()
	m.CreatedAt = now
	m.UpdatedAt = now
	if err := s.repo.Create(ctx, m); err != nil {
		if errors.Is(err, memberrepo.ErrEmailTaken) {
			return domain.Member{}, emailInUse()
		}
		return domain.Member{}, fmt.Errorf("create member: %w", err)
	}
	s.logger.Info("member created", zap.String("memberId", string(m.ID)))
	return toDomain(m), nil
}

func (s *Service) GetMember(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	m, err := s.get(ctx, id)
	if err != nil {
		return domain.Member{}, err
	}
	return toDomain(m), nil
}

func (s *Service) UpdateMember(ctx context.Context, id domain.MemberID, in UpdateMemberInput) (domain.Member, error) {
	m, err := s.get(ctx, id)
	if err != nil {
		return domain.Member{}, err
	}
	now := s.clk.Now()
	fe := fieldErrors{}

	if in.FirstName.IsSpecified() {
		if in.FirstName.IsNull() {
			fe.add("firstName", "cannot be null")
		} else {
			m.FirstName = validateName(fe, "firstName", in.FirstName.Value())
		}
	}
	if in.LastName.IsSpecified() {
		if in.LastName.IsNull() {
			fe.add("lastName", "cannot be null")
		} else {
			m.LastName = validateName(fe, "lastName", in.LastName.Value())
		}
	}
	if in.BirthDate.IsSpecified() {
		if in.BirthDate.IsNull() {
			fe.add("birthDate", "cannot be null")
		} else {
			m.BirthDate = validateBirthDate(fe, in.BirthDate.Value(), now)
		}
	}
	if in.Gender.IsSpecified() {
		if in.Gender.IsNull() || !in.Gender.Value().Valid() {
			fe.add("gender", "must be one of F, M, X")
		} else {
			m.Gender = in.Gender.Value()
		}
	}
	emailChanged := false
	if in.Email.IsSpecified() {
		if in.Email.IsNull() {
			fe.add("email", "cannot be null")
		} else {
			email := domain.NormalizeEmail(in.Email.Value())
			if err := validateEmail(email); err != nil {
				fe.add("email", err.Error())
			}
			emailChanged = email != m.Email
			m.Email = email
		}
	}
	if in.Phone.IsSpecified() {
		if in.Phone.IsNull() || strings.TrimSpace(in.Phone.Value()) == "" {
			m.Phone = nil
		} else {
			phone := validatePhone(fe, "phone", in.Phone.Value())
			m.Phone = &phone
		}
	}
	if in.Address.IsSpecified() {
		if in.Address.IsNull() {
			fe.add("address", "cannot be null")
		} else {
			m.Address = applyAddressPatch(fe, m.Address, in.Address.Value())
		}
	}
	if in.LegalContact.IsSpecified() {
		if in.LegalContact.IsNull() {
			m.LegalContact = nil
		} else {
			m.LegalContact = validateLegalContact(fe, in.LegalContact.Value())
		}
	}
	if in.Notes.IsSpecified() {
		if in.Notes.IsNull() {
			m.Notes = nil
		} else {
			v := in.Notes.Value()
			m.Notes = optionalText(&v)
		}
	}
	requireLegalContactForMinor(fe, m, now)
	if err := fe.err(); err != nil {
		return domain.Member{}, err
	}

	if emailChanged {
		if err := s.ensureEmailUnique(ctx, m.Email, m.ID); err != nil {
			return domain.Member{}, err
		}
	}

	m.UpdatedAt = now
	if err := s.repo.Update(ctx, m); err != nil {
		switch {
		case errors.Is(err, memberrepo.ErrEmailTaken):
			return domain.Member{}, emailInUse()
		case errors.Is(err, memberrepo.ErrNotFound):
			return domain.Member{}, notFound()
		}
		return domain.Member{}, fmt.Errorf("update member: %w", err)
	}
	return toDomain(m), nil
}

// DeleteMember removes the member, its memberships and its stored picture.
func (s *Service) DeleteMember(ctx context.Context, id domain.MemberID) error {
	m, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.memberships.DeleteByMember(ctx, id); err != nil {
		return fmt.Errorf("delete memberships: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return notFound()
		}
		return fmt.Errorf("delete member: %w", err)
	}
	if m.PictureKey != nil {
		s.deleteBlob(ctx, *m.PictureKey)
	}
	s.logger.Info("member deleted", zap.String("memberId", string(id)))
	return nil
}

func (s *Service) ListMembers(ctx context.Context, q ListMembersQuery) (domain.MemberPage, error) {
	fe := fieldErrors{}
	page := q.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		fe.add("page", "must be at least 1")
	}
	pageSize := q.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		fe.add("pageSize", "must be between 1 and 100")
	}
	if err := fe.err(); err != nil {
		return domain.MemberPage{}, err
	}

	rq := memberrepo.Query{
		Search: q.Search,
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	}
	if q.SeasonID != nil {
		roster, err := s.memberships.ListBySeason(ctx, *q.SeasonID)
		if err != nil {
			return domain.MemberPage{}, fmt.Errorf("list season memberships: %w", err)
		}
		rq.FilterByIDs = true
		rq.IDs = make([]domain.MemberID, 0, len(roster))
		for _, ms := range roster {
			rq.IDs = append(rq.IDs, ms.MemberID)
		}
	}

	ms, total, err := s.repo.List(ctx, rq)
	if err != nil {
		return domain.MemberPage{}, fmt.Errorf("list members: %w", err)
	}
	out := domain.MemberPage{
		Members:  make([]domain.Member, 0, len(ms)),
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}
	for _, m := range ms {
		out.Members = append(out.Members, toDomain(m))
	}
	return out, nil
}

// ListAllMembers returns every member in name order, for exports.
func (s *Service) ListAllMembers(ctx context.Context) ([]domain.Member, error) {
	ms, _, err := s.repo.List(ctx, memberrepo.Query{})
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	out := make([]domain.Member, 0, len(ms))
	for _, m := range ms {
		out = append(out, toDomain(m))
	}
	return out, nil
}

// GetMembers returns the requested members in name order; unknown ids are skipped.
func (s *Service) GetMembers(ctx context.Context, ids []domain.MemberID) ([]domain.Member, error) {
	ms, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list members by id: %w", err)
	}
	out := make([]domain.Member, 0, len(ms))
	for _, m := range ms {
		out = append(out, toDomain(m))
	}
	return out, nil
}

func (s *Service) get(ctx context.Context, id domain.MemberID) (memberrepo.Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return memberrepo.Member{}, notFound()
		}
		return memberrepo.Member{}, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *Service) ensureEmailUnique(ctx context.Context, email string, exclude domain.MemberID) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup email: %w", err)
	}
	if existing.ID == exclude {
		return nil
	}
	return emailInUse()
}

func (s *Service) deleteBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		s.logger.Warn("picture cleanup failed", zap.String("key", key), zap.Error(err))
	}
}

// requireLegalContactForMinor enforces that members under 18 today have a guardian on file.
func requireLegalContactForMinor(fe fieldErrors, m memberrepo.Member, now time.Time) {
	if _, bad := fe["birthDate"]; bad || m.BirthDate.IsZero() {
		return
	}
	if m.LegalContact == nil && domain.IsMinorOn(m.BirthDate, now) {
		fe.add("legalContact", "is required for members under 18")
	}
}

func toDomain(m memberrepo.Member) domain.Member {
	return domain.Member{
		ID:           m.ID,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		BirthDate:    m.BirthDate,
		Gender:       m.Gender,
		Email:        m.Email,
		Phone:        cloneStringPtr(m.Phone),
		Address:      cloneAddress(m.Address),
		LegalContact: cloneLegalContact(m.LegalContact),
		PictureKey:   cloneStringPtr(m.PictureKey),
		Notes:        cloneStringPtr(m.Notes),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func applyAddressPatch(fe fieldErrors, cur domain.Address, p AddressPatch) domain.Address {
	out := cur
	if p.Street.IsSpecified() {
		if p.Street.IsNull() {
			fe.add("address.street", "cannot be null")
		} else {
			out.Street = requireText(fe, "address.street", p.Street.Value())
		}
	}
	if p.Complement.IsSpecified() {
		if p.Complement.IsNull() {
			out.Complement = nil
		} else {
			v := p.Complement.Value()
			out.Complement = optionalText(&v)
		}
	}
	if p.PostalCode.IsSpecified() {
		if p.PostalCode.IsNull() {
			fe.add("address.postalCode", "cannot be null")
		} else {
			out.PostalCode = validatePostalCode(fe, "address.postalCode", p.PostalCode.Value())
		}
	}
	if p.City.IsSpecified() {
		if p.City.IsNull() {
			fe.add("address.city", "cannot be null")
		} else {
			out.City = requireText(fe, "address.city", p.City.Value())
		}
	}
	if p.Country.IsSpecified() {
		if p.Country.IsNull() || strings.TrimSpace(p.Country.Value()) == "" {
			fe.add("address.country", "must be non-empty")
		} else {
			out.Country = strings.ToUpper(strings.TrimSpace(p.Country.Value()))
		}
	}
	return out
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneAddress(a domain.Address) domain.Address {
	out := a
	out.Complement = cloneStringPtr(a.Complement)
	return out
}

func cloneLegalContact(lc *domain.LegalContact) *domain.LegalContact {
	if lc == nil {
		return nil
	}
	out := *lc
	out.Email = cloneStringPtr(lc.Email)
	return &out
}
