package memberships

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/climbing-section/backoffice/internal/domain"
	clockport "github.com/climbing-section/backoffice/internal/ports/out/clock"
	"github.com/climbing-section/backoffice/internal/ports/out/memberrepo"
	"github.com/climbing-section/backoffice/internal/ports/out/membershiprepo"
	"github.com/climbing-section/backoffice/internal/ports/out/seasonrepo"
)

const maxLicenseNumberLen = 30

type Service struct {
	repo    membershiprepo.Repository
	members memberrepo.Repository
	seasons seasonrepo.Repository
	clk     clockport.Clock
	logger  *zap.Logger
}

func NewService(repo membershiprepo.Repository, members memberrepo.Repository, seasons seasonrepo.Repository, clk clockport.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		members: members,
		seasons: seasons,
		clk:     clk,
		logger:  logger,
	}
}

// RegisterMember creates or replaces the membership of a member for a season.
func (s *Service) RegisterMember(ctx context.Context, memberID domain.MemberID, seasonID domain.SeasonID, in RegistrationInput) (domain.Membership, error) {
	member, err := s.getMember(ctx, memberID)
	if err != nil {
		return domain.Membership{}, err
	}
	season, err := s.getSeason(ctx, seasonID)
	if err != nil {
		return domain.Membership{}, err
	}
	now := s.clk.Now()

	details := map[string]any{}
	if !in.LicenseType.Valid() {
		details["licenseType"] = "must be one of ADULT, YOUTH, FAMILY, DISCOVERY"
	} else if _, ok := season.LicenseFees[in.LicenseType]; !ok {
		details["licenseType"] = "is not offered this season"
	}
	if !in.Insurance.Valid() {
		details["insurance"] = "must be one of BASE, BASE_PLUS, BASE_PLUS_PLUS"
	} else if _, ok := season.InsuranceFees[in.Insurance]; !ok {
		details["insurance"] = "is not offered this season"
	}
	minorAtStart := domain.IsMinorOn(member.BirthDate, season.StartsOn)
	switch {
	case in.LicenseType == domain.LicenseYouth && !minorAtStart:
		details["licenseType"] = "YOUTH requires the member to be under 18 at season start"
	case in.LicenseType == domain.LicenseAdult && minorAtStart:
		details["licenseType"] = "ADULT requires the member to be 18 or older at season start"
	}
	var licenseNumber *string
	if in.LicenseNumber != nil {
		if v := strings.TrimSpace(*in.LicenseNumber); v != "" {
			if len(v) > maxLicenseNumberLen {
				details["licenseNumber"] = "must be at most 30 characters"
			}
			licenseNumber = &v
		}
	}
	var certOn *time.Time
	if in.MedicalCertificateOn != nil {
		d := domain.DateOnly(*in.MedicalCertificateOn)
		if d.After(domain.DateOnly(now)) {
			details["medicalCertificateOn"] = "cannot be in the future"
		}
		certOn = &d
	}
	if len(details) > 0 {
		return domain.Membership{}, &Error{
			Status:  http.StatusUnprocessableEntity,
			Code:    CodeValidation,
			Message: "invalid membership",
			Details: details,
		}
	}

	fee, _ := season.FeeFor(in.LicenseType, in.Insurance)
	m := domain.Membership{
		MemberID:             memberID,
		SeasonID:             seasonID,
		LicenseType:          in.LicenseType,
		Insurance:            in.Insurance,
		LicenseNumber:        licenseNumber,
		FeeCents:             fee,
		MedicalCertificateOn: certOn,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	existing, err := s.repo.Get(ctx, memberID, seasonID)
	switch {
	case err == nil:
		m.CreatedAt = existing.CreatedAt
		if in.Paid && existing.PaidAt != nil {
			m.PaidAt = existing.PaidAt
		}
	case !errors.Is(err, membershiprepo.ErrNotFound):
		return domain.Membership{}, fmt.Errorf("get membership: %w", err)
	}
	if in.Paid && m.PaidAt == nil {
		paidAt := now
		m.PaidAt = &paidAt
	}

	if err := s.repo.Upsert(ctx, m); err != nil {
		return domain.Membership{}, fmt.Errorf("upsert membership: %w", err)
	}
	s.logger.Info("member registered",
		zap.String("memberId", string(memberID)),
		zap.String("seasonId", string(seasonID)),
		zap.String("license", string(m.LicenseType)),
		zap.Bool("paid", m.IsPaid()),
	)
	return m, nil
}

func (s *Service) UnregisterMember(ctx context.Context, memberID domain.MemberID, seasonID domain.SeasonID) error {
	if err := s.repo.Delete(ctx, memberID, seasonID); err != nil {
		if errors.Is(err, membershiprepo.ErrNotFound) {
			return notFound(CodeMembershipNotFound, "membership not found")
		}
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}

func (s *Service) ListMemberships(ctx context.Context, memberID domain.MemberID) ([]domain.Membership, error) {
	if _, err := s.getMember(ctx, memberID); err != nil {
		return nil, err
	}
	out, err := s.repo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return out, nil
}

// ListSeasonRoster returns the members registered for the season, ordered by name.
func (s *Service) ListSeasonRoster(ctx context.Context, seasonID domain.SeasonID) ([]RosterEntry, error) {
	if _, err := s.getSeason(ctx, seasonID); err != nil {
		return nil, err
	}
	return s.roster(ctx, seasonID)
}

func (s *Service) roster(ctx context.Context, seasonID domain.SeasonID) ([]RosterEntry, error) {
	ms, err := s.repo.ListBySeason(ctx, seasonID)
	if err != nil {
		return nil, fmt.Errorf("list season memberships: %w", err)
	}
	byMember := make(map[domain.MemberID]domain.Membership, len(ms))
	ids := make([]domain.MemberID, 0, len(ms))
	for _, m := range ms {
		byMember[m.MemberID] = m
		ids = append(ids, m.MemberID)
	}
	members, err := s.members.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list roster members: %w", err)
	}
	out := make([]RosterEntry, 0, len(members))
	for _, m := range members {
		out = append(out, RosterEntry{Member: toDomainMember(m), Membership: byMember[m.ID]})
	}
	return out, nil
}

// SeasonStats aggregates the season's memberships. Minors are counted at season start.
func (s *Service) SeasonStats(ctx context.Context, seasonID domain.SeasonID) (domain.SeasonStats, error) {
	season, err := s.getSeason(ctx, seasonID)
	if err != nil {
		return domain.SeasonStats{}, err
	}
	return s.stats(ctx, season)
}

// CurrentSeasonStats backs the dashboard.
func (s *Service) CurrentSeasonStats(ctx context.Context) (domain.Season, domain.SeasonStats, error) {
	season, err := s.seasons.GetCurrent(ctx)
	if err != nil {
		if errors.Is(err, seasonrepo.ErrNotFound) {
			return domain.Season{}, domain.SeasonStats{}, notFound(CodeNoCurrentSeason, "no season is flagged as current")
		}
		return domain.Season{}, domain.SeasonStats{}, fmt.Errorf("get current season: %w", err)
	}
	st, err := s.stats(ctx, season)
	if err != nil {
		return domain.Season{}, domain.SeasonStats{}, err
	}
	return season, st, nil
}

func (s *Service) stats(ctx context.Context, season domain.Season) (domain.SeasonStats, error) {
	entries, err := s.roster(ctx, season.ID)
	if err != nil {
		return domain.SeasonStats{}, err
	}
	st := domain.SeasonStats{
		SeasonID:    season.ID,
		ByLicense:   map[domain.LicenseType]int{},
		ByInsurance: map[domain.InsuranceOption]int{},
	}
	for _, e := range entries {
		st.Members++
		if domain.IsMinorOn(e.Member.BirthDate, season.StartsOn) {
			st.Minors++
		}
		st.ByLicense[e.Membership.LicenseType]++
		st.ByInsurance[e.Membership.Insurance]++
		if e.Membership.IsPaid() {
			st.Paid++
			st.CollectedCents += e.Membership.FeeCents
		} else {
			st.Unpaid++
			st.OutstandingCents += e.Membership.FeeCents
		}
		if e.Membership.MedicalCertificateOn == nil {
			st.MissingMedicalCertificates++
		}
	}
	return st, nil
}

func (s *Service) getMember(ctx context.Context, id domain.MemberID) (memberrepo.Member, error) {
	m, err := s.members.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return memberrepo.Member{}, notFound(CodeMemberNotFound, "member not found")
		}
		return memberrepo.Member{}, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *Service) getSeason(ctx context.Context, id domain.SeasonID) (domain.Season, error) {
	season, err := s.seasons.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, seasonrepo.ErrNotFound) {
			return domain.Season{}, notFound(CodeSeasonNotFound, "season not found")
		}
		return domain.Season{}, fmt.Errorf("get season: %w", err)
	}
	return season, nil
}

func toDomainMember(m memberrepo.Member) domain.Member {
	return domain.Member{
		ID:           m.ID,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		BirthDate:    m.BirthDate,
		Gender:       m.Gender,
		Email:        m.Email,
		Phone:        m.Phone,
		Address:      m.Address,
		LegalContact: m.LegalContact,
		PictureKey:   m.PictureKey,
		Notes:        m.Notes,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
