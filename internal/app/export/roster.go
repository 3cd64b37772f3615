package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/climbing-section/backoffice/internal/domain"
	clockport "github.com/climbing-section/backoffice/internal/ports/out/clock"
	"github.com/climbing-section/backoffice/internal/ports/out/memberrepo"
	"github.com/climbing-section/backoffice/internal/ports/out/membershiprepo"
	"github.com/climbing-section/backoffice/internal/ports/out/seasonrepo"
)

// Roster is the data behind one export file.
type Roster struct {
	// Season is nil for a full member list.
	Season      *domain.Season
	Rows        []RosterRow
	GeneratedAt time.Time
}

// RosterRow is one member line. Membership is nil when exporting the full member list.
type RosterRow struct {
	Member     domain.Member
	Membership *domain.Membership
	// Age is computed at season start, or at generation time without a season.
	Age   int
	Minor bool
}

type Service struct {
	members     memberrepo.Repository
	memberships membershiprepo.Repository
	seasons     seasonrepo.Repository
	clk         clockport.Clock
	logger      *zap.Logger

	// FontPath is the TrueType font used for PDF labels.
	FontPath string
}

func NewService(members memberrepo.Repository, memberships membershiprepo.Repository, seasons seasonrepo.Repository, clk clockport.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		members:     members,
		memberships: memberships,
		seasons:     seasons,
		clk:         clk,
		logger:      logger,
	}
}

// Roster loads the members registered for the season, or every member when seasonID is nil,
// ordered by last name then first name.
func (s *Service) Roster(ctx context.Context, seasonID *domain.SeasonID) (Roster, error) {
	now := s.clk.Now()
	out := Roster{GeneratedAt: now}
	if seasonID == nil {
		ms, _, err := s.members.List(ctx, memberrepo.Query{})
		if err != nil {
			return Roster{}, fmt.Errorf("list members: %w", err)
		}
		out.Rows = make([]RosterRow, 0, len(ms))
		for _, m := range ms {
			out.Rows = append(out.Rows, newRow(m, nil, now))
		}
		return out, nil
	}

	season, err := s.seasons.GetByID(ctx, *seasonID)
	if err != nil {
		if errors.Is(err, seasonrepo.ErrNotFound) {
			return Roster{}, &Error{Status: 404, Code: CodeSeasonNotFound, Message: "season not found"}
		}
		return Roster{}, fmt.Errorf("get season: %w", err)
	}
	out.Season = &season

	regs, err := s.memberships.ListBySeason(ctx, season.ID)
	if err != nil {
		return Roster{}, fmt.Errorf("list season memberships: %w", err)
	}
	byMember := make(map[domain.MemberID]domain.Membership, len(regs))
	ids := make([]domain.MemberID, 0, len(regs))
	for _, r := range regs {
		byMember[r.MemberID] = r
		ids = append(ids, r.MemberID)
	}
	ms, err := s.members.ListByIDs(ctx, ids)
	if err != nil {
		return Roster{}, fmt.Errorf("list roster members: %w", err)
	}
	out.Rows = make([]RosterRow, 0, len(ms))
	for _, m := range ms {
		reg := byMember[m.ID]
		out.Rows = append(out.Rows, newRow(m, &reg, season.StartsOn))
	}
	return out, nil
}

// Write renders the roster in the requested format.
func (s *Service) Write(w io.Writer, r Roster, f Format) error {
	var err error
	switch f {
	case FormatCSV:
		err = WriteCSV(w, r)
	case FormatPDF:
		if s.FontPath == "" {
			return fontNotAvailable()
		}
		err = WriteLabelsPDF(w, r, s.FontPath)
	default:
		err = WriteXLSX(w, r)
	}
	if err != nil {
		return err
	}
	s.logger.Info("roster exported",
		zap.String("format", string(f)),
		zap.Int("rows", len(r.Rows)),
		zap.Bool("season", r.Season != nil),
	)
	return nil
}

// FileName returns members-<season label|all>-<yyyymmdd>.<ext>.
func FileName(r Roster, f Format) string {
	scope := "all"
	if r.Season != nil {
		if slug := slugify(r.Season.Label); slug != "" {
			scope = slug
		}
	}
	return fmt.Sprintf("members-%s-%s.%s", scope, r.GeneratedAt.Format("20060102"), f)
}

func newRow(m memberrepo.Member, reg *domain.Membership, on time.Time) RosterRow {
	return RosterRow{
		Member: domain.Member{
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
		},
		Membership: reg,
		Age:        domain.AgeOn(m.BirthDate, on),
		Minor:      domain.IsMinorOn(m.BirthDate, on),
	}
}

func slugify(v string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(v) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
