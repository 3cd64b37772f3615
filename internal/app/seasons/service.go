package seasons

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/climbing-section/backoffice/internal/domain"
	clockport "github.com/climbing-section/backoffice/internal/ports/out/clock"
	"github.com/climbing-section/backoffice/internal/ports/out/membershiprepo"
	"github.com/climbing-section/backoffice/internal/ports/out/seasonrepo"
)

const (
	maxLabelRunes = 50
	// MaxSeasonDays bounds the length of a season.
	MaxSeasonDays = 400
)

type Service struct {
	repo        seasonrepo.Repository
	memberships membershiprepo.Repository
	clk         clockport.Clock
	logger      *zap.Logger

	newSeasonID func() domain.SeasonID
}

func NewService(repo seasonrepo.Repository, memberships membershiprepo.Repository, clk clockport.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:        repo,
		memberships: memberships,
		clk:         clk,
		logger:      logger,
		newSeasonID: func() domain.SeasonID {
			return domain.SeasonID(uuid.NewString())
		},
	}
}

func (s *Service) CreateSeason(ctx context.Context, in CreateSeasonInput) (domain.Season, error) {
	season := domain.Season{
		Label:         domain.NormalizeHumanName(in.Label),
		StartsOn:      domain.DateOnly(in.StartsOn),
		EndsOn:        domain.DateOnly(in.EndsOn),
		LicenseFees:   in.LicenseFees,
		InsuranceFees: in.InsuranceFees,
	}
	if err := validateSeason(season); err != nil {
		return domain.Season{}, err
	}
	if err := s.ensureNoOverlap(ctx, season); err != nil {
		return domain.Season{}, err
	}

	now := s.clk.Now()
	season.ID = s.newSeasonID()
	season.CreatedAt = now
	season.UpdatedAt = now
	if err := s.repo.Create(ctx, season); err != nil {
		if errors.Is(err, seasonrepo.ErrLabelTaken) {
			return domain.Season{}, labelTaken(season.Label)
		}
		return domain.Season{}, fmt.Errorf("create season: %w", err)
	}
	if in.MakeCurrent {
		if err := s.repo.SetCurrent(ctx, season.ID); err != nil {
			return domain.Season{}, fmt.Errorf("set current season: %w", err)
		}
		season.IsCurrent = true
	}
	s.logger.Info("season created", zap.String("seasonId", string(season.ID)), zap.String("label", season.Label))
	return season, nil
}

func (s *Service) GetSeason(ctx context.Context, id domain.SeasonID) (domain.Season, error) {
	season, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, seasonrepo.ErrNotFound) {
			return domain.Season{}, notFound()
		}
		return domain.Season{}, fmt.Errorf("get season: %w", err)
	}
	return season, nil
}

// ListSeasons returns every season, most recent first.
func (s *Service) ListSeasons(ctx context.Context) ([]domain.Season, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	return out, nil
}

func (s *Service) UpdateSeason(ctx context.Context, id domain.SeasonID, in UpdateSeasonInput) (domain.Season, error) {
	season, err := s.GetSeason(ctx, id)
	if err != nil {
		return domain.Season{}, err
	}
	fe := fieldErrors{}
	if in.Label.IsSpecified() {
		if in.Label.IsNull() {
			fe.add("label", "cannot be null")
		} else {
			season.Label = domain.NormalizeHumanName(in.Label.Value())
		}
	}
	if in.StartsOn.IsSpecified() {
		if in.StartsOn.IsNull() {
			fe.add("startsOn", "cannot be null")
		} else {
			season.StartsOn = domain.DateOnly(in.StartsOn.Value())
		}
	}
	if in.EndsOn.IsSpecified() {
		if in.EndsOn.IsNull() {
			fe.add("endsOn", "cannot be null")
		} else {
			season.EndsOn = domain.DateOnly(in.EndsOn.Value())
		}
	}
	if in.LicenseFees.IsSpecified() {
		if in.LicenseFees.IsNull() {
			fe.add("licenseFees", "cannot be null")
		} else {
			season.LicenseFees = in.LicenseFees.Value()
		}
	}
	if in.InsuranceFees.IsSpecified() {
		if in.InsuranceFees.IsNull() {
			fe.add("insuranceFees", "cannot be null")
		} else {
			season.InsuranceFees = in.InsuranceFees.Value()
		}
	}
	if err := fe.err(); err != nil {
		return domain.Season{}, err
	}
	if err := validateSeason(season); err != nil {
		return domain.Season{}, err
	}
	if err := s.ensureNoOverlap(ctx, season); err != nil {
		return domain.Season{}, err
	}

	season.UpdatedAt = s.clk.Now()
	if err := s.repo.Update(ctx, season); err != nil {
		switch {
		case errors.Is(err, seasonrepo.ErrLabelTaken):
			return domain.Season{}, labelTaken(season.Label)
		case errors.Is(err, seasonrepo.ErrNotFound):
			return domain.Season{}, notFound()
		}
		return domain.Season{}, fmt.Errorf("update season: %w", err)
	}
	return season, nil
}

// DeleteSeason refuses to remove a season that still has memberships.
func (s *Service) DeleteSeason(ctx context.Context, id domain.SeasonID) error {
	if _, err := s.GetSeason(ctx, id); err != nil {
		return err
	}
	n, err := s.memberships.CountBySeason(ctx, id)
	if err != nil {
		return fmt.Errorf("count memberships: %w", err)
	}
	if n > 0 {
		return &Error{
			Status:  http.StatusConflict,
			Code:    CodeSeasonInUse,
			Message: "season still has memberships",
			Details: map[string]any{"memberships": n},
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, seasonrepo.ErrNotFound) {
			return notFound()
		}
		return fmt.Errorf("delete season: %w", err)
	}
	s.logger.Info("season deleted", zap.String("seasonId", string(id)))
	return nil
}

func (s *Service) SetCurrentSeason(ctx context.Context, id domain.SeasonID) (domain.Season, error) {
	if err := s.repo.SetCurrent(ctx, id); err != nil {
		if errors.Is(err, seasonrepo.ErrNotFound) {
			return domain.Season{}, notFound()
		}
		return domain.Season{}, fmt.Errorf("set current season: %w", err)
	}
	s.logger.Info("current season changed", zap.String("seasonId", string(id)))
	return s.GetSeason(ctx, id)
}

func (s *Service) GetCurrentSeason(ctx context.Context) (domain.Season, error) {
	season, err := s.repo.GetCurrent(ctx)
	if err != nil {
		if errors.Is(err, seasonrepo.ErrNotFound) {
			return domain.Season{}, &Error{
				Status:  http.StatusNotFound,
				Code:    CodeNoCurrentSeason,
				Message: "no season is flagged as current",
			}
		}
		return domain.Season{}, fmt.Errorf("get current season: %w", err)
	}
	return season, nil
}

func (s *Service) ensureNoOverlap(ctx context.Context, season domain.Season) error {
	all, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list seasons: %w", err)
	}
	for _, other := range all {
		if other.ID == season.ID {
			continue
		}
		if season.Overlaps(other) {
			return &Error{
				Status:  http.StatusConflict,
				Code:    CodeSeasonOverlap,
				Message: "season dates overlap another season",
				Details: map[string]any{"seasonId": string(other.ID), "label": other.Label},
			}
		}
	}
	return nil
}

type fieldErrors map[string]any

func (fe fieldErrors) add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

func (fe fieldErrors) err() error {
	if len(fe) == 0 {
		return nil
	}
	return validationError(map[string]any(fe))
}

func validateSeason(season domain.Season) error {
	fe := fieldErrors{}
	switch {
	case season.Label == "":
		fe.add("label", "must be non-empty")
	case utf8.RuneCountInString(season.Label) > maxLabelRunes:
		fe.add("label", "must be at most 50 characters")
	}
	if season.StartsOn.IsZero() {
		fe.add("startsOn", "is required")
	}
	if season.EndsOn.IsZero() {
		fe.add("endsOn", "is required")
	}
	if !season.StartsOn.IsZero() && !season.EndsOn.IsZero() {
		switch {
		case !season.EndsOn.After(season.StartsOn):
			fe.add("endsOn", "must be after startsOn")
		case season.EndsOn.Sub(season.StartsOn) > MaxSeasonDays*24*time.Hour:
			fe.add("endsOn", "season cannot span more than 400 days")
		}
	}

	if len(season.LicenseFees) == 0 {
		fe.add("licenseFees", "must offer at least one license type")
	}
	for lt, fee := range season.LicenseFees {
		if !lt.Valid() {
			fe.add("licenseFees."+string(lt), "unknown license type")
		} else if fee < 0 {
			fe.add("licenseFees."+string(lt), "must be zero or positive")
		}
	}
	if len(season.InsuranceFees) == 0 {
		fe.add("insuranceFees", "must offer at least one insurance option")
	}
	for opt, fee := range season.InsuranceFees {
		if !opt.Valid() {
			fe.add("insuranceFees."+string(opt), "unknown insurance option")
		} else if fee < 0 {
			fe.add("insuranceFees."+string(opt), "must be zero or positive")
		}
	}
	return fe.err()
}
