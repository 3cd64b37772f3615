package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/climbing-section/backoffice/internal/app/seasons"
	"github.com/climbing-section/backoffice/internal/domain"
)

func (s *Server) listSeasons(w http.ResponseWriter, r *http.Request) {
	ss, err := s.seasons.ListSeasons(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := SeasonListResponse{Seasons: make([]Season, 0, len(ss))}
	for _, season := range ss {
		out.Seasons = append(out.Seasons, seasonFromDomain(season))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createSeason(w http.ResponseWriter, r *http.Request) {
	var body CreateSeasonRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	season, err := s.seasons.CreateSeason(r.Context(), seasons.CreateSeasonInput{
		Label:         body.Label,
		StartsOn:      body.StartsOn.Time,
		EndsOn:        body.EndsOn.Time,
		LicenseFees:   licenseFees(body.LicenseFeesCents),
		InsuranceFees: insuranceFees(body.InsuranceFeesCents),
		MakeCurrent:   body.MakeCurrent,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, SeasonResponse{Season: seasonFromDomain(season)})
}

func (s *Server) getCurrentSeason(w http.ResponseWriter, r *http.Request) {
	season, err := s.seasons.GetCurrentSeason(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SeasonResponse{Season: seasonFromDomain(season)})
}

func (s *Server) getSeason(w http.ResponseWriter, r *http.Request) {
	season, err := s.seasons.GetSeason(r.Context(), seasonIDParam(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SeasonResponse{Season: seasonFromDomain(season)})
}

func (s *Server) updateSeason(w http.ResponseWriter, r *http.Request) {
	var body UpdateSeasonRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	toTime := func(d openapi_types.Date) time.Time { return d.Time }
	season, err := s.seasons.UpdateSeason(r.Context(), seasonIDParam(r), seasons.UpdateSeasonInput{
		Label:         seasonOptionalMap(body.Label, func(v string) string { return v }),
		StartsOn:      seasonOptionalMap(body.StartsOn, toTime),
		EndsOn:        seasonOptionalMap(body.EndsOn, toTime),
		LicenseFees:   seasonOptionalMap(body.LicenseFeesCents, licenseFees),
		InsuranceFees: seasonOptionalMap(body.InsuranceFeesCents, insuranceFees),
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SeasonResponse{Season: seasonFromDomain(season)})
}

func (s *Server) deleteSeason(w http.ResponseWriter, r *http.Request) {
	if err := s.seasons.DeleteSeason(r.Context(), seasonIDParam(r)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setCurrentSeason(w http.ResponseWriter, r *http.Request) {
	season, err := s.seasons.SetCurrentSeason(r.Context(), seasonIDParam(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SeasonResponse{Season: seasonFromDomain(season)})
}

func (s *Server) listSeasonRoster(w http.ResponseWriter, r *http.Request) {
	id := seasonIDParam(r)
	season, err := s.seasons.GetSeason(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	entries, err := s.memberships.ListSeasonRoster(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	now := s.clock.Now()
	out := SeasonRosterResponse{Season: seasonFromDomain(season), Entries: make([]RosterEntry, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, RosterEntry{
			Member:     memberFromDomain(e.Member, now),
			Membership: membershipFromDomain(e.Membership),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getSeasonStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.memberships.SeasonStats(r.Context(), seasonIDParam(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SeasonStatsResponse{Stats: statsFromDomain(stats)})
}

func (s *Server) exportSeason(w http.ResponseWriter, r *http.Request) {
	id := seasonIDParam(r)
	s.writeExport(w, r, &id)
}

func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	season, stats, err := s.memberships.CurrentSeasonStats(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DashboardResponse{Season: seasonFromDomain(season), Stats: statsFromDomain(stats)})
}

func seasonIDParam(r *http.Request) domain.SeasonID {
	return domain.SeasonID(chi.URLParam(r, "seasonId"))
}

func licenseFees(in map[string]int64) map[domain.LicenseType]int64 {
	if in == nil {
		return nil
	}
	out := make(map[domain.LicenseType]int64, len(in))
	for k, v := range in {
		out[domain.LicenseType(k)] = v
	}
	return out
}

func insuranceFees(in map[string]int64) map[domain.InsuranceOption]int64 {
	if in == nil {
		return nil
	}
	out := make(map[domain.InsuranceOption]int64, len(in))
	for k, v := range in {
		out[domain.InsuranceOption(k)] = v
	}
	return out
}

func seasonOptionalMap[T, U any](n nullable.Nullable[T], f func(T) U) seasons.Optional[U] {
	if !n.IsSpecified() {
		return seasons.Unspecified[U]()
	}
	if n.IsNull() {
		return seasons.Null[U]()
	}
	v, err := n.Get()
	if err != nil {
		return seasons.Unspecified[U]()
	}
	return seasons.Some(f(v))
}
