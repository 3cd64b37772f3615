package seasonrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/climbing-section/backoffice/internal/domain"
	"github.com/climbing-section/backoffice/internal/ports/out/seasonrepo"
)

// Repo is an in-memory implementation of seasonrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.SeasonID]domain.Season
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.SeasonID]domain.Season)}
}

func (r *Repo) Create(ctx context.Context, s domain.Season) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[s.ID]; ok || s.ID == "" {
		return seasonrepo.ErrAlreadyExists
	}
	if r.labelTakenLocked(s.Label, s.ID) {
		return seasonrepo.ErrLabelTaken
	}
	if s.IsCurrent {
		r.clearCurrentLocked()
	}
	r.byID[s.ID] = cloneSeason(s)
	return nil
}

func (r *Repo) Update(ctx context.Context, s domain.Season) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[s.ID]
	if !ok {
		return seasonrepo.ErrNotFound
	}
	if r.labelTakenLocked(s.Label, s.ID) {
		return seasonrepo.ErrLabelTaken
	}
	// The current flag only moves through SetCurrent.
	s.IsCurrent = existing.IsCurrent
	r.byID[s.ID] = cloneSeason(s)
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.SeasonID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return seasonrepo.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.SeasonID) (domain.Season, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return domain.Season{}, seasonrepo.ErrNotFound
	}
	return cloneSeason(s), nil
}

func (r *Repo) GetCurrent(ctx context.Context) (domain.Season, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.byID {
		if s.IsCurrent {
			return cloneSeason(s), nil
		}
	}
	return domain.Season{}, seasonrepo.ErrNotFound
}

func (r *Repo) List(ctx context.Context) ([]domain.Season, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Season, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, cloneSeason(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartsOn.Equal(out[j].StartsOn) {
			return string(out[i].ID) < string(out[j].ID)
		}
		return out[i].StartsOn.After(out[j].StartsOn)
	})
	return out, nil
}

func (r *Repo) SetCurrent(ctx context.Context, id domain.SeasonID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return seasonrepo.ErrNotFound
	}
	r.clearCurrentLocked()
	s.IsCurrent = true
	r.byID[id] = s
	return nil
}

func (r *Repo) clearCurrentLocked() {
	for id, s := range r.byID {
		if s.IsCurrent {
			s.IsCurrent = false
			r.byID[id] = s
		}
	}
}

func (r *Repo) labelTakenLocked(label string, except domain.SeasonID) bool {
	for id, s := range r.byID {
		if id != except && strings.EqualFold(s.Label, label) {
			return true
		}
	}
	return false
}

func cloneSeason(s domain.Season) domain.Season {
	out := s
	out.LicenseFees = make(map[domain.LicenseType]int64, len(s.LicenseFees))
	for k, v := range s.LicenseFees {
		out.LicenseFees[k] = v
	}
	out.InsuranceFees = make(map[domain.InsuranceOption]int64, len(s.InsuranceFees))
	for k, v := range s.InsuranceFees {
		out.InsuranceFees[k] = v
	}
	return out
}
