package adminrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/climbing-section/backoffice/internal/domain"
	"github.com/climbing-section/backoffice/internal/ports/out/adminrepo"
)

// Repo is an in-memory implementation of adminrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID      map[domain.AdminID]domain.Admin
	idByEmail map[string]domain.AdminID
}

func NewRepo() *Repo {
	return &Repo{
		byID:      make(map[domain.AdminID]domain.Admin),
		idByEmail: make(map[string]domain.AdminID),
	}
}

func (r *Repo) Create(ctx context.Context, a domain.Admin) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[a.ID]; ok || a.ID == "" {
		return adminrepo.ErrAlreadyExists
	}
	email := emailKey(a.Email)
	if _, ok := r.idByEmail[email]; ok {
		return adminrepo.ErrEmailTaken
	}
	r.byID[a.ID] = cloneAdmin(a)
	r.idByEmail[email] = a.ID
	return nil
}

func (r *Repo) Update(ctx context.Context, a domain.Admin) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[a.ID]
	if !ok {
		return adminrepo.ErrNotFound
	}
	email := emailKey(a.Email)
	if owner, ok := r.idByEmail[email]; ok && owner != a.ID {
		return adminrepo.ErrEmailTaken
	}
	delete(r.idByEmail, emailKey(existing.Email))
	r.idByEmail[email] = a.ID
	r.byID[a.ID] = cloneAdmin(a)
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.AdminID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[id]
	if !ok {
		return adminrepo.ErrNotFound
	}
	delete(r.idByEmail, emailKey(existing.Email))
	delete(r.byID, id)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.AdminID) (domain.Admin, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return domain.Admin{}, adminrepo.ErrNotFound
	}
	return cloneAdmin(a), nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (domain.Admin, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idByEmail[emailKey(email)]
	if !ok {
		return domain.Admin{}, adminrepo.ErrNotFound
	}
	return cloneAdmin(r.byID[id]), nil
}

func (r *Repo) List(ctx context.Context) ([]domain.Admin, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Admin, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, cloneAdmin(a))
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Email) < strings.ToLower(out[j].Email)
	})
	return out, nil
}

func (r *Repo) CountByStatus(ctx context.Context, status domain.AdminStatus) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, a := range r.byID {
		if a.Status == status {
			n++
		}
	}
	return n, nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneAdmin(a domain.Admin) domain.Admin {
	out := a
	if a.InvitedBy != nil {
		v := *a.InvitedBy
		out.InvitedBy = &v
	}
	if a.LastLoginAt != nil {
		v := *a.LastLoginAt
		out.LastLoginAt = &v
	}
	return out
}
