package invitationrepo

import (
	"context"
	"sync"
	"time"

	"github.com/climbing-section/backoffice/internal/domain"
	"github.com/climbing-section/backoffice/internal/ports/out/invitationrepo"
)

// Repo is an in-memory implementation of invitationrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu     sync.RWMutex
	byHash map[string]domain.Invitation
}

func NewRepo() *Repo {
	return &Repo{byHash: make(map[string]domain.Invitation)}
}

func (r *Repo) Create(ctx context.Context, inv domain.Invitation) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byHash[inv.TokenHash]; ok {
		return invitationrepo.ErrAlreadyExists
	}
	r.byHash[inv.TokenHash] = cloneInvitation(inv)
	return nil
}

func (r *Repo) GetByTokenHash(ctx context.Context, tokenHash string) (domain.Invitation, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.byHash[tokenHash]
	if !ok {
		return domain.Invitation{}, invitationrepo.ErrNotFound
	}
	return cloneInvitation(inv), nil
}

func (r *Repo) MarkUsed(ctx context.Context, tokenHash string, at time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.byHash[tokenHash]
	if !ok {
		return invitationrepo.ErrNotFound
	}
	if inv.UsedAt == nil {
		used := at
		inv.UsedAt = &used
		r.byHash[tokenHash] = inv
	}
	return nil
}

func (r *Repo) DeleteByAdmin(ctx context.Context, adminID domain.AdminID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for h, inv := range r.byHash {
		if inv.AdminID == adminID {
			delete(r.byHash, h)
		}
	}
	return nil
}

func cloneInvitation(inv domain.Invitation) domain.Invitation {
	out := inv
	if inv.UsedAt != nil {
		v := *inv.UsedAt
		out.UsedAt = &v
	}
	return out
}
