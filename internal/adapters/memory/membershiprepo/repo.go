package membershiprepo

import (
	"context"
	"sort"
	"sync"

	"github.com/climbing-section/backoffice/internal/domain"
	"github.com/climbing-section/backoffice/internal/ports/out/membershiprepo"
)

type key struct {
	seasonID domain.SeasonID
	memberID domain.MemberID
}

// Repo is an in-memory implementation of membershiprepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex
	m  map[key]domain.Membership
}

func NewRepo() *Repo {
	return &Repo{m: make(map[key]domain.Membership)}
}

func (r *Repo) Get(ctx context.Context, memberID domain.MemberID, seasonID domain.SeasonID) (domain.Membership, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.m[key{seasonID: seasonID, memberID: memberID}]
	if !ok {
		return domain.Membership{}, membershiprepo.ErrNotFound
	}
	return cloneMembership(v), nil
}

func (r *Repo) Upsert(ctx context.Context, rec domain.Membership) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{seasonID: rec.SeasonID, memberID: rec.MemberID}
	if existing, ok := r.m[k]; ok {
		rec.CreatedAt = existing.CreatedAt
	}
	r.m[k] = cloneMembership(rec)
	return nil
}

func (r *Repo) Delete(ctx context.Context, memberID domain.MemberID, seasonID domain.SeasonID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{seasonID: seasonID, memberID: memberID}
	if _, ok := r.m[k]; !ok {
		return membershiprepo.ErrNotFound
	}
	delete(r.m, k)
	return nil
}

func (r *Repo) DeleteByMember(ctx context.Context, memberID domain.MemberID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.m {
		if k.memberID == memberID {
			delete(r.m, k)
		}
	}
	return nil
}

func (r *Repo) ListByMember(ctx context.Context, memberID domain.MemberID) ([]domain.Membership, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Membership, 0)
	for k, v := range r.m {
		if k.memberID == memberID {
			out = append(out, cloneMembership(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return string(out[i].SeasonID) < string(out[j].SeasonID) })
	return out, nil
}

func (r *Repo) ListBySeason(ctx context.Context, seasonID domain.SeasonID) ([]domain.Membership, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Membership, 0)
	for k, v := range r.m {
		if k.seasonID == seasonID {
			out = append(out, cloneMembership(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return string(out[i].MemberID) < string(out[j].MemberID) })
	return out, nil
}

func (r *Repo) CountBySeason(ctx context.Context, seasonID domain.SeasonID) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for k := range r.m {
		if k.seasonID == seasonID {
			n++
		}
	}
	return n, nil
}

func cloneMembership(m domain.Membership) domain.Membership {
	out := m
	if m.LicenseNumber != nil {
		v := *m.LicenseNumber
		out.LicenseNumber = &v
	}
	if m.MedicalCertificateOn != nil {
		v := *m.MedicalCertificateOn
		out.MedicalCertificateOn = &v
	}
	if m.PaidAt != nil {
		v := *m.PaidAt
		out.PaidAt = &v
	}
	return out
}
