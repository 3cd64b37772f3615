package memberrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/climbing-section/backoffice/internal/domain"
	"github.com/climbing-section/backoffice/internal/ports/out/memberrepo"
)

// Repo is an in-memory implementation of memberrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID      map[domain.MemberID]memberrepo.Member
	idByEmail map[string]domain.MemberID
}

func NewRepo() *Repo {
	return &Repo{
		byID:      make(map[domain.MemberID]memberrepo.Member),
		idByEmail: make(map[string]domain.MemberID),
	}
}

func (r *Repo) Create(ctx context.Context, m memberrepo.Member) error {
	_ = ctx
	if m.ID == "" {
		return memberrepo.ErrAlreadyExists // treat empty ID as invalid; the app layer always assigns one
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[m.ID]; ok {
		return memberrepo.ErrAlreadyExists
	}
	email := emailKey(m.Email)
	if _, ok := r.idByEmail[email]; ok {
		return memberrepo.ErrEmailTaken
	}

	r.byID[m.ID] = cloneMember(m)
	r.idByEmail[email] = m.ID
	return nil
}

func (r *Repo) Update(ctx context.Context, m memberrepo.Member) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[m.ID]
	if !ok {
		return memberrepo.ErrNotFound
	}
	newEmail := emailKey(m.Email)
	if owner, ok := r.idByEmail[newEmail]; ok && owner != m.ID {
		return memberrepo.ErrEmailTaken
	}
	delete(r.idByEmail, emailKey(existing.Email))
	r.idByEmail[newEmail] = m.ID

	r.byID[m.ID] = cloneMember(m)
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.MemberID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[id]
	if !ok {
		return memberrepo.ErrNotFound
	}
	delete(r.idByEmail, emailKey(existing.Email))
	delete(r.byID, id)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.MemberID) (memberrepo.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return memberrepo.Member{}, memberrepo.ErrNotFound
	}
	return cloneMember(m), nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (memberrepo.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idByEmail[emailKey(email)]
	if !ok {
		return memberrepo.Member{}, memberrepo.ErrNotFound
	}
	m, ok := r.byID[id]
	if !ok {
		return memberrepo.Member{}, memberrepo.ErrNotFound
	}
	return cloneMember(m), nil
}

func (r *Repo) List(ctx context.Context, q memberrepo.Query) ([]memberrepo.Member, int, error) {
	_ = ctx
	tokens := tokenize(q.Search)

	var allowed map[domain.MemberID]struct{}
	if q.FilterByIDs {
		allowed = make(map[domain.MemberID]struct{}, len(q.IDs))
		for _, id := range q.IDs {
			allowed[id] = struct{}{}
		}
	}

	r.mu.RLock()
	matched := make([]memberrepo.Member, 0, len(r.byID))
	for _, m := range r.byID {
		if allowed != nil {
			if _, ok := allowed[m.ID]; !ok {
				continue
			}
		}
		if !matchesAllTokens(m, tokens) {
			continue
		}
		matched = append(matched, m)
	}
	r.mu.RUnlock()

	sortMembers(matched)
	total := len(matched)

	start := q.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}

	out := make([]memberrepo.Member, 0, end-start)
	for _, m := range matched[start:end] {
		out = append(out, cloneMember(m))
	}
	return out, total, nil
}

func (r *Repo) ListByIDs(ctx context.Context, ids []domain.MemberID) ([]memberrepo.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[domain.MemberID]struct{}, len(ids))
	out := make([]memberrepo.Member, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if m, ok := r.byID[id]; ok {
			out = append(out, cloneMember(m))
		}
	}
	sortMembers(out)
	return out, nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneMember(m memberrepo.Member) memberrepo.Member {
	out := m
	out.Phone = cloneStringPtr(m.Phone)
	out.Notes = cloneStringPtr(m.Notes)
	out.PictureKey = cloneStringPtr(m.PictureKey)
	out.Address.Complement = cloneStringPtr(m.Address.Complement)
	if m.LegalContact != nil {
		lc := *m.LegalContact
		lc.Email = cloneStringPtr(m.LegalContact.Email)
		out.LegalContact = &lc
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

// sortMembers orders like Postgres lower(name) COLLATE "und-x-icu": Unicode root collation
// on lowercased names, then id.
func sortMembers(ms []memberrepo.Member) {
	c := collate.New(language.Und)
	sort.Slice(ms, func(i, j int) bool {
		if d := c.CompareString(strings.ToLower(ms[i].LastName), strings.ToLower(ms[j].LastName)); d != 0 {
			return d < 0
		}
		if d := c.CompareString(strings.ToLower(ms[i].FirstName), strings.ToLower(ms[j].FirstName)); d != 0 {
			return d < 0
		}
		return string(ms[i].ID) < string(ms[j].ID)
	})
}

func tokenize(s string) []string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}

func matchesAllTokens(m memberrepo.Member, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	hay := strings.ToLower(m.FirstName + " " + m.LastName + " " + m.Email)
	for _, t := range tokens {
		if !strings.Contains(hay, t) {
			return false
		}
	}
	return true
}
