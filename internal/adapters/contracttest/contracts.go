package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/climbing-section/backoffice/internal/domain"
	adminrepoport "github.com/climbing-section/backoffice/internal/ports/out/adminrepo"
	idempotencyport "github.com/climbing-section/backoffice/internal/ports/out/idempotency"
	invitationrepoport "github.com/climbing-section/backoffice/internal/ports/out/invitationrepo"
	memberrepoport "github.com/climbing-section/backoffice/internal/ports/out/memberrepo"
	membershiprepoport "github.com/climbing-section/backoffice/internal/ports/out/membershiprepo"
	seasonrepoport "github.com/climbing-section/backoffice/internal/ports/out/seasonrepo"
)

type CleanupFunc = func()

type MemberRepoFactory func(t *testing.T) (memberrepoport.Repository, CleanupFunc)
type SeasonRepoFactory func(t *testing.T) (seasonrepoport.Repository, CleanupFunc)
type MembershipRepoFactory func(t *testing.T) (membershiprepoport.Repository, CleanupFunc)
type AdminRepoFactory func(t *testing.T) (adminrepoport.Repository, CleanupFunc)
type InvitationRepoFactory func(t *testing.T) (invitationrepoport.Repository, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      idempotencyport.Key("k-" + uuid.NewString()),
		Actor:    domain.AdminID(uuid.NewString()),
		Method:   "POST",
		Route:    "/members",
		BodyHash: "body-hash",
	}
	rec := idempotencyport.Record{
		StatusCode:  201,
		ContentType: "application/json",
		Body:        []byte(`{"id":"abc"}`),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get before Put: ok=%v err=%v", ok, err)
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != `{"id":"abc"}` || got.ContentType != "application/json" || got.StatusCode != 201 {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte(`{"id":"def"}`)
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != `{"id":"def"}` {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}

	// Same key under a different body hash is a different fingerprint.
	other := fp
	other.BodyHash = "other-hash"
	if _, ok, err := store.Get(ctx, other); err != nil || ok {
		t.Fatalf("Get other fingerprint: ok=%v err=%v", ok, err)
	}

	// Expiry sweep.
	if _, err := store.DeleteBefore(ctx, time.Unix(124, 0).UTC()); err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get after DeleteBefore: ok=%v err=%v", ok, err)
	}
}

func newMember(first, last, email string, now time.Time) memberrepoport.Member {
	return memberrepoport.Member{
		ID:        domain.MemberID(uuid.NewString()),
		FirstName: first,
		LastName:  last,
		BirthDate: time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC),
		Gender:    domain.GenderOther,
		Email:     email,
		Address: domain.Address{
			Street:     "1 rue des Prises",
			PostalCode: "38000",
			City:       "Grenoble",
			Country:    "FR",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func RunMemberRepo(t *testing.T, newRepo MemberRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	a := newMember("Alice", "Johnson", "alice@example.com", now)
	phone := "+33600000000"
	a.Phone = &phone
	a.LegalContact = &domain.LegalContact{
		FirstName:    "Carol",
		LastName:     "Johnson",
		Relationship: "mother",
		Phone:        "+33611111111",
	}
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create a: %v", err)
	}
	got, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Email != a.Email || got.Phone == nil || *got.Phone != phone || got.LegalContact == nil || got.LegalContact.FirstName != "Carol" {
		t.Fatalf("unexpected member: %#v", got)
	}
	if !got.BirthDate.Equal(a.BirthDate) {
		t.Fatalf("birth date=%v, want %v", got.BirthDate, a.BirthDate)
	}
	if _, err := repo.GetByEmail(ctx, "ALICE@example.com"); err != nil {
		t.Fatalf("GetByEmail (case-insensitive): %v", err)
	}
	if _, err := repo.GetByID(ctx, domain.MemberID(uuid.NewString())); !errors.Is(err, memberrepoport.ErrNotFound) {
		t.Fatalf("GetByID missing err=%v, want ErrNotFound", err)
	}

	// Email uniqueness.
	dup := newMember("Alice", "Bis", "Alice@Example.com", now)
	if err := repo.Create(ctx, dup); !errors.Is(err, memberrepoport.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	b := newMember("bob", "durand", "bob@example.com", now)
	c := newMember("Zoe", "Martin", "zoe@example.com", now)
	for _, m := range []memberrepoport.Member{b, c} {
		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("Create %s: %v", m.FirstName, err)
		}
	}

	// Deterministic ordering by last name then first name (case-insensitive).
	all, total, err := repo.List(ctx, memberrepoport.Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("List total=%d len=%d, want 3", total, len(all))
	}
	if all[0].ID != b.ID || all[1].ID != a.ID || all[2].ID != c.ID {
		t.Fatalf("unexpected ordering: %s %s %s", all[0].LastName, all[1].LastName, all[2].LastName)
	}

	// Paging keeps the total.
	page, total, err := repo.List(ctx, memberrepoport.Query{Offset: 1, Limit: 1})
	if err != nil {
		t.Fatalf("List page: %v", err)
	}
	if total != 3 || len(page) != 1 || page[0].ID != a.ID {
		t.Fatalf("unexpected page: total=%d %#v", total, page)
	}

	// Search token match (AND across tokens).
	res, total, err := repo.List(ctx, memberrepoport.Query{Search: "ali jo"})
	if err != nil {
		t.Fatalf("List search: %v", err)
	}
	if total != 1 || len(res) != 1 || res[0].ID != a.ID {
		t.Fatalf("unexpected search result: %#v", res)
	}

	// ID filter.
	res, total, err = repo.List(ctx, memberrepoport.Query{FilterByIDs: true, IDs: []domain.MemberID{c.ID, b.ID}})
	if err != nil {
		t.Fatalf("List ids: %v", err)
	}
	if total != 2 || len(res) != 2 || res[0].ID != b.ID || res[1].ID != c.ID {
		t.Fatalf("unexpected id filter result: %#v", res)
	}
	res, total, err = repo.List(ctx, memberrepoport.Query{FilterByIDs: true})
	if err != nil || total != 0 || len(res) != 0 {
		t.Fatalf("empty id filter: total=%d len=%d err=%v", total, len(res), err)
	}

	byIDs, err := repo.ListByIDs(ctx, []domain.MemberID{c.ID, a.ID, c.ID})
	if err != nil {
		t.Fatalf("ListByIDs: %v", err)
	}
	if len(byIDs) != 2 || byIDs[0].ID != a.ID || byIDs[1].ID != c.ID {
		t.Fatalf("unexpected ListByIDs: %#v", byIDs)
	}

	// Update moves the email and drops the legal contact.
	a.Email = "alice.j@example.com"
	a.LegalContact = nil
	a.UpdatedAt = now.Add(time.Minute)
	if err := repo.Update(ctx, a); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := repo.GetByEmail(ctx, "alice@example.com"); !errors.Is(err, memberrepoport.ErrNotFound) {
		t.Fatalf("old email still indexed: %v", err)
	}
	got, err = repo.GetByEmail(ctx, "alice.j@example.com")
	if err != nil {
		t.Fatalf("GetByEmail new: %v", err)
	}
	if got.LegalContact != nil {
		t.Fatalf("legal contact not cleared: %#v", got.LegalContact)
	}
	b.Email = "zoe@example.com"
	if err := repo.Update(ctx, b); !errors.Is(err, memberrepoport.ErrEmailTaken) {
		t.Fatalf("Update to taken email err=%v, want ErrEmailTaken", err)
	}

	if err := repo.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, c.ID); !errors.Is(err, memberrepoport.ErrNotFound) {
		t.Fatalf("Delete twice err=%v, want ErrNotFound", err)
	}

	// Accented names sort by letter, not by byte: Élie < Eluard < Zola.
	var accented []domain.MemberID
	for _, last := range []string{"Zola", "Élie", "Eluard"} {
		m := newMember("Camille", last, uuid.NewString()+"@example.com", now)
		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("Create %s: %v", last, err)
		}
		accented = append(accented, m.ID)
	}
	sorted, err := repo.ListByIDs(ctx, accented)
	if err != nil {
		t.Fatalf("ListByIDs accented: %v", err)
	}
	if len(sorted) != 3 || sorted[0].LastName != "Élie" || sorted[1].LastName != "Eluard" || sorted[2].LastName != "Zola" {
		names := make([]string, 0, len(sorted))
		for _, m := range sorted {
			names = append(names, m.LastName)
		}
		t.Fatalf("accented ordering: %v", names)
	}
}

func newSeason(label string, startYear int, now time.Time) domain.Season {
	return domain.Season{
		ID:       domain.SeasonID(uuid.NewString()),
		Label:    label,
		StartsOn: time.Date(startYear, 9, 1, 0, 0, 0, 0, time.UTC),
		EndsOn:   time.Date(startYear+1, 8, 31, 0, 0, 0, 0, time.UTC),
		LicenseFees: map[domain.LicenseType]int64{
			domain.LicenseAdult: 9000,
			domain.LicenseYouth: 6000,
		},
		InsuranceFees: map[domain.InsuranceOption]int64{
			domain.InsuranceBase:     0,
			domain.InsuranceBasePlus: 300,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func RunSeasonRepo(t *testing.T, newRepo SeasonRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(3000, 0).UTC()
	if _, err := repo.GetCurrent(ctx); !errors.Is(err, seasonrepoport.ErrNotFound) {
		t.Fatalf("GetCurrent on empty repo err=%v, want ErrNotFound", err)
	}

	s1 := newSeason("2023-2024", 2023, now)
	s1.IsCurrent = true
	s2 := newSeason("2024-2025", 2024, now)
	if err := repo.Create(ctx, s1); err != nil {
		t.Fatalf("Create s1: %v", err)
	}
	if err := repo.Create(ctx, s2); err != nil {
		t.Fatalf("Create s2: %v", err)
	}

	dup := newSeason("2024-2025", 2030, now)
	if err := repo.Create(ctx, dup); !errors.Is(err, seasonrepoport.ErrLabelTaken) {
		t.Fatalf("duplicate label err=%v, want ErrLabelTaken", err)
	}

	got, err := repo.GetByID(ctx, s2.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.LicenseFees[domain.LicenseAdult] != 9000 || got.InsuranceFees[domain.InsuranceBasePlus] != 300 {
		t.Fatalf("unexpected fees: %#v %#v", got.LicenseFees, got.InsuranceFees)
	}
	if !got.StartsOn.Equal(s2.StartsOn) || !got.EndsOn.Equal(s2.EndsOn) {
		t.Fatalf("unexpected dates: %v %v", got.StartsOn, got.EndsOn)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != s2.ID || list[1].ID != s1.ID {
		t.Fatalf("unexpected ordering: %#v", list)
	}

	cur, err := repo.GetCurrent(ctx)
	if err != nil || cur.ID != s1.ID {
		t.Fatalf("GetCurrent=%v err=%v, want %s", cur.ID, err, s1.ID)
	}
	if err := repo.SetCurrent(ctx, s2.ID); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}
	cur, err = repo.GetCurrent(ctx)
	if err != nil || cur.ID != s2.ID {
		t.Fatalf("GetCurrent after SetCurrent=%v err=%v, want %s", cur.ID, err, s2.ID)
	}
	old, err := repo.GetByID(ctx, s1.ID)
	if err != nil || old.IsCurrent {
		t.Fatalf("previous current flag not cleared: %#v err=%v", old, err)
	}
	if err := repo.SetCurrent(ctx, domain.SeasonID(uuid.NewString())); !errors.Is(err, seasonrepoport.ErrNotFound) {
		t.Fatalf("SetCurrent missing err=%v, want ErrNotFound", err)
	}

	// Update replaces fee tables.
	s1.Label = "2023/2024"
	s1.LicenseFees = map[domain.LicenseType]int64{domain.LicenseDiscovery: 2500}
	s1.UpdatedAt = now.Add(time.Hour)
	if err := repo.Update(ctx, s1); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err = repo.GetByID(ctx, s1.ID)
	if err != nil {
		t.Fatalf("GetByID after update: %v", err)
	}
	if got.Label != "2023/2024" || len(got.LicenseFees) != 1 || got.LicenseFees[domain.LicenseDiscovery] != 2500 {
		t.Fatalf("unexpected updated season: %#v", got)
	}

	if err := repo.Delete(ctx, s1.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, s1.ID); !errors.Is(err, seasonrepoport.ErrNotFound) {
		t.Fatalf("GetByID deleted err=%v, want ErrNotFound", err)
	}
}

// RunMembershipRepo exercises memberships, which need seeded members and seasons.
func RunMembershipRepo(t *testing.T, newMemberRepo MemberRepoFactory, newSeasonRepo SeasonRepoFactory, newMembershipRepo MembershipRepoFactory) {
	t.Helper()
	ctx := context.Background()

	members, mCleanup := newMemberRepo(t)
	if mCleanup != nil {
		t.Cleanup(mCleanup)
	}
	seasons, sCleanup := newSeasonRepo(t)
	if sCleanup != nil {
		t.Cleanup(sCleanup)
	}
	memberships, msCleanup := newMembershipRepo(t)
	if msCleanup != nil {
		t.Cleanup(msCleanup)
	}

	now := time.Unix(5000, 0).UTC()
	m1 := newMember("Ann", "One", "ann@example.com", now)
	m2 := newMember("Ben", "Two", "ben@example.com", now)
	for _, m := range []memberrepoport.Member{m1, m2} {
		if err := members.Create(ctx, m); err != nil {
			t.Fatalf("seed member: %v", err)
		}
	}
	s1 := newSeason("2024-2025", 2024, now)
	s2 := newSeason("2025-2026", 2025, now)
	for _, s := range []domain.Season{s1, s2} {
		if err := seasons.Create(ctx, s); err != nil {
			t.Fatalf("seed season: %v", err)
		}
	}

	if _, err := memberships.Get(ctx, m1.ID, s1.ID); !errors.Is(err, membershiprepoport.ErrNotFound) {
		t.Fatalf("Get missing err=%v, want ErrNotFound", err)
	}

	cert := time.Date(2024, 9, 10, 0, 0, 0, 0, time.UTC)
	rec := domain.Membership{
		MemberID:             m1.ID,
		SeasonID:             s1.ID,
		LicenseType:          domain.LicenseAdult,
		Insurance:            domain.InsuranceBase,
		FeeCents:             9000,
		MedicalCertificateOn: &cert,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := memberships.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got, err := memberships.Get(ctx, m1.ID, s1.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FeeCents != 9000 || got.IsPaid() || got.MedicalCertificateOn == nil || !got.MedicalCertificateOn.Equal(cert) {
		t.Fatalf("unexpected membership: %#v", got)
	}

	// Last write wins, creation time is kept.
	paid := now.Add(time.Hour)
	num := "LIC-42"
	rec.Insurance = domain.InsuranceBasePlus
	rec.FeeCents = 9300
	rec.PaidAt = &paid
	rec.LicenseNumber = &num
	rec.CreatedAt = now.Add(time.Hour)
	rec.UpdatedAt = now.Add(time.Hour)
	if err := memberships.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert overwrite: %v", err)
	}
	got, err = memberships.Get(ctx, m1.ID, s1.ID)
	if err != nil {
		t.Fatalf("Get after overwrite: %v", err)
	}
	if got.FeeCents != 9300 || !got.IsPaid() || got.LicenseNumber == nil || *got.LicenseNumber != "LIC-42" {
		t.Fatalf("unexpected overwritten membership: %#v", got)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("CreatedAt=%v, want %v", got.CreatedAt, now)
	}

	for _, r := range []domain.Membership{
		{MemberID: m2.ID, SeasonID: s1.ID, LicenseType: domain.LicenseYouth, Insurance: domain.InsuranceBase, FeeCents: 6000, CreatedAt: now, UpdatedAt: now},
		{MemberID: m1.ID, SeasonID: s2.ID, LicenseType: domain.LicenseAdult, Insurance: domain.InsuranceBase, FeeCents: 9000, CreatedAt: now, UpdatedAt: now},
	} {
		if err := memberships.Upsert(ctx, r); err != nil {
			t.Fatalf("Upsert seed: %v", err)
		}
	}

	if n, err := memberships.CountBySeason(ctx, s1.ID); err != nil || n != 2 {
		t.Fatalf("CountBySeason: n=%d err=%v", n, err)
	}
	roster, err := memberships.ListBySeason(ctx, s1.ID)
	if err != nil || len(roster) != 2 {
		t.Fatalf("ListBySeason: len=%d err=%v", len(roster), err)
	}
	if string(roster[0].MemberID) > string(roster[1].MemberID) {
		t.Fatalf("ListBySeason not ordered by member id: %#v", roster)
	}
	mine, err := memberships.ListByMember(ctx, m1.ID)
	if err != nil || len(mine) != 2 {
		t.Fatalf("ListByMember: len=%d err=%v", len(mine), err)
	}

	if err := memberships.Delete(ctx, m2.ID, s1.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := memberships.Delete(ctx, m2.ID, s1.ID); !errors.Is(err, membershiprepoport.ErrNotFound) {
		t.Fatalf("Delete twice err=%v, want ErrNotFound", err)
	}
	if err := memberships.DeleteByMember(ctx, m1.ID); err != nil {
		t.Fatalf("DeleteByMember: %v", err)
	}
	if n, err := memberships.CountBySeason(ctx, s1.ID); err != nil || n != 0 {
		t.Fatalf("CountBySeason after deletes: n=%d err=%v", n, err)
	}
}

func newAdmin(email string, status domain.AdminStatus, now time.Time) domain.Admin {
	return domain.Admin{
		ID:        domain.AdminID(uuid.NewString()),
		Email:     email,
		FirstName: "Ada",
		LastName:  "Admin",
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func RunAdminRepo(t *testing.T, newRepo AdminRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(7000, 0).UTC()
	root := newAdmin("root@example.com", domain.AdminStatusActive, now)
	root.PasswordHash = "$argon2id$stub"
	if err := repo.Create(ctx, root); err != nil {
		t.Fatalf("Create root: %v", err)
	}
	invited := newAdmin("Bea@example.com", domain.AdminStatusInvited, now)
	invited.InvitedBy = &root.ID
	if err := repo.Create(ctx, invited); err != nil {
		t.Fatalf("Create invited: %v", err)
	}

	if err := repo.Create(ctx, newAdmin("ROOT@example.com", domain.AdminStatusInvited, now)); !errors.Is(err, adminrepoport.ErrEmailTaken) {
		t.Fatalf("duplicate email err=%v, want ErrEmailTaken", err)
	}

	got, err := repo.GetByEmail(ctx, "bea@EXAMPLE.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != invited.ID || got.InvitedBy == nil || *got.InvitedBy != root.ID || got.PasswordHash != "" {
		t.Fatalf("unexpected admin: %#v", got)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != invited.ID || list[1].ID != root.ID {
		t.Fatalf("unexpected ordering: %#v", list)
	}

	if n, err := repo.CountByStatus(ctx, domain.AdminStatusActive); err != nil || n != 1 {
		t.Fatalf("CountByStatus(ACTIVE): n=%d err=%v", n, err)
	}

	login := now.Add(time.Minute)
	invited.Status = domain.AdminStatusActive
	invited.PasswordHash = "$argon2id$other"
	invited.LastLoginAt = &login
	invited.UpdatedAt = login
	if err := repo.Update(ctx, invited); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err = repo.GetByID(ctx, invited.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.IsActive() || got.LastLoginAt == nil || !got.LastLoginAt.Equal(login) {
		t.Fatalf("unexpected updated admin: %#v", got)
	}
	if n, err := repo.CountByStatus(ctx, domain.AdminStatusActive); err != nil || n != 2 {
		t.Fatalf("CountByStatus(ACTIVE) after update: n=%d err=%v", n, err)
	}

	if err := repo.Update(ctx, newAdmin("ghost@example.com", domain.AdminStatusActive, now)); !errors.Is(err, adminrepoport.ErrNotFound) {
		t.Fatalf("Update missing err=%v, want ErrNotFound", err)
	}

	if err := repo.Delete(ctx, invited.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, invited.ID); !errors.Is(err, adminrepoport.ErrNotFound) {
		t.Fatalf("GetByID deleted err=%v, want ErrNotFound", err)
	}
	// The email is free again.
	if err := repo.Create(ctx, newAdmin("bea@example.com", domain.AdminStatusInvited, now)); err != nil {
		t.Fatalf("re-Create freed email: %v", err)
	}
}

// RunInvitationRepo exercises invitations, which reference a seeded admin.
func RunInvitationRepo(t *testing.T, newAdminRepo AdminRepoFactory, newRepo InvitationRepoFactory) {
	t.Helper()
	ctx := context.Background()

	admins, aCleanup := newAdminRepo(t)
	if aCleanup != nil {
		t.Cleanup(aCleanup)
	}
	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(9000, 0).UTC()
	admin := newAdmin("invitee@example.com", domain.AdminStatusInvited, now)
	if err := admins.Create(ctx, admin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	inv := domain.Invitation{
		TokenHash: "hash-" + uuid.NewString(),
		AdminID:   admin.ID,
		ExpiresAt: now.Add(72 * time.Hour),
		CreatedAt: now,
	}
	if err := repo.Create(ctx, inv); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, inv); !errors.Is(err, invitationrepoport.ErrAlreadyExists) {
		t.Fatalf("duplicate Create err=%v, want ErrAlreadyExists", err)
	}

	got, err := repo.GetByTokenHash(ctx, inv.TokenHash)
	if err != nil {
		t.Fatalf("GetByTokenHash: %v", err)
	}
	if got.AdminID != admin.ID || got.IsUsed() || !got.ExpiresAt.Equal(inv.ExpiresAt) {
		t.Fatalf("unexpected invitation: %#v", got)
	}

	used := now.Add(time.Hour)
	if err := repo.MarkUsed(ctx, inv.TokenHash, used); err != nil {
		t.Fatalf("MarkUsed: %v", err)
	}
	// A second use does not move the timestamp.
	if err := repo.MarkUsed(ctx, inv.TokenHash, used.Add(time.Hour)); err != nil {
		t.Fatalf("MarkUsed twice: %v", err)
	}
	got, err = repo.GetByTokenHash(ctx, inv.TokenHash)
	if err != nil {
		t.Fatalf("GetByTokenHash after use: %v", err)
	}
	if got.UsedAt == nil || !got.UsedAt.Equal(used) {
		t.Fatalf("UsedAt=%v, want %v", got.UsedAt, used)
	}
	if err := repo.MarkUsed(ctx, "unknown", used); !errors.Is(err, invitationrepoport.ErrNotFound) {
		t.Fatalf("MarkUsed unknown err=%v, want ErrNotFound", err)
	}

	if err := repo.DeleteByAdmin(ctx, admin.ID); err != nil {
		t.Fatalf("DeleteByAdmin: %v", err)
	}
	if _, err := repo.GetByTokenHash(ctx, inv.TokenHash); !errors.Is(err, invitationrepoport.ErrNotFound) {
		t.Fatalf("GetByTokenHash after revoke err=%v, want ErrNotFound", err)
	}
}
