package memberships

import (
	"context"
	"errors"
	"testing"
	"time"

	memclock "github.com/climbing-section/backoffice/internal/adapters/memory/clock"
	memmemberrepo "github.com/climbing-section/backoffice/internal/adapters/memory/memberrepo"
	memmembershiprepo "github.com/climbing-section/backoffice/internal/adapters/memory/membershiprepo"
	memseasonrepo "github.com/climbing-section/backoffice/internal/adapters/memory/seasonrepo"
	"github.com/climbing-section/backoffice/internal/domain"
	"github.com/climbing-section/backoffice/internal/ports/out/memberrepo"
)

type fixture struct {
	svc     *Service
	members *memmemberrepo.Repo
	seasons *memseasonrepo.Repo
	clk     *memclock.ManualClock
	season  domain.Season
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		members: memmemberrepo.NewRepo(),
		seasons: memseasonrepo.NewRepo(),
		clk:     memclock.NewManualClock(time.Date(2025, 9, 15, 18, 0, 0, 0, time.UTC)),
	}
	f.svc = NewService(memmembershiprepo.NewRepo(), f.members, f.seasons, f.clk, nil)
	f.season = domain.Season{
		ID:       "season-2025",
		Label:    "2025-2026",
		StartsOn: day(2025, time.September, 1),
		EndsOn:   day(2026, time.August, 31),
		LicenseFees: map[domain.LicenseType]int64{
			domain.LicenseAdult: 6500,
			domain.LicenseYouth: 4500,
		},
		InsuranceFees: map[domain.InsuranceOption]int64{
			domain.InsuranceBase:     0,
			domain.InsuranceBasePlus: 1200,
		},
	}
	if err := f.seasons.Create(context.Background(), f.season); err != nil {
		t.Fatalf("seasons.Create() err=%v", err)
	}
	return f
}

func (f fixture) addMember(t *testing.T, id, first, last string, birth time.Time) domain.MemberID {
	t.Helper()
	m := memberrepo.Member{
		ID:        domain.MemberID(id),
		FirstName: first,
		LastName:  last,
		BirthDate: birth,
		Gender:    domain.GenderOther,
		Email:     id + "@example.com",
		Address:   domain.Address{Street: "1 rue Haute", PostalCode: "38000", City: "Grenoble", Country: "FR"},
	}
	if err := f.members.Create(context.Background(), m); err != nil {
		t.Fatalf("members.Create() err=%v", err)
	}
	return m.ID
}

func requireCode(t *testing.T, err error, status int, code string) *Error {
	t.Helper()
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != status || ae.Code != code {
		t.Fatalf("err=%v, want %s %d", err, code, status)
	}
	return ae
}

func TestService_RegisterMember_ComputesFeeAndPayment(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	id := f.addMember(t, "alice", "Alice", "Martin", day(1990, time.March, 3))

	ms, err := f.svc.RegisterMember(ctx, id, f.season.ID, RegistrationInput{
		LicenseType: domain.LicenseAdult,
		Insurance:   domain.InsuranceBasePlus,
	})
	if err != nil {
		t.Fatalf("RegisterMember() err=%v", err)
	}
	if ms.FeeCents != 7700 {
		t.Fatalf("fee=%d, want 7700", ms.FeeCents)
	}
	if ms.PaidAt != nil {
		t.Fatalf("expected unpaid")
	}

	paidAt := f.clk.Now()
	ms, err = f.svc.RegisterMember(ctx, id, f.season.ID, RegistrationInput{
		LicenseType: domain.LicenseAdult,
		Insurance:   domain.InsuranceBasePlus,
		Paid:        true,
	})
	if err != nil {
		t.Fatalf("RegisterMember(paid) err=%v", err)
	}
	if ms.PaidAt == nil || !ms.PaidAt.Equal(paidAt) {
		t.Fatalf("paidAt=%v, want %v", ms.PaidAt, paidAt)
	}

	f.clk.Advance(48 * time.Hour)
	ms, err = f.svc.RegisterMember(ctx, id, f.season.ID, RegistrationInput{
		LicenseType: domain.LicenseAdult,
		Insurance:   domain.InsuranceBase,
		Paid:        true,
	})
	if err != nil {
		t.Fatalf("RegisterMember(again) err=%v", err)
	}
	if ms.PaidAt == nil || !ms.PaidAt.Equal(paidAt) {
		t.Fatalf("paidAt=%v, want kept at %v", ms.PaidAt, paidAt)
	}
	if ms.FeeCents != 6500 {
		t.Fatalf("fee=%d, want 6500", ms.FeeCents)
	}

	ms, err = f.svc.RegisterMember(ctx, id, f.season.ID, RegistrationInput{
		LicenseType: domain.LicenseAdult,
		Insurance:   domain.InsuranceBase,
	})
	if err != nil {
		t.Fatalf("RegisterMember(unpaid) err=%v", err)
	}
	if ms.PaidAt != nil {
		t.Fatalf("expected payment cleared")
	}
}

func TestService_RegisterMember_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	adult := f.addMember(t, "alice", "Alice", "Martin", day(1990, time.March, 3))
	// Turns 18 after the season starts: still a minor for this season.
	youth := f.addMember(t, "leo", "Léo", "Martin", day(2007, time.October, 1))

	future := f.clk.Now().Add(72 * time.Hour)
	longNumber := "0123456789012345678901234567890"
	tests := []struct {
		name   string
		member domain.MemberID
		in     RegistrationInput
		field  string
	}{
		{"license not offered", adult, RegistrationInput{LicenseType: domain.LicenseFamily, Insurance: domain.InsuranceBase}, "licenseType"},
		{"unknown license", adult, RegistrationInput{LicenseType: "PRO", Insurance: domain.InsuranceBase}, "licenseType"},
		{"insurance not offered", adult, RegistrationInput{LicenseType: domain.LicenseAdult, Insurance: domain.InsuranceBasePlusPlus}, "insurance"},
		{"youth license for adult", adult, RegistrationInput{LicenseType: domain.LicenseYouth, Insurance: domain.InsuranceBase}, "licenseType"},
		{"adult license for minor", youth, RegistrationInput{LicenseType: domain.LicenseAdult, Insurance: domain.InsuranceBase}, "licenseType"},
		{"future certificate", adult, RegistrationInput{LicenseType: domain.LicenseAdult, Insurance: domain.InsuranceBase, MedicalCertificateOn: &future}, "medicalCertificateOn"},
		{"long license number", adult, RegistrationInput{LicenseType: domain.LicenseAdult, Insurance: domain.InsuranceBase, LicenseNumber: &longNumber}, "licenseNumber"},
	}
	for _, tt := range tests {
		_, err := f.svc.RegisterMember(ctx, tt.member, f.season.ID, tt.in)
		ae := requireCode(t, err, 422, CodeValidation)
		if _, ok := ae.Details[tt.field]; !ok {
			t.Fatalf("%s: details=%v, want key %q", tt.name, ae.Details, tt.field)
		}
	}

	if _, err := f.svc.RegisterMember(ctx, youth, f.season.ID, RegistrationInput{LicenseType: domain.LicenseYouth, Insurance: domain.InsuranceBase}); err != nil {
		t.Fatalf("RegisterMember(youth) err=%v", err)
	}
}

func TestService_RegisterMember_UnknownMemberOrSeason(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	id := f.addMember(t, "alice", "Alice", "Martin", day(1990, time.March, 3))
	in := RegistrationInput{LicenseType: domain.LicenseAdult, Insurance: domain.InsuranceBase}

	_, err := f.svc.RegisterMember(ctx, "missing", f.season.ID, in)
	requireCode(t, err, 404, CodeMemberNotFound)
	_, err = f.svc.RegisterMember(ctx, id, "missing", in)
	requireCode(t, err, 404, CodeSeasonNotFound)
}

func TestService_UnregisterMember(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	id := f.addMember(t, "alice", "Alice", "Martin", day(1990, time.March, 3))

	if _, err := f.svc.RegisterMember(ctx, id, f.season.ID, RegistrationInput{LicenseType: domain.LicenseAdult, Insurance: domain.InsuranceBase}); err != nil {
		t.Fatalf("RegisterMember() err=%v", err)
	}
	if err := f.svc.UnregisterMember(ctx, id, f.season.ID); err != nil {
		t.Fatalf("UnregisterMember() err=%v", err)
	}
	err := f.svc.UnregisterMember(ctx, id, f.season.ID)
	requireCode(t, err, 404, CodeMembershipNotFound)

	list, err := f.svc.ListMemberships(ctx, id)
	if err != nil || len(list) != 0 {
		t.Fatalf("ListMemberships()=%v err=%v", list, err)
	}
	_, err = f.svc.ListMemberships(ctx, "missing")
	requireCode(t, err, 404, CodeMemberNotFound)
}

func TestService_RosterAndStats(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	zoe := f.addMember(t, "zoe", "Zoe", "Arnaud", day(1985, time.January, 1))
	leo := f.addMember(t, "leo", "Léo", "Martin", day(2012, time.June, 1))
	bob := f.addMember(t, "bob", "Bob", "Durand", day(1979, time.July, 9))
	f.addMember(t, "eve", "Eve", "Blanc", day(1992, time.May, 5))

	cert := day(2025, time.September, 2)
	register := func(id domain.MemberID, in RegistrationInput) {
		t.Helper()
		if _, err := f.svc.RegisterMember(ctx, id, f.season.ID, in); err != nil {
			t.Fatalf("RegisterMember(%s) err=%v", id, err)
		}
	}
	register(zoe, RegistrationInput{LicenseType: domain.LicenseAdult, Insurance: domain.InsuranceBasePlus, Paid: true, MedicalCertificateOn: &cert})
	register(leo, RegistrationInput{LicenseType: domain.LicenseYouth, Insurance: domain.InsuranceBase, MedicalCertificateOn: &cert})
	register(bob, RegistrationInput{LicenseType: domain.LicenseAdult, Insurance: domain.InsuranceBase})

	roster, err := f.svc.ListSeasonRoster(ctx, f.season.ID)
	if err != nil {
		t.Fatalf("ListSeasonRoster() err=%v", err)
	}
	if len(roster) != 3 {
		t.Fatalf("roster len=%d, want 3", len(roster))
	}
	got := []domain.MemberID{roster[0].Member.ID, roster[1].Member.ID, roster[2].Member.ID}
	want := []domain.MemberID{zoe, bob, leo}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("roster order=%v, want %v", got, want)
		}
	}
	if roster[2].Membership.LicenseType != domain.LicenseYouth {
		t.Fatalf("membership not attached: %+v", roster[2].Membership)
	}

	st, err := f.svc.SeasonStats(ctx, f.season.ID)
	if err != nil {
		t.Fatalf("SeasonStats() err=%v", err)
	}
	if st.Members != 3 || st.Minors != 1 || st.Paid != 1 || st.Unpaid != 2 {
		t.Fatalf("stats=%+v", st)
	}
	if st.ByLicense[domain.LicenseAdult] != 2 || st.ByLicense[domain.LicenseYouth] != 1 {
		t.Fatalf("byLicense=%v", st.ByLicense)
	}
	if st.CollectedCents != 7700 || st.OutstandingCents != 4500+6500 {
		t.Fatalf("collected=%d outstanding=%d", st.CollectedCents, st.OutstandingCents)
	}
	if st.MissingMedicalCertificates != 1 {
		t.Fatalf("missing certificates=%d, want 1", st.MissingMedicalCertificates)
	}

	_, _, err = f.svc.CurrentSeasonStats(ctx)
	requireCode(t, err, 404, CodeNoCurrentSeason)
	if err := f.seasons.SetCurrent(ctx, f.season.ID); err != nil {
		t.Fatalf("SetCurrent() err=%v", err)
	}
	season, cur, err := f.svc.CurrentSeasonStats(ctx)
	if err != nil {
		t.Fatalf("CurrentSeasonStats() err=%v", err)
	}
	if season.ID != f.season.ID || cur.Members != 3 {
		t.Fatalf("current=%s stats=%+v", season.ID, cur)
	}
}
