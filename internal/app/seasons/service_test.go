package seasons

import (
	"context"
	"errors"
	"testing"
	"time"

	memclock "github.com/climbing-section/backoffice/internal/adapters/memory/clock"
	memmembershiprepo "github.com/climbing-section/backoffice/internal/adapters/memory/membershiprepo"
	memseasonrepo "github.com/climbing-section/backoffice/internal/adapters/memory/seasonrepo"
	"github.com/climbing-section/backoffice/internal/domain"
)

func newTestService(t *testing.T) (*Service, *memmembershiprepo.Repo) {
	t.Helper()
	memberships := memmembershiprepo.NewRepo()
	clk := memclock.NewManualClock(time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC))
	return NewService(memseasonrepo.NewRepo(), memberships, clk, nil), memberships
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seasonInput(label string, startYear int) CreateSeasonInput {
	return CreateSeasonInput{
		Label:    label,
		StartsOn: day(startYear, time.September, 1),
		EndsOn:   day(startYear+1, time.August, 31),
		LicenseFees: map[domain.LicenseType]int64{
			domain.LicenseAdult: 6500,
			domain.LicenseYouth: 4500,
		},
		InsuranceFees: map[domain.InsuranceOption]int64{
			domain.InsuranceBase:     0,
			domain.InsuranceBasePlus: 1200,
		},
	}
}

func requireCode(t *testing.T, err error, status int, code string) *Error {
	t.Helper()
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != status || ae.Code != code {
		t.Fatalf("err=%v, want %s %d", err, code, status)
	}
	return ae
}

func TestService_CreateSeason_AndList(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	older, err := svc.CreateSeason(ctx, seasonInput(" 2024-2025 ", 2024))
	if err != nil {
		t.Fatalf("CreateSeason() err=%v", err)
	}
	if older.Label != "2024-2025" {
		t.Fatalf("label=%q", older.Label)
	}
	newer, err := svc.CreateSeason(ctx, seasonInput("2025-2026", 2025))
	if err != nil {
		t.Fatalf("CreateSeason() err=%v", err)
	}

	all, err := svc.ListSeasons(ctx)
	if err != nil {
		t.Fatalf("ListSeasons() err=%v", err)
	}
	if len(all) != 2 || all[0].ID != newer.ID || all[1].ID != older.ID {
		t.Fatalf("seasons=%v, want most recent first", all)
	}
	fee, ok := all[0].FeeFor(domain.LicenseAdult, domain.InsuranceBasePlus)
	if !ok || fee != 7700 {
		t.Fatalf("FeeFor()=%d,%v", fee, ok)
	}
}

func TestService_CreateSeason_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*CreateSeasonInput)
		field  string
	}{
		{"empty label", func(in *CreateSeasonInput) { in.Label = "  " }, "label"},
		{"missing start", func(in *CreateSeasonInput) { in.StartsOn = time.Time{} }, "startsOn"},
		{"end before start", func(in *CreateSeasonInput) { in.EndsOn = day(2025, time.August, 1) }, "endsOn"},
		{"same day", func(in *CreateSeasonInput) { in.EndsOn = in.StartsOn }, "endsOn"},
		{"too long", func(in *CreateSeasonInput) { in.EndsOn = day(2026, time.December, 31) }, "endsOn"},
		{"no license", func(in *CreateSeasonInput) { in.LicenseFees = nil }, "licenseFees"},
		{"negative fee", func(in *CreateSeasonInput) { in.LicenseFees[domain.LicenseAdult] = -1 }, "licenseFees.ADULT"},
		{"unknown license", func(in *CreateSeasonInput) { in.LicenseFees["PRO"] = 10 }, "licenseFees.PRO"},
		{"no insurance", func(in *CreateSeasonInput) { in.InsuranceFees = map[domain.InsuranceOption]int64{} }, "insuranceFees"},
		{"unknown insurance", func(in *CreateSeasonInput) { in.InsuranceFees["GOLD"] = 10 }, "insuranceFees.GOLD"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, _ := newTestService(t)
			in := seasonInput("2025-2026", 2025)
			tt.mutate(&in)
			_, err := svc.CreateSeason(context.Background(), in)
			ae := requireCode(t, err, 422, CodeValidation)
			if _, ok := ae.Details[tt.field]; !ok {
				t.Fatalf("details=%v, want key %q", ae.Details, tt.field)
			}
		})
	}
}

func TestService_CreateSeason_Conflicts(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateSeason(ctx, seasonInput("2025-2026", 2025)); err != nil {
		t.Fatalf("CreateSeason() err=%v", err)
	}

	dup := seasonInput("2025-2026", 2027)
	_, err := svc.CreateSeason(ctx, dup)
	requireCode(t, err, 409, CodeLabelTaken)

	overlap := seasonInput("2026 spring", 2026)
	overlap.StartsOn = day(2026, time.March, 1)
	overlap.EndsOn = day(2026, time.June, 30)
	_, err = svc.CreateSeason(ctx, overlap)
	requireCode(t, err, 409, CodeSeasonOverlap)
}

func TestService_CurrentSeason(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetCurrentSeason(ctx)
	requireCode(t, err, 404, CodeNoCurrentSeason)

	in := seasonInput("2024-2025", 2024)
	in.MakeCurrent = true
	first, err := svc.CreateSeason(ctx, in)
	if err != nil {
		t.Fatalf("CreateSeason() err=%v", err)
	}
	if !first.IsCurrent {
		t.Fatalf("expected current")
	}
	second, err := svc.CreateSeason(ctx, seasonInput("2025-2026", 2025))
	if err != nil {
		t.Fatalf("CreateSeason() err=%v", err)
	}

	got, err := svc.SetCurrentSeason(ctx, second.ID)
	if err != nil {
		t.Fatalf("SetCurrentSeason() err=%v", err)
	}
	if !got.IsCurrent {
		t.Fatalf("expected current flag")
	}
	cur, err := svc.GetCurrentSeason(ctx)
	if err != nil || cur.ID != second.ID {
		t.Fatalf("GetCurrentSeason()=%v err=%v", cur.ID, err)
	}
	prev, err := svc.GetSeason(ctx, first.ID)
	if err != nil || prev.IsCurrent {
		t.Fatalf("previous season still current: %+v err=%v", prev, err)
	}

	_, err = svc.SetCurrentSeason(ctx, "missing")
	requireCode(t, err, 404, CodeSeasonNotFound)
}

func TestService_UpdateSeason(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	s, err := svc.CreateSeason(ctx, seasonInput("2025-2026", 2025))
	if err != nil {
		t.Fatalf("CreateSeason() err=%v", err)
	}
	updated, err := svc.UpdateSeason(ctx, s.ID, UpdateSeasonInput{
		Label:       Some("Saison 2025-2026"),
		LicenseFees: Some(map[domain.LicenseType]int64{domain.LicenseDiscovery: 2000}),
	})
	if err != nil {
		t.Fatalf("UpdateSeason() err=%v", err)
	}
	if updated.Label != "Saison 2025-2026" {
		t.Fatalf("label=%q", updated.Label)
	}
	if _, ok := updated.LicenseFees[domain.LicenseAdult]; ok {
		t.Fatalf("expected fee table replaced")
	}
	if len(updated.InsuranceFees) != 2 {
		t.Fatalf("insurance fees changed: %v", updated.InsuranceFees)
	}

	_, err = svc.UpdateSeason(ctx, s.ID, UpdateSeasonInput{EndsOn: Null[time.Time]()})
	requireCode(t, err, 422, CodeValidation)

	_, err = svc.UpdateSeason(ctx, "missing", UpdateSeasonInput{})
	requireCode(t, err, 404, CodeSeasonNotFound)
}

func TestService_DeleteSeason_RefusedWhenInUse(t *testing.T) {
	t.Parallel()
	svc, memberships := newTestService(t)
	ctx := context.Background()

	s, err := svc.CreateSeason(ctx, seasonInput("2025-2026", 2025))
	if err != nil {
		t.Fatalf("CreateSeason() err=%v", err)
	}
	if err := memberships.Upsert(ctx, domain.Membership{
		MemberID: "m1", SeasonID: s.ID, LicenseType: domain.LicenseAdult, Insurance: domain.InsuranceBase,
	}); err != nil {
		t.Fatalf("Upsert() err=%v", err)
	}

	err = svc.DeleteSeason(ctx, s.ID)
	requireCode(t, err, 409, CodeSeasonInUse)

	if err := memberships.Delete(ctx, "m1", s.ID); err != nil {
		t.Fatalf("Delete() err=%v", err)
	}
	if err := svc.DeleteSeason(ctx, s.ID); err != nil {
		t.Fatalf("DeleteSeason() err=%v", err)
	}
	_, err = svc.GetSeason(ctx, s.ID)
	requireCode(t, err, 404, CodeSeasonNotFound)
}
