package membershiprepo

import (
	"context"
	"testing"
	"time"

	"github.com/climbing-section/backoffice/internal/domain"
	"github.com/climbing-section/backoffice/internal/ports/out/membershiprepo"
)

func TestRepo_GetUpsertCountList(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	seasonID := domain.SeasonID("s1")

	_, err := r.Get(context.Background(), "m1", seasonID)
	if err != membershiprepo.ErrNotFound {
		t.Fatalf("Get(nonexistent) err=%v, want %v", err, membershiprepo.ErrNotFound)
	}

	t1 := time.Unix(10, 0).UTC()
	t2 := time.Unix(20, 0).UTC()

	if err := r.Upsert(context.Background(), domain.Membership{SeasonID: seasonID, MemberID: "m2", LicenseType: domain.LicenseYouth, CreatedAt: t2, UpdatedAt: t2}); err != nil {
		t.Fatalf("Upsert(m2) err=%v", err)
	}
	if err := r.Upsert(context.Background(), domain.Membership{SeasonID: seasonID, MemberID: "m1", LicenseType: domain.LicenseAdult, CreatedAt: t1, UpdatedAt: t1}); err != nil {
		t.Fatalf("Upsert(m1) err=%v", err)
	}
	if err := r.Upsert(context.Background(), domain.Membership{SeasonID: "s2", MemberID: "m1", LicenseType: domain.LicenseAdult, CreatedAt: t1, UpdatedAt: t1}); err != nil {
		t.Fatalf("Upsert(m1, s2) err=%v", err)
	}

	n, err := r.CountBySeason(context.Background(), seasonID)
	if err != nil {
		t.Fatalf("CountBySeason() err=%v", err)
	}
	if n != 2 {
		t.Fatalf("CountBySeason()=%d, want 2", n)
	}

	list, err := r.ListBySeason(context.Background(), seasonID)
	if err != nil {
		t.Fatalf("ListBySeason() err=%v", err)
	}
	if len(list) != 2 || list[0].MemberID != "m1" || list[1].MemberID != "m2" {
		t.Fatalf("ListBySeason()=%+v, want m1 then m2", list)
	}

	// Mutating a returned record must not leak into the store.
	paid := t2
	list[0].PaidAt = &paid
	got, err := r.Get(context.Background(), "m1", seasonID)
	if err != nil {
		t.Fatalf("Get(m1) err=%v", err)
	}
	if got.IsPaid() {
		t.Fatalf("Get(m1) leaked mutation: %+v", got)
	}

	if err := r.DeleteByMember(context.Background(), "m1"); err != nil {
		t.Fatalf("DeleteByMember() err=%v", err)
	}
	mine, _ := r.ListByMember(context.Background(), "m1")
	if len(mine) != 0 {
		t.Fatalf("ListByMember() after delete=%+v, want empty", mine)
	}
}
