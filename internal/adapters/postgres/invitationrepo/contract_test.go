package invitationrepo

import (
	"testing"

	"github.com/climbing-section/backoffice/internal/adapters/contracttest"
	pgadminrepo "github.com/climbing-section/backoffice/internal/adapters/postgres/adminrepo"
	"github.com/climbing-section/backoffice/internal/adapters/postgres/testutil"
	adminrepoport "github.com/climbing-section/backoffice/internal/ports/out/adminrepo"
	invitationrepoport "github.com/climbing-section/backoffice/internal/ports/out/invitationrepo"
)

func TestContract_PostgresInvitationRepo(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunInvitationRepo(
		t,
		func(t *testing.T) (adminrepoport.Repository, func()) {
			t.Helper()
			return pgadminrepo.NewRepo(pool), nil
		},
		func(t *testing.T) (invitationrepoport.Repository, func()) {
			t.Helper()
			return NewRepo(pool), nil
		},
	)
}
