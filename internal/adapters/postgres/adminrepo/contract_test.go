package adminrepo

import (
	"testing"

	"github.com/climbing-section/backoffice/internal/adapters/contracttest"
	"github.com/climbing-section/backoffice/internal/adapters/postgres/testutil"
	adminrepoport "github.com/climbing-section/backoffice/internal/ports/out/adminrepo"
)

func TestContract_PostgresAdminRepo(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunAdminRepo(t, func(t *testing.T) (adminrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(pool), nil
	})
}
