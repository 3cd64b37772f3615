package invitationrepo

import (
	"testing"

	"github.com/climbing-section/backoffice/internal/adapters/contracttest"
	memadminrepo "github.com/climbing-section/backoffice/internal/adapters/memory/adminrepo"
	adminrepoport "github.com/climbing-section/backoffice/internal/ports/out/adminrepo"
	invitationrepoport "github.com/climbing-section/backoffice/internal/ports/out/invitationrepo"
)

func TestContract_InvitationRepo(t *testing.T) {
	contracttest.RunInvitationRepo(
		t,
		func(t *testing.T) (adminrepoport.Repository, func()) {
			t.Helper()
			return memadminrepo.NewRepo(), nil
		},
		func(t *testing.T) (invitationrepoport.Repository, func()) {
			t.Helper()
			return NewRepo(), nil
		},
	)
}
