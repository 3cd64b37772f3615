package memberships

import (
	"time"

	"github.com/climbing-section/backoffice/internal/domain"
)

// RegistrationInput describes the choices of a member for one season.
type RegistrationInput struct {
	LicenseType          domain.LicenseType
	Insurance            domain.InsuranceOption
	LicenseNumber        *string
	MedicalCertificateOn *time.Time
	// Paid records the payment; an existing payment date is kept when already paid.
	Paid bool
}

// RosterEntry pairs a member with their membership in the listed season.
type RosterEntry struct {
	Member     domain.Member
	Membership domain.Membership
}
