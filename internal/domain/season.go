package domain

import "time"

type LicenseType string

const (
	LicenseAdult     LicenseType = "ADULT"
	LicenseYouth     LicenseType = "YOUTH"
	LicenseFamily    LicenseType = "FAMILY"
	LicenseDiscovery LicenseType = "DISCOVERY"
)

func (l LicenseType) Valid() bool {
	switch l {
	case LicenseAdult, LicenseYouth, LicenseFamily, LicenseDiscovery:
		return true
	}
	return false
}

type InsuranceOption string

const (
	InsuranceBase         InsuranceOption = "BASE"
	InsuranceBasePlus     InsuranceOption = "BASE_PLUS"
	InsuranceBasePlusPlus InsuranceOption = "BASE_PLUS_PLUS"
)

func (i InsuranceOption) Valid() bool {
	switch i {
	case InsuranceBase, InsuranceBasePlus, InsuranceBasePlusPlus:
		return true
	}
	return false
}

// Season is a yearly membership period. Its fee tables decide which license types and
// insurance options can be chosen by members registering for it. Fees are in cents.
type Season struct {
	ID        SeasonID
	Label     string
	StartsOn  time.Time // date-only semantics at the edges
	EndsOn    time.Time // date-only semantics at the edges
	IsCurrent bool

	LicenseFees   map[LicenseType]int64
	InsuranceFees map[InsuranceOption]int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contains reports whether day falls within the season, bounds included.
func (s Season) Contains(day time.Time) bool {
	d := DateOnly(day)
	return !d.Before(DateOnly(s.StartsOn)) && !d.After(DateOnly(s.EndsOn))
}

// Overlaps reports whether the two seasons share at least one day.
func (s Season) Overlaps(o Season) bool {
	return !DateOnly(s.EndsOn).Before(DateOnly(o.StartsOn)) && !DateOnly(o.EndsOn).Before(DateOnly(s.StartsOn))
}

// FeeFor returns the total fee for a license/insurance combination, and whether the
// season offers both options.
func (s Season) FeeFor(license LicenseType, insurance InsuranceOption) (int64, bool) {
	lf, ok := s.LicenseFees[license]
	if !ok {
		return 0, false
	}
	inf, ok := s.InsuranceFees[insurance]
	if !ok {
		return 0, false
	}
	return lf + inf, true
}

// Membership is the registration of a member for a season.
type Membership struct {
	MemberID MemberID
	SeasonID SeasonID

	LicenseType   LicenseType
	Insurance     InsuranceOption
	LicenseNumber *string
	FeeCents      int64

	MedicalCertificateOn *time.Time // date-only semantics at the edges
	PaidAt               *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m Membership) IsPaid() bool { return m.PaidAt != nil }

// SeasonStats aggregates the memberships of one season.
type SeasonStats struct {
	SeasonID SeasonID

	Members                    int
	Minors                     int
	Paid                       int
	Unpaid                     int
	ByLicense                  map[LicenseType]int
	ByInsurance                map[InsuranceOption]int
	CollectedCents             int64
	OutstandingCents           int64
	MissingMedicalCertificates int
}
