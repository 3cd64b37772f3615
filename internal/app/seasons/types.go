package seasons

import (
	"time"

	"github.com/climbing-section/backoffice/internal/domain"
)

// Optional is a tri-state field used to distinguish:
// - unspecified (omitted)
// - specified as null
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

type CreateSeasonInput struct {
	Label    string
	StartsOn time.Time
	EndsOn   time.Time

	// Fees in cents. Only the listed license types and insurance options are offered.
	LicenseFees   map[domain.LicenseType]int64
	InsuranceFees map[domain.InsuranceOption]int64

	// MakeCurrent flags the new season as current once created.
	MakeCurrent bool
}

// UpdateSeasonInput applies PATCH semantics. None of the fields accept null, and a
// specified fee table replaces the stored one as a whole.
type UpdateSeasonInput struct {
	Label         Optional[string]
	StartsOn      Optional[time.Time]
	EndsOn        Optional[time.Time]
	LicenseFees   Optional[map[domain.LicenseType]int64]
	InsuranceFees Optional[map[domain.InsuranceOption]int64]
}
