package members

import (
	"io"
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

type AddressInput struct {
	Street     string
	Complement *string
	PostalCode string
	City       string
	Country    string // defaults to FR
}

type LegalContactInput struct {
	FirstName    string
	LastName     string
	Relationship string
	Email        *string
	Phone        string
}

type CreateMemberInput struct {
	FirstName    string
	LastName     string
	BirthDate    time.Time
	Gender       domain.Gender
	Email        string
	Phone        *string
	Address      AddressInput
	LegalContact *LegalContactInput
	Notes        *string
}

type AddressPatch struct {
	Street     Optional[string] // cannot be null
	Complement Optional[string]
	PostalCode Optional[string] // cannot be null
	City       Optional[string] // cannot be null
	Country    Optional[string] // cannot be null
}

// UpdateMemberInput applies PATCH semantics: unspecified fields are kept.
type UpdateMemberInput struct {
	FirstName    Optional[string]
	LastName     Optional[string]
	BirthDate    Optional[time.Time]
	Gender       Optional[domain.Gender]
	Email        Optional[string] // cannot be null
	Phone        Optional[string] // may be null
	Address      Optional[AddressPatch]
	LegalContact Optional[LegalContactInput] // replaced as a whole; null removes it
	Notes        Optional[string]
}

type ListMembersQuery struct {
	Search string
	// SeasonID restricts the listing to members registered for that season.
	SeasonID *domain.SeasonID
	// Page is 1-based; 0 means the first page.
	Page int
	// PageSize 0 means DefaultPageSize.
	PageSize int
}

type PictureUpload struct {
	ContentType string
	Body        io.Reader
}

// Picture is either a stream to copy to the client or, when the blob store can presign,
// a URL to redirect to.
type Picture struct {
	RedirectURL string

	Body        io.ReadCloser
	ContentType string
	Size        int64
}
