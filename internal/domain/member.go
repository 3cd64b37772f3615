package domain

import "time"

type Gender string

const (
	GenderFemale Gender = "F"
	GenderMale   Gender = "M"
	GenderOther  Gender = "X"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderFemale, GenderMale, GenderOther:
		return true
	}
	return false
}

// Address is a postal address. Complement is optional.
type Address struct {
	Street     string
	Complement *string
	PostalCode string
	City       string
	Country    string
}

// LegalContact is the guardian of a member who is a minor.
type LegalContact struct {
	FirstName    string
	LastName     string
	Relationship string
	Email        *string
	Phone        string
}

// Member is the domain representation of a climbing section member.
type Member struct {
	ID MemberID

	FirstName string
	LastName  string
	BirthDate time.Time // date-only semantics at the edges
	Gender    Gender

	Email   string
	Phone   *string
	Address Address

	LegalContact *LegalContact
	PictureKey   *string
	Notes        *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// MemberPage is one page of a member listing.
type MemberPage struct {
	Members  []Member
	Page     int
	PageSize int
	Total    int
}
