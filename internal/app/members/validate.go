package members

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/climbing-section/backoffice/internal/domain"
)

const (
	maxNameRunes   = 100
	minPhoneLength = 10
	maxPhoneLength = 20
	defaultCountry = "FR"
)

var minBirthDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// fieldErrors collects per-field validation messages keyed by JSON path.
type fieldErrors map[string]any

func (fe fieldErrors) add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

func (fe fieldErrors) err() error {
	if len(fe) == 0 {
		return nil
	}
	return validationError(map[string]any(fe))
}

func validateName(fe fieldErrors, field, v string) string {
	n := domain.NormalizeHumanName(v)
	switch {
	case n == "":
		fe.add(field, "must be non-empty")
	case utf8.RuneCountInString(n) > maxNameRunes:
		fe.add(field, "must be at most 100 characters")
	}
	return n
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("must be non-empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return errors.New("must be a valid email address")
	}
	// Ensure no "Name <email@x>" format sneaks in.
	if addr.Address != email {
		return errors.New("must be a bare email address")
	}
	return nil
}

func validatePhone(fe fieldErrors, field, v string) string {
	v = strings.TrimSpace(v)
	if len(v) < minPhoneLength || len(v) > maxPhoneLength {
		fe.add(field, "must be 10 to 20 characters")
		return ""
	}
	for i, r := range v {
		switch {
		case r >= '0' && r <= '9', r == ' ', r == '.':
		case r == '+' && i == 0:
		default:
			fe.add(field, "may only contain digits, spaces, dots and a leading +")
			return ""
		}
	}
	return domain.NormalizePhone(v)
}

func validatePostalCode(fe fieldErrors, field, v string) string {
	v = strings.TrimSpace(v)
	if len(v) != 5 {
		fe.add(field, "must be 5 digits")
		return v
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			fe.add(field, "must be 5 digits")
			break
		}
	}
	return v
}

func validateBirthDate(fe fieldErrors, v time.Time, today time.Time) time.Time {
	if v.IsZero() {
		fe.add("birthDate", "is required")
		return v
	}
	d := domain.DateOnly(v)
	switch {
	case d.Before(minBirthDate):
		fe.add("birthDate", "must be on or after 1900-01-01")
	case !d.Before(domain.DateOnly(today)):
		fe.add("birthDate", "must be in the past")
	}
	return d
}

func requireText(fe fieldErrors, field, v string) string {
	v = domain.NormalizeHumanName(v)
	if v == "" {
		fe.add(field, "must be non-empty")
	}
	return v
}

func optionalText(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func validateAddress(fe fieldErrors, in AddressInput) domain.Address {
	country := strings.ToUpper(strings.TrimSpace(in.Country))
	if country == "" {
		country = defaultCountry
	}
	return domain.Address{
		Street:     requireText(fe, "address.street", in.Street),
		Complement: optionalText(in.Complement),
		PostalCode: validatePostalCode(fe, "address.postalCode", in.PostalCode),
		City:       requireText(fe, "address.city", in.City),
		Country:    country,
	}
}

func validateLegalContact(fe fieldErrors, in LegalContactInput) *domain.LegalContact {
	lc := &domain.LegalContact{
		FirstName:    validateName(fe, "legalContact.firstName", in.FirstName),
		LastName:     validateName(fe, "legalContact.lastName", in.LastName),
		Relationship: domain.NormalizeHumanName(in.Relationship),
		Phone:        validatePhone(fe, "legalContact.phone", in.Phone),
	}
	if e := optionalText(in.Email); e != nil {
		email := domain.NormalizeEmail(*e)
		if err := validateEmail(email); err != nil {
			fe.add("legalContact.email", err.Error())
		}
		lc.Email = &email
	}
	return lc
}
