package export

import (
	"fmt"
	"strings"
	"time"
)

// column describes one exported field. Values are strings, time.Time, int or float64;
// nil renders as an empty cell.
type column struct {
	header string
	width  float64
	value  func(RosterRow) any
}

const dateLayout = "2006-01-02"

func memberColumns() []column {
	return []column{
		{"Last name", 18, func(r RosterRow) any { return r.Member.LastName }},
		{"First name", 16, func(r RosterRow) any { return r.Member.FirstName }},
		{"Birth date", 12, func(r RosterRow) any { return r.Member.BirthDate }},
		{"Age", 6, func(r RosterRow) any { return r.Age }},
		{"Gender", 8, func(r RosterRow) any { return string(r.Member.Gender) }},
		{"Email", 28, func(r RosterRow) any { return r.Member.Email }},
		{"Phone", 16, func(r RosterRow) any { return deref(r.Member.Phone) }},
		{"Street", 28, func(r RosterRow) any { return r.Member.Address.Street }},
		{"Address complement", 20, func(r RosterRow) any { return deref(r.Member.Address.Complement) }},
		{"Postal code", 11, func(r RosterRow) any { return r.Member.Address.PostalCode }},
		{"City", 18, func(r RosterRow) any { return r.Member.Address.City }},
		{"Country", 8, func(r RosterRow) any { return r.Member.Address.Country }},
		{"Legal contact", 24, func(r RosterRow) any {
			if lc := r.Member.LegalContact; lc != nil {
				return strings.TrimSpace(lc.FirstName + " " + lc.LastName)
			}
			return nil
		}},
		{"Legal contact phone", 16, func(r RosterRow) any {
			if lc := r.Member.LegalContact; lc != nil {
				return lc.Phone
			}
			return nil
		}},
	}
}

func membershipColumns() []column {
	return []column{
		{"License", 11, func(r RosterRow) any { return string(r.Membership.LicenseType) }},
		{"Insurance", 15, func(r RosterRow) any { return string(r.Membership.Insurance) }},
		{"License number", 16, func(r RosterRow) any { return deref(r.Membership.LicenseNumber) }},
		{"Fee", 10, func(r RosterRow) any { return float64(r.Membership.FeeCents) / 100 }},
		{"Paid on", 12, func(r RosterRow) any {
			if r.Membership.PaidAt == nil {
				return nil
			}
			return *r.Membership.PaidAt
		}},
		{"Medical certificate", 14, func(r RosterRow) any {
			if r.Membership.MedicalCertificateOn == nil {
				return nil
			}
			return *r.Membership.MedicalCertificateOn
		}},
	}
}

func columnsFor(r Roster) []column {
	cols := memberColumns()
	if r.Season != nil {
		cols = append(cols, membershipColumns()...)
	}
	return cols
}

func deref(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// text renders a cell value for text formats.
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.Format(dateLayout)
	case float64:
		return strings.Replace(fmt.Sprintf("%.2f", t), ".", ",", 1)
	default:
		return fmt.Sprint(t)
	}
}

// csvCell neutralizes cells a spreadsheet would evaluate as a formula.
func csvCell(v any) string {
	s := text(v)
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
