package domain

import "time"

// MinorAgeLimit is the age at which a member no longer needs a legal contact.
const MinorAgeLimit = 18

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AgeOn returns the age in whole years of someone born on birthDate, on day.
func AgeOn(birthDate, day time.Time) int {
	b := DateOnly(birthDate)
	d := DateOnly(day)
	age := d.Year() - b.Year()
	if d.Month() < b.Month() || (d.Month() == b.Month() && d.Day() < b.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

func IsMinorOn(birthDate, day time.Time) bool {
	return AgeOn(birthDate, day) < MinorAgeLimit
}
