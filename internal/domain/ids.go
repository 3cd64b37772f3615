package domain

// AdminID identifies a back-office administrator. It is also the subject of session tokens.
type AdminID string

// MemberID is an internal identifier for a member record.
type MemberID string

// SeasonID is an internal identifier for a season.
type SeasonID string
