package domain

import "time"

type AdminStatus string

const (
	AdminStatusInvited  AdminStatus = "INVITED"
	AdminStatusActive   AdminStatus = "ACTIVE"
	AdminStatusDisabled AdminStatus = "DISABLED"
)

// Admin is a back-office user. PasswordHash is empty until the invitation is accepted.
type Admin struct {
	ID        AdminID
	Email     string
	FirstName string
	LastName  string

	PasswordHash string
	Status       AdminStatus
	InvitedBy    *AdminID

	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (a Admin) IsActive() bool { return a.Status == AdminStatusActive }

// Invitation is a single-use activation token for an invited admin.
// Only the SHA-256 digest of the token is ever stored.
type Invitation struct {
	TokenHash string
	AdminID   AdminID

	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// ExpiredAt reports whether the invitation can no longer be used at now.
func (i Invitation) ExpiredAt(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

func (i Invitation) IsUsed() bool { return i.UsedAt != nil }
