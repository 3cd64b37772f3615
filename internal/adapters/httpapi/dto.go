package httpapi

import (
	"time"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/climbing-section/backoffice/internal/domain"
)

// Members

type Address struct {
	Street     string                    `json:"street"`
	Complement nullable.Nullable[string] `json:"complement"`
	PostalCode string                    `json:"postalCode"`
	City       string                    `json:"city"`
	Country    string                    `json:"country"`
}

type LegalContact struct {
	FirstName    string                                 `json:"firstName"`
	LastName     string                                 `json:"lastName"`
	Relationship string                                 `json:"relationship"`
	Email        nullable.Nullable[openapi_types.Email] `json:"email"`
	Phone        string                                 `json:"phone"`
}

type Member struct {
	MemberId     string                    `json:"memberId"`
	FirstName    string                    `json:"firstName"`
	LastName     string                    `json:"lastName"`
	BirthDate    openapi_types.Date        `json:"birthDate"`
	Age          int                       `json:"age"`
	IsMinor      bool                      `json:"isMinor"`
	Gender       string                    `json:"gender"`
	Email        openapi_types.Email       `json:"email"`
	Phone        nullable.Nullable[string] `json:"phone"`
	Address      Address                   `json:"address"`
	LegalContact *LegalContact             `json:"legalContact"`
	HasPicture   bool                      `json:"hasPicture"`
	Notes        nullable.Nullable[string] `json:"notes"`
	CreatedAt    time.Time                 `json:"createdAt"`
	UpdatedAt    time.Time                 `json:"updatedAt"`
}

type MemberResponse struct {
	Member Member `json:"member"`
}

type MemberPageResponse struct {
	Members  []Member `json:"members"`
	Page     int      `json:"page"`
	PageSize int      `json:"pageSize"`
	Total    int      `json:"total"`
}

type AddressRequest struct {
	Street     string  `json:"street"`
	Complement *string `json:"complement,omitempty"`
	PostalCode string  `json:"postalCode"`
	City       string  `json:"city"`
	Country    string  `json:"country,omitempty"`
}

type LegalContactRequest struct {
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	Relationship string  `json:"relationship"`
	Email        *string `json:"email,omitempty"`
	Phone        string  `json:"phone"`
}

type CreateMemberRequest struct {
	FirstName    string               `json:"firstName"`
	LastName     string               `json:"lastName"`
	BirthDate    openapi_types.Date   `json:"birthDate"`
	Gender       string               `json:"gender"`
	Email        string               `json:"email"`
	Phone        *string              `json:"phone,omitempty"`
	Address      AddressRequest       `json:"address"`
	LegalContact *LegalContactRequest `json:"legalContact,omitempty"`
	Notes        *string              `json:"notes,omitempty"`
}

type AddressPatchRequest struct {
	Street     nullable.Nullable[string] `json:"street,omitempty"`
	Complement nullable.Nullable[string] `json:"complement,omitempty"`
	PostalCode nullable.Nullable[string] `json:"postalCode,omitempty"`
	City       nullable.Nullable[string] `json:"city,omitempty"`
	Country    nullable.Nullable[string] `json:"country,omitempty"`
}

type UpdateMemberRequest struct {
	FirstName    nullable.Nullable[string]              `json:"firstName,omitempty"`
	LastName     nullable.Nullable[string]              `json:"lastName,omitempty"`
	BirthDate    nullable.Nullable[openapi_types.Date]  `json:"birthDate,omitempty"`
	Gender       nullable.Nullable[string]              `json:"gender,omitempty"`
	Email        nullable.Nullable[string]              `json:"email,omitempty"`
	Phone        nullable.Nullable[string]              `json:"phone,omitempty"`
	Address      nullable.Nullable[AddressPatchRequest] `json:"address,omitempty"`
	LegalContact nullable.Nullable[LegalContactRequest] `json:"legalContact,omitempty"`
	Notes        nullable.Nullable[string]              `json:"notes,omitempty"`
}

// Seasons

type Season struct {
	SeasonId           string             `json:"seasonId"`
	Label              string             `json:"label"`
	StartsOn           openapi_types.Date `json:"startsOn"`
	EndsOn             openapi_types.Date `json:"endsOn"`
	IsCurrent          bool               `json:"isCurrent"`
	LicenseFeesCents   map[string]int64   `json:"licenseFees"`
	InsuranceFeesCents map[string]int64   `json:"insuranceFees"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

type SeasonResponse struct {
	Season Season `json:"season"`
}

type SeasonListResponse struct {
	Seasons []Season `json:"seasons"`
}

type CreateSeasonRequest struct {
	Label              string             `json:"label"`
	StartsOn           openapi_types.Date `json:"startsOn"`
	EndsOn             openapi_types.Date `json:"endsOn"`
	LicenseFeesCents   map[string]int64   `json:"licenseFees"`
	InsuranceFeesCents map[string]int64   `json:"insuranceFees"`
	MakeCurrent        bool               `json:"makeCurrent,omitempty"`
}

type UpdateSeasonRequest struct {
	Label              nullable.Nullable[string]             `json:"label,omitempty"`
	StartsOn           nullable.Nullable[openapi_types.Date] `json:"startsOn,omitempty"`
	EndsOn             nullable.Nullable[openapi_types.Date] `json:"endsOn,omitempty"`
	LicenseFeesCents   nullable.Nullable[map[string]int64]   `json:"licenseFees,omitempty"`
	InsuranceFeesCents nullable.Nullable[map[string]int64]   `json:"insuranceFees,omitempty"`
}

// Memberships

type Membership struct {
	MemberId             string                                `json:"memberId"`
	SeasonId             string                                `json:"seasonId"`
	LicenseType          string                                `json:"licenseType"`
	Insurance            string                                `json:"insurance"`
	LicenseNumber        nullable.Nullable[string]             `json:"licenseNumber"`
	FeeCents             int64                                 `json:"feeCents"`
	MedicalCertificateOn nullable.Nullable[openapi_types.Date] `json:"medicalCertificateOn"`
	Paid                 bool                                  `json:"paid"`
	PaidAt               nullable.Nullable[time.Time]          `json:"paidAt"`
	CreatedAt            time.Time                             `json:"createdAt"`
	UpdatedAt            time.Time                             `json:"updatedAt"`
}

type MembershipResponse struct {
	Membership Membership `json:"membership"`
}

type MembershipListResponse struct {
	Memberships []Membership `json:"memberships"`
}

type RegisterMembershipRequest struct {
	LicenseType          string              `json:"licenseType"`
	Insurance            string              `json:"insurance"`
	LicenseNumber        *string             `json:"licenseNumber,omitempty"`
	MedicalCertificateOn *openapi_types.Date `json:"medicalCertificateOn,omitempty"`
	Paid                 bool                `json:"paid,omitempty"`
}

type RosterEntry struct {
	Member     Member     `json:"member"`
	Membership Membership `json:"membership"`
}

type SeasonRosterResponse struct {
	Season  Season        `json:"season"`
	Entries []RosterEntry `json:"entries"`
}

type SeasonStats struct {
	SeasonId                   string         `json:"seasonId"`
	Members                    int            `json:"members"`
	Minors                     int            `json:"minors"`
	Paid                       int            `json:"paid"`
	Unpaid                     int            `json:"unpaid"`
	ByLicense                  map[string]int `json:"byLicense"`
	ByInsurance                map[string]int `json:"byInsurance"`
	CollectedCents             int64          `json:"collectedCents"`
	OutstandingCents           int64          `json:"outstandingCents"`
	MissingMedicalCertificates int            `json:"missingMedicalCertificates"`
}

type SeasonStatsResponse struct {
	Stats SeasonStats `json:"stats"`
}

type DashboardResponse struct {
	Season Season      `json:"season"`
	Stats  SeasonStats `json:"stats"`
}

// Admins and auth

type Admin struct {
	AdminId     string                       `json:"adminId"`
	Email       openapi_types.Email          `json:"email"`
	FirstName   string                       `json:"firstName"`
	LastName    string                       `json:"lastName"`
	Status      string                       `json:"status"`
	InvitedBy   nullable.Nullable[string]    `json:"invitedBy"`
	LastLoginAt nullable.Nullable[time.Time] `json:"lastLoginAt"`
	CreatedAt   time.Time                    `json:"createdAt"`
	UpdatedAt   time.Time                    `json:"updatedAt"`
}

type AdminResponse struct {
	Admin Admin `json:"admin"`
}

type AdminListResponse struct {
	Admins []Admin `json:"admins"`
}

type InviteAdminRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type UpdateAdminRequest struct {
	FirstName nullable.Nullable[string] `json:"firstName,omitempty"`
	LastName  nullable.Nullable[string] `json:"lastName,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Admin     Admin     `json:"admin"`
}

type ActivateRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Mapping

func memberFromDomain(m domain.Member, now time.Time) Member {
	out := Member{
		MemberId:   string(m.ID),
		FirstName:  m.FirstName,
		LastName:   m.LastName,
		BirthDate:  openapi_types.Date{Time: m.BirthDate},
		Age:        domain.AgeOn(m.BirthDate, now),
		IsMinor:    domain.IsMinorOn(m.BirthDate, now),
		Gender:     string(m.Gender),
		Email:      openapi_types.Email(m.Email),
		Phone:      nullableString(m.Phone),
		HasPicture: m.PictureKey != nil,
		Notes:      nullableString(m.Notes),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
		Address: Address{
			Street:     m.Address.Street,
			Complement: nullableString(m.Address.Complement),
			PostalCode: m.Address.PostalCode,
			City:       m.Address.City,
			Country:    m.Address.Country,
		},
	}
	if lc := m.LegalContact; lc != nil {
		email := nullable.NewNullNullable[openapi_types.Email]()
		if lc.Email != nil {
			email = nullable.NewNullableWithValue(openapi_types.Email(*lc.Email))
		}
		out.LegalContact = &LegalContact{
			FirstName:    lc.FirstName,
			LastName:     lc.LastName,
			Relationship: lc.Relationship,
			Email:        email,
			Phone:        lc.Phone,
		}
	}
	return out
}

func seasonFromDomain(s domain.Season) Season {
	out := Season{
		SeasonId:           string(s.ID),
		Label:              s.Label,
		StartsOn:           openapi_types.Date{Time: s.StartsOn},
		EndsOn:             openapi_types.Date{Time: s.EndsOn},
		IsCurrent:          s.IsCurrent,
		LicenseFeesCents:   make(map[string]int64, len(s.LicenseFees)),
		InsuranceFeesCents: make(map[string]int64, len(s.InsuranceFees)),
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
	for k, v := range s.LicenseFees {
		out.LicenseFeesCents[string(k)] = v
	}
	for k, v := range s.InsuranceFees {
		out.InsuranceFeesCents[string(k)] = v
	}
	return out
}

func membershipFromDomain(m domain.Membership) Membership {
	out := Membership{
		MemberId:             string(m.MemberID),
		SeasonId:             string(m.SeasonID),
		LicenseType:          string(m.LicenseType),
		Insurance:            string(m.Insurance),
		LicenseNumber:        nullableString(m.LicenseNumber),
		FeeCents:             m.FeeCents,
		MedicalCertificateOn: nullable.NewNullNullable[openapi_types.Date](),
		Paid:                 m.IsPaid(),
		PaidAt:               nullableTime(m.PaidAt),
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
	if m.MedicalCertificateOn != nil {
		out.MedicalCertificateOn = nullable.NewNullableWithValue(openapi_types.Date{Time: *m.MedicalCertificateOn})
	}
	return out
}

func statsFromDomain(s domain.SeasonStats) SeasonStats {
	out := SeasonStats{
		SeasonId:                   string(s.SeasonID),
		Members:                    s.Members,
		Minors:                     s.Minors,
		Paid:                       s.Paid,
		Unpaid:                     s.Unpaid,
		ByLicense:                  make(map[string]int, len(s.ByLicense)),
		ByInsurance:                make(map[string]int, len(s.ByInsurance)),
		CollectedCents:             s.CollectedCents,
		OutstandingCents:           s.OutstandingCents,
		MissingMedicalCertificates: s.MissingMedicalCertificates,
	}
	for k, v := range s.ByLicense {
		out.ByLicense[string(k)] = v
	}
	for k, v := range s.ByInsurance {
		out.ByInsurance[string(k)] = v
	}
	return out
}

func adminFromDomain(a domain.Admin) Admin {
	out := Admin{
		AdminId:     string(a.ID),
		Email:       openapi_types.Email(a.Email),
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Status:      string(a.Status),
		InvitedBy:   nullable.NewNullNullable[string](),
		LastLoginAt: nullableTime(a.LastLoginAt),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.InvitedBy != nil {
		out.InvitedBy = nullable.NewNullableWithValue(string(*a.InvitedBy))
	}
	return out
}

func nullableString(p *string) nullable.Nullable[string] {
	if p == nil {
		return nullable.NewNullNullable[string]()
	}
	return nullable.NewNullableWithValue(*p)
}

func nullableTime(p *time.Time) nullable.Nullable[time.Time] {
	if p == nil {
		return nullable.NewNullNullable[time.Time]()
	}
	return nullable.NewNullableWithValue(*p)
}
