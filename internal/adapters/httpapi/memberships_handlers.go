package httpapi

import (
	"net/http"

	"github.com/climbing-section/backoffice/internal/app/memberships"
	"github.com/climbing-section/backoffice/internal/domain"
)

func (s *Server) listMemberMemberships(w http.ResponseWriter, r *http.Request) {
	ms, err := s.memberships.ListMemberships(r.Context(), memberIDParam(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := MembershipListResponse{Memberships: make([]Membership, 0, len(ms))}
	for _, m := range ms {
		out.Memberships = append(out.Memberships, membershipFromDomain(m))
	}
	writeJSON(w, http.StatusOK, out)
}

// registerMembership creates or replaces the membership of a member for a season.
func (s *Server) registerMembership(w http.ResponseWriter, r *http.Request) {
	var body RegisterMembershipRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	in := memberships.RegistrationInput{
		LicenseType:   domain.LicenseType(body.LicenseType),
		Insurance:     domain.InsuranceOption(body.Insurance),
		LicenseNumber: body.LicenseNumber,
		Paid:          body.Paid,
	}
	if body.MedicalCertificateOn != nil {
		d := body.MedicalCertificateOn.Time
		in.MedicalCertificateOn = &d
	}
	m, err := s.memberships.RegisterMember(r.Context(), memberIDParam(r), seasonIDParam(r), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MembershipResponse{Membership: membershipFromDomain(m)})
}

func (s *Server) unregisterMembership(w http.ResponseWriter, r *http.Request) {
	if err := s.memberships.UnregisterMember(r.Context(), memberIDParam(r), seasonIDParam(r)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
