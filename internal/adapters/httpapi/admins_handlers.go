package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/nullable"

	"github.com/climbing-section/backoffice/internal/app/admins"
	"github.com/climbing-section/backoffice/internal/domain"
)

func (s *Server) listAdmins(w http.ResponseWriter, r *http.Request) {
	as, err := s.admins.ListAdmins(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := AdminListResponse{Admins: make([]Admin, 0, len(as))}
	for _, a := range as {
		out.Admins = append(out.Admins, adminFromDomain(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) inviteAdmin(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.currentAdmin(w, r)
	if !ok {
		return
	}
	var body InviteAdminRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	canon := body
	canon.Email = domain.NormalizeEmail(canon.Email)
	s.idempotentCreate(w, r, "/admins", canon, func() (createResult, error) {
		a, err := s.admins.InviteAdmin(r.Context(), actor.ID, admins.InviteAdminInput{
			Email:     body.Email,
			FirstName: body.FirstName,
			LastName:  body.LastName,
		})
		if err != nil {
			return createResult{}, err
		}
		return createResult{status: http.StatusCreated, payload: AdminResponse{Admin: adminFromDomain(a)}}, nil
	})
}

func (s *Server) getAdmin(w http.ResponseWriter, r *http.Request) {
	a, err := s.admins.GetAdmin(r.Context(), adminIDParam(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AdminResponse{Admin: adminFromDomain(a)})
}

func (s *Server) updateAdmin(w http.ResponseWriter, r *http.Request) {
	var body UpdateAdminRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	a, err := s.admins.UpdateAdmin(r.Context(), adminIDParam(r), admins.UpdateAdminInput{
		FirstName: adminOptional(body.FirstName),
		LastName:  adminOptional(body.LastName),
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AdminResponse{Admin: adminFromDomain(a)})
}

func (s *Server) deleteAdmin(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.currentAdmin(w, r)
	if !ok {
		return
	}
	if err := s.admins.DeleteAdmin(r.Context(), actor.ID, adminIDParam(r)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resendInvitation(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.currentAdmin(w, r)
	if !ok {
		return
	}
	if err := s.admins.ResendInvitation(r.Context(), actor.ID, adminIDParam(r)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) disableAdmin(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.currentAdmin(w, r)
	if !ok {
		return
	}
	a, err := s.admins.DisableAdmin(r.Context(), actor.ID, adminIDParam(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AdminResponse{Admin: adminFromDomain(a)})
}

func (s *Server) enableAdmin(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.currentAdmin(w, r)
	if !ok {
		return
	}
	a, err := s.admins.EnableAdmin(r.Context(), actor.ID, adminIDParam(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AdminResponse{Admin: adminFromDomain(a)})
}

func adminIDParam(r *http.Request) domain.AdminID {
	return domain.AdminID(chi.URLParam(r, "adminId"))
}

func adminOptional[T any](n nullable.Nullable[T]) admins.Optional[T] {
	if !n.IsSpecified() {
		return admins.Unspecified[T]()
	}
	if n.IsNull() {
		return admins.Null[T]()
	}
	v, err := n.Get()
	if err != nil {
		return admins.Unspecified[T]()
	}
	return admins.Some(v)
}
