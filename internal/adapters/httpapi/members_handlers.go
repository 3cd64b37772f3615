package httpapi

import (
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/climbing-section/backoffice/internal/app/members"
	"github.com/climbing-section/backoffice/internal/domain"
)

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := members.ListMembersQuery{Search: q.Get("search")}
	details := map[string]any{}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			details["page"] = "must be an integer"
		}
		query.Page = n
	}
	if v := q.Get("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			details["pageSize"] = "must be an integer"
		}
		query.PageSize = n
	}
	if len(details) > 0 {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid query parameters", details)
		return
	}
	if v := strings.TrimSpace(q.Get("seasonId")); v != "" {
		id := domain.SeasonID(v)
		query.SeasonID = &id
	}

	page, err := s.members.ListMembers(r.Context(), query)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	now := s.clock.Now()
	out := MemberPageResponse{
		Members:  make([]Member, 0, len(page.Members)),
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    page.Total,
	}
	for _, m := range page.Members {
		out.Members = append(out.Members, memberFromDomain(m, now))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createMember(w http.ResponseWriter, r *http.Request) {
	var body CreateMemberRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	s.idempotentCreate(w, r, "/members", canonicalCreateMember(body), func() (createResult, error) {
		m, err := s.members.CreateMember(r.Context(), createMemberInput(body))
		if err != nil {
			return createResult{}, err
		}
		return createResult{status: http.StatusCreated, payload: MemberResponse{Member: memberFromDomain(m, s.clock.Now())}}, nil
	})
}

// canonicalCreateMember folds the differences the service normalizes away, so that a retry
// with cosmetic changes still replays.
func canonicalCreateMember(b CreateMemberRequest) CreateMemberRequest {
	b.FirstName = domain.NormalizeHumanName(b.FirstName)
	b.LastName = domain.NormalizeHumanName(b.LastName)
	b.Email = domain.NormalizeEmail(b.Email)
	return b
}

func (s *Server) getMember(w http.ResponseWriter, r *http.Request) {
	m, err := s.members.GetMember(r.Context(), memberIDParam(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MemberResponse{Member: memberFromDomain(m, s.clock.Now())})
}

func (s *Server) updateMember(w http.ResponseWriter, r *http.Request) {
	var body UpdateMemberRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	m, err := s.members.UpdateMember(r.Context(), memberIDParam(r), updateMemberInput(body))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MemberResponse{Member: memberFromDomain(m, s.clock.Now())})
}

func (s *Server) deleteMember(w http.ResponseWriter, r *http.Request) {
	if err := s.members.DeleteMember(r.Context(), memberIDParam(r)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getMemberPicture(w http.ResponseWriter, r *http.Request) {
	p, err := s.members.OpenPicture(r.Context(), memberIDParam(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if p.RedirectURL != "" {
		http.Redirect(w, r, p.RedirectURL, http.StatusFound)
		return
	}
	defer p.Body.Close()
	w.Header().Set("Content-Type", p.ContentType)
	if p.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(p.Size, 10))
	}
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, p.Body)
}

// putMemberPicture accepts either a multipart form with a "picture" part or the raw image
// as the request body.
func (s *Server) putMemberPicture(w http.ResponseWriter, r *http.Request) {
	up := members.PictureUpload{ContentType: r.Header.Get("Content-Type"), Body: r.Body}
	if mr, err := r.MultipartReader(); err == nil {
		found := false
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				writeError(w, r, http.StatusBadRequest, "MALFORMED_REQUEST", "malformed multipart body", nil)
				return
			}
			if part.FormName() == "picture" {
				up = members.PictureUpload{ContentType: part.Header.Get("Content-Type"), Body: part}
				found = true
				break
			}
			_ = part.Close()
		}
		if !found {
			writeError(w, r, http.StatusUnprocessableEntity, members.CodePictureInvalid, "missing \"picture\" form field", nil)
			return
		}
	}
	if mt, _, err := mime.ParseMediaType(up.ContentType); err != nil || mt == "application/octet-stream" {
		up.ContentType = ""
	}

	m, err := s.members.SetPicture(r.Context(), memberIDParam(r), up)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MemberResponse{Member: memberFromDomain(m, s.clock.Now())})
}

func (s *Server) deleteMemberPicture(w http.ResponseWriter, r *http.Request) {
	if err := s.members.RemovePicture(r.Context(), memberIDParam(r)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportMembers(w http.ResponseWriter, r *http.Request) {
	s.writeExport(w, r, nil)
}

func memberIDParam(r *http.Request) domain.MemberID {
	return domain.MemberID(chi.URLParam(r, "memberId"))
}

func createMemberInput(b CreateMemberRequest) members.CreateMemberInput {
	in := members.CreateMemberInput{
		FirstName: b.FirstName,
		LastName:  b.LastName,
		BirthDate: b.BirthDate.Time,
		Gender:    domain.Gender(b.Gender),
		Email:     b.Email,
		Phone:     b.Phone,
		Address:   addressInput(b.Address),
		Notes:     b.Notes,
	}
	if b.LegalContact != nil {
		lc := legalContactInput(*b.LegalContact)
		in.LegalContact = &lc
	}
	return in
}

func addressInput(a AddressRequest) members.AddressInput {
	return members.AddressInput{
		Street:     a.Street,
		Complement: a.Complement,
		PostalCode: a.PostalCode,
		City:       a.City,
		Country:    a.Country,
	}
}

func legalContactInput(lc LegalContactRequest) members.LegalContactInput {
	return members.LegalContactInput{
		FirstName:    lc.FirstName,
		LastName:     lc.LastName,
		Relationship: lc.Relationship,
		Email:        lc.Email,
		Phone:        lc.Phone,
	}
}

func updateMemberInput(b UpdateMemberRequest) members.UpdateMemberInput {
	return members.UpdateMemberInput{
		FirstName: memberOptional(b.FirstName),
		LastName:  memberOptional(b.LastName),
		BirthDate: memberOptionalMap(b.BirthDate, func(d openapi_types.Date) time.Time { return d.Time }),
		Gender:    memberOptionalMap(b.Gender, func(g string) domain.Gender { return domain.Gender(g) }),
		Email:     memberOptional(b.Email),
		Phone:     memberOptional(b.Phone),
		Address: memberOptionalMap(b.Address, func(a AddressPatchRequest) members.AddressPatch {
			return members.AddressPatch{
				Street:     memberOptional(a.Street),
				Complement: memberOptional(a.Complement),
				PostalCode: memberOptional(a.PostalCode),
				City:       memberOptional(a.City),
				Country:    memberOptional(a.Country),
			}
		}),
		LegalContact: memberOptionalMap(b.LegalContact, legalContactInput),
		Notes:        memberOptional(b.Notes),
	}
}

func memberOptional[T any](n nullable.Nullable[T]) members.Optional[T] {
	return memberOptionalMap(n, func(v T) T { return v })
}

func memberOptionalMap[T, U any](n nullable.Nullable[T], f func(T) U) members.Optional[U] {
	if !n.IsSpecified() {
		return members.Unspecified[U]()
	}
	if n.IsNull() {
		return members.Null[U]()
	}
	v, err := n.Get()
	if err != nil {
		return members.Unspecified[U]()
	}
	return members.Some(f(v))
}
