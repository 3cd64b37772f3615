package httpapi

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
)

func TestMembers_CreateGetList(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	m := api.createMember(t, "Alice.Martin@Example.org")
	if m.MemberId == "" || m.FirstName != "Alice" || m.Email != "alice.martin@example.org" {
		t.Fatalf("unexpected member: %+v", m)
	}
	if phone, _ := m.Phone.Get(); phone != "0612345678" {
		t.Fatalf("phone=%q", phone)
	}
	if m.Age != 35 || m.IsMinor || m.Address.Country != "FR" || m.HasPicture {
		t.Fatalf("unexpected derived fields: %+v", m)
	}
	if !m.Notes.IsNull() || !m.Address.Complement.IsNull() {
		t.Fatalf("expected explicit nulls")
	}

	rec := api.do(t, http.MethodGet, "/members/"+m.MemberId, nil)
	requireStatus(t, rec, http.StatusOK)
	if got := decode[MemberResponse](t, rec).Member; got.MemberId != m.MemberId {
		t.Fatalf("get memberId=%q", got.MemberId)
	}
	if !strings.Contains(rec.Body.String(), `"notes":null`) {
		t.Fatalf("expected notes:null in %s", rec.Body.String())
	}

	api.createMember(t, "bob@example.org")
	rec = api.do(t, http.MethodGet, "/members?search=alice&pageSize=10", nil)
	requireStatus(t, rec, http.StatusOK)
	page := decode[MemberPageResponse](t, rec)
	if page.Total != 1 || len(page.Members) != 1 || page.PageSize != 10 || page.Page != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestMembers_ListRejectsBadPaging(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	er := requireError(t, api.do(t, http.MethodGet, "/members?page=two", nil), http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	if d, _ := er.Error.Details.Get(); d["page"] == nil {
		t.Fatalf("details=%v", d)
	}
}

func TestMembers_CreateValidation(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	body := memberBody("not-an-email")
	body["gender"] = "Q"
	er := requireError(t, api.do(t, http.MethodPost, "/members", body), http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	d, _ := er.Error.Details.Get()
	if d["email"] == nil || d["gender"] == nil {
		t.Fatalf("details=%v", d)
	}

	requireError(t, api.do(t, http.MethodPost, "/members", map[string]any{"birthDate": "12/04/1990"}), http.StatusBadRequest, "MALFORMED_REQUEST")

	api.createMember(t, "dup@example.org")
	requireError(t, api.do(t, http.MethodPost, "/members", memberBody("DUP@example.org")), http.StatusConflict, "EMAIL_ALREADY_IN_USE")
}

func TestMembers_CreateIdempotency(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	first := api.do(t, http.MethodPost, "/members", memberBody("carl@example.org"), "Idempotency-Key", "k-1")
	requireStatus(t, first, http.StatusCreated)

	// Same payload up to normalization replays the stored response.
	retryBody := memberBody("CARL@example.org ")
	replay := api.do(t, http.MethodPost, "/members", retryBody, "Idempotency-Key", "k-1")
	requireStatus(t, replay, http.StatusCreated)
	if replay.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected replay header")
	}
	if decode[MemberResponse](t, replay).Member.MemberId != decode[MemberResponse](t, first).Member.MemberId {
		t.Fatalf("replay returned a different member")
	}

	other := memberBody("carl@example.org")
	other["lastName"] = "Other"
	requireError(t, api.do(t, http.MethodPost, "/members", other, "Idempotency-Key", "k-1"), http.StatusConflict, "IDEMPOTENCY_KEY_REUSE")

	// Without the key a second create hits the unique email rule.
	requireError(t, api.do(t, http.MethodPost, "/members", memberBody("carl@example.org")), http.StatusConflict, "EMAIL_ALREADY_IN_USE")

	rec := api.do(t, http.MethodGet, "/members", nil)
	if got := decode[MemberPageResponse](t, rec).Total; got != 1 {
		t.Fatalf("total=%d", got)
	}
}

func TestMembers_UpdatePatchSemantics(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)
	m := api.createMember(t, "dana@example.org")

	rec := api.do(t, http.MethodPatch, "/members/"+m.MemberId, map[string]any{
		"phone":   nil,
		"notes":   "prefers bouldering",
		"address": map[string]any{"city": "Villeurbanne", "complement": "Bat. B"},
	})
	requireStatus(t, rec, http.StatusOK)
	got := decode[MemberResponse](t, rec).Member
	if !got.Phone.IsNull() {
		t.Fatalf("phone should be null")
	}
	if notes, _ := got.Notes.Get(); notes != "prefers bouldering" {
		t.Fatalf("notes=%q", notes)
	}
	if got.Address.City != "Villeurbanne" || got.Address.Street != "12 rue des Lilas" || got.FirstName != "Alice" {
		t.Fatalf("unexpected member after patch: %+v", got)
	}

	requireError(t, api.do(t, http.MethodPatch, "/members/"+m.MemberId, map[string]any{"email": nil}), http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	requireError(t, api.do(t, http.MethodPatch, "/members/nope", map[string]any{"notes": "x"}), http.StatusNotFound, "MEMBER_NOT_FOUND")
}

func TestMembers_MinorNeedsLegalContact(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	body := memberBody("kid@example.org")
	body["birthDate"] = "2014-03-02"
	requireError(t, api.do(t, http.MethodPost, "/members", body), http.StatusUnprocessableEntity, "VALIDATION_ERROR")

	body["legalContact"] = map[string]any{
		"firstName":    "Paul",
		"lastName":     "Martin",
		"relationship": "father",
		"phone":        "06 98 76 54 32",
	}
	rec := api.do(t, http.MethodPost, "/members", body)
	requireStatus(t, rec, http.StatusCreated)
	m := decode[MemberResponse](t, rec).Member
	if !m.IsMinor || m.LegalContact == nil || !m.LegalContact.Email.IsNull() {
		t.Fatalf("unexpected minor: %s", rec.Body.String())
	}
}

func TestMembers_Delete(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)
	m := api.createMember(t, "eve@example.org")

	requireStatus(t, api.do(t, http.MethodDelete, "/members/"+m.MemberId, nil), http.StatusNoContent)
	requireError(t, api.do(t, http.MethodGet, "/members/"+m.MemberId, nil), http.StatusNotFound, "MEMBER_NOT_FOUND")
	requireError(t, api.do(t, http.MethodDelete, "/members/"+m.MemberId, nil), http.StatusNotFound, "MEMBER_NOT_FOUND")
}

func TestMembers_PictureRawBody(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)
	m := api.createMember(t, "fred@example.org")
	path := "/members/" + m.MemberId + "/picture"

	requireError(t, api.do(t, http.MethodGet, path, nil), http.StatusNotFound, "PICTURE_NOT_FOUND")

	img := pngHeader + "rest-of-image"
	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(img))
	req.Header.Set("Content-Type", "image/png")
	rec := api.raw(t, req)
	requireStatus(t, rec, http.StatusOK)
	if !decode[MemberResponse](t, rec).Member.HasPicture {
		t.Fatalf("expected hasPicture")
	}

	rec = api.do(t, http.MethodGet, path, nil)
	requireStatus(t, rec, http.StatusOK)
	if rec.Header().Get("Content-Type") != "image/png" || rec.Body.String() != img {
		t.Fatalf("content-type=%q body=%q", rec.Header().Get("Content-Type"), rec.Body.String())
	}

	requireStatus(t, api.do(t, http.MethodDelete, path, nil), http.StatusNoContent)
	if api.blobs.Len() != 0 {
		t.Fatalf("blobs left=%d", api.blobs.Len())
	}
	requireError(t, api.do(t, http.MethodDelete, path, nil), http.StatusNotFound, "PICTURE_NOT_FOUND")
}

func TestMembers_PictureMultipart(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)
	m := api.createMember(t, "gina@example.org")
	path := "/members/" + m.MemberId + "/picture"

	upload := func(field, contentType, data string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		_ = mw.WriteField("caption", "ignored")
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="me.png"`)
		h.Set("Content-Type", contentType)
		pw, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		_, _ = io.WriteString(pw, data)
		_ = mw.Close()
		req := httptest.NewRequest(http.MethodPut, path, &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return api.raw(t, req)
	}

	requireStatus(t, upload("picture", "application/octet-stream", pngHeader), http.StatusOK)
	requireError(t, upload("avatar", "image/png", pngHeader), http.StatusUnprocessableEntity, "PICTURE_INVALID")
	requireError(t, upload("picture", "image/jpeg", pngHeader), http.StatusUnprocessableEntity, "PICTURE_INVALID")
	requireError(t, upload("picture", "text/plain", "hello"), http.StatusUnprocessableEntity, "PICTURE_INVALID")
	requireError(t, upload("picture", "image/png", pngHeader+strings.Repeat("x", 2048)), http.StatusRequestEntityTooLarge, "PICTURE_TOO_LARGE")
	if api.blobs.Len() != 1 {
		t.Fatalf("blobs=%d want 1", api.blobs.Len())
	}
}

func TestMembers_UnknownRoute(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	requireError(t, api.do(t, http.MethodGet, "/nope", nil), http.StatusNotFound, "NOT_FOUND")
	requireError(t, api.do(t, http.MethodPut, "/members", nil), http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
}
