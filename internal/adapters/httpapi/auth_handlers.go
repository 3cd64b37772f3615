package httpapi

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/climbing-section/backoffice/internal/app/admins"
)

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body LoginRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	sess, err := s.admins.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.setSessionCookie(w, sess)
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     sess.Token.Value,
		ExpiresAt: sess.Token.ExpiresAt,
		Admin:     adminFromDomain(sess.Admin),
	})
}

// logout clears the session cookie. Tokens are stateless and stay valid until they expire.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if a, ok := AdminFromContext(r.Context()); ok {
		s.logger.Info("logout", zap.String("adminId", string(a.ID)))
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	a, ok := s.currentAdmin(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, AdminResponse{Admin: adminFromDomain(a)})
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	a, ok := s.currentAdmin(w, r)
	if !ok {
		return
	}
	var body ChangePasswordRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := s.admins.ChangePassword(r.Context(), a.ID, body.CurrentPassword, body.NewPassword); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) activate(w http.ResponseWriter, r *http.Request) {
	var body ActivateRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	a, err := s.admins.ActivateAdmin(r.Context(), body.Token, body.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AdminResponse{Admin: adminFromDomain(a)})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess admins.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.Token.Value,
		Path:     "/",
		Expires:  sess.Token.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
