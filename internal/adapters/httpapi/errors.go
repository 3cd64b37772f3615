package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"
	"go.uber.org/zap"

	"github.com/climbing-section/backoffice/internal/app/admins"
	"github.com/climbing-section/backoffice/internal/app/export"
	"github.com/climbing-section/backoffice/internal/app/members"
	"github.com/climbing-section/backoffice/internal/app/memberships"
	"github.com/climbing-section/backoffice/internal/app/seasons"
)

// ErrorResponse is the envelope of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      string                            `json:"code"`
	Message   string                            `json:"message"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestId nullable.Nullable[string]         `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	var er ErrorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.Error.RequestId = nullable.NewNullableWithValue(rid)
	}
	writeJSON(w, status, er)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps application errors to the envelope. Anything unrecognised is
// logged and reported as 500 INTERNAL.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		memberErr     *members.Error
		seasonErr     *seasons.Error
		membershipErr *memberships.Error
		adminErr      *admins.Error
		exportErr     *export.Error
	)
	switch {
	case errors.As(err, &memberErr):
		writeError(w, r, memberErr.Status, memberErr.Code, memberErr.Message, memberErr.Details)
	case errors.As(err, &seasonErr):
		writeError(w, r, seasonErr.Status, seasonErr.Code, seasonErr.Message, seasonErr.Details)
	case errors.As(err, &membershipErr):
		writeError(w, r, membershipErr.Status, membershipErr.Code, membershipErr.Message, membershipErr.Details)
	case errors.As(err, &adminErr):
		writeError(w, r, adminErr.Status, adminErr.Code, adminErr.Message, adminErr.Details)
	case errors.As(err, &exportErr):
		writeError(w, r, exportErr.Status, exportErr.Code, exportErr.Message, exportErr.Details)
	default:
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("requestId", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
