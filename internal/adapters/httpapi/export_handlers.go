package httpapi

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/climbing-section/backoffice/internal/app/export"
	"github.com/climbing-section/backoffice/internal/domain"
)

// writeExport renders the whole file before any header is written; errors stay JSON.
func (s *Server) writeExport(w http.ResponseWriter, r *http.Request, seasonID *domain.SeasonID) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	roster, err := s.exports.Roster(r.Context(), seasonID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := s.exports.Write(&buf, roster, format); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if a, ok := AdminFromContext(r.Context()); ok {
		s.logger.Info("roster downloaded", zap.String("adminId", string(a.ID)), zap.String("format", string(format)), zap.Int("rows", len(roster.Rows)))
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.FileName(roster, format)}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
