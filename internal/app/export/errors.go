package export

import "net/http"

const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeSeasonNotFound   = "SEASON_NOT_FOUND"
	CodeFontNotAvailable = "PDF_FONT_NOT_CONFIGURED"
)

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func fontNotAvailable() *Error {
	return &Error{
		Status:  http.StatusServiceUnavailable,
		Code:    CodeFontNotAvailable,
		Message: "label export needs a TrueType font (PDF_FONT_PATH)",
	}
}
