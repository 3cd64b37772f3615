package memberships

import "net/http"

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeMemberNotFound     = "MEMBER_NOT_FOUND"
	CodeSeasonNotFound     = "SEASON_NOT_FOUND"
	CodeMembershipNotFound = "MEMBERSHIP_NOT_FOUND"
	CodeNoCurrentSeason    = "NO_CURRENT_SEASON"
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

func notFound(code, msg string) *Error {
	return &Error{Status: http.StatusNotFound, Code: code, Message: msg}
}
