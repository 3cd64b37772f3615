package seasons

import "net/http"

const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeSeasonNotFound  = "SEASON_NOT_FOUND"
	CodeLabelTaken      = "SEASON_LABEL_TAKEN"
	CodeSeasonOverlap   = "SEASON_OVERLAP"
	CodeSeasonInUse     = "SEASON_IN_USE"
	CodeNoCurrentSeason = "NO_CURRENT_SEASON"
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

func validationError(details map[string]any) *Error {
	return &Error{
		Status:  http.StatusUnprocessableEntity,
		Code:    CodeValidation,
		Message: "invalid season",
		Details: details,
	}
}

func notFound() *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeSeasonNotFound, Message: "season not found"}
}

func labelTaken(label string) *Error {
	return &Error{
		Status:  http.StatusConflict,
		Code:    CodeLabelTaken,
		Message: "season label is already in use",
		Details: map[string]any{"label": label},
	}
}
