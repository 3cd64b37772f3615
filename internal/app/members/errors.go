package members

import "net/http"

const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeMemberNotFound = "MEMBER_NOT_FOUND"
	CodeEmailInUse     = "EMAIL_ALREADY_IN_USE"
	CodePictureInvalid = "PICTURE_INVALID"
	CodePictureTooBig  = "PICTURE_TOO_LARGE"
	CodePictureMissing = "PICTURE_NOT_FOUND"
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
		Message: "invalid member",
		Details: details,
	}
}

func notFound() *Error {
	return &Error{
		Status:  http.StatusNotFound,
		Code:    CodeMemberNotFound,
		Message: "member not found",
	}
}

func emailInUse() *Error {
	return &Error{
		Status:  http.StatusConflict,
		Code:    CodeEmailInUse,
		Message: "email address is already in use",
	}
}
