package admins

import "net/http"

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeAdminNotFound      = "ADMIN_NOT_FOUND"
	CodeAdminExists        = "ADMIN_ALREADY_EXISTS"
	CodeAdminNotInvited    = "ADMIN_NOT_INVITED"
	CodeInvitationNotFound = "INVITATION_NOT_FOUND"
	CodeInvitationUsed     = "INVITATION_USED"
	CodeInvitationExpired  = "INVITATION_EXPIRED"
	CodeCannotTargetSelf   = "CANNOT_TARGET_SELF"
	CodeLastActiveAdmin    = "LAST_ACTIVE_ADMIN"
	CodeMailDelivery       = "MAIL_DELIVERY_FAILED"
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
		Message: "invalid admin",
		Details: details,
	}
}

func invalidCredentials() *Error {
	return &Error{
		Status:  http.StatusUnauthorized,
		Code:    CodeInvalidCredentials,
		Message: "invalid email or password",
	}
}

func unauthenticated() *Error {
	return &Error{
		Status:  http.StatusUnauthorized,
		Code:    CodeUnauthenticated,
		Message: "authentication required",
	}
}

func notFound() *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeAdminNotFound, Message: "admin not found"}
}

func cannotTargetSelf(action string) *Error {
	return &Error{
		Status:  http.StatusForbidden,
		Code:    CodeCannotTargetSelf,
		Message: "you cannot " + action + " your own account",
	}
}

func lastActiveAdmin() *Error {
	return &Error{
		Status:  http.StatusConflict,
		Code:    CodeLastActiveAdmin,
		Message: "at least one active admin must remain",
	}
}
