package api

import "errors"

// Well-known machine codes returned by the backend.
const (
	CodeValidation         = "VALIDATION"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeDuplicateSlug      = "DUPLICATE_SLUG"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
)

// Error is a request failure shaped like the server envelope: a user-facing
// message, an optional machine code, and the HTTP status it arrived with.
// Callers that need to branch on conflicts (duplicate slug, taken email)
// inspect Code via errors.As rather than matching message text.
type Error struct {
	Message string
	Code    string
	Status  int
}

func (e *Error) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// AsError unwraps err into an *Error when the failure came from the API.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// ErrorCode returns the machine code attached to err, or "" for plain errors.
func ErrorCode(err error) string {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Code
	}
	return ""
}

// UserMessage picks the string shown to the user for a failed request: the
// server-supplied error field when there is one, the fallback otherwise
// (transport failures never surface raw Go error text in the UI).
func UserMessage(err error, fallback string) string {
	if apiErr, ok := AsError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
