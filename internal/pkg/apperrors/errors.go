package apperrors

import "errors"

// Session errors
var (
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("authentication required")
)

// Authorization errors
var (
	ErrPermissionDenied = errors.New("permission denied")
)

// Validation errors
var (
	ErrValidationFailed   = errors.New("validation failed")
	ErrRemarksRequired    = errors.New("remarks are required for rejection")
	ErrAttachmentTooLarge = errors.New("file size should not exceed 5MB")
	ErrPasswordMismatch   = errors.New("new passwords do not match")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters long")
	ErrBadRequest         = errors.New("bad request")
)

// Domain conflict errors
var (
	ErrOpenRequestExists = errors.New("you already have a pending request. Please wait for it to be processed")
	ErrCooldownActive    = errors.New("cooldown period is active")
	ErrInvalidTransition = errors.New("request is not awaiting this review stage")
	ErrConflict          = errors.New("conflict")
)

// Resource and transport errors
var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrUpstream         = errors.New("the server could not be reached. Please try again")
)

// Kind is one of the error categories the portal renders differently.
type Kind string

const (
	KindAuth          Kind = "auth"
	KindAuthorization Kind = "authorization"
	KindValidation    Kind = "validation"
	KindConflict      Kind = "conflict"
	KindNotFound      Kind = "not_found"
	KindTransient     Kind = "transient"
)

// KindOf classifies err. Unknown errors count as transient so the user gets a retry hint.
func KindOf(err error) Kind {
	switch {
	case Is(err, ErrSessionExpired, ErrUnauthorized, ErrInvalidCredentials):
		return KindAuth
	case errors.Is(err, ErrPermissionDenied):
		return KindAuthorization
	case Is(err, ErrValidationFailed, ErrRemarksRequired, ErrAttachmentTooLarge, ErrPasswordMismatch, ErrPasswordTooShort, ErrBadRequest):
		return KindValidation
	case Is(err, ErrOpenRequestExists, ErrCooldownActive, ErrInvalidTransition, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrResourceNotFound):
		return KindNotFound
	default:
		return KindTransient
	}
}

// NewValidationError creates a validation error with a user-facing message
func NewValidationError(message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Status  int
	Code    string
	Fields  map[string]string
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithFields attaches field-level messages (field name -> first message)
func (e *CustomError) WithFields(fields map[string]string) *CustomError {
	e.Fields = fields
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// WithStatus records the upstream HTTP status
func (e *CustomError) WithStatus(status int) *CustomError {
	e.Status = status
	return e
}

// Message returns the user-facing message of err: the CustomError message when there is
// one, otherwise err's own text.
func Message(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	var cd *CooldownError
	if errors.As(err, &cd) && cd.Message != "" {
		return cd.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// FieldErrors returns the field-level messages carried by err, if any.
func FieldErrors(err error) map[string]string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Fields
	}
	return nil
}
