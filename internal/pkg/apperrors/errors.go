package apperrors

import "errors"

// Sentinels matched with errors.Is by the error middleware
var (
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrInvalidFormat      = errors.New("invalid token format")
	ErrAccountBlocked     = errors.New("account is blocked")

	ErrPermissionDenied = errors.New("permission denied")

	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// Captcha errors
var (
	ErrCaptchaRequired = errors.New("captcha is required")
	ErrCaptchaInvalid  = errors.New("captcha answer is invalid or expired")
)

// Exam errors
var (
	ErrExamNotFound     = errors.New("exam not found")
	ErrQuestionNotFound = errors.New("question not found")
)

// Error codes attached to CustomError for clients that branch on them
const (
	CodeNotStartedYet    = "NOT_STARTED_YET"
	CodeExamExpired      = "EXAM_EXPIRED"
	CodeExamNotVisible   = "EXAM_NOT_VISIBLE"
	CodeNotAssigned      = "NOT_ASSIGNED"
	CodeAlreadyCompleted = "ALREADY_COMPLETED"
	CodeSubmissionClosed = "SUBMISSION_CLOSED"
)

// NewResourceNotFoundError wraps ErrResourceNotFound with a client message
func NewResourceNotFoundError(message string) *CustomError {
	return NewCustomError(ErrResourceNotFound, message)
}

// NewForbiddenError wraps ErrPermissionDenied with a client message
func NewForbiddenError(message string) *CustomError {
	return NewCustomError(ErrPermissionDenied, message)
}

// NewBadRequestError wraps ErrBadRequest with a client message
func NewBadRequestError(message string) *CustomError {
	return NewCustomError(ErrBadRequest, message)
}

// CustomError carries the message shown to clients on top of a sentinel
// error that decides the HTTP status. Code and Details are optional.
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
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

// NewCustomError wraps err with a client message
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{Err: err, Message: message}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// AsCustom extracts the outermost CustomError from err, if any
func AsCustom(err error) (*CustomError, bool) {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
