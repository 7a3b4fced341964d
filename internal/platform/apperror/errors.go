package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error. Every failure in the till returns control
// to an interactive state, so the kind decides how it is surfaced, never whether
// the process survives.
type Kind string

const (
	KindValidation           Kind = "VALIDATION"
	KindNetwork              Kind = "NETWORK"
	KindIncompleteBill       Kind = "INCOMPLETE_BILL"
	KindUnsettledPayment     Kind = "UNSETTLED_PAYMENT"
	KindIndex                Kind = "INDEX"
	KindNotFound             Kind = "NOT_FOUND"
	KindConflict             Kind = "CONFLICT"
	KindConfirmationRequired Kind = "CONFIRMATION_REQUIRED"
	KindUnauthorized         Kind = "UNAUTHORIZED"
	KindRateLimited          Kind = "RATE_LIMITED"
	KindInternal             Kind = "INTERNAL"
)

var kindStatus = map[Kind]int{
	KindValidation:           http.StatusUnprocessableEntity,
	KindNetwork:              http.StatusBadGateway,
	KindIncompleteBill:       http.StatusConflict,
	KindUnsettledPayment:     http.StatusConflict,
	KindIndex:                http.StatusBadRequest,
	KindNotFound:             http.StatusNotFound,
	KindConflict:             http.StatusConflict,
	KindConfirmationRequired: http.StatusPreconditionRequired,
	KindUnauthorized:         http.StatusUnauthorized,
	KindRateLimited:          http.StatusTooManyRequests,
	KindInternal:             http.StatusInternalServerError,
}

// AppError represents an application error with its kind and HTTP status code.
type AppError struct {
	Kind    Kind   `json:"kind"`
	Code    int    `json:"-"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches any AppError of the same kind, so callers can write
// errors.Is(err, apperror.ErrValidation).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrValidation           = &AppError{Kind: KindValidation, Code: kindStatus[KindValidation], Message: "validation failed"}
	ErrNetwork              = &AppError{Kind: KindNetwork, Code: kindStatus[KindNetwork], Message: "upstream unreachable"}
	ErrIncompleteBill       = &AppError{Kind: KindIncompleteBill, Code: kindStatus[KindIncompleteBill], Message: "bill has no lines"}
	ErrUnsettledPayment     = &AppError{Kind: KindUnsettledPayment, Code: kindStatus[KindUnsettledPayment], Message: "payment is not settled"}
	ErrIndex                = &AppError{Kind: KindIndex, Code: kindStatus[KindIndex], Message: "index out of range"}
	ErrNotFound             = &AppError{Kind: KindNotFound, Code: kindStatus[KindNotFound], Message: "resource not found"}
	ErrConflict             = &AppError{Kind: KindConflict, Code: kindStatus[KindConflict], Message: "conflict"}
	ErrConfirmationRequired = &AppError{Kind: KindConfirmationRequired, Code: kindStatus[KindConfirmationRequired], Message: "confirmation required"}
	ErrUnauthorized         = &AppError{Kind: KindUnauthorized, Code: kindStatus[KindUnauthorized], Message: "unauthorized"}
	ErrRateLimited          = &AppError{Kind: KindRateLimited, Code: kindStatus[KindRateLimited], Message: "too many requests"}
)

// New creates an AppError of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Code: statusFor(kind), Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an AppError of the given kind around an underlying cause.
func Wrap(kind Kind, err error, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Code: statusFor(kind), Message: fmt.Sprintf(format, args...), Err: err}
}

func Validation(format string, args ...interface{}) *AppError {
	return New(KindValidation, format, args...)
}

func NotFound(resource string) *AppError {
	return New(KindNotFound, "%s not found", resource)
}

func Network(err error, format string, args ...interface{}) *AppError {
	return Wrap(KindNetwork, err, format, args...)
}

// Get converts an error to an AppError. Unknown errors become INTERNAL and
// their text stays out of the response body.
func Get(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Kind: KindInternal, Code: http.StatusInternalServerError, Message: "internal server error", Err: err}
}

// Status returns the HTTP status code for err.
func Status(err error) int {
	return Get(err).Code
}

func statusFor(kind Kind) int {
	if code, ok := kindStatus[kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}
