package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned in the API error envelope. Each maps to a fixed HTTP status.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeAuthentication     = "AUTHENTICATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

type Error struct {
	Status  int
	Code    string
	Err     error
	Details map[string]string

	// RetryAfterSeconds is set only for rate-limit errors so handlers can emit
	// a Retry-After header.
	RetryAfterSeconds int
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(err error, details map[string]string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeValidation, Err: err, Details: details}
}

func Authentication(err error) *Error {
	return New(http.StatusUnauthorized, CodeAuthentication, err)
}

func NotFound(err error) *Error {
	return New(http.StatusNotFound, CodeNotFound, err)
}

func Conflict(err error) *Error {
	return New(http.StatusConflict, CodeConflict, err)
}

func RateLimited(err error, retryAfterSeconds int) *Error {
	return &Error{
		Status:            http.StatusTooManyRequests,
		Code:              CodeRateLimitExceeded,
		Err:               err,
		RetryAfterSeconds: retryAfterSeconds,
	}
}

func Internal(err error) *Error {
	return New(http.StatusInternalServerError, CodeInternal, err)
}

func Unavailable(err error) *Error {
	return New(http.StatusServiceUnavailable, CodeServiceUnavailable, err)
}

// From returns err as an *Error, wrapping anything unexpected as INTERNAL_ERROR so
// no raw error shape ever reaches a response unclassified.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
