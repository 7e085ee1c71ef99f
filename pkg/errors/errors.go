package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable error class surfaced to API clients.
type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeDuplicate    Code = "DUPLICATE_RESOURCE"
	CodeBusinessRule Code = "BUSINESS_RULE_VIOLATION"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeIdempotency  Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"
)

// Metadata drives how a Code is rendered over HTTP.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

const (
	final     = false
	retryable = true
	opaque    = false
	detailed  = true
)

var metadataByCode = map[Code]Metadata{
	CodeValidation:   {http.StatusBadRequest, final, "validation failed", detailed},
	CodeDuplicate:    {http.StatusBadRequest, final, "resource already exists", opaque},
	CodeBusinessRule: {http.StatusBadRequest, final, "business rule violated", detailed},
	CodeUnauthorized: {http.StatusUnauthorized, final, "authentication required", opaque},
	CodeForbidden:    {http.StatusForbidden, final, "access denied", opaque},
	CodeNotFound:     {http.StatusNotFound, final, "resource not found", opaque},
	CodeConflict:     {http.StatusConflict, final, "conflict detected", opaque},
	CodeIdempotency:  {http.StatusConflict, final, "idempotency key reused", detailed},
	CodeRateLimit:    {http.StatusTooManyRequests, final, "rate limit exceeded", opaque},
	CodeInternal:     {http.StatusInternalServerError, retryable, "internal server error", opaque},
	CodeDependency:   {http.StatusInternalServerError, retryable, "dependency unavailable", detailed},
}

// Lookup reports the metadata for code and whether code is registered.
func Lookup(code Code) (Metadata, bool) {
	meta, ok := metadataByCode[code]
	return meta, ok
}

// MetadataFor falls back to CodeInternal for unregistered codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := Lookup(code); ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is a coded error with a client-facing message and optional details.
// The cause stays server-side.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches err as the cause. A nil err behaves like New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails sets details in place and returns e for chaining.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause == nil {
		return string(e.code) + ": " + e.message
	}
	return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether the outermost *Error in err's chain has code.
func IsCode(err error, code Code) bool {
	return As(err).codeIs(code)
}

// IsRetryable reports whether a caller may retry the failed operation.
func IsRetryable(err error) bool {
	typed := As(err)
	if typed == nil {
		return false
	}
	return MetadataFor(typed.code).Retryable
}

func (e *Error) codeIs(code Code) bool {
	return e != nil && e.code == code
}
