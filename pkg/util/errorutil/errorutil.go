package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes surfaced by the intake core.
const (
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeInvalidCoordinate    = "INVALID_COORDINATE"
	CodeGeocodeUnavailable   = "GEOCODE_UNAVAILABLE"
	CodeDuplicateQueryFailed = "DUPLICATE_QUERY_FAILED"
	CodeAdvisoryCallFailed   = "ADVISORY_CALL_FAILED"
	CodePublishFailed        = "PUBLISH_FAILED"
	CodeReferenceDataMissing = "REFERENCE_DATA_MISSING"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeInternalError        = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

// NewInvalidCoordinate flags out-of-range coordinates, rejected before any
// network call is made.
func NewInvalidCoordinate(err error) error {
	return &DomainError{
		Code:       CodeInvalidCoordinate,
		Message:    "coordinates out of range",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

// NewGeocodeUnavailable wraps upstream geocoder timeouts and failures.
func NewGeocodeUnavailable(err error) error {
	return &DomainError{
		Code:       CodeGeocodeUnavailable,
		Message:    "reverse geocoding unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewDuplicateQueryFailed wraps duplicate-candidate store errors. Callers log
// it and proceed with an empty duplicate set.
func NewDuplicateQueryFailed(err error) error {
	return &DomainError{
		Code:       CodeDuplicateQueryFailed,
		Message:    "duplicate lookup failed",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewAdvisoryCallFailed wraps failures of the external advisory model; always
// recoverable via a deterministic fallback.
func NewAdvisoryCallFailed(err error) error {
	return &DomainError{
		Code:       CodeAdvisoryCallFailed,
		Message:    "advisory call failed",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewPublishFailed wraps bus emission failures after a successful commit.
func NewPublishFailed(err error) error {
	return &DomainError{
		Code:       CodePublishFailed,
		Message:    "event publish failed",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewReferenceDataMissing flags absent reference data such as the fallback
// department. Fatal at startup, never a per-request condition.
func NewReferenceDataMissing(message string) error {
	return &DomainError{
		Code:       CodeReferenceDataMissing,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries the given domain error code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}
