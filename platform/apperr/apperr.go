// Package apperr provides standardized domain error types for the application.
// Domain services return these typed errors, and the HTTP layer middleware
// automatically maps them to appropriate HTTP status codes.
package apperr

import (
	"fmt"
	"net/http"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindNotFound indicates a resource was not found.
	KindNotFound
	// KindValidation indicates invalid input data.
	KindValidation
	// KindConflict indicates a conflict with existing state (e.g., already sold).
	KindConflict
	// KindPolicyViolation indicates a business-rule gate failed.
	KindPolicyViolation
	// KindFeatureDisabled indicates an administrative kill-switch is active.
	KindFeatureDisabled
	// KindUnauthorized indicates authentication is required or failed.
	KindUnauthorized
	// KindUnprocessable indicates a well-formed request that cannot be
	// processed (e.g., zone not configured).
	KindUnprocessable
	// KindInternal indicates an unexpected internal error.
	KindInternal
)

// Machine-readable error codes surfaced in API responses. Clients branch on
// these, so they are part of the contract.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeValidation        = "VALIDATION_ERROR"
	CodeZoneNotConfigured = "ZONE_NOT_CONFIGURED"
	CodeSold              = "SOLD"
	CodeReserved          = "RESERVED"
	CodeReservedForOther  = "RESERVED_FOR_OTHER"
	CodeReservationTierA  = "RESERVATION_ONLY_TIER_A"
	CodeConflict          = "CONFLICT"
	CodeFeatureDisabled   = "FEATURE_DISABLED"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInternal          = "INTERNAL_ERROR"
)

// Error is a domain error with a typed Kind for HTTP mapping and a stable
// machine-readable Code for API clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Op      string      // Operation that failed (optional)
	Err     error       // Underlying error (optional)
	Details interface{} // Additional details for response (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the appropriate HTTP status code for this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindPolicyViolation, KindFeatureDisabled:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindUnprocessable:
		return http.StatusUnprocessableEntity
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// New creates a new domain error with the given kind, code and message.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// WithOp returns the error with the operation set.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithDetails returns the error with additional details.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// Convenience constructors for common error types.

// NotFound creates a not found error.
func NotFound(message string) *Error {
	return New(KindNotFound, CodeNotFound, message)
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(KindValidation, CodeValidation, message)
}

// Conflict creates a conflict error with a specific code (SOLD, RESERVED, ...).
func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

// PolicyViolation creates a business-rule violation error.
func PolicyViolation(code, message string) *Error {
	return New(KindPolicyViolation, code, message)
}

// FeatureDisabled creates an error for an administratively disabled feature.
func FeatureDisabled(feature string) *Error {
	return New(KindFeatureDisabled, CodeFeatureDisabled, "feature disabled: "+feature).
		WithDetails(map[string]string{"feature": feature})
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, CodeUnauthorized, message)
}

// ZoneNotConfigured creates the error for a missing or inactive pricing zone.
func ZoneNotConfigured(zoneKey string) *Error {
	return New(KindUnprocessable, CodeZoneNotConfigured, "zone not configured: "+zoneKey).
		WithDetails(map[string]string{"zone_key": zoneKey})
}

// Internal creates an internal server error.
func Internal(message string) *Error {
	return New(KindInternal, CodeInternal, message)
}

// GetKind extracts the error kind from an error.
// Returns KindUnknown if the error is not an *Error.
func GetKind(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindUnknown
}

// GetCode extracts the machine-readable code from an error.
func GetCode(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// Is checks if err is an *Error with the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
