package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error codes returned by the quote API
const (
	CodeValidationError          = "VALIDATION_ERROR"
	CodeInvalidQuantities        = "INVALID_QUANTITIES"
	CodeInvalidQuantityValues    = "INVALID_QUANTITY_VALUES"
	CodeTooManyQuantities        = "TOO_MANY_QUANTITIES"
	CodeMinimumQuantityViolation = "MINIMUM_QUANTITY_VIOLATION"
	CodeInvalidJSON              = "INVALID_JSON"
	CodeInvalidInput             = "INVALID_INPUT"
	CodeForbiddenOrigin          = "FORBIDDEN_ORIGIN"
	CodeNotFound                 = "RESOURCE_NOT_FOUND"
	CodeRouteNotFound            = "ROUTE_NOT_FOUND"
	CodeMethodNotAllowed         = "METHOD_NOT_ALLOWED"
	CodeTimeout                  = "TIMEOUT"
	CodePayloadTooLarge          = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMediaType     = "UNSUPPORTED_MEDIA_TYPE"
	CodeRateLimitExceeded        = "RATE_LIMIT_EXCEEDED"
	CodeCalculationError         = "CALCULATION_ERROR"
	CodeInternalError            = "INTERNAL_ERROR"
	CodeInsufficientStorage      = "INSUFFICIENT_STORAGE"
	CodeCircuitOpen              = "CIRCUIT_OPEN"
)

// AppError represents an application error with HTTP status and error code
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
	Err        error          `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails merges details into the error
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail adds a single detail to the error
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Wrap wraps an existing error
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// NewAppError creates a new AppError
func NewAppError(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Input errors

// ErrValidation creates a validation error
func ErrValidation(message string) *AppError {
	return NewAppError(CodeValidationError, message, http.StatusBadRequest)
}

// ErrValidationWithFields creates a validation error keyed by request path.
// details.fields holds the bare field names (sorted, unique), details.paths
// the full request paths and details.errors the reason per path.
func ErrValidationWithFields(message string, fieldErrors map[string]string) *AppError {
	paths := make([]string, 0, len(fieldErrors))
	for p := range fieldErrors {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return ErrValidation(message).WithDetails(map[string]any{
		"fields": fieldNames(paths),
		"paths":  paths,
		"errors": fieldErrors,
	})
}

// fieldNames maps request paths to their sorted, unique field names
func fieldNames(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		if name := FieldName(p); !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// FieldName reduces a request path such as baseParams.postProcessingOptionIds[0]
// to its last field name.
func FieldName(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		path = path[i+1:]
	}
	if i := strings.Index(path, "["); i > 0 {
		path = path[:i]
	}
	return path
}

// ErrInvalidQuantities is returned when the quantity list is missing or empty
func ErrInvalidQuantities(message string) *AppError {
	return NewAppError(CodeInvalidQuantities, message, http.StatusBadRequest)
}

// ErrInvalidQuantityValues is returned when one or more quantities are not
// whole numbers within bounds. invalid echoes the offending values as sent.
func ErrInvalidQuantityValues(message string, invalid []float64) *AppError {
	return NewAppError(CodeInvalidQuantityValues, message, http.StatusBadRequest).
		WithDetail("invalidValues", invalid)
}

// ErrTooManyQuantities is returned when the quantity list exceeds the cap
func ErrTooManyQuantities(limit, got int) *AppError {
	return NewAppError(CodeTooManyQuantities,
		fmt.Sprintf("a maximum of %d quantities can be compared per request", limit),
		http.StatusBadRequest).
		WithDetails(map[string]any{"maximum": limit, "received": got})
}

// ErrMinimumQuantity is returned when a quantity is below the processing minimum
func ErrMinimumQuantity(quantity, minimum int) *AppError {
	return NewAppError(CodeMinimumQuantityViolation,
		fmt.Sprintf("quantity %d is below the minimum of %d for the selected processing options", quantity, minimum),
		http.StatusBadRequest).
		WithDetails(map[string]any{"quantity": quantity, "minimumQuantity": minimum})
}

// ErrInvalidJSON creates a malformed payload error
func ErrInvalidJSON(err error) *AppError {
	return NewAppError(CodeInvalidJSON, "request body is not valid JSON", http.StatusBadRequest).Wrap(err)
}

// ErrInvalidInput creates an error for identifiers carrying unsafe content
func ErrInvalidInput(paths []string) *AppError {
	sort.Strings(paths)
	return NewAppError(CodeInvalidInput, "request contains unsafe input", http.StatusBadRequest).
		WithDetails(map[string]any{"fields": fieldNames(paths), "paths": paths})
}

// ErrForbiddenOrigin creates an origin rejection error
func ErrForbiddenOrigin(origin string) *AppError {
	return NewAppError(CodeForbiddenOrigin, "origin not allowed", http.StatusForbidden).
		WithDetail("origin", origin)
}

// ErrPayloadTooLarge creates an oversized body error
func ErrPayloadTooLarge(limit int64) *AppError {
	return NewAppError(CodePayloadTooLarge,
		fmt.Sprintf("request body exceeds %d bytes", limit),
		http.StatusRequestEntityTooLarge).
		WithDetail("maxBytes", limit)
}

// ErrUnsupportedMediaType creates a content type error
func ErrUnsupportedMediaType(contentType string) *AppError {
	return NewAppError(CodeUnsupportedMediaType, "Content-Type must be application/json", http.StatusUnsupportedMediaType).
		WithDetail("contentType", contentType)
}

// Resource errors

// ErrNotFound creates a not found error
func ErrNotFound(resource string) *AppError {
	return NewAppError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// ErrNotFoundWithID creates a not found error with ID
func ErrNotFoundWithID(resource, id string) *AppError {
	return ErrNotFound(resource).WithDetail("id", id)
}

// ErrTimeout creates a timeout error
func ErrTimeout(operation string) *AppError {
	return NewAppError(CodeTimeout, fmt.Sprintf("%s timed out", operation), http.StatusRequestTimeout)
}

// ErrCalculation creates a pricing engine failure
func ErrCalculation(message string) *AppError {
	if message == "" {
		message = "quote calculation failed"
	}
	return NewAppError(CodeCalculationError, message, http.StatusInternalServerError)
}

// ErrInsufficientStorage creates a capacity exhaustion error
func ErrInsufficientStorage(message string) *AppError {
	return NewAppError(CodeInsufficientStorage, message, http.StatusInsufficientStorage)
}

// ErrCircuitOpen creates an error for a dependency guarded by an open breaker
func ErrCircuitOpen(dependency string) *AppError {
	return NewAppError(CodeCircuitOpen, fmt.Sprintf("%s is temporarily unavailable", dependency), http.StatusServiceUnavailable)
}

// Policy errors

// ErrRateLimitExceeded creates a rate limit error
func ErrRateLimitExceeded() *AppError {
	return NewAppError(CodeRateLimitExceeded, "rate limit exceeded, retry later", http.StatusTooManyRequests)
}

// Internal errors

// ErrInternal creates an internal error
func ErrInternal(message string) *AppError {
	if message == "" {
		message = "an internal error occurred"
	}
	return NewAppError(CodeInternalError, message, http.StatusInternalServerError)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// FromError converts a standard error to an AppError
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := AsAppError(err); ok {
		return appErr
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout("operation").Wrap(err)
	case errors.Is(err, context.Canceled):
		return ErrTimeout("operation").Wrap(err)
	}

	return ErrInternal("").Wrap(err)
}
