package dto

import (
	"errors"
	"net/http"
	"strings"

	"github.com/claimswift/backend/internal/domain/shared"
)

// Error codes on the wire are the domain code prefixed with ERR_.
// Format: ERR_<DOMAIN_CODE>
const codePrefix = "ERR_"

// Transport-level error codes
const (
	ErrCodeInternal     = "ERR_INTERNAL_ERROR"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeValidation   = "ERR_VALIDATION_FAILED"
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodeRouteMissing = "ERR_ROUTE_NOT_FOUND"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
	ErrCodeUnavailable  = "ERR_SERVICE_UNAVAILABLE"
)

// CategoryHTTPStatus maps each error category to its HTTP status.
var CategoryHTTPStatus = map[shared.ErrorCategory]int{
	shared.CategoryNotFound:             http.StatusNotFound,
	shared.CategoryInvalidState:         http.StatusUnprocessableEntity,
	shared.CategoryAlreadyExists:        http.StatusConflict,
	shared.CategoryValidation:           http.StatusBadRequest,
	shared.CategoryServiceCommunication: http.StatusBadGateway,
	shared.CategoryInternal:             http.StatusInternalServerError,
}

// codeHTTPStatus overrides the category status for individual codes.
var codeHTTPStatus = map[string]int{
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeRouteMissing: http.StatusNotFound,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeUnavailable:  http.StatusServiceUnavailable,

	codePrefix + shared.CodeConcurrencyConflict: http.StatusConflict,
}

// WireCode converts a domain error code to its ERR_-prefixed form. Codes that
// already carry the prefix are returned unchanged.
func WireCode(domainCode string) string {
	if strings.HasPrefix(domainCode, codePrefix) {
		return domainCode
	}
	return codePrefix + domainCode
}

// GetHTTPStatus returns the HTTP status for a wire error code. Unknown codes
// map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := codeHTTPStatus[code]; ok {
		return status
	}
	de := shared.DomainError{Code: strings.TrimPrefix(code, codePrefix)}
	return CategoryHTTPStatus[de.Category()]
}

// FromError resolves the wire code, message and HTTP status of err. Errors
// without a DomainError in their chain become ERR_INTERNAL_ERROR with a
// generic message.
func FromError(err error) (code, message string, status int) {
	var de *shared.DomainError
	if errors.As(err, &de) {
		code = WireCode(de.Code)
		return code, de.Message, GetHTTPStatus(code)
	}
	return ErrCodeInternal, "An unexpected error occurred", http.StatusInternalServerError
}
