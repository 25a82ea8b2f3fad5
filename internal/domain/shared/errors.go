package shared

import "errors"

// ErrorCategory groups error codes into the coarse classes the transport
// layer understands.
type ErrorCategory string

const (
	CategoryNotFound             ErrorCategory = "NOT_FOUND"
	CategoryInvalidState         ErrorCategory = "INVALID_STATE"
	CategoryAlreadyExists        ErrorCategory = "ALREADY_EXISTS"
	CategoryValidation           ErrorCategory = "VALIDATION"
	CategoryServiceCommunication ErrorCategory = "SERVICE_COMMUNICATION"
	CategoryInternal             ErrorCategory = "INTERNAL"
)

// Error codes. The values are part of the public API and must stay stable.
const (
	CodeNotFound                = "NOT_FOUND"
	CodeClaimNotFound           = "CLAIM_NOT_FOUND"
	CodePaymentNotFound         = "PAYMENT_NOT_FOUND"
	CodeAssessmentNotFound      = "ASSESSMENT_NOT_FOUND"
	CodeInvalidState            = "INVALID_STATE"
	CodeInvalidTransition       = "INVALID_TRANSITION"
	CodeClaimNotEligible        = "CLAIM_NOT_ELIGIBLE"
	CodeInvalidClaimStatus      = "INVALID_CLAIM_STATUS"
	CodeInvalidPaymentState     = "INVALID_PAYMENT_STATE"
	CodeAmountExceeded          = "AMOUNT_EXCEEDED"
	CodeConcurrencyConflict     = "CONCURRENCY_CONFLICT"
	CodeAlreadyExists           = "ALREADY_EXISTS"
	CodePaymentAlreadyExists    = "PAYMENT_ALREADY_EXISTS"
	CodeAssessmentAlreadyExists = "ASSESSMENT_ALREADY_EXISTS"
	CodeValidation              = "VALIDATION_FAILED"
	CodeServiceCommunication    = "SERVICE_COMMUNICATION"
	CodeClaimSyncPending        = "CLAIM_SYNC_PENDING"
	CodeInternal                = "INTERNAL_ERROR"
)

var codeCategories = map[string]ErrorCategory{
	CodeNotFound:                CategoryNotFound,
	CodeClaimNotFound:           CategoryNotFound,
	CodePaymentNotFound:         CategoryNotFound,
	CodeAssessmentNotFound:      CategoryNotFound,
	CodeInvalidState:            CategoryInvalidState,
	CodeInvalidTransition:       CategoryInvalidState,
	CodeClaimNotEligible:        CategoryInvalidState,
	CodeInvalidClaimStatus:      CategoryInvalidState,
	CodeInvalidPaymentState:     CategoryInvalidState,
	CodeAmountExceeded:          CategoryInvalidState,
	CodeConcurrencyConflict:     CategoryInvalidState,
	CodeAlreadyExists:           CategoryAlreadyExists,
	CodePaymentAlreadyExists:    CategoryAlreadyExists,
	CodeAssessmentAlreadyExists: CategoryAlreadyExists,
	CodeValidation:              CategoryValidation,
	CodeServiceCommunication:    CategoryServiceCommunication,
	CodeClaimSyncPending:        CategoryServiceCommunication,
	CodeInternal:                CategoryInternal,
}

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code, so sentinel
// errors match regardless of message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Category returns the taxonomy class of the error code.
func (e *DomainError) Category() ErrorCategory {
	if c, ok := codeCategories[e.Code]; ok {
		return c
	}
	return CategoryInternal
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error that keeps cause in its chain.
func WrapDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// CategoryOf returns the category of the first DomainError in err's chain.
// Errors that carry no DomainError are internal.
func CategoryOf(err error) ErrorCategory {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Category()
	}
	return CategoryInternal
}

// Common domain errors
var (
	ErrNotFound             = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists        = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput         = NewDomainError(CodeValidation, "Invalid input provided")
	ErrInvalidState         = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrConcurrencyConflict  = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrServiceCommunication = NewDomainError(CodeServiceCommunication, "Collaborating service is unavailable")
	ErrInternal             = NewDomainError(CodeInternal, "Internal error")
)
