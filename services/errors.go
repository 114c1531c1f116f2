package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeConnection      ErrorType = "connection"
	ErrorTypeSchema          ErrorType = "schema"
	ErrorTypeNotReady        ErrorType = "not_ready"
	ErrorTypeEmbedding       ErrorType = "embedding"
	ErrorTypeCompletionParse ErrorType = "completion_parse"
	ErrorTypeTimeout         ErrorType = "timeout"
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeExternal        ErrorType = "external"
	ErrorTypeInternal        ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Connection errors (vector store or upstream API unreachable)
	ErrStoreUnreachable    = NewDomainError(ErrorTypeConnection, "vector store unreachable", nil)
	ErrDatabaseUnreachable = NewDomainError(ErrorTypeConnection, "feedback database unreachable", nil)

	// Schema errors (ingestion)
	ErrMissingRequiredField = NewDomainError(ErrorTypeSchema, "record is missing a required field", nil)
	ErrMalformedRecord      = NewDomainError(ErrorTypeSchema, "record does not match the expected schema", nil)

	// Readiness errors
	ErrCollectionNotReady = NewDomainError(ErrorTypeNotReady, "collection index not loaded", nil)

	// Embedding service errors
	ErrEmbeddingFailed      = NewDomainError(ErrorTypeEmbedding, "embedding service request failed", nil)
	ErrDimensionMismatch    = NewDomainError(ErrorTypeEmbedding, "embedding dimension mismatch", nil)
	ErrEmbeddingRateLimited = NewDomainError(ErrorTypeEmbedding, "embedding service rate limited", nil)

	// Completion errors
	ErrCompletionFailed = NewDomainError(ErrorTypeExternal, "completion service request failed", nil)
	ErrCompletionParse  = NewDomainError(ErrorTypeCompletionParse, "completion response could not be parsed", nil)

	// Validation errors
	ErrInvalidInput = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrEmptyText    = NewDomainError(ErrorTypeValidation, "text cannot be empty", nil)

	// Not found
	ErrFeedbackNotFound = NewDomainError(ErrorTypeNotFound, "feedback not found", nil)

	// Internal
	ErrInternal    = NewDomainError(ErrorTypeInternal, "internal error", nil)
	ErrUnknownTool = NewDomainError(ErrorTypeInternal, "model requested an unknown tool", nil)
)

// Error type checking helper functions

// IsConnectionError checks if an error is a connection error
func IsConnectionError(err error) bool {
	return GetErrorType(err) == ErrorTypeConnection
}

// IsSchemaError checks if an error is a schema error
func IsSchemaError(err error) bool {
	return GetErrorType(err) == ErrorTypeSchema
}

// IsNotReadyError checks if an error is a collection-not-ready error
func IsNotReadyError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotReady
}

// IsEmbeddingError checks if an error is an embedding service error
func IsEmbeddingError(err error) bool {
	return GetErrorType(err) == ErrorTypeEmbedding
}

// IsCompletionParseError checks if an error is a completion parse error
func IsCompletionParseError(err error) bool {
	return GetErrorType(err) == ErrorTypeCompletionParse
}

// IsTimeoutError checks if an error is a timeout error
func IsTimeoutError(err error) bool {
	return GetErrorType(err) == ErrorTypeTimeout
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsExternalError checks if an error is an external provider error
func IsExternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeExternal
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapConnection wraps an error as a connection error
func WrapConnection(message string, err error) error {
	return NewDomainError(ErrorTypeConnection, message, err)
}

// WrapEmbedding wraps an error as an embedding service error
func WrapEmbedding(message string, err error) error {
	return NewDomainError(ErrorTypeEmbedding, message, err)
}

// WrapExternal wraps an error as an external provider error
func WrapExternal(message string, err error) error {
	return NewDomainError(ErrorTypeExternal, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
