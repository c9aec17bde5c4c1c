package domain

import (
	"strings"

	apperrors "github.com/ecomgo/reviews/pkg/errors"
)

// ReviewErrorCode is reported to clients for field-level failures.
type ReviewErrorCode string

const (
	CodeAlreadyExists            ReviewErrorCode = "ALREADY_EXISTS"
	CodeDuplicatedInputItem      ReviewErrorCode = "DUPLICATED_INPUT_ITEM"
	CodeInvalid                  ReviewErrorCode = "INVALID"
	CodeNotFound                 ReviewErrorCode = "NOT_FOUND"
	CodeNotOwner                 ReviewErrorCode = "NOT_OWNER"
	CodeNotApproved              ReviewErrorCode = "NOT_APPROVED"
	CodeRequired                 ReviewErrorCode = "REQUIRED"
	CodeUnsupportedMediaProvider ReviewErrorCode = "UNSUPPORTED_MEDIA_PROVIDER"
)

// FieldError is one input problem tied to a field name.
type FieldError struct {
	Field   string
	Code    ReviewErrorCode
	Message string
}

// ValidationError carries every field error found while validating one
// mutation input.
type ValidationError struct {
	Errors []FieldError
}

// NewValidationError returns a ValidationError holding errs.
func NewValidationError(errs ...FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// FieldErr builds a single-field ValidationError.
func FieldErr(field string, code ReviewErrorCode, message string) *ValidationError {
	return NewValidationError(FieldError{Field: field, Code: code, Message: message})
}

// Add appends a field error.
func (e *ValidationError) Add(field string, code ReviewErrorCode, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Code: code, Message: message})
}

// HasErrors reports whether any field error was recorded.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match apperrors.ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidInput
}
