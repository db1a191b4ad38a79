package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a vocab error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrInvalidOutcome   ErrorCode = "INVALID_OUTCOME"   // 400, recovered by re-prompting
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrAlreadyExists    ErrorCode = "ALREADY_EXISTS"    // 409
	ErrCancelled        ErrorCode = "CANCELLED"         // 499
	ErrWriteFailed      ErrorCode = "WRITE_FAILED"      // 500
	ErrInternal         ErrorCode = "INTERNAL"          // 500
	ErrGenerationFailed ErrorCode = "GENERATION_FAILED" // 502
)

// VocabError represents a structured error with code, status, and details.
type VocabError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	// cause is the underlying error, if any. Not exposed to clients.
	cause error
}

// Error implements the error interface.
func (e *VocabError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause so errors.Is/As see through VocabError.
func (e *VocabError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *VocabError {
	return &VocabError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidOutcome creates a 400 error for a review outcome outside the accepted domain.
func NewInvalidOutcome(input string) *VocabError {
	return &VocabError{
		Code:    ErrInvalidOutcome,
		Status:  400,
		Message: fmt.Sprintf("invalid outcome %q: enter a number between 1 and 5", input),
		Details: map[string]any{"input": input},
	}
}

// NewNotFound creates a 404 error for when a card cannot be found.
func NewNotFound(word string) *VocabError {
	return &VocabError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("card not found: %s", word),
		Details: map[string]any{"word": word},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *VocabError {
	return &VocabError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewAlreadyExists creates a 409 error when a word is already in the vocabulary.
func NewAlreadyExists(word string) *VocabError {
	return &VocabError{
		Code:    ErrAlreadyExists,
		Status:  409,
		Message: fmt.Sprintf("word %q already exists in your vocabulary list", word),
		Details: map[string]any{"word": word},
	}
}

// NewCancelled creates a 499 error when an operation is cancelled.
func NewCancelled(op string) *VocabError {
	return &VocabError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
		Details: map[string]any{"operation": op},
	}
}

// NewWriteFailed creates a 500 error for a persistence failure on a card.
func NewWriteFailed(word string, err error) *VocabError {
	msg := fmt.Sprintf("failed to write card %q", word)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &VocabError{
		Code:    ErrWriteFailed,
		Status:  500,
		Message: msg,
		Details: map[string]any{"word": word},
		cause:   err,
	}
}

// NewGenerationFailed creates a 502 error when the content generator fails.
func NewGenerationFailed(reason string, err error) *VocabError {
	msg := reason
	if err != nil {
		msg = fmt.Sprintf("%s: %v", reason, err)
	}
	return &VocabError{
		Code:    ErrGenerationFailed,
		Status:  502,
		Message: msg,
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the original error goes to Details for logging.
func NewInternal(err error) *VocabError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &VocabError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
		cause:   err,
	}
}

// Is checks if err (or anything it wraps) is a VocabError with the given code.
func Is(err error, code ErrorCode) bool {
	var vErr *VocabError
	if stderrors.As(err, &vErr) {
		return vErr.Code == code
	}
	return false
}

// CodeOf returns the code of a VocabError, or ErrInternal for any other error.
func CodeOf(err error) ErrorCode {
	var vErr *VocabError
	if stderrors.As(err, &vErr) {
		return vErr.Code
	}
	return ErrInternal
}
