package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the operation conflicts with the current state,
// e.g. a second regeneration run while one is already holding the lock.
var ErrConflict = errors.New("conflict with current state")

// ErrInternal is returned when an unexpected failure must not leak details to callers.
var ErrInternal = errors.New("internal error")

// ErrImbalance indicates that a journal entry's debits and credits differ.
var ErrImbalance = errors.New("journal entry is unbalanced")

// ErrChecksum indicates that a transaction's stated total does not match the sum of its details.
var ErrChecksum = errors.New("checksum mismatch")

// ErrAccountMissing indicates that a well-known account was needed but never found.
var ErrAccountMissing = errors.New("required account is missing")

// ErrUnflushedBatch indicates that a batch was closed while entries or line items were still pending.
var ErrUnflushedBatch = errors.New("batch closed with unflushed work")

// AppError carries an HTTP-ish status code alongside the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}
