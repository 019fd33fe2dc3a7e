package booking

import (
	"errors"
	"fmt"
)

// ValidationError rejects malformed input synchronously, before any
// persistence or oracle calls, with a field-level reason.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// IsValidationError reports whether err is a field-level rejection.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StorageTransactionError fails an entire recurring-creation call. The
// transaction rolled back, no partial rows persist, and the caller may retry.
type StorageTransactionError struct {
	Err error
}

func (e *StorageTransactionError) Error() string {
	return fmt.Sprintf("storage transaction failed: %v", e.Err)
}

func (e *StorageTransactionError) Unwrap() error { return e.Err }

// ErrSeriesInFlightTimeout is returned when another caller holds the creation
// lock for the same idempotency key and its result did not appear in time.
var ErrSeriesInFlightTimeout = errors.New("series creation for this key is in flight; retry shortly")
