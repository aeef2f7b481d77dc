package ledger

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by single-record reads for an unknown id.
var ErrNotFound = errors.New("not found")

// ValidationError rejects form input before it reaches the ledger.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
