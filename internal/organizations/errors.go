package organizations

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned when the organization id does not exist.
var ErrNotFound = errors.New("organization not found")

// ValidationError carries per-field messages for a 400 response.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field(s)", len(e.Fields))
}

// ConflictError signals a duplicate organization name and carries the id of
// the existing row for client-side disambiguation.
type ConflictError struct {
	ExistingID uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("organization name already in use by %s", e.ExistingID)
}
