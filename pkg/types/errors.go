package types

import (
	"errors"
	"fmt"
)

// Storage errors.
var (
	ErrStorageFailure = errors.New("storage failure")
	ErrQuotaExceeded  = errors.New("storage quota exceeded")
)

// Validation errors.
var (
	ErrInvalidName   = errors.New("name must not be empty")
	ErrInvalidStatus = errors.New("invalid task status")
	ErrInvalidID     = errors.New("invalid entity ID")
	ErrUnknownKind   = errors.New("unknown entity kind")
)

// Operations reported by OpError.
const (
	OpFetch  = "fetch"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// OpError reports a failed repository operation. Its message names the
// operation and the entity kind so a UI can show it verbatim.
type OpError struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }
