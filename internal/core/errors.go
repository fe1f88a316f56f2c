package core

import (
	"errors"
	"fmt"
)

// Validation errors, rejected before any write reaches the store.
var (
	ErrMissingDate     = errors.New("transaction date is required")
	ErrInvalidAmount   = errors.New("amount must be a finite number greater than zero")
	ErrMissingCategory = errors.New("transaction catId is required")
	ErrUnknownCategory = errors.New("unknown category")
	ErrEmptyName       = errors.New("category name cannot be empty")
)

// ErrNotFound marks operations on ids absent from the store. Callers match
// it with errors.Is; the wrapped message names the offending id.
var ErrNotFound = errors.New("not found")

// ConflictError is returned when a category delete is blocked by dependent
// transactions and force was not set.
type ConflictError struct {
	CategoryID   string
	CategoryName string
	Dependents   int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("category %q has %d dependent transaction(s); delete with force to cascade", e.CategoryName, e.Dependents)
}

// MalformedBackupError rejects an import payload before anything is written.
type MalformedBackupError struct {
	Reason string
}

func (e *MalformedBackupError) Error() string {
	return "malformed backup: " + e.Reason
}
