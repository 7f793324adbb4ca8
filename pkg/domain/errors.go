package domain

import (
	"errors"
	"fmt"
)

// NotFoundError reports a reference to a nonexistent entity.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// DuplicateIdentityError reports an id collision on insert.
type DuplicateIdentityError struct {
	Entity EntityType
	ID     string
}

func (e DuplicateIdentityError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Entity, e.ID)
}

// InvalidReferenceError reports a foreign-key-style reference to an absent
// contributor or lighthouse.
type InvalidReferenceError struct {
	Entity EntityType
	ID     string
	Field  string
	Ref    string
}

func (e InvalidReferenceError) Error() string {
	return fmt.Sprintf("%s %s references missing %s %q", e.Entity, e.ID, e.Field, e.Ref)
}

// AlreadyDistributedError reports an attempt to distribute a meal that has
// already reached its terminal state, preventing double-crediting.
type AlreadyDistributedError struct {
	MealID string
}

func (e AlreadyDistributedError) Error() string {
	return fmt.Sprintf("meal %s already distributed", e.MealID)
}

// PersistenceError reports a failed snapshot write. The in-memory mutation is
// retained; the running session stays authoritative for its remainder.
type PersistenceError struct {
	Backend string
	Err     error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("persist snapshot to %s: %v", e.Backend, e.Err)
}

// Unwrap exposes the underlying backend error.
func (e PersistenceError) Unwrap() error { return e.Err }

// ErrLocationUnavailable signals a best-effort geo lookup failed or was
// denied. Callers recover by falling back to unordered facility listing.
var ErrLocationUnavailable = errors.New("location unavailable")

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
