package lifecycle

import (
	"errors"
	"fmt"
)

// ValidationError covers recoverable input problems: a missing mandatory
// memo, a non-positive payment amount, a duplicate customer reference.
// Nothing is mutated when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// InvalidTransitionError signals an action attempted from a state that
// does not permit it.
type InvalidTransitionError struct {
	From   Status
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s not allowed from %s", e.Action, e.From)
}

// ErrConcurrencyConflict is returned when the version precondition on a
// transition no longer matches; the caller should refetch and retry.
var ErrConcurrencyConflict = errors.New("order modified concurrently")

// ErrNotFound is returned when the referenced order or account does not
// exist.
var ErrNotFound = errors.New("not found")

// PersistenceError wraps a failure of the external store. Surfaced as-is;
// no implicit retry happens here.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// CheckVersion enforces the optimistic precondition on a transition:
// expected is the version the caller read, or -1 to skip the check.
// Two writers racing on the same pre-read state cannot both pass, so a
// stale payment posting is rejected instead of double-applied.
func CheckVersion(o *Order, expected int) error {
	if expected >= 0 && o.Version != expected {
		return ErrConcurrencyConflict
	}
	return nil
}

func invalidTransition(from Status, action string) error {
	return &InvalidTransitionError{From: from, Action: action}
}

func missingMemo(action string) error {
	return &ValidationError{Field: "memo", Reason: "required for " + action}
}
