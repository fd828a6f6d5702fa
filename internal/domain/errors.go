package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	// ErrNotFound is returned when an operation targets an identity that
	// has never been seen by the identity store.
	ErrNotFound = errors.New("domain: not found")

	// ErrInvalidTransition is returned when an administrative action is not
	// valid from the member's current derived status.
	ErrInvalidTransition = errors.New("domain: invalid status transition")

	// ErrActionFailed is returned when an external platform side effect
	// failed or timed out. No event is recorded in that case.
	ErrActionFailed = errors.New("domain: platform action failed")

	// ErrStorageUnavailable is returned when the identity store or the
	// audit log is unreachable. The in-flight operation is aborted.
	ErrStorageUnavailable = errors.New("domain: storage unavailable")
)
