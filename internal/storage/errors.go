package storage

import "fmt"

// NotFoundError signals an unknown id on get/update/delete/resolve.
type NotFoundError struct {
	Kind string // "knowledge entry" or "help request"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ValidationError signals a missing or malformed required field.
// Surfaced to the caller as a rejected request, never retried automatically.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// InvalidStateTransitionError signals an attempt to resolve a help request
// that is no longer pending. Both resolved and unresolved are terminal.
type InvalidStateTransitionError struct {
	ID   string
	From HelpRequestStatus
	To   HelpRequestStatus
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("help request %s: illegal transition %s -> %s", e.ID, e.From, e.To)
}
