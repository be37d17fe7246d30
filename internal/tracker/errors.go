package tracker

import "fmt"

// ConflictError is returned when starting or resuming would create a
// second open interval in the same scope. ProjectID names the project
// that currently holds the open session so callers can surface it.
type ConflictError struct {
	ProjectID int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("project %d already has an open session", e.ProjectID)
}

// NotFoundError is returned when a referenced record does not exist or
// does not belong to the caller. Ownership failures are deliberately
// indistinguishable from non-existence.
type NotFoundError struct {
	Resource string
	ID       int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// ValidationError is returned when an operation would produce a
// structurally invalid interval, e.g. a closed interval whose end does
// not come after its start.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
