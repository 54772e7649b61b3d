package models

import "fmt"

// DuplicatePendingError is returned by the store when a pending record already
// exists for the same owner, problem and cycle.
type DuplicatePendingError struct {
	OwnerID   string
	ProblemID string
	Cycle     Cycle
}

func (e *DuplicatePendingError) Error() string {
	return fmt.Sprintf("pending revision already exists (owner_id: %s, problem_id: %s, cycle: %s)", e.OwnerID, e.ProblemID, e.Cycle)
}

// AlreadyScheduledError is returned by opt-in when the problem is already on the schedule.
type AlreadyScheduledError struct {
	OwnerID   string
	ProblemID string
	Err       error
}

func (e *AlreadyScheduledError) Error() string {
	return fmt.Sprintf("already marked for revision (owner_id: %s, problem_id: %s)", e.OwnerID, e.ProblemID)
}

func (e *AlreadyScheduledError) Unwrap() error {
	return e.Err
}

// NotFoundError means the entity does not exist or is not owned by OwnerID.
type NotFoundError struct {
	Entity  string
	ID      string
	OwnerID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found (id: %s, owner_id: %s)", e.Entity, e.ID, e.OwnerID)
}
