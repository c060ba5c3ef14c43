package domain

import "fmt"

// ErrNotFound is returned when an operation targets an entity absent from the
// store, such as renaming an unknown team or removing a member that is not on
// the roster.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ErrInvalidArgument is returned for malformed requests: a reorder with a
// mismatched member set, or a non-positive creature id.
type ErrInvalidArgument struct {
	Reason string
}

func (e ErrInvalidArgument) Error() string {
	return fmt.Sprintf("invalid argument: %s", e.Reason)
}

// StoreFailure wraps an underlying persistence error. It is fatal to the
// operation but not to the process; unrelated operations remain usable.
type StoreFailure struct {
	Op  string
	Err error
}

func (e StoreFailure) Error() string {
	return fmt.Sprintf("store failure in %s: %v", e.Op, e.Err)
}

func (e StoreFailure) Unwrap() error { return e.Err }
