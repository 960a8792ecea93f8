package core

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is against the typed errors below.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrPersistence  = errors.New("persistence error")
	ErrNotification = errors.New("notification error")
)

// ValidationError blocks a mutation entirely; state is left unchanged.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// PersistenceError reports that the in-memory state could not be written.
// The mutation that triggered the write has already been applied in memory.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func (e *PersistenceError) Unwrap() error { return e.Err }

// NotificationError is never fatal; callers log it and carry on.
type NotificationError struct {
	Title string
	Err   error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification %q: %v", e.Title, e.Err)
}

func (e *NotificationError) Is(target error) bool { return target == ErrNotification }

func (e *NotificationError) Unwrap() error { return e.Err }
