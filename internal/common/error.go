// Package common defines sentinel errors and constants shared by the
// task store, scheduling engine, timezone registry and command surfaces.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Input validation errors, rejected before any store mutation.
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidTimezone = errors.New("invalid timezone")
	ErrEmptyName       = errors.New("task name must not be empty")
	ErrInvalidTaskID   = errors.New("invalid task id")

	// Selection errors.
	ErrNoTasks = errors.New("no tasks")

	// Assignment handshake errors.
	ErrSelfAssignment    = errors.New("cannot give a task to yourself")
	ErrNotRecipient      = errors.New("only the recipient can decide on an assignment")
	ErrAssignmentClosed  = errors.New("assignment already decided")
	ErrAssignmentExpired = errors.New("assignment expired")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
)
