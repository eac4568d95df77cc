// Package services defines the business logic for letters, goals, and
// reflections. This file centralizes common service-level error values so
// that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer; mapping
// into the error taxonomy and HTTP responses is performed at the handler
// layer.
package services

import "errors"

// Letter-related errors.
var (
	// ErrLetterNotFound indicates that the requested letter does not exist
	// or is not accessible to the current user.
	ErrLetterNotFound = errors.New("letter not found")

	// ErrLetterSealed is returned when an operation requires a delivered
	// letter but the letter's delivery date has not elapsed.
	ErrLetterSealed = errors.New("letter has not been delivered yet")

	// ErrLetterAlreadyDelivered is returned when a pre-delivery operation
	// (content edit, reschedule) targets a letter already delivered.
	ErrLetterAlreadyDelivered = errors.New("letter already delivered")

	// ErrTooManyGoals is returned when a letter would exceed the per-letter
	// goal cap.
	ErrTooManyGoals = errors.New("a letter can hold at most 3 goals")
)

// Goal-related errors.
var (
	// ErrGoalNotFound indicates that the requested goal does not exist
	// within the given letter.
	ErrGoalNotFound = errors.New("goal not found")

	// ErrGoalTerminal is returned when a status transition is requested on
	// a goal whose current status permits no further transitions.
	ErrGoalTerminal = errors.New("goal status can no longer change")

	// ErrBadTransition is returned when the requested status transition is
	// not allowed by the goal lifecycle.
	ErrBadTransition = errors.New("goal status transition not allowed")

	// ErrCarryForwardPartial indicates the two-sided carry-forward link
	// could not be committed atomically. Surfaced as a distinguishable
	// failure rather than silently leaving a one-sided link.
	ErrCarryForwardPartial = errors.New("carry-forward link could not be completed")

	// ErrCarrySameLetter is returned when a carry-forward targets the goal's
	// own letter; the successor must live in a different letter.
	ErrCarrySameLetter = errors.New("goal must be carried into a different letter")
)
