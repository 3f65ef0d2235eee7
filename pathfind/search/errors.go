package search

import "errors"

var (
	// ErrInvalidBounds is returned for coordinates or dimensions outside the grid.
	ErrInvalidBounds = errors.New("invalid bounds")
	// ErrStartEqualsGoal is returned when a search is constructed with identical endpoints.
	ErrStartEqualsGoal = errors.New("start equals goal")
	// ErrIllegalStateTransition is returned when an operation is not valid in the current state.
	ErrIllegalStateTransition = errors.New("illegal state transition")
	// ErrInternalInvariantViolation signals a logic defect, e.g. a broken parent chain.
	ErrInternalInvariantViolation = errors.New("internal invariant violation")
	// ErrDuplicateInsert is returned by Frontier.Insert for an existing member.
	ErrDuplicateInsert = errors.New("duplicate frontier insert")
	// ErrEndpointIsWall is returned by Start when the start or goal cell is a wall.
	ErrEndpointIsWall = errors.New("start or goal is a wall")
)
