package services

import "errors"

// Engine error taxonomy. Only ErrNoLocationsAvailable is surfaced to the
// caller that attempted the operation; the rest are expected, recoverable
// conditions handled locally.
var (
	// ErrNoLocationsAvailable aborts match creation: a content problem
	// that needs operator attention.
	ErrNoLocationsAvailable = errors.New("no locations available")

	// ErrPlayerNotFound — silently dropped by the scheduler, silently
	// ignored by the elo calculator.
	ErrPlayerNotFound = errors.New("player not found")

	// ErrMatchNotStarted — guess arrived during the pending window before
	// the delayed start transition; clients just retry after match_ready.
	ErrMatchNotStarted = errors.New("match has not started")

	// ErrAlreadyFinished — idempotency guard fired; never an error to log.
	ErrAlreadyFinished = errors.New("round already finished")

	// ErrUnauthorized — guess submission from a non-participant.
	ErrUnauthorized = errors.New("player is not part of this match")

	ErrMatchNotFound = errors.New("match not found")
	ErrRoundNotFound = errors.New("round not found")
)
