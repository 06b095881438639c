package workflow

import "errors"

var (
	// ErrRequestAlreadyTerminal is returned for any action on an approved or rejected request.
	ErrRequestAlreadyTerminal = errors.New("request already terminal")

	// ErrStageMismatch is returned when the action targets a stage that is not pending.
	ErrStageMismatch = errors.New("stage is not pending")

	// ErrInvalidStage is returned for names outside the four approval stages.
	ErrInvalidStage = errors.New("invalid stage")

	// ErrInvalidAction is returned for decisions other than approve and reject.
	ErrInvalidAction = errors.New("invalid action")

	// ErrInvariantViolation flags a stored request whose stage statuses are inconsistent.
	ErrInvariantViolation = errors.New("outpass invariant violated")
)
