package entity

import "errors"

// Domain error taxonomy. Lifecycle violations are caller bugs and are
// never silently corrected; resolver "not yet" conditions are return
// values, not errors, and do not appear here.
var (
	// ErrInvalidPrediction rejects malformed input at the boundary,
	// before anything is persisted.
	ErrInvalidPrediction = errors.New("invalid prediction")

	// ErrInvalidTransition guards the pending -> resolved -> scored
	// order; transitions never move backward.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotYetResolved is returned when scoring is attempted on a
	// prediction that is still pending.
	ErrNotYetResolved = errors.New("prediction not yet resolved")

	// ErrPredictionNotFound is returned for unknown prediction ids.
	ErrPredictionNotFound = errors.New("prediction not found")

	// ErrUnknownUser means no stats row exists for the user. Distinct
	// from a user with zero predictions, whose row holds all zeros.
	ErrUnknownUser = errors.New("unknown user")

	// ErrUnknownScript means the referenced script does not exist or
	// belongs to a different user.
	ErrUnknownScript = errors.New("unknown script")
)
