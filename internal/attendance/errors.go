package attendance

import "errors"

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrAccountSuspended = errors.New("account suspended")
	ErrAccountJobless   = errors.New("account has no job assignment")

	// ErrEarlyTimeout is a confirmable warning, not a hard failure: the
	// session stays open and the caller is expected to resubmit the
	// punch with the force flag.
	ErrEarlyTimeout = errors.New("timing out too early, confirmation required")

	ErrSessionNotFound    = errors.New("session not found")
	ErrAdjustmentNotFound = errors.New("adjustment not found")
	ErrNoFields           = errors.New("no fields to update")

	// ErrNotStudent guards time adjustments, which target student
	// accounts only.
	ErrNotStudent = errors.New("adjustments can only be made for student accounts")
)
