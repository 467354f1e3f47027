package budget

import "errors"

var (
	// ErrNotFound covers missing budget items, periods and statistics rows.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller is not a registered DRep.
	ErrForbidden = errors.New("only DReps can vote on budget items")

	// ErrInvalidVote is returned when a proposed amount fails the
	// minimum-threshold check.
	ErrInvalidVote = errors.New("proposed amount does not meet minimum threshold requirements")

	// ErrUpstream is returned when the transaction submission collaborator
	// fails. No vote state has been written when this is returned.
	ErrUpstream = errors.New("transaction submission failed")

	// ErrNoActivePeriod is returned when an operation needs the active
	// budget period and none exists.
	ErrNoActivePeriod = errors.New("no active budget period found")
)
