// Package ledger defines the failure taxonomy shared by the service layer
// and its callers. Every core operation fails with one of these sentinels
// (usually wrapped with context via fmt.Errorf and %w), so callers can map
// outcomes with errors.Is.
package ledger

import "errors"

var (
	// ErrValidation marks malformed input: non-positive amount, empty
	// participant set, payer missing from participants.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an unknown bill, user, settlement or receipt id.
	ErrNotFound = errors.New("not found")

	// ErrNotParticipant marks an operation targeting a user who is not
	// on the bill.
	ErrNotParticipant = errors.New("not a participant")

	// ErrPermission marks a payer-only mutation attempted by someone else.
	ErrPermission = errors.New("permission denied")

	// ErrConsistency marks internal inconsistencies, e.g. a settlement
	// referencing a user no longer on the bill. Aggregation skips these
	// rather than failing.
	ErrConsistency = errors.New("ledger inconsistency")
)
