package domain

import "errors"

// Rejections are recoverable by the caller: the operation simply did not
// apply and no partial state was persisted. Callers match with errors.Is;
// services wrap these with fmt.Errorf("%w: ...") so every rejection
// carries the specific unmet condition.
var (
	// Lifecycle violations.
	ErrInvalidTransition = errors.New("invalid transition")

	// Condition report gate violations.
	ErrDuplicateReport  = errors.New("duplicate report")
	ErrPrematureReturn  = errors.New("premature return")
	ErrIncompleteReport = errors.New("incomplete report")

	// Escrow ledger violations.
	ErrAlreadyHeld             = errors.New("escrow already held")
	ErrReleaseBlocked          = errors.New("release blocked")
	ErrSettlementExceedsEscrow = errors.New("settlement exceeds escrow")

	// Extension negotiator violations.
	ErrExtensionAlreadyPending = errors.New("extension already pending")
	ErrInvalidExtensionDate    = errors.New("invalid extension date")

	// Dispute resolver violations.
	ErrAlreadyResolved = errors.New("dispute already resolved")

	// Availability store conflict.
	ErrDatesUnavailable = errors.New("dates unavailable")

	// ErrTxnSeen marks a replayed processor callback, detected by
	// transaction id before the rental lock is taken.
	ErrTxnSeen = errors.New("processor transaction already processed")

	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)
