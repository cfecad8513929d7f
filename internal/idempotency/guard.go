// Package idempotency is the shared dedup mechanism for event consumers.
// The event channel only guarantees at-least-once delivery, so every consumer
// with an external side effect claims (eventID, operation) through the guard
// before applying it.
package idempotency

import "context"

// Operation names used as the second half of the dedup key.
const (
	OpCreateAccount = "create-account"
	OpCreditLoan    = "credit-loan"
)

type Status int

const (
	StatusAdmitted Status = iota + 1
	StatusAlreadyProcessed
)

func (s Status) String() string {
	switch s {
	case StatusAdmitted:
		return "admitted"
	case StatusAlreadyProcessed:
		return "already_processed"
	default:
		return "unknown"
	}
}

// Guard records which (eventID, operation) pairs have been applied. TryBegin
// is atomic against concurrent deliveries of the same event id: exactly one
// caller is admitted, all others see StatusAlreadyProcessed. If the backing
// store is unavailable the error wraps apperrors.ErrTransient and the caller
// must fail the delivery rather than apply the effect unguarded.
type Guard interface {
	TryBegin(ctx context.Context, eventID, operation string) (Status, error)

	// Release gives the claim back after a retryable effect failure so a
	// redelivery can try again.
	Release(ctx context.Context, eventID, operation string) error
}
