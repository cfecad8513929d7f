package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository owns account persistence. Balance mutations are single atomic
// read-modify-write rounds: the implementation must lock the account row (or
// equivalent) for the duration of the check-and-update, so concurrent
// operations on one account are linearized and operations on different
// accounts proceed in parallel.
type Repository interface {
	Create(ctx context.Context, account *Account) error

	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)

	FindByCustomerID(ctx context.Context, customerID uuid.UUID) (*Account, error)

	FindByAccountNumber(ctx context.Context, number int64) (*Account, error)

	CreditBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*Account, error)

	DebitBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*Account, error)

	// CreditBalanceGuarded additionally claims (eventID, operation) in the
	// processed-events table inside the same transaction as the balance
	// update, so a crash cannot separate the dedup marker from the credit.
	// Returns apperrors.ErrAlreadyProcessed when the claim already exists.
	CreditBalanceGuarded(ctx context.Context, id uuid.UUID, amount decimal.Decimal, eventID, operation string) (*Account, error)
}
