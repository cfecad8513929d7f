package account

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"corebank/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Account is the ledger's unit of state. Balance is a fixed-point decimal and
// never goes negative; all mutation goes through the ledger service, which
// serializes per account at the repository boundary.
type Account struct {
	ID            uuid.UUID
	CustomerID    uuid.UUID
	AccountNumber int64
	Balance       decimal.Decimal
	Currency      string
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewAccount(customerID uuid.UUID, currency string) (*Account, error) {
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("%w: customer id cannot be empty", apperrors.ErrInvalidInput)
	}
	if currency == "" {
		return nil, fmt.Errorf("%w: currency cannot be empty", apperrors.ErrInvalidInput)
	}

	number, err := GenerateAccountNumber()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate account number: %v", apperrors.ErrInternalServer, err)
	}

	now := time.Now()
	return &Account{
		ID:            uuid.New(),
		CustomerID:    customerID,
		AccountNumber: number,
		Balance:       decimal.Zero,
		Currency:      currency,
		Status:        StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (a *Account) CanTransact() bool {
	return a.Status == StatusActive
}

// GenerateAccountNumber returns a random 10-digit number, independent of the
// customer identity.
func GenerateAccountNumber() (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9_000_000_000))
	if err != nil {
		return 0, err
	}
	return 1_000_000_000 + n.Int64(), nil
}
