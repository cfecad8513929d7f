package loan

import (
	"fmt"
	"time"

	"corebank/internal/domain/account"
	"corebank/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MinTenureMonths = 1
	MaxTenureMonths = 60
)

type Status string

// Rejection is surfaced as a request failure, never stored, so Approved is
// the only persisted status.
const StatusApproved Status = "APPROVED"

type Loan struct {
	ID           uuid.UUID
	AccountID    uuid.UUID
	Amount       decimal.Decimal
	TenureMonths int
	Status       Status
	CreatedAt    time.Time
}

func NewLoan(accountID uuid.UUID, amount decimal.Decimal, tenureMonths int) (*Loan, error) {
	if accountID == uuid.Nil {
		return nil, fmt.Errorf("%w: account id cannot be empty", apperrors.ErrInvalidInput)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: loan amount must be greater than zero", apperrors.ErrInvalidInput)
	}
	return &Loan{
		ID:           uuid.New(),
		AccountID:    accountID,
		Amount:       amount,
		TenureMonths: tenureMonths,
		Status:       StatusApproved,
		CreatedAt:    time.Now(),
	}, nil
}

// EligibilityPolicy holds the configured thresholds a loan application is
// gated on. Values come from configuration, never from code.
type EligibilityPolicy struct {
	MinFundLimit decimal.Decimal
	MinAmount    decimal.Decimal
	MaxAmount    decimal.Decimal
}

func NewEligibilityPolicy(minFundLimit, minAmount, maxAmount float64) EligibilityPolicy {
	return EligibilityPolicy{
		MinFundLimit: decimal.NewFromFloat(minFundLimit),
		MinAmount:    decimal.NewFromFloat(minAmount),
		MaxAmount:    decimal.NewFromFloat(maxAmount),
	}
}

// Evaluate is the pure eligibility decision. Every violation carries a typed
// reason so callers and API clients can tell which threshold failed.
func (p EligibilityPolicy) Evaluate(acct *account.Account, amount decimal.Decimal, tenureMonths int) error {
	if !acct.CanTransact() {
		return apperrors.NewIneligibilityError(apperrors.ReasonAccountInactive,
			fmt.Sprintf("account %s is not active", acct.ID))
	}
	if acct.Balance.LessThan(p.MinFundLimit) {
		return apperrors.NewIneligibilityError(apperrors.ReasonInsufficientFunding,
			fmt.Sprintf("account must be funded with at least %s %s", acct.Currency, p.MinFundLimit.StringFixed(2)))
	}
	if amount.LessThan(p.MinAmount) {
		return apperrors.NewIneligibilityError(apperrors.ReasonAmountBelowMinimum,
			fmt.Sprintf("loan amount must be at least %s %s", acct.Currency, p.MinAmount.StringFixed(2)))
	}
	if amount.GreaterThan(p.MaxAmount) {
		return apperrors.NewIneligibilityError(apperrors.ReasonAmountAboveMaximum,
			fmt.Sprintf("loan amount must not exceed %s %s", acct.Currency, p.MaxAmount.StringFixed(2)))
	}
	if tenureMonths < MinTenureMonths || tenureMonths > MaxTenureMonths {
		return apperrors.NewIneligibilityError(apperrors.ReasonTenureOutOfRange,
			fmt.Sprintf("tenure must be between %d and %d months", MinTenureMonths, MaxTenureMonths))
	}
	return nil
}
