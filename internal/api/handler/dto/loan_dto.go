package dto

import (
	"fmt"
	"time"

	"corebank/internal/domain/loan"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ApplyLoanRequest struct {
	AccountID    string `json:"accountId"`
	Amount       string `json:"amount"`
	TenureMonths int    `json:"tenureMonths"`
}

func (r *ApplyLoanRequest) Validate() error {
	if _, err := uuid.Parse(r.AccountID); err != nil {
		return fmt.Errorf("invalid accountId: %w", err)
	}
	amt, err := decimal.NewFromString(r.Amount)
	if err != nil || r.Amount == "" {
		return fmt.Errorf("invalid amount: %v", err)
	}
	if !amt.IsPositive() {
		return fmt.Errorf("amount must be greater than zero")
	}
	if r.TenureMonths <= 0 {
		return fmt.Errorf("tenureMonths must be positive")
	}
	return nil
}

func (r *ApplyLoanRequest) AccountUUID() uuid.UUID {
	id, _ := uuid.Parse(r.AccountID)
	return id
}

func (r *ApplyLoanRequest) AmountDecimal() decimal.Decimal {
	amt, _ := decimal.NewFromString(r.Amount)
	return amt
}

type LoanResponse struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"accountId"`
	Amount       string    `json:"amount"`
	TenureMonths int       `json:"tenureMonths"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

func NewLoanResponse(l *loan.Loan) LoanResponse {
	return LoanResponse{
		ID:           l.ID.String(),
		AccountID:    l.AccountID.String(),
		Amount:       l.Amount.StringFixed(2),
		TenureMonths: l.TenureMonths,
		Status:       string(l.Status),
		CreatedAt:    l.CreatedAt,
	}
}
