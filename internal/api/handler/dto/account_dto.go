package dto

import (
	"fmt"
	"strconv"
	"time"

	"corebank/internal/domain/account"

	"github.com/shopspring/decimal"
)

type BalanceOperationRequest struct {
	Amount string `json:"amount"`
}

func (r *BalanceOperationRequest) Validate() error {
	amt, err := decimal.NewFromString(r.Amount)
	if err != nil || r.Amount == "" {
		return fmt.Errorf("invalid amount: %v", err)
	}
	if !amt.IsPositive() {
		return fmt.Errorf("amount must be greater than zero")
	}
	return nil
}

func (r *BalanceOperationRequest) AmountDecimal() decimal.Decimal {
	amt, _ := decimal.NewFromString(r.Amount)
	return amt
}

type AccountResponse struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customerId"`
	AccountNumber string    `json:"accountNumber"`
	Balance       string    `json:"balance"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func NewAccountResponse(a *account.Account) AccountResponse {
	return AccountResponse{
		ID:            a.ID.String(),
		CustomerID:    a.CustomerID.String(),
		AccountNumber: strconv.FormatInt(a.AccountNumber, 10),
		Balance:       a.Balance.StringFixed(2),
		Currency:      a.Currency,
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}
