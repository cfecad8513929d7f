package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) Create(ctx context.Context, a *Account) error {
	ret := _m.Called(ctx, a)
	return ret.Error(0)
}

func (_m *MockRepository) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	ret := _m.Called(ctx, id)

	var r0 *Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Account)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID) (*Account, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Account)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) FindByAccountNumber(ctx context.Context, number int64) (*Account, error) {
	ret := _m.Called(ctx, number)

	var r0 *Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Account)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) CreditBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*Account, error) {
	ret := _m.Called(ctx, id, amount)

	var r0 *Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Account)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) DebitBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*Account, error) {
	ret := _m.Called(ctx, id, amount)

	var r0 *Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Account)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) CreditBalanceGuarded(ctx context.Context, id uuid.UUID, amount decimal.Decimal, eventID, operation string) (*Account, error) {
	ret := _m.Called(ctx, id, amount, eventID, operation)

	var r0 *Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Account)
	}
	return r0, ret.Error(1)
}
