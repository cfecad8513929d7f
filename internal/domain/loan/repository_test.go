package loan

import (
	"context"

	"corebank/internal/domain/account"
	"corebank/internal/event"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	ret := _m.Called(ctx)

	var r0 pgx.Tx
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(pgx.Tx)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	ret := _m.Called(ctx, tx)
	return ret.Error(0)
}

func (_m *MockRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	ret := _m.Called(ctx, tx)
	return ret.Error(0)
}

func (_m *MockRepository) CreateInTx(ctx context.Context, tx pgx.Tx, l *Loan) error {
	ret := _m.Called(ctx, tx, l)
	return ret.Error(0)
}

func (_m *MockRepository) FindByID(ctx context.Context, id uuid.UUID) (*Loan, error) {
	ret := _m.Called(ctx, id)

	var r0 *Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID) ([]*Loan, error) {
	ret := _m.Called(ctx, accountID)

	var r0 []*Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Loan)
	}
	return r0, ret.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (_m *MockLedger) CreateAccount(ctx context.Context, customerID uuid.UUID) (*account.Account, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *account.Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*account.Account)
	}
	return r0, ret.Error(1)
}

func (_m *MockLedger) Credit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*account.Account, error) {
	ret := _m.Called(ctx, accountID, amount)

	var r0 *account.Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*account.Account)
	}
	return r0, ret.Error(1)
}

func (_m *MockLedger) Debit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*account.Account, error) {
	ret := _m.Called(ctx, accountID, amount)

	var r0 *account.Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*account.Account)
	}
	return r0, ret.Error(1)
}

func (_m *MockLedger) ApplyLoanCredit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, eventID string) (*account.Account, error) {
	ret := _m.Called(ctx, accountID, amount, eventID)

	var r0 *account.Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*account.Account)
	}
	return r0, ret.Error(1)
}

func (_m *MockLedger) GetAccount(ctx context.Context, accountID uuid.UUID) (*account.Account, error) {
	ret := _m.Called(ctx, accountID)

	var r0 *account.Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*account.Account)
	}
	return r0, ret.Error(1)
}

func (_m *MockLedger) GetAccountByCustomer(ctx context.Context, customerID uuid.UUID) (*account.Account, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *account.Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*account.Account)
	}
	return r0, ret.Error(1)
}

func (_m *MockLedger) GetAccountByNumber(ctx context.Context, number int64) (*account.Account, error) {
	ret := _m.Called(ctx, number)

	var r0 *account.Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*account.Account)
	}
	return r0, ret.Error(1)
}

type MockOutboxRepository struct {
	mock.Mock
}

func (_m *MockOutboxRepository) EnqueueInTx(ctx context.Context, tx pgx.Tx, msg *event.OutboxMessage) error {
	ret := _m.Called(ctx, tx, msg)
	return ret.Error(0)
}

func (_m *MockOutboxRepository) FetchPending(ctx context.Context, limit int) ([]*event.OutboxMessage, error) {
	ret := _m.Called(ctx, limit)

	var r0 []*event.OutboxMessage
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*event.OutboxMessage)
	}
	return r0, ret.Error(1)
}

func (_m *MockOutboxRepository) MarkPublished(ctx context.Context, id int64) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

func (_m *MockOutboxRepository) MarkFailed(ctx context.Context, id int64) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}
