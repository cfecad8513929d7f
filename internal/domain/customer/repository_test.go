package customer

import (
	"context"

	"corebank/internal/event"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

func (_m *MockRepository) Create(ctx context.Context, c *Customer) error {
	ret := _m.Called(ctx, c)
	return ret.Error(0)
}

func (_m *MockRepository) UpdateInTx(ctx context.Context, tx pgx.Tx, c *Customer) error {
	ret := _m.Called(ctx, tx, c)
	return ret.Error(0)
}

func (_m *MockRepository) FindByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	ret := _m.Called(ctx, id)

	var r0 *Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) FindByEmail(ctx context.Context, email string) (*Customer, error) {
	ret := _m.Called(ctx, email)

	var r0 *Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Customer)
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
