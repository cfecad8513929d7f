package event_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"corebank/internal/event"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

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

type MockPublisher struct {
	mock.Mock
}

func (_m *MockPublisher) Publish(ctx context.Context, routingKey, eventID string, body []byte) error {
	ret := _m.Called(ctx, routingKey, eventID, body)
	return ret.Error(0)
}

func pendingMessage(id int64, eventID, routingKey string) *event.OutboxMessage {
	return &event.OutboxMessage{
		ID:         id,
		EventID:    eventID,
		RoutingKey: routingKey,
		Payload:    []byte(`{"eventId":"` + eventID + `"}`),
		Status:     event.OutboxStatusPending,
	}
}

func TestOutboxRelayRun(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes and marks each pending message", func(t *testing.T) {
		repo := new(MockOutboxRepository)
		pub := new(MockPublisher)
		relay := event.NewOutboxRelay(repo, pub, 0, 0, testLogger)

		msgs := []*event.OutboxMessage{
			pendingMessage(1, "evt-1", event.RoutingKeyAccountCreationRequested),
			pendingMessage(2, "evt-2", event.RoutingKeyLoanApproved),
		}

		repo.On("FetchPending", ctx, 50).Return(msgs, nil).Once()
		pub.On("Publish", ctx, msgs[0].RoutingKey, "evt-1", msgs[0].Payload).Return(nil).Once()
		pub.On("Publish", ctx, msgs[1].RoutingKey, "evt-2", msgs[1].Payload).Return(nil).Once()
		repo.On("MarkPublished", ctx, int64(1)).Return(nil).Once()
		repo.On("MarkPublished", ctx, int64(2)).Return(nil).Once()

		err := relay.Run(ctx)

		require.NoError(t, err)
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("publish failure leaves message pending and continues", func(t *testing.T) {
		repo := new(MockOutboxRepository)
		pub := new(MockPublisher)
		relay := event.NewOutboxRelay(repo, pub, 0, 0, testLogger)
		brokerErr := errors.New("broker unavailable")

		msgs := []*event.OutboxMessage{
			pendingMessage(1, "evt-1", event.RoutingKeyAccountCreationRequested),
			pendingMessage(2, "evt-2", event.RoutingKeyLoanApproved),
		}

		repo.On("FetchPending", ctx, 50).Return(msgs, nil).Once()
		pub.On("Publish", ctx, msgs[0].RoutingKey, "evt-1", msgs[0].Payload).Return(brokerErr).Once()
		repo.On("MarkFailed", ctx, int64(1)).Return(nil).Once()
		pub.On("Publish", ctx, msgs[1].RoutingKey, "evt-2", msgs[1].Payload).Return(nil).Once()
		repo.On("MarkPublished", ctx, int64(2)).Return(nil).Once()

		err := relay.Run(ctx)

		assert.ErrorIs(t, err, brokerErr)
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("no pending messages is a no-op", func(t *testing.T) {
		repo := new(MockOutboxRepository)
		pub := new(MockPublisher)
		relay := event.NewOutboxRelay(repo, pub, 0, 0, testLogger)

		repo.On("FetchPending", ctx, 50).Return(nil, nil).Once()

		require.NoError(t, relay.Run(ctx))
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("mark failure after publish is surfaced for redelivery", func(t *testing.T) {
		repo := new(MockOutboxRepository)
		pub := new(MockPublisher)
		relay := event.NewOutboxRelay(repo, pub, 0, 0, testLogger)
		markErr := errors.New("update failed")

		msgs := []*event.OutboxMessage{pendingMessage(1, "evt-1", event.RoutingKeyLoanApproved)}

		repo.On("FetchPending", ctx, 50).Return(msgs, nil).Once()
		pub.On("Publish", ctx, msgs[0].RoutingKey, "evt-1", msgs[0].Payload).Return(nil).Once()
		repo.On("MarkPublished", ctx, int64(1)).Return(markErr).Once()

		err := relay.Run(ctx)
		assert.ErrorIs(t, err, markErr)
	})
}

func TestNewOutboxMessage(t *testing.T) {
	env, err := event.NewLoanApproved(uuid.New(), uuid.New(), decimal.NewFromInt(10_000))
	require.NoError(t, err)

	msg, err := event.NewOutboxMessage(env, event.RoutingKeyLoanApproved)
	require.NoError(t, err)

	assert.Equal(t, env.EventID, msg.EventID)
	assert.Equal(t, event.OutboxStatusPending, msg.Status)
	assert.NotEmpty(t, msg.Payload)
}
