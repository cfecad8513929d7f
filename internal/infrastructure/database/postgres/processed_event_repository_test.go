package postgres

import (
	"context"
	"errors"
	"testing"

	"corebank/internal/idempotency"
	"corebank/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
)

func setupProcessedEventRepo(t *testing.T) (context.Context, *ProcessedEventRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool := newMockPool(t)
	return context.Background(), NewProcessedEventRepository(mockPool, logger), mockPool
}

func TestTryBeginAdmitsFirstClaim(t *testing.T) {
	ctx, repo, mockPool := setupProcessedEventRepo(t)
	defer mockPool.Close()
	eventID := uuid.NewString()

	mockPool.ExpectExec("INSERT INTO processed_events").
		WithArgs(eventID, idempotency.OpCreateAccount).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	status, err := repo.TryBegin(ctx, eventID, idempotency.OpCreateAccount)
	assert.NoError(t, err)
	assert.Equal(t, idempotency.StatusAdmitted, status)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestTryBeginReportsDuplicateClaim(t *testing.T) {
	ctx, repo, mockPool := setupProcessedEventRepo(t)
	defer mockPool.Close()
	eventID := uuid.NewString()

	mockPool.ExpectExec("INSERT INTO processed_events").
		WithArgs(eventID, idempotency.OpCreateAccount).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	status, err := repo.TryBegin(ctx, eventID, idempotency.OpCreateAccount)
	assert.NoError(t, err)
	assert.Equal(t, idempotency.StatusAlreadyProcessed, status)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestTryBeginDBErrorIsTransient(t *testing.T) {
	ctx, repo, mockPool := setupProcessedEventRepo(t)
	defer mockPool.Close()
	eventID := uuid.NewString()

	mockPool.ExpectExec("INSERT INTO processed_events").
		WithArgs(eventID, idempotency.OpCreateAccount).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.TryBegin(ctx, eventID, idempotency.OpCreateAccount)
	assert.ErrorIs(t, err, apperrors.ErrTransient)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestReleaseDeletesClaim(t *testing.T) {
	ctx, repo, mockPool := setupProcessedEventRepo(t)
	defer mockPool.Close()
	eventID := uuid.NewString()

	mockPool.ExpectExec("DELETE FROM processed_events").
		WithArgs(eventID, idempotency.OpCreateAccount).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(t, repo.Release(ctx, eventID, idempotency.OpCreateAccount))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
