package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"corebank/internal/idempotency"
	"corebank/internal/pkg/apperrors"
)

// ProcessedEventRepository backs the idempotency guard with a unique
// (event_id, operation) table. TryBegin is a single INSERT ... ON CONFLICT DO
// NOTHING round trip, atomic against concurrent claims by construction.
type ProcessedEventRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ idempotency.Guard = (*ProcessedEventRepository)(nil)

func NewProcessedEventRepository(db DBPool, logger *slog.Logger) *ProcessedEventRepository {
	return &ProcessedEventRepository{db: db, logger: logger.With("component", "ProcessedEventRepository")}
}

func (r *ProcessedEventRepository) TryBegin(ctx context.Context, eventID, operation string) (idempotency.Status, error) {
	sql := `
        INSERT INTO processed_events (event_id, operation, processed_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (event_id, operation) DO NOTHING`

	tag, err := r.db.Exec(ctx, sql, eventID, operation)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to claim event", "error", err, "event_id", eventID, "operation", operation)
		return 0, fmt.Errorf("%w: failed to claim event: %w", apperrors.ErrTransient, err)
	}
	if tag.RowsAffected() == 0 {
		return idempotency.StatusAlreadyProcessed, nil
	}
	return idempotency.StatusAdmitted, nil
}

func (r *ProcessedEventRepository) Release(ctx context.Context, eventID, operation string) error {
	sql := `DELETE FROM processed_events WHERE event_id = $1 AND operation = $2`

	if _, err := r.db.Exec(ctx, sql, eventID, operation); err != nil {
		r.logger.ErrorContext(ctx, "Failed to release event claim", "error", err, "event_id", eventID, "operation", operation)
		return fmt.Errorf("%w: failed to release event claim: %w", apperrors.ErrTransient, err)
	}
	return nil
}
