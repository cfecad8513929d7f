package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"corebank/internal/event"
	"corebank/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

type OutboxRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ event.OutboxRepository = (*OutboxRepository)(nil)

func NewOutboxRepository(db DBPool, logger *slog.Logger) *OutboxRepository {
	return &OutboxRepository{db: db, logger: logger.With("component", "OutboxRepository")}
}

func (r *OutboxRepository) EnqueueInTx(ctx context.Context, tx pgx.Tx, msg *event.OutboxMessage) error {
	sql := `
        INSERT INTO outbox_messages (event_id, routing_key, payload, status, attempts, created_at)
        VALUES ($1, $2, $3, $4, 0, NOW())
        RETURNING id`

	err := tx.QueryRow(ctx, sql, msg.EventID, msg.RoutingKey, msg.Payload, msg.Status).Scan(&msg.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: outbox message for event %s already enqueued", apperrors.ErrAlreadyExists, msg.EventID)
		}
		r.logger.ErrorContext(ctx, "Failed to enqueue outbox message", "error", err, "event_id", msg.EventID)
		return fmt.Errorf("%w: failed to enqueue outbox message: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

// FetchPending locks the claimed rows so overlapping sweeps (ticker and cron)
// do not publish the same batch twice in one instant. SKIP LOCKED keeps the
// second sweep from blocking behind the first.
func (r *OutboxRepository) FetchPending(ctx context.Context, limit int) ([]*event.OutboxMessage, error) {
	sql := `
        SELECT id, event_id, routing_key, payload, status, attempts, created_at, published_at
        FROM outbox_messages
        WHERE status = $1
        ORDER BY id
        LIMIT $2
        FOR UPDATE SKIP LOCKED`

	rows, err := r.db.Query(ctx, sql, event.OutboxStatusPending, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to fetch pending outbox messages", "error", err)
		return nil, fmt.Errorf("%w: failed to fetch pending outbox messages: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var msgs []*event.OutboxMessage
	for rows.Next() {
		var m event.OutboxMessage
		if err := rows.Scan(&m.ID, &m.EventID, &m.RoutingKey, &m.Payload, &m.Status, &m.Attempts, &m.CreatedAt, &m.PublishedAt); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan outbox row", "error", err)
			return nil, fmt.Errorf("%w: failed to scan outbox message: %w", apperrors.ErrDatabase, err)
		}
		msgs = append(msgs, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: outbox rows iteration failed: %w", apperrors.ErrDatabase, err)
	}
	return msgs, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id int64) error {
	sql := `
        UPDATE outbox_messages
        SET status = $2, attempts = attempts + 1, published_at = NOW()
        WHERE id = $1`

	tag, err := r.db.Exec(ctx, sql, id, event.OutboxStatusPublished)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to mark outbox message published", "error", err, "outbox_id", id)
		return fmt.Errorf("%w: failed to mark outbox message published: %w", apperrors.ErrDatabase, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: outbox message %d not found", apperrors.ErrNotFound, id)
	}
	return nil
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id int64) error {
	sql := `UPDATE outbox_messages SET attempts = attempts + 1 WHERE id = $1`

	if _, err := r.db.Exec(ctx, sql, id); err != nil {
		r.logger.ErrorContext(ctx, "Failed to record outbox attempt", "error", err, "outbox_id", id)
		return fmt.Errorf("%w: failed to record outbox attempt: %w", apperrors.ErrDatabase, err)
	}
	return nil
}
