package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"corebank/internal/infrastructure/monitoring"

	"github.com/jackc/pgx/v5"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusPublished OutboxStatus = "PUBLISHED"
)

// OutboxMessage is a durable record of an event that must reach the broker.
// Rows are written inside the same transaction as the state change that
// emitted them, so a committed change can never lose its event.
type OutboxMessage struct {
	ID          int64
	EventID     string
	RoutingKey  string
	Payload     []byte
	Status      OutboxStatus
	Attempts    int
	CreatedAt   time.Time
	PublishedAt *time.Time
}

func NewOutboxMessage(env Envelope, routingKey string) (*OutboxMessage, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event envelope: %w", err)
	}
	return &OutboxMessage{
		EventID:    env.EventID,
		RoutingKey: routingKey,
		Payload:    body,
		Status:     OutboxStatusPending,
	}, nil
}

type OutboxRepository interface {
	EnqueueInTx(ctx context.Context, tx pgx.Tx, msg *OutboxMessage) error

	FetchPending(ctx context.Context, limit int) ([]*OutboxMessage, error)

	MarkPublished(ctx context.Context, id int64) error

	MarkFailed(ctx context.Context, id int64) error
}

// OutboxRelay drains pending outbox rows to the broker. Delivery is
// at-least-once: a crash after publish but before MarkPublished re-publishes
// the same event id, which consumers deduplicate.
type OutboxRelay struct {
	repo      OutboxRepository
	publisher Publisher
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	wg        sync.WaitGroup
	cancel    context.CancelFunc
}

func NewOutboxRelay(repo OutboxRepository, publisher Publisher, interval time.Duration, batchSize int, logger *slog.Logger) *OutboxRelay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &OutboxRelay{
		repo:      repo,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger.With("component", "OutboxRelay"),
	}
}

func (r *OutboxRelay) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		r.logger.Info("Outbox relay started.", "interval", r.interval, "batchSize", r.batchSize)
		for {
			select {
			case <-loopCtx.Done():
				r.logger.Info("Outbox relay context cancelled. Exiting relay loop.")
				return
			case <-ticker.C:
				if err := r.Run(loopCtx); err != nil {
					r.logger.Error("Outbox relay sweep failed", slog.Any("error", err))
				}
			}
		}
	}()
}

func (r *OutboxRelay) Stop() {
	if r.cancel == nil {
		r.logger.Warn("Relay stop called but it was never started")
		return
	}
	r.cancel()
	r.wg.Wait()
	r.logger.Info("Outbox relay stopped.")
}

// Run performs a single sweep. It is also invoked from the cron scheduler so
// rows stranded by a crashed relay loop are still drained.
func (r *OutboxRelay) Run(ctx context.Context) error {
	pending, err := r.repo.FetchPending(ctx, r.batchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch pending outbox messages: %w", err)
	}
	monitoring.SetOutboxPending(len(pending))
	if len(pending) == 0 {
		return nil
	}

	var firstErr error
	for _, msg := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		logCtx := r.logger.With(slog.String("eventID", msg.EventID), slog.String("routingKey", msg.RoutingKey))

		if err := r.publisher.Publish(ctx, msg.RoutingKey, msg.EventID, msg.Payload); err != nil {
			logCtx.ErrorContext(ctx, "Failed to publish outbox message, leaving pending", slog.Any("error", err))
			monitoring.RecordEventPublished(msg.RoutingKey, "failure")
			if markErr := r.repo.MarkFailed(ctx, msg.ID); markErr != nil {
				logCtx.ErrorContext(ctx, "Failed to record outbox publish failure", slog.Any("error", markErr))
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		monitoring.RecordEventPublished(msg.RoutingKey, "success")
		if err := r.repo.MarkPublished(ctx, msg.ID); err != nil {
			// The message will be re-published on the next sweep; consumers
			// deduplicate on the event id.
			logCtx.ErrorContext(ctx, "Published but failed to mark outbox message, duplicate delivery expected", slog.Any("error", err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		logCtx.InfoContext(ctx, "Outbox message published")
	}
	return firstErr
}
