package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"corebank/internal/domain/account"
	"corebank/internal/event"
	"corebank/internal/infrastructure/monitoring"
	"corebank/internal/pkg/apperrors"

	amqp "github.com/rabbitmq/amqp091-go"
)

// BalanceCreditHandler disburses approved loans by crediting the principal to
// the target account. The ledger records the event id in the same transaction
// as the credit, so redelivered approvals credit at most once.
type BalanceCreditHandler struct {
	ledger      account.Service
	queueName   string
	maxAttempts int64
	logger      *slog.Logger
}

func NewBalanceCreditHandler(ledger account.Service, queueName string, maxAttempts int64, logger *slog.Logger) *BalanceCreditHandler {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &BalanceCreditHandler{
		ledger:      ledger,
		queueName:   queueName,
		maxAttempts: maxAttempts,
		logger:      logger.With("component", "BalanceCreditHandler"),
	}
}

func (h *BalanceCreditHandler) HandleDelivery(ctx context.Context, d amqp.Delivery) {
	logCtx := h.logger.With(slog.Uint64("deliveryTag", d.DeliveryTag), slog.String("routingKey", d.RoutingKey))

	var env event.Envelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		logCtx.ErrorContext(ctx, "Failed to unmarshal event envelope. Rejecting.", "error", err, "body", string(d.Body))
		monitoring.RecordEventConsumed(h.queueName, monitoring.OutcomeRejected)
		_ = d.Reject(false)
		return
	}
	var payload event.LoanApprovedPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		logCtx.ErrorContext(ctx, "Failed to unmarshal LoanApproved payload. Rejecting.", "error", err)
		monitoring.RecordEventConsumed(h.queueName, monitoring.OutcomeRejected)
		_ = d.Reject(false)
		return
	}

	logCtx = logCtx.With(
		slog.String("eventID", env.EventID),
		slog.String("loanID", payload.LoanID.String()),
		slog.String("accountID", payload.AccountID.String()),
		slog.String("amount", payload.Amount.String()))

	_, err := h.ledger.ApplyLoanCredit(ctx, payload.AccountID, payload.Amount, env.EventID)
	if err == nil {
		monitoring.RecordEventConsumed(h.queueName, monitoring.OutcomeProcessed)
		if ackErr := d.Ack(false); ackErr != nil {
			logCtx.ErrorContext(ctx, "Failed to acknowledge message after successful credit", "error", ackErr)
			return
		}
		logCtx.InfoContext(ctx, "Loan disbursement credited and message acknowledged")
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrAlreadyProcessed):
		logCtx.InfoContext(ctx, "Disbursement already applied for this event. Acknowledging duplicate.")
		monitoring.RecordEventConsumed(h.queueName, monitoring.OutcomeDuplicate)
		_ = d.Ack(false)

	case errors.Is(err, apperrors.ErrNotFound):
		// Provisioning may simply not have caught up yet; retry before
		// declaring the approval inconsistent with the ledger.
		attempts := deliveryAttempts(d)
		if attempts+1 >= h.maxAttempts {
			logCtx.ErrorContext(ctx, "Account still missing after bounded retries. Parking delivery.",
				slog.Int64("attempts", attempts),
				slog.Any("error", apperrors.ErrDataInconsistency))
			monitoring.RecordEventConsumed(h.queueName, monitoring.OutcomeDeadLetter)
			_ = d.Reject(false)
			return
		}
		logCtx.WarnContext(ctx, "Account not found for disbursement. Retrying via DLX.", slog.Int64("attempts", attempts))
		monitoring.RecordEventConsumed(h.queueName, monitoring.OutcomeRetried)
		_ = d.Nack(false, false)

	case errors.Is(err, apperrors.ErrInvalidInput):
		logCtx.ErrorContext(ctx, "Malformed disbursement amount. Rejecting.", "error", err)
		monitoring.RecordEventConsumed(h.queueName, monitoring.OutcomeRejected)
		_ = d.Reject(false)

	default:
		logCtx.ErrorContext(ctx, "Disbursement failed. Retrying via DLX.", "error", err)
		monitoring.RecordEventConsumed(h.queueName, monitoring.OutcomeRetried)
		_ = d.Nack(false, false)
	}
}
