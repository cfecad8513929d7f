package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"corebank/internal/domain/account"
	"corebank/internal/event"
	"corebank/internal/idempotency"
	"corebank/internal/infrastructure/monitoring"
	"corebank/internal/pkg/apperrors"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AccountProvisioningHandler opens a ledger account when a customer completes
// verification. Redeliveries of the same event are absorbed by the idempotency
// guard; only one account per customer ever materializes.
type AccountProvisioningHandler struct {
	ledger    account.Service
	guard     idempotency.Guard
	queueName string
	logger    *slog.Logger
}

func NewAccountProvisioningHandler(ledger account.Service, guard idempotency.Guard, queueName string, logger *slog.Logger) *AccountProvisioningHandler {
	return &AccountProvisioningHandler{
		ledger:    ledger,
		guard:     guard,
		queueName: queueName,
		logger:    logger.With("component", "AccountProvisioningHandler"),
	}
}

func (h *AccountProvisioningHandler) HandleDelivery(ctx context.Context, d amqp.Delivery) {
	logCtx := h.logger.With(slog.Uint64("deliveryTag", d.DeliveryTag), slog.String("routingKey", d.RoutingKey))

	var env event.Envelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		logCtx.ErrorContext(ctx, "Failed to unmarshal event envelope. Rejecting.", "error", err, "body", string(d.Body))
		monitoring.RecordEventConsumed(h.queueName, monitoring.OutcomeRejected)
		_ = d.Reject(false)
		return
	}
	var payload event.AccountCreationRequestedPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		logCtx.ErrorContext(ctx, "Failed to unmarshal AccountCreationRequested payload. Rejecting.", "error", err)
		monitoring.RecordEventConsumed(h.queueName, monitoring.OutcomeRejected)
		_ = d.Reject(false)
		return
	}

	logCtx = logCtx.With(slog.String("eventID", env.EventID), slog.String("customerID", payload.CustomerID.String()))

	status, err := h.guard.TryBegin(ctx, env.EventID, idempotency.OpCreateAccount)
	if err != nil {
		logCtx.ErrorContext(ctx, "Idempotency guard unavailable. Requeueing via DLX.", "error", err)
		monitoring.RecordEventConsumed(h.queueName, monitoring.OutcomeRetried)
		_ = d.Nack(false, false)
		return
	}
	if status == idempotency.StatusAlreadyProcessed {
		logCtx.InfoContext(ctx, "Event already processed. Acknowledging duplicate.")
		monitoring.RecordEventConsumed(h.queueName, monitoring.OutcomeDuplicate)
		_ = d.Ack(false)
		return
	}

	if _, err := h.ledger.CreateAccount(ctx, payload.CustomerID); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			// The account exists from an earlier delivery whose marker was
			// lost. The outcome the event asked for holds, so keep the claim.
			logCtx.InfoContext(ctx, "Account already provisioned for customer. Acknowledging.")
			monitoring.RecordEventConsumed(h.queueName, monitoring.OutcomeDuplicate)
			_ = d.Ack(false)
			return
		}

		logCtx.ErrorContext(ctx, "Failed to provision account. Releasing claim and retrying.", "error", err)
		if relErr := h.guard.Release(ctx, env.EventID, idempotency.OpCreateAccount); relErr != nil {
			logCtx.ErrorContext(ctx, "Failed to release idempotency claim", "error", relErr)
		}
		monitoring.RecordEventConsumed(h.queueName, monitoring.OutcomeRetried)
		_ = d.Nack(false, false)
		return
	}

	monitoring.RecordEventConsumed(h.queueName, monitoring.OutcomeProcessed)
	if err := d.Ack(false); err != nil {
		logCtx.ErrorContext(ctx, "Failed to acknowledge message after successful processing", "error", err)
		return
	}
	logCtx.InfoContext(ctx, "Account provisioned and message acknowledged")
}
