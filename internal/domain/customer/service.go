package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"corebank/internal/event"
	"corebank/internal/pkg/apperrors"

	"github.com/google/uuid"
)

type Service interface {
	RegisterCustomer(ctx context.Context, email, name string) (*Customer, error)

	// VerifyCustomer validates the single-use code, activates the customer and
	// durably enqueues the AccountCreationRequested event in one transaction.
	VerifyCustomer(ctx context.Context, email, code string) (*Customer, error)

	GetCustomer(ctx context.Context, id uuid.UUID) (*Customer, error)
}

var _ Service = (*customerService)(nil)

type customerService struct {
	repo   Repository
	outbox event.OutboxRepository
	logger *slog.Logger
}

func NewCustomerService(repo Repository, outbox event.OutboxRepository, logger *slog.Logger) Service {
	if repo == nil {
		panic("customer repository cannot be nil")
	}
	if outbox == nil {
		panic("outbox repository cannot be nil")
	}
	return &customerService{
		repo:   repo,
		outbox: outbox,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func (s *customerService) RegisterCustomer(ctx context.Context, email, name string) (*Customer, error) {
	logCtx := s.logger.With(slog.String("email", strings.TrimSpace(strings.ToLower(email))))
	logCtx.InfoContext(ctx, "Attempting to register new customer")

	cust, err := NewCustomer(email, name)
	if err != nil {
		logCtx.WarnContext(ctx, "Customer registration failed validation", slog.Any("error", err))
		return nil, err
	}

	existing, err := s.repo.FindByEmail(ctx, cust.Email)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		logCtx.ErrorContext(ctx, "Repository error checking for existing customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to check existing customer: %w", err)
	}
	if existing != nil {
		logCtx.WarnContext(ctx, "Customer already exists with this email")
		return nil, fmt.Errorf("%w: customer with email %s already exists", apperrors.ErrConflict, cust.Email)
	}

	if err := s.repo.Create(ctx, cust); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			logCtx.WarnContext(ctx, "Concurrent registration detected for email")
			return nil, fmt.Errorf("%w: customer with email %s already exists", apperrors.ErrConflict, cust.Email)
		}
		logCtx.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}

	// Email delivery is an external collaborator; the code is logged at debug
	// level the way the original issued it out-of-band.
	logCtx.InfoContext(ctx, "Customer registered, verification pending", slog.String("customerID", cust.ID.String()))
	logCtx.DebugContext(ctx, "Verification code issued", slog.String("code", *cust.VerificationCode))
	return cust, nil
}

func (s *customerService) VerifyCustomer(ctx context.Context, email, code string) (*Customer, error) {
	logCtx := s.logger.With(slog.String("email", strings.TrimSpace(strings.ToLower(email))))
	logCtx.InfoContext(ctx, "Attempting to verify customer")

	cust, err := s.repo.FindByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Customer not found for verification")
			return nil, err
		}
		logCtx.ErrorContext(ctx, "Repository error finding customer for verification", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load customer for verification: %w", err)
	}

	if err := cust.Verify(code); err != nil {
		logCtx.WarnContext(ctx, "Verification rejected", slog.Any("error", err))
		return nil, err
	}

	env, err := event.NewAccountCreationRequested(cust.ID)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to build AccountCreationRequested event", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to build account creation event: %v", apperrors.ErrInternalServer, err)
	}
	msg, err := event.NewOutboxMessage(env, event.RoutingKeyAccountCreationRequested)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to build outbox message", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to build outbox message: %v", apperrors.ErrInternalServer, err)
	}

	// The status flip and the event enqueue commit together: either the
	// customer stays PendingVerification, or an AccountCreationRequested row
	// is durably queued for the relay. Silent event loss is not possible.
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to begin verification transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%w: could not begin transaction: %v", apperrors.ErrInternalServer, err)
	}
	defer func() {
		if err != nil {
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	if err = s.repo.UpdateInTx(ctx, tx, cust); err != nil {
		logCtx.ErrorContext(ctx, "Failed to persist customer activation", slog.Any("error", err))
		return nil, fmt.Errorf("failed to persist customer activation: %w", err)
	}
	if err = s.outbox.EnqueueInTx(ctx, tx, msg); err != nil {
		logCtx.ErrorContext(ctx, "Failed to enqueue account creation event", slog.Any("error", err))
		return nil, fmt.Errorf("failed to enqueue account creation event: %w", err)
	}
	if err = s.repo.CommitTx(ctx, tx); err != nil {
		logCtx.ErrorContext(ctx, "Failed to commit verification transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%w: could not commit transaction: %v", apperrors.ErrInternalServer, err)
	}

	logCtx.InfoContext(ctx, "Customer verified and account creation requested",
		slog.String("customerID", cust.ID.String()),
		slog.String("eventID", env.EventID))
	return cust, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id uuid.UUID) (*Customer, error) {
	cust, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Customer not found", slog.String("customerID", id.String()))
			return nil, err
		}
		s.logger.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %s: %w", id, err)
	}
	return cust, nil
}
