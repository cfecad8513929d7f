package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"corebank/internal/domain/account"
	"corebank/internal/event"
	"corebank/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Service interface {
	// ApplyForLoan gates the application on ledger state and the configured
	// policy. On approval it persists the loan and durably enqueues the
	// LoanApproved event in one transaction. It never touches the balance;
	// disbursement is applied asynchronously by the credit consumer.
	ApplyForLoan(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, tenureMonths int) (*Loan, error)

	GetLoan(ctx context.Context, id uuid.UUID) (*Loan, error)

	// ListLoansByAccount returns the account's loans, newest first.
	ListLoansByAccount(ctx context.Context, accountID uuid.UUID) ([]*Loan, error)
}

var _ Service = (*loanService)(nil)

type loanService struct {
	repo          Repository
	ledger        account.Service
	outbox        event.OutboxRepository
	policy        EligibilityPolicy
	ledgerTimeout time.Duration
	logger        *slog.Logger
}

func NewLoanService(repo Repository, ledger account.Service, outbox event.OutboxRepository,
	policy EligibilityPolicy, ledgerTimeout time.Duration, logger *slog.Logger) Service {
	if repo == nil {
		panic("loan repository cannot be nil")
	}
	if ledger == nil {
		panic("ledger service cannot be nil")
	}
	if outbox == nil {
		panic("outbox repository cannot be nil")
	}
	if ledgerTimeout <= 0 {
		ledgerTimeout = 3 * time.Second
	}
	return &loanService{
		repo:          repo,
		ledger:        ledger,
		outbox:        outbox,
		policy:        policy,
		ledgerTimeout: ledgerTimeout,
		logger:        logger.With(slog.String("component", "loanService")),
	}
}

func (s *loanService) ApplyForLoan(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, tenureMonths int) (*Loan, error) {
	logCtx := s.logger.With(
		slog.String("accountID", accountID.String()),
		slog.String("amount", amount.String()),
		slog.Int("tenureMonths", tenureMonths))
	logCtx.InfoContext(ctx, "Processing loan application")

	acct, err := s.readAccount(ctx, accountID)
	if err != nil {
		logCtx.WarnContext(ctx, "Loan application failed at ledger read", slog.Any("error", err))
		return nil, err
	}

	if err := s.policy.Evaluate(acct, amount, tenureMonths); err != nil {
		logCtx.WarnContext(ctx, "Loan application ineligible", slog.Any("error", err))
		return nil, err
	}

	newLoan, err := NewLoan(accountID, amount, tenureMonths)
	if err != nil {
		logCtx.WarnContext(ctx, "Loan application rejected", slog.Any("error", err))
		return nil, err
	}

	env, err := event.NewLoanApproved(newLoan.ID, newLoan.AccountID, newLoan.Amount)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to build LoanApproved event", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to build loan approved event: %v", apperrors.ErrInternalServer, err)
	}
	msg, err := event.NewOutboxMessage(env, event.RoutingKeyLoanApproved)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to build outbox message", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to build outbox message: %v", apperrors.ErrInternalServer, err)
	}

	// No durable approval without eventual emission: loan row and outbox row
	// commit or roll back together.
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to begin loan transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%w: could not begin transaction: %v", apperrors.ErrInternalServer, err)
	}
	defer func() {
		if err != nil {
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	if err = s.repo.CreateInTx(ctx, tx, newLoan); err != nil {
		logCtx.ErrorContext(ctx, "Failed to persist loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to persist loan: %w", err)
	}
	if err = s.outbox.EnqueueInTx(ctx, tx, msg); err != nil {
		logCtx.ErrorContext(ctx, "Failed to enqueue loan approved event", slog.Any("error", err))
		return nil, fmt.Errorf("failed to enqueue loan approved event: %w", err)
	}
	if err = s.repo.CommitTx(ctx, tx); err != nil {
		logCtx.ErrorContext(ctx, "Failed to commit loan transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%w: could not commit transaction: %v", apperrors.ErrInternalServer, err)
	}

	logCtx.InfoContext(ctx, "Loan approved",
		slog.String("loanID", newLoan.ID.String()),
		slog.String("eventID", env.EventID))
	return newLoan, nil
}

// readAccount bounds the cross-context ledger read with a timeout; a deadline
// is a retryable failure, distinct from a definitive rejection.
func (s *loanService) readAccount(ctx context.Context, accountID uuid.UUID) (*account.Account, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.ledgerTimeout)
	defer cancel()

	acct, err := s.ledger.GetAccount(readCtx, accountID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: ledger read timed out after %s", apperrors.ErrTransient, s.ledgerTimeout)
		}
		return nil, err
	}
	return acct, nil
}

func (s *loanService) GetLoan(ctx context.Context, id uuid.UUID) (*Loan, error) {
	found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Loan not found", slog.String("loanID", id.String()))
			return nil, err
		}
		return nil, fmt.Errorf("failed to get loan %s: %w", id, err)
	}
	return found, nil
}

func (s *loanService) ListLoansByAccount(ctx context.Context, accountID uuid.UUID) ([]*Loan, error) {
	loans, err := s.repo.FindByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans for account %s: %w", accountID, err)
	}
	return loans, nil
}
