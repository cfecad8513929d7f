package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"corebank/internal/idempotency"
	"corebank/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service is the account ledger: the sole owner of balance state. Credits and
// debits are linearized per account, a debit below zero is rejected rather
// than clamped, and a customer holds at most one account.
type Service interface {
	CreateAccount(ctx context.Context, customerID uuid.UUID) (*Account, error)

	Credit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*Account, error)

	Debit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*Account, error)

	// ApplyLoanCredit credits the disbursed principal for an approved loan,
	// recording the event id transactionally so a redelivery credits at most
	// once. Returns apperrors.ErrAlreadyProcessed on a duplicate.
	ApplyLoanCredit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, eventID string) (*Account, error)

	GetAccount(ctx context.Context, accountID uuid.UUID) (*Account, error)

	GetAccountByCustomer(ctx context.Context, customerID uuid.UUID) (*Account, error)

	GetAccountByNumber(ctx context.Context, number int64) (*Account, error)
}

var _ Service = (*ledgerService)(nil)

type ledgerService struct {
	repo     Repository
	currency string
	logger   *slog.Logger
}

func NewLedgerService(repo Repository, currency string, logger *slog.Logger) Service {
	if repo == nil {
		panic("account repository cannot be nil")
	}
	return &ledgerService{
		repo:     repo,
		currency: currency,
		logger:   logger.With(slog.String("component", "ledgerService")),
	}
}

func (s *ledgerService) CreateAccount(ctx context.Context, customerID uuid.UUID) (*Account, error) {
	logCtx := s.logger.With(slog.String("customerID", customerID.String()))
	logCtx.InfoContext(ctx, "Creating account for customer")

	acct, err := NewAccount(customerID, s.currency)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to build account", slog.Any("error", err))
		return nil, err
	}

	if err := s.repo.Create(ctx, acct); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			logCtx.WarnContext(ctx, "Customer already owns an account")
			return nil, err
		}
		logCtx.ErrorContext(ctx, "Repository failed to create account", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create account for customer %s: %w", customerID, err)
	}

	logCtx.InfoContext(ctx, "Account created",
		slog.String("accountID", acct.ID.String()),
		slog.Int64("accountNumber", acct.AccountNumber))
	return acct, nil
}

func (s *ledgerService) Credit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*Account, error) {
	logCtx := s.logger.With(slog.String("accountID", accountID.String()), slog.String("amount", amount.String()))
	logCtx.InfoContext(ctx, "Crediting account")

	if err := validateAmount(amount); err != nil {
		logCtx.WarnContext(ctx, "Credit rejected", slog.Any("error", err))
		return nil, err
	}

	acct, err := s.repo.CreditBalance(ctx, accountID, amount)
	if err != nil {
		logCtx.WarnContext(ctx, "Credit failed", slog.Any("error", err))
		return nil, err
	}

	logCtx.InfoContext(ctx, "Account credited", slog.String("newBalance", acct.Balance.StringFixed(2)))
	return acct, nil
}

func (s *ledgerService) Debit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*Account, error) {
	logCtx := s.logger.With(slog.String("accountID", accountID.String()), slog.String("amount", amount.String()))
	logCtx.InfoContext(ctx, "Debiting account")

	if err := validateAmount(amount); err != nil {
		logCtx.WarnContext(ctx, "Debit rejected", slog.Any("error", err))
		return nil, err
	}

	acct, err := s.repo.DebitBalance(ctx, accountID, amount)
	if err != nil {
		logCtx.WarnContext(ctx, "Debit failed", slog.Any("error", err))
		return nil, err
	}

	logCtx.InfoContext(ctx, "Account debited", slog.String("newBalance", acct.Balance.StringFixed(2)))
	return acct, nil
}

func (s *ledgerService) ApplyLoanCredit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, eventID string) (*Account, error) {
	logCtx := s.logger.With(
		slog.String("accountID", accountID.String()),
		slog.String("amount", amount.String()),
		slog.String("eventID", eventID))
	logCtx.InfoContext(ctx, "Applying loan disbursement credit")

	if eventID == "" {
		return nil, fmt.Errorf("%w: event id cannot be empty", apperrors.ErrInvalidInput)
	}
	if err := validateAmount(amount); err != nil {
		logCtx.WarnContext(ctx, "Loan credit rejected", slog.Any("error", err))
		return nil, err
	}

	acct, err := s.repo.CreditBalanceGuarded(ctx, accountID, amount, eventID, idempotency.OpCreditLoan)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyProcessed) {
			logCtx.InfoContext(ctx, "Loan credit already applied for this event, skipping")
			return nil, err
		}
		logCtx.WarnContext(ctx, "Loan credit failed", slog.Any("error", err))
		return nil, err
	}

	logCtx.InfoContext(ctx, "Loan credit applied", slog.String("newBalance", acct.Balance.StringFixed(2)))
	return acct, nil
}

func (s *ledgerService) GetAccount(ctx context.Context, accountID uuid.UUID) (*Account, error) {
	acct, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Account not found", slog.String("accountID", accountID.String()))
			return nil, err
		}
		return nil, fmt.Errorf("failed to get account %s: %w", accountID, err)
	}
	return acct, nil
}

func (s *ledgerService) GetAccountByCustomer(ctx context.Context, customerID uuid.UUID) (*Account, error) {
	acct, err := s.repo.FindByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "No account for customer", slog.String("customerID", customerID.String()))
			return nil, err
		}
		return nil, fmt.Errorf("failed to get account for customer %s: %w", customerID, err)
	}
	return acct, nil
}

func (s *ledgerService) GetAccountByNumber(ctx context.Context, number int64) (*Account, error) {
	acct, err := s.repo.FindByAccountNumber(ctx, number)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Account not found by number", slog.Int64("accountNumber", number))
			return nil, err
		}
		return nil, fmt.Errorf("failed to get account by number %d: %w", number, err)
	}
	return acct, nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero, got %s", apperrors.ErrInvalidInput, amount)
	}
	return nil
}
