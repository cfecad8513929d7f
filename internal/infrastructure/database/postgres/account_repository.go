package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"corebank/internal/domain/account"
	"corebank/internal/infrastructure/monitoring"
	"corebank/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type AccountRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ account.Repository = (*AccountRepository)(nil)

func NewAccountRepository(db DBPool, logger *slog.Logger) *AccountRepository {
	return &AccountRepository{db: db, logger: logger.With("component", "AccountRepository")}
}

const accountColumns = "id, customer_id, account_number, balance, currency, status, created_at, updated_at"

func (r *AccountRepository) Create(ctx context.Context, a *account.Account) error {
	sql := `
        INSERT INTO accounts (id, customer_id, account_number, balance, currency, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	start := time.Now()
	_, err := r.db.Exec(ctx, sql, a.ID, a.CustomerID, a.AccountNumber, a.Balance, a.Currency, a.Status, a.CreatedAt, a.UpdatedAt)
	monitoring.RecordDBQuery("insert_account", dbStatus(err), time.Since(start))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: account for customer %s already exists", apperrors.ErrAlreadyExists, a.CustomerID)
		}
		r.logger.ErrorContext(ctx, "Failed to insert account", "error", err)
		return fmt.Errorf("%w: failed to insert account: %w", apperrors.ErrDatabase, err)
	}
	r.logger.InfoContext(ctx, "Account created in DB", "account_id", a.ID, "account_number", a.AccountNumber)
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	sql := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanAccount(ctx, r.db.QueryRow(ctx, sql, id))
}

func (r *AccountRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID) (*account.Account, error) {
	sql := `SELECT ` + accountColumns + ` FROM accounts WHERE customer_id = $1`
	return r.scanAccount(ctx, r.db.QueryRow(ctx, sql, customerID))
}

func (r *AccountRepository) FindByAccountNumber(ctx context.Context, number int64) (*account.Account, error) {
	sql := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	return r.scanAccount(ctx, r.db.QueryRow(ctx, sql, number))
}

func (r *AccountRepository) CreditBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*account.Account, error) {
	return r.mutateBalance(ctx, id, amount, false, nil)
}

func (r *AccountRepository) DebitBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*account.Account, error) {
	return r.mutateBalance(ctx, id, amount, true, nil)
}

func (r *AccountRepository) CreditBalanceGuarded(ctx context.Context, id uuid.UUID, amount decimal.Decimal, eventID, operation string) (*account.Account, error) {
	claim := &processedClaim{eventID: eventID, operation: operation}
	return r.mutateBalance(ctx, id, amount, false, claim)
}

type processedClaim struct {
	eventID   string
	operation string
}

// mutateBalance runs one atomic read-modify-write round against a single
// account. The SELECT ... FOR UPDATE row lock serializes concurrent mutations
// on the same account while leaving other accounts untouched. When claim is
// non-nil the (event_id, operation) marker is inserted in the same
// transaction, so the dedup record and the balance change commit together.
func (r *AccountRepository) mutateBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal, debit bool, claim *processedClaim) (*account.Account, error) {
	start := time.Now()
	op := "credit_balance"
	if debit {
		op = "debit_balance"
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		monitoring.RecordDBQuery(op, dbStatus(err), time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to begin balance transaction", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rollbackQuietly(ctx, tx, r.logger)

	if claim != nil {
		tag, err := tx.Exec(ctx,
			`INSERT INTO processed_events (event_id, operation, processed_at)
             VALUES ($1, $2, NOW())
             ON CONFLICT (event_id, operation) DO NOTHING`,
			claim.eventID, claim.operation)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to claim event in balance transaction", "error", err, "event_id", claim.eventID)
			return nil, fmt.Errorf("%w: failed to claim event: %w", apperrors.ErrTransient, err)
		}
		if tag.RowsAffected() == 0 {
			return nil, fmt.Errorf("%w: event %s operation %s", apperrors.ErrAlreadyProcessed, claim.eventID, claim.operation)
		}
	}

	selectSQL := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	acct, err := r.scanAccount(ctx, tx.QueryRow(ctx, selectSQL, id))
	if err != nil {
		monitoring.RecordDBQuery(op, dbStatus(err), time.Since(start))
		return nil, err
	}

	if !acct.CanTransact() {
		return nil, fmt.Errorf("%w: account %s has status %s", apperrors.ErrAccountInactive, acct.ID, acct.Status)
	}

	if debit && acct.Balance.LessThan(amount) {
		return nil, fmt.Errorf("%w: balance %s is less than debit amount %s",
			apperrors.ErrInsufficientFunds, acct.Balance, amount)
	}

	if debit {
		acct.Balance = acct.Balance.Sub(amount)
	} else {
		acct.Balance = acct.Balance.Add(amount)
	}
	acct.UpdatedAt = time.Now().UTC()

	updateSQL := `UPDATE accounts SET balance = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.Exec(ctx, updateSQL, acct.ID, acct.Balance, acct.UpdatedAt); err != nil {
		monitoring.RecordDBQuery(op, dbStatus(err), time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to update account balance", "error", err, "account_id", id)
		return nil, fmt.Errorf("%w: failed to update balance: %w", apperrors.ErrDatabase, err)
	}

	if err := tx.Commit(ctx); err != nil {
		monitoring.RecordDBQuery(op, dbStatus(err), time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to commit balance transaction", "error", err, "account_id", id)
		return nil, fmt.Errorf("%w: failed to commit balance update: %w", apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery(op, dbStatus(nil), time.Since(start))
	return acct, nil
}

func (r *AccountRepository) scanAccount(ctx context.Context, row pgx.Row) (*account.Account, error) {
	var a account.Account
	err := row.Scan(&a.ID, &a.CustomerID, &a.AccountNumber, &a.Balance, &a.Currency, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to scan account row", "error", err)
		return nil, fmt.Errorf("%w: failed to scan account: %w", apperrors.ErrDatabase, err)
	}
	return &a, nil
}
