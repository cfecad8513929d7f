package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"corebank/internal/domain/loan"
	"corebank/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return tx, nil
}

func (r *LoanRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *LoanRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

const loanColumns = "id, account_id, amount, tenure_months, status, created_at"

func (r *LoanRepository) CreateInTx(ctx context.Context, tx pgx.Tx, l *loan.Loan) error {
	sql := `
        INSERT INTO loans (id, account_id, amount, tenure_months, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, sql, l.ID, l.AccountID, l.Amount, l.TenureMonths, l.Status, l.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: loan %s already exists", apperrors.ErrAlreadyExists, l.ID)
		}
		r.logger.ErrorContext(ctx, "Failed to insert loan", "error", err, "loan_id", l.ID)
		return fmt.Errorf("%w: failed to insert loan: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *LoanRepository) FindByID(ctx context.Context, id uuid.UUID) (*loan.Loan, error) {
	sql := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	var l loan.Loan
	err := r.db.QueryRow(ctx, sql, id).Scan(&l.ID, &l.AccountID, &l.Amount, &l.TenureMonths, &l.Status, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to scan loan row", "error", err)
		return nil, fmt.Errorf("%w: failed to scan loan: %w", apperrors.ErrDatabase, err)
	}
	return &l, nil
}

func (r *LoanRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID) ([]*loan.Loan, error) {
	sql := `SELECT ` + loanColumns + ` FROM loans WHERE account_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, sql, accountID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query loans", "error", err, "account_id", accountID)
		return nil, fmt.Errorf("%w: failed to query loans: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var loans []*loan.Loan
	for rows.Next() {
		var l loan.Loan
		if err := rows.Scan(&l.ID, &l.AccountID, &l.Amount, &l.TenureMonths, &l.Status, &l.CreatedAt); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan loan row", "error", err)
			return nil, fmt.Errorf("%w: failed to scan loan: %w", apperrors.ErrDatabase, err)
		}
		loans = append(loans, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: loan rows iteration failed: %w", apperrors.ErrDatabase, err)
	}
	return loans, nil
}
