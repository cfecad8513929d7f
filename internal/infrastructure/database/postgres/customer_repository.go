package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"corebank/internal/domain/customer"
	"corebank/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.Repository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	return &CustomerRepository{db: db, logger: logger.With("component", "CustomerRepository")}
}

func (r *CustomerRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return tx, nil
}

func (r *CustomerRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *CustomerRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

const customerColumns = "id, email, name, verification_code, status, created_at, updated_at"

func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	sql := `
        INSERT INTO customers (id, email, name, verification_code, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, sql, c.ID, c.Email, c.Name, c.VerificationCode, c.Status, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: customer with email %s already exists", apperrors.ErrAlreadyExists, c.Email)
		}
		r.logger.ErrorContext(ctx, "Failed to insert customer", "error", err)
		return fmt.Errorf("%w: failed to insert customer: %w", apperrors.ErrDatabase, err)
	}
	r.logger.InfoContext(ctx, "Customer created in DB", "customer_id", c.ID)
	return nil
}

func (r *CustomerRepository) UpdateInTx(ctx context.Context, tx pgx.Tx, c *customer.Customer) error {
	sql := `
        UPDATE customers
        SET email = $2, name = $3, verification_code = $4, status = $5, updated_at = $6
        WHERE id = $1`

	tag, err := tx.Exec(ctx, sql, c.ID, c.Email, c.Name, c.VerificationCode, c.Status, c.UpdatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update customer", "error", err, "customer_id", c.ID)
		return fmt.Errorf("%w: failed to update customer: %w", apperrors.ErrDatabase, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: customer %s not found for update", apperrors.ErrNotFound, c.ID)
	}
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	sql := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return r.scanCustomer(ctx, r.db.QueryRow(ctx, sql, id))
}

func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	sql := `SELECT ` + customerColumns + ` FROM customers WHERE email = $1`
	return r.scanCustomer(ctx, r.db.QueryRow(ctx, sql, email))
}

func (r *CustomerRepository) scanCustomer(ctx context.Context, row pgx.Row) (*customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(&c.ID, &c.Email, &c.Name, &c.VerificationCode, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to scan customer row", "error", err)
		return nil, fmt.Errorf("%w: failed to scan customer: %w", apperrors.ErrDatabase, err)
	}
	return &c, nil
}
