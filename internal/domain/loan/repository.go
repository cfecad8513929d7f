package loan

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Repository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error

	CreateInTx(ctx context.Context, tx pgx.Tx, loan *Loan) error

	FindByID(ctx context.Context, id uuid.UUID) (*Loan, error)

	FindByAccountID(ctx context.Context, accountID uuid.UUID) ([]*Loan, error)
}
