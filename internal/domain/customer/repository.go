package customer

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Repository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error

	Create(ctx context.Context, customer *Customer) error

	UpdateInTx(ctx context.Context, tx pgx.Tx, customer *Customer) error

	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	FindByEmail(ctx context.Context, email string) (*Customer, error)
}
