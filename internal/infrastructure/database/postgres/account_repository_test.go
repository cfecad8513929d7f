package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"corebank/internal/domain/account"
	"corebank/internal/idempotency"
	"corebank/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func setupAccountRepo(t *testing.T) (context.Context, *AccountRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool := newMockPool(t)
	return context.Background(), NewAccountRepository(mockPool, logger), mockPool
}

func testAccount(balance int64) *account.Account {
	now := time.Now().UTC()
	return &account.Account{
		ID:            uuid.New(),
		CustomerID:    uuid.New(),
		AccountNumber: 4_832_109_876,
		Balance:       decimal.NewFromInt(balance),
		Currency:      "KES",
		Status:        account.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func accountRows(a *account.Account) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "customer_id", "account_number", "balance", "currency", "status", "created_at", "updated_at"}).
		AddRow(a.ID, a.CustomerID, a.AccountNumber, a.Balance, a.Currency, a.Status, a.CreatedAt, a.UpdatedAt)
}

const (
	selectAccountForUpdateSQL = `SELECT id, customer_id, account_number, balance, currency, status, created_at, updated_at FROM accounts WHERE id = $1 FOR UPDATE`
	updateBalanceSQL          = `UPDATE accounts SET balance = $2, updated_at = $3 WHERE id = $1`
)

func TestCreateAccountWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()
	a := testAccount(0)

	query := `
        INSERT INTO accounts (id, customer_id, account_number, balance, currency, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	mockPool.ExpectExec(regexp.QuoteMeta(query)).WithArgs(
		a.ID, a.CustomerID, a.AccountNumber, a.Balance, a.Currency, a.Status, a.CreatedAt, a.UpdatedAt,
	).WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(ctx, a)
	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestCreateAccountWhenCustomerAlreadyHolds(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()
	a := testAccount(0)

	mockPool.ExpectExec("INSERT INTO accounts").WithArgs(
		a.ID, a.CustomerID, a.AccountNumber, a.Balance, a.Currency, a.Status, a.CreatedAt, a.UpdatedAt,
	).WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(ctx, a)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestCreditBalanceLocksRowAndCommits(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()
	a := testAccount(100)
	amount := decimal.NewFromInt(50)

	mockPool.ExpectBegin()
	mockPool.ExpectQuery(regexp.QuoteMeta(selectAccountForUpdateSQL)).WithArgs(a.ID).
		WillReturnRows(accountRows(a))
	mockPool.ExpectExec(regexp.QuoteMeta(updateBalanceSQL)).
		WithArgs(a.ID, decimal.NewFromInt(150), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectCommit()
	mockPool.ExpectRollback()

	credited, err := repo.CreditBalance(ctx, a.ID, amount)
	assert.NoError(t, err)
	assert.True(t, credited.Balance.Equal(decimal.NewFromInt(150)))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestDebitBalanceWhenSufficient(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()
	a := testAccount(500)
	amount := decimal.NewFromInt(200)

	mockPool.ExpectBegin()
	mockPool.ExpectQuery(regexp.QuoteMeta(selectAccountForUpdateSQL)).WithArgs(a.ID).
		WillReturnRows(accountRows(a))
	mockPool.ExpectExec(regexp.QuoteMeta(updateBalanceSQL)).
		WithArgs(a.ID, decimal.NewFromInt(300), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectCommit()
	mockPool.ExpectRollback()

	debited, err := repo.DebitBalance(ctx, a.ID, amount)
	assert.NoError(t, err)
	assert.True(t, debited.Balance.Equal(decimal.NewFromInt(300)))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestDebitBalanceWhenInsufficientFunds(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()
	a := testAccount(100)

	mockPool.ExpectBegin()
	mockPool.ExpectQuery(regexp.QuoteMeta(selectAccountForUpdateSQL)).WithArgs(a.ID).
		WillReturnRows(accountRows(a))
	mockPool.ExpectRollback()

	debited, err := repo.DebitBalance(ctx, a.ID, decimal.NewFromInt(150))
	assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)
	assert.Nil(t, debited)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestDebitBalanceWhenAccountInactive(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()
	a := testAccount(500)
	a.Status = account.StatusInactive

	mockPool.ExpectBegin()
	mockPool.ExpectQuery(regexp.QuoteMeta(selectAccountForUpdateSQL)).WithArgs(a.ID).
		WillReturnRows(accountRows(a))
	mockPool.ExpectRollback()

	debited, err := repo.DebitBalance(ctx, a.ID, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, apperrors.ErrAccountInactive)
	assert.Nil(t, debited)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestDebitBalanceWhenAccountMissing(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()
	id := uuid.New()

	mockPool.ExpectBegin()
	mockPool.ExpectQuery(regexp.QuoteMeta(selectAccountForUpdateSQL)).WithArgs(id).
		WillReturnError(pgx.ErrNoRows)
	mockPool.ExpectRollback()

	_, err := repo.DebitBalance(ctx, id, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestCreditBalanceGuardedClaimsEventInSameTx(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()
	a := testAccount(100)
	eventID := uuid.NewString()

	mockPool.ExpectBegin()
	mockPool.ExpectExec("INSERT INTO processed_events").
		WithArgs(eventID, idempotency.OpCreditLoan).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectQuery(regexp.QuoteMeta(selectAccountForUpdateSQL)).WithArgs(a.ID).
		WillReturnRows(accountRows(a))
	mockPool.ExpectExec(regexp.QuoteMeta(updateBalanceSQL)).
		WithArgs(a.ID, decimal.NewFromInt(10_100), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectCommit()
	mockPool.ExpectRollback()

	credited, err := repo.CreditBalanceGuarded(ctx, a.ID, decimal.NewFromInt(10_000), eventID, idempotency.OpCreditLoan)
	assert.NoError(t, err)
	assert.True(t, credited.Balance.Equal(decimal.NewFromInt(10_100)))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestCreditBalanceGuardedWhenEventAlreadyProcessed(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()
	a := testAccount(100)
	eventID := uuid.NewString()

	mockPool.ExpectBegin()
	mockPool.ExpectExec("INSERT INTO processed_events").
		WithArgs(eventID, idempotency.OpCreditLoan).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mockPool.ExpectRollback()

	credited, err := repo.CreditBalanceGuarded(ctx, a.ID, decimal.NewFromInt(10_000), eventID, idempotency.OpCreditLoan)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyProcessed)
	assert.Nil(t, credited)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindAccountByNumberReturnOne(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()
	a := testAccount(250)

	query := `SELECT id, customer_id, account_number, balance, currency, status, created_at, updated_at FROM accounts WHERE account_number = $1`

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(a.AccountNumber).
		WillReturnRows(accountRows(a))

	found, err := repo.FindByAccountNumber(ctx, a.AccountNumber)
	assert.NoError(t, err)
	assert.Equal(t, a.ID, found.ID)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
