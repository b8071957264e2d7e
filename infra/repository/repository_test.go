package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/andrevalim/pixhub/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil, domain.ErrTransactionNotFound))

	wrapped := fmt.Errorf("creating row: %w", gorm.ErrDuplicatedKey)
	assert.ErrorIs(t, mapError(wrapped, domain.ErrTransactionNotFound), domain.ErrDuplicateKey)

	assert.ErrorIs(t,
		mapError(gorm.ErrRecordNotFound, domain.ErrAccountNotFound),
		domain.ErrAccountNotFound)

	boom := errors.New("connection reset")
	assert.Equal(t, boom, mapError(boom, domain.ErrTransactionNotFound))
}

func TestUoWDo(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db, mock := newMockDB(t)
		uow := NewUoW(db)

		mock.ExpectBegin()
		mock.ExpectCommit()

		err := uow.Do(context.Background(), func(r repository.Repositories) error {
			assert.NotNil(t, r.Deposits)
			assert.NotNil(t, r.Withdrawals)
			assert.NotNil(t, r.Accounts)
			assert.NotNil(t, r.Splits)
			return nil
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock := newMockDB(t)
		uow := NewUoW(db)

		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := uow.Do(context.Background(), func(repository.Repositories) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountBalanceOps(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	amount := decimal.RequireFromString("12.50")

	t.Run("increment", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE accounts SET balance = balance \+`).
			WithArgs(sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := NewAccountRepository(db).IncrementBalance(ctx, id, amount)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("decrement with sufficient balance", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE accounts SET balance = balance -`).
			WithArgs(sqlmock.AnyArg(), id, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := NewAccountRepository(db).DecrementBalance(ctx, id, amount)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("decrement guard reports insufficient funds", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE accounts SET balance = balance -`).
			WithArgs(sqlmock.AnyArg(), id, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "accounts"`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		err := NewAccountRepository(db).DecrementBalance(ctx, id, amount)
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("decrement on missing account", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE accounts SET balance = balance -`).
			WithArgs(sqlmock.AnyArg(), id, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "accounts"`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		err := NewAccountRepository(db).DecrementBalance(ctx, id, amount)
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	})
}

func TestDepositUpdateStatusCAS(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("wins the swap", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE deposits SET status = \$1, released_at = NOW\(\)`).
			WithArgs(string(domain.DepositReleased), id, string(domain.DepositWaitingApproval)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		moved, err := NewDepositRepository(db).UpdateStatus(ctx, id,
			domain.DepositWaitingApproval, domain.DepositReleased)
		require.NoError(t, err)
		assert.True(t, moved)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loses the swap", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE deposits SET status = \$1, updated_at = NOW\(\)`).
			WithArgs(string(domain.DepositCancelled), id, string(domain.DepositWaitingApproval)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		moved, err := NewDepositRepository(db).UpdateStatus(ctx, id,
			domain.DepositWaitingApproval, domain.DepositCancelled)
		require.NoError(t, err)
		assert.False(t, moved)
	})
}

func TestDepositSetProviderCharge(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("stamps references on the row", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE deposits SET provider_ref = \$1, payment_code = \$2`).
			WithArgs("cob-123", "00020126pix", id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := NewDepositRepository(db).SetProviderCharge(ctx, id, "cob-123", "00020126pix")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE deposits SET provider_ref = \$1, payment_code = \$2`).
			WithArgs("cob-123", "00020126pix", id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewDepositRepository(db).SetProviderCharge(ctx, id, "cob-123", "00020126pix")
		assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
	})
}

func TestWithdrawalMarkRefundedOnce(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("first flip wins", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE withdrawals SET refunded = TRUE`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		won, err := NewWithdrawalRepository(db).MarkRefunded(ctx, id)
		require.NoError(t, err)
		assert.True(t, won)
	})

	t.Run("second flip loses", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE withdrawals SET refunded = TRUE`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		won, err := NewWithdrawalRepository(db).MarkRefunded(ctx, id)
		require.NoError(t, err)
		assert.False(t, won)
	})
}
