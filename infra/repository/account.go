package repository

import (
	"context"

	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates the gorm-backed account repository.
func NewAccountRepository(db *gorm.DB) *accountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var m Account
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapError(err, domain.ErrAccountNotFound)
	}
	return accountToDomain(&m), nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var m Account
	if err := r.db.WithContext(ctx).First(&m, "email = ?", email).Error; err != nil {
		return nil, mapError(err, domain.ErrAccountNotFound)
	}
	return accountToDomain(&m), nil
}

func (r *accountRepository) IncrementBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	tx := r.db.WithContext(ctx).Exec(
		`UPDATE accounts SET balance = balance + ?, updated_at = NOW() WHERE id = ?`, amount, id)
	if tx.Error != nil {
		return mapError(tx.Error, domain.ErrAccountNotFound)
	}
	if tx.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// DecrementBalance debits with the non-negative guard in the WHERE
// clause, so two concurrent debits can never overdraw together.
func (r *accountRepository) DecrementBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	tx := r.db.WithContext(ctx).Exec(
		`UPDATE accounts SET balance = balance - ?, updated_at = NOW() WHERE id = ? AND balance >= ?`,
		amount, id, amount)
	if tx.Error != nil {
		return mapError(tx.Error, domain.ErrAccountNotFound)
	}
	if tx.RowsAffected == 1 {
		return nil
	}

	// Zero rows: missing account or short balance.
	var count int64
	if err := r.db.WithContext(ctx).Model(&Account{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return mapError(err, domain.ErrAccountNotFound)
	}
	if count == 0 {
		return domain.ErrAccountNotFound
	}
	return domain.ErrInsufficientFunds
}

func (r *accountRepository) AddWithdrawn(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	tx := r.db.WithContext(ctx).Exec(
		`UPDATE accounts SET withdrawn = withdrawn + ?, updated_at = NOW() WHERE id = ?`, amount, id)
	if tx.Error != nil {
		return mapError(tx.Error, domain.ErrAccountNotFound)
	}
	if tx.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}
