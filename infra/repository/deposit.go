package repository

import (
	"context"

	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type depositRepository struct {
	db *gorm.DB
}

// NewDepositRepository creates the gorm-backed deposit repository.
func NewDepositRepository(db *gorm.DB) *depositRepository {
	return &depositRepository{db: db}
}

func (r *depositRepository) Create(ctx context.Context, d *domain.Deposit) error {
	m := depositToModel(d)
	return mapError(r.db.WithContext(ctx).Create(m).Error, domain.ErrTransactionNotFound)
}

func (r *depositRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Deposit, error) {
	var m Deposit
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapError(err, domain.ErrTransactionNotFound)
	}
	return depositToDomain(&m), nil
}

func (r *depositRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Deposit, error) {
	var m Deposit
	if err := r.db.WithContext(ctx).First(&m, "external_id = ?", externalID).Error; err != nil {
		return nil, mapError(err, domain.ErrTransactionNotFound)
	}
	return depositToDomain(&m), nil
}

func (r *depositRepository) GetByProviderRef(ctx context.Context, ref string) (*domain.Deposit, error) {
	var m Deposit
	if err := r.db.WithContext(ctx).First(&m, "provider_ref = ?", ref).Error; err != nil {
		return nil, mapError(err, domain.ErrTransactionNotFound)
	}
	return depositToDomain(&m), nil
}

func (r *depositRepository) SetProviderCharge(ctx context.Context, id uuid.UUID, ref, paymentCode string) error {
	tx := r.db.WithContext(ctx).Exec(
		`UPDATE deposits SET provider_ref = ?, payment_code = ?, updated_at = NOW() WHERE id = ?`,
		ref, paymentCode, id)
	if tx.Error != nil {
		return mapError(tx.Error, domain.ErrTransactionNotFound)
	}
	if tx.RowsAffected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// UpdateStatus is a single guarded UPDATE; zero affected rows means the
// row had already moved on. Reaching RELEASE also stamps released_at.
func (r *depositRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.DepositStatus) (bool, error) {
	var tx *gorm.DB
	if to == domain.DepositReleased {
		tx = r.db.WithContext(ctx).Exec(
			`UPDATE deposits SET status = ?, released_at = NOW(), updated_at = NOW() WHERE id = ? AND status = ?`,
			string(to), id, string(from))
	} else {
		tx = r.db.WithContext(ctx).Exec(
			`UPDATE deposits SET status = ?, updated_at = NOW() WHERE id = ? AND status = ?`,
			string(to), id, string(from))
	}
	if tx.Error != nil {
		return false, mapError(tx.Error, domain.ErrTransactionNotFound)
	}
	return tx.RowsAffected == 1, nil
}
