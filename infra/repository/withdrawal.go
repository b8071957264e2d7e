package repository

import (
	"context"

	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type withdrawalRepository struct {
	db *gorm.DB
}

// NewWithdrawalRepository creates the gorm-backed withdrawal repository.
func NewWithdrawalRepository(db *gorm.DB) *withdrawalRepository {
	return &withdrawalRepository{db: db}
}

func (r *withdrawalRepository) Create(ctx context.Context, w *domain.Withdrawal) error {
	m := withdrawalToModel(w)
	return mapError(r.db.WithContext(ctx).Create(m).Error, domain.ErrTransactionNotFound)
}

func (r *withdrawalRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	var m Withdrawal
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapError(err, domain.ErrTransactionNotFound)
	}
	return withdrawalToDomain(&m), nil
}

func (r *withdrawalRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Withdrawal, error) {
	var m Withdrawal
	if err := r.db.WithContext(ctx).First(&m, "external_id = ?", externalID).Error; err != nil {
		return nil, mapError(err, domain.ErrTransactionNotFound)
	}
	return withdrawalToDomain(&m), nil
}

func (r *withdrawalRepository) GetByProviderRef(ctx context.Context, ref string) (*domain.Withdrawal, error) {
	var m Withdrawal
	if err := r.db.WithContext(ctx).First(&m, "provider_ref = ?", ref).Error; err != nil {
		return nil, mapError(err, domain.ErrTransactionNotFound)
	}
	return withdrawalToDomain(&m), nil
}

// UpdateStatus is a single guarded UPDATE. Terminal targets also stamp
// settled_at.
func (r *withdrawalRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.WithdrawalStatus) (bool, error) {
	var tx *gorm.DB
	if to.Terminal() {
		tx = r.db.WithContext(ctx).Exec(
			`UPDATE withdrawals SET status = ?, settled_at = NOW(), updated_at = NOW() WHERE id = ? AND status = ?`,
			string(to), id, string(from))
	} else {
		tx = r.db.WithContext(ctx).Exec(
			`UPDATE withdrawals SET status = ?, updated_at = NOW() WHERE id = ? AND status = ?`,
			string(to), id, string(from))
	}
	if tx.Error != nil {
		return false, mapError(tx.Error, domain.ErrTransactionNotFound)
	}
	return tx.RowsAffected == 1, nil
}

func (r *withdrawalRepository) SetProviderRef(ctx context.Context, id uuid.UUID, ref string) error {
	tx := r.db.WithContext(ctx).Exec(
		`UPDATE withdrawals SET provider_ref = ?, updated_at = NOW() WHERE id = ?`, ref, id)
	if tx.Error != nil {
		return mapError(tx.Error, domain.ErrTransactionNotFound)
	}
	if tx.RowsAffected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// MarkRefunded flips the flag exactly once; the guard in the WHERE
// clause is the at-most-once refund barrier.
func (r *withdrawalRepository) MarkRefunded(ctx context.Context, id uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Exec(
		`UPDATE withdrawals SET refunded = TRUE, updated_at = NOW() WHERE id = ? AND refunded = FALSE`, id)
	if tx.Error != nil {
		return false, mapError(tx.Error, domain.ErrTransactionNotFound)
	}
	return tx.RowsAffected == 1, nil
}
