package repository

import (
	"context"
	"errors"

	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type splitRepository struct {
	db *gorm.DB
}

// NewSplitRepository creates the gorm-backed split repository.
func NewSplitRepository(db *gorm.DB) *splitRepository {
	return &splitRepository{db: db}
}

func (r *splitRepository) GetDirective(ctx context.Context, id uuid.UUID) (*domain.SplitDirective, error) {
	var m SplitDirective
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapError(err, domain.ErrBeneficiaryNotFound)
	}
	return directiveToDomain(&m), nil
}

func (r *splitRepository) FindStandingDirective(ctx context.Context, kind domain.SplitKind, payerID uuid.UUID) (*domain.SplitDirective, error) {
	var m SplitDirective
	err := r.db.WithContext(ctx).
		First(&m, "kind = ? AND payer_account_id = ?", string(kind), payerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return directiveToDomain(&m), nil
}

func (r *splitRepository) CreateDirective(ctx context.Context, d *domain.SplitDirective) error {
	m := directiveToModel(d)
	return mapError(r.db.WithContext(ctx).Create(m).Error, domain.ErrBeneficiaryNotFound)
}

func (r *splitRepository) ListExecutionsByTransaction(ctx context.Context, txID uuid.UUID) ([]*domain.SplitExecution, error) {
	var models []SplitExecution
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", txID).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.SplitExecution, 0, len(models))
	for i := range models {
		out = append(out, executionToDomain(&models[i]))
	}
	return out, nil
}

// CreateExecution inserts the row, relying on the composite unique
// index. When the insert collides with an existing FAILED row, that row
// is reclaimed in place so the directive can be retried; any other
// collision surfaces domain.ErrDuplicateKey.
func (r *splitRepository) CreateExecution(ctx context.Context, e *domain.SplitExecution) error {
	m := executionToModel(e)
	err := mapError(r.db.WithContext(ctx).Create(m).Error, domain.ErrTransactionNotFound)
	if !errors.Is(err, domain.ErrDuplicateKey) {
		return err
	}

	var existing SplitExecution
	findErr := r.db.WithContext(ctx).
		First(&existing, "directive_id = ? AND transaction_id = ?", e.DirectiveID, e.TransactionID).Error
	if findErr != nil {
		return mapError(findErr, domain.ErrTransactionNotFound)
	}
	if existing.Status != string(domain.SplitFailed) {
		return domain.ErrDuplicateKey
	}

	// Reclaim: the caller keeps working with the surviving row id.
	e.ID = existing.ID
	tx := r.db.WithContext(ctx).Exec(
		`UPDATE split_executions SET base_amount = ?, split_amount = ?, status = ?, error_message = ?, updated_at = NOW()
		 WHERE id = ? AND status = ?`,
		e.BaseAmount, e.SplitAmount, string(e.Status), e.ErrorMessage, existing.ID, string(domain.SplitFailed))
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		// A concurrent retry reclaimed it first.
		return domain.ErrDuplicateKey
	}
	return nil
}

func (r *splitRepository) UpdateExecution(ctx context.Context, e *domain.SplitExecution) error {
	tx := r.db.WithContext(ctx).Exec(
		`UPDATE split_executions SET status = ?, error_message = ?, updated_at = NOW() WHERE id = ?`,
		string(e.Status), e.ErrorMessage, e.ID)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}
