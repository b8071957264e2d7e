// Package repository defines the ledger contracts consumed by the core
// engines. All balance mutations are atomic operations; application code
// never read-modify-writes a balance.
package repository

import (
	"context"

	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositRepository persists cash-in transactions.
type DepositRepository interface {
	Create(ctx context.Context, d *domain.Deposit) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Deposit, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.Deposit, error)
	GetByProviderRef(ctx context.Context, ref string) (*domain.Deposit, error)
	// UpdateStatus advances status from one state to another as a single
	// compare-and-set. It reports false when the row was not in the
	// expected state, which is how webhook redelivery becomes a no-op.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.DepositStatus) (bool, error)
	// SetProviderCharge stamps the acquirer's charge reference and payment
	// code on a row persisted before the provider call.
	SetProviderCharge(ctx context.Context, id uuid.UUID, ref, paymentCode string) error
}

// WithdrawalRepository persists cash-out transactions.
type WithdrawalRepository interface {
	Create(ctx context.Context, w *domain.Withdrawal) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.Withdrawal, error)
	GetByProviderRef(ctx context.Context, ref string) (*domain.Withdrawal, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.WithdrawalStatus) (bool, error)
	SetProviderRef(ctx context.Context, id uuid.UUID, ref string) error
	// MarkRefunded flips the refunded flag once; it reports false when a
	// concurrent caller already won, so a failed withdrawal is refunded
	// at most once.
	MarkRefunded(ctx context.Context, id uuid.UUID) (bool, error)
}

// AccountRepository persists merchant accounts and their balances.
type AccountRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	// IncrementBalance atomically credits the available balance.
	IncrementBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	// DecrementBalance atomically debits the available balance, failing
	// with domain.ErrInsufficientFunds when it would go negative.
	DecrementBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	// AddWithdrawn bumps the cumulative withdrawn counter.
	AddWithdrawn(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
}

// SplitRepository persists split directives and their executions.
type SplitRepository interface {
	GetDirective(ctx context.Context, id uuid.UUID) (*domain.SplitDirective, error)
	// FindStandingDirective returns (nil, nil) when the payer has no rule
	// of the given kind yet.
	FindStandingDirective(ctx context.Context, kind domain.SplitKind, payerID uuid.UUID) (*domain.SplitDirective, error)
	CreateDirective(ctx context.Context, d *domain.SplitDirective) error
	ListExecutionsByTransaction(ctx context.Context, txID uuid.UUID) ([]*domain.SplitExecution, error)
	// CreateExecution inserts one execution row. The unique index on
	// (directive_id, transaction_id) turns a duplicate into
	// domain.ErrDuplicateKey, except that an existing FAILED row is
	// reclaimed in place so the directive can be retried.
	CreateExecution(ctx context.Context, e *domain.SplitExecution) error
	UpdateExecution(ctx context.Context, e *domain.SplitExecution) error
}

// Repositories groups the ledger repositories bound to one session.
type Repositories struct {
	Deposits    DepositRepository
	Withdrawals WithdrawalRepository
	Accounts    AccountRepository
	Splits      SplitRepository
}

// UnitOfWork runs a function inside one ledger transaction. Every
// repository handed to fn shares the same session, so balance mutations
// and status flips commit or roll back together.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(r Repositories) error) error
	// Repos returns repositories outside any transaction, for reads and
	// single-statement writes.
	Repos() Repositories
}
