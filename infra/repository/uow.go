package repository

import (
	"context"

	"github.com/andrevalim/pixhub/pkg/repository"
	"gorm.io/gorm"
)

// UoW binds the repositories to one gorm session. Inside Do every
// repository shares the transaction, so a balance debit and a status
// flip commit or roll back together.
type UoW struct {
	db *gorm.DB
}

// NewUoW creates a unit of work over the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{db: db}
}

// Do runs fn inside one database transaction.
func (u *UoW) Do(ctx context.Context, fn func(r repository.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

// Repos returns repositories bound to the base session, for reads and
// single-statement writes.
func (u *UoW) Repos() repository.Repositories {
	return reposFor(u.db)
}

func reposFor(db *gorm.DB) repository.Repositories {
	return repository.Repositories{
		Deposits:    NewDepositRepository(db),
		Withdrawals: NewWithdrawalRepository(db),
		Accounts:    NewAccountRepository(db),
		Splits:      NewSplitRepository(db),
	}
}

var _ repository.UnitOfWork = (*UoW)(nil)
