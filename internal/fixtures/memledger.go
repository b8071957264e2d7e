// Package fixtures provides an in-memory ledger implementing the
// repository contracts, used across the core engine tests.
package fixtures

import (
	"context"
	"sync"

	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/andrevalim/pixhub/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemLedger is a thread-safe in-memory ledger. Do runs the callback over
// the same state without rollback semantics; tests that care about
// atomicity assert on the observable outcome instead.
type MemLedger struct {
	mu sync.Mutex

	Accounts    map[uuid.UUID]*domain.Account
	Deposits    map[uuid.UUID]*domain.Deposit
	Withdrawals map[uuid.UUID]*domain.Withdrawal
	Directives  map[uuid.UUID]*domain.SplitDirective
	Executions  map[uuid.UUID]*domain.SplitExecution

	// FailDecrement forces DecrementBalance to fail for one account id,
	// to exercise per-directive failure isolation.
	FailDecrement map[uuid.UUID]error
}

// NewMemLedger creates an empty in-memory ledger.
func NewMemLedger() *MemLedger {
	return &MemLedger{
		Accounts:      make(map[uuid.UUID]*domain.Account),
		Deposits:      make(map[uuid.UUID]*domain.Deposit),
		Withdrawals:   make(map[uuid.UUID]*domain.Withdrawal),
		Directives:    make(map[uuid.UUID]*domain.SplitDirective),
		Executions:    make(map[uuid.UUID]*domain.SplitExecution),
		FailDecrement: make(map[uuid.UUID]error),
	}
}

// Do implements repository.UnitOfWork.
func (m *MemLedger) Do(_ context.Context, fn func(r repository.Repositories) error) error {
	return fn(m.Repos())
}

// Repos implements repository.UnitOfWork.
func (m *MemLedger) Repos() repository.Repositories {
	return repository.Repositories{
		Deposits:    (*memDeposits)(m),
		Withdrawals: (*memWithdrawals)(m),
		Accounts:    (*memAccounts)(m),
		Splits:      (*memSplits)(m),
	}
}

// AddAccount seeds an account.
func (m *MemLedger) AddAccount(a *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Accounts[a.ID] = a
}

// --- accounts ---

type memAccounts MemLedger

func (m *memAccounts) Get(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return a, nil
}

func (m *memAccounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.Accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *memAccounts) IncrementBalance(_ context.Context, id uuid.UUID, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Balance = a.Balance.Add(amount)
	return nil
}

func (m *memAccounts) DecrementBalance(_ context.Context, id uuid.UUID, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.FailDecrement[id]; ok {
		return err
	}
	a, ok := m.Accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if a.Balance.LessThan(amount) {
		return domain.ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	return nil
}

func (m *memAccounts) AddWithdrawn(_ context.Context, id uuid.UUID, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Withdrawn = a.Withdrawn.Add(amount)
	return nil
}

// --- deposits ---

type memDeposits MemLedger

func (m *memDeposits) Create(_ context.Context, d *domain.Deposit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Deposits {
		if existing.ExternalID == d.ExternalID {
			return domain.ErrDuplicateKey
		}
	}
	cp := *d
	m.Deposits[d.ID] = &cp
	return nil
}

func (m *memDeposits) Get(_ context.Context, id uuid.UUID) (*domain.Deposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.Deposits[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return d, nil
}

func (m *memDeposits) GetByExternalID(_ context.Context, externalID string) (*domain.Deposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.Deposits {
		if d.ExternalID == externalID {
			return d, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *memDeposits) GetByProviderRef(_ context.Context, ref string) (*domain.Deposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.Deposits {
		if d.ProviderRef == ref {
			return d, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *memDeposits) SetProviderCharge(_ context.Context, id uuid.UUID, ref, paymentCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.Deposits[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	d.ProviderRef = ref
	d.PaymentCode = paymentCode
	return nil
}

func (m *memDeposits) UpdateStatus(_ context.Context, id uuid.UUID, from, to domain.DepositStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.Deposits[id]
	if !ok {
		return false, domain.ErrTransactionNotFound
	}
	if d.Status != from {
		return false, nil
	}
	d.Status = to
	return true, nil
}

// --- withdrawals ---

type memWithdrawals MemLedger

func (m *memWithdrawals) Create(_ context.Context, w *domain.Withdrawal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Withdrawals {
		if existing.ExternalID == w.ExternalID {
			return domain.ErrDuplicateKey
		}
	}
	cp := *w
	m.Withdrawals[w.ID] = &cp
	return nil
}

func (m *memWithdrawals) Get(_ context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.Withdrawals[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return w, nil
}

func (m *memWithdrawals) GetByExternalID(_ context.Context, externalID string) (*domain.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.Withdrawals {
		if w.ExternalID == externalID {
			return w, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *memWithdrawals) GetByProviderRef(_ context.Context, ref string) (*domain.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.Withdrawals {
		if w.ProviderRef == ref {
			return w, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *memWithdrawals) UpdateStatus(_ context.Context, id uuid.UUID, from, to domain.WithdrawalStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.Withdrawals[id]
	if !ok {
		return false, domain.ErrTransactionNotFound
	}
	if w.Status != from {
		return false, nil
	}
	w.Status = to
	return true, nil
}

func (m *memWithdrawals) SetProviderRef(_ context.Context, id uuid.UUID, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.Withdrawals[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	w.ProviderRef = ref
	return nil
}

func (m *memWithdrawals) MarkRefunded(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.Withdrawals[id]
	if !ok {
		return false, domain.ErrTransactionNotFound
	}
	if w.Refunded {
		return false, nil
	}
	w.Refunded = true
	return true, nil
}

// --- splits ---

type memSplits MemLedger

func (m *memSplits) GetDirective(_ context.Context, id uuid.UUID) (*domain.SplitDirective, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.Directives[id]
	if !ok {
		return nil, domain.ErrBeneficiaryNotFound
	}
	return d, nil
}

func (m *memSplits) FindStandingDirective(_ context.Context, kind domain.SplitKind, payerID uuid.UUID) (*domain.SplitDirective, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.Directives {
		if d.Kind == kind && d.PayerAccountID == payerID {
			return d, nil
		}
	}
	return nil, nil
}

func (m *memSplits) CreateDirective(_ context.Context, d *domain.SplitDirective) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.Directives[d.ID] = &cp
	return nil
}

func (m *memSplits) ListExecutionsByTransaction(_ context.Context, txID uuid.UUID) ([]*domain.SplitExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.SplitExecution
	for _, e := range m.Executions {
		if e.TransactionID == txID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memSplits) CreateExecution(_ context.Context, e *domain.SplitExecution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.Executions {
		if existing.DirectiveID == e.DirectiveID && existing.TransactionID == e.TransactionID {
			if existing.Status != domain.SplitFailed {
				return domain.ErrDuplicateKey
			}
			delete(m.Executions, id)
			break
		}
	}
	cp := *e
	m.Executions[e.ID] = &cp
	return nil
}

func (m *memSplits) UpdateExecution(_ context.Context, e *domain.SplitExecution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Executions[e.ID]; !ok {
		return domain.ErrTransactionNotFound
	}
	cp := *e
	m.Executions[e.ID] = &cp
	return nil
}

var _ repository.UnitOfWork = (*MemLedger)(nil)
