package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WithdrawalStatus is the lifecycle state of a PIX cash-out.
type WithdrawalStatus string

const (
	// WithdrawalPending means the transfer was sent to the provider and
	// awaits confirmation. Automatic flows debit the payer at this point.
	WithdrawalPending WithdrawalStatus = "PENDING"
	// WithdrawalPendingApproval means the transfer waits for an admin to
	// release it manually. No balance was debited yet.
	WithdrawalPendingApproval WithdrawalStatus = "PENDING_APPROVAL"
	// WithdrawalCompleted means the provider settled the transfer.
	WithdrawalCompleted WithdrawalStatus = "COMPLETED"
	// WithdrawalCancelled means the transfer was cancelled before settling.
	WithdrawalCancelled WithdrawalStatus = "CANCELLED"
	// WithdrawalFailed means the provider could not execute the transfer.
	WithdrawalFailed WithdrawalStatus = "FAILED"
	// WithdrawalRejected means the provider refused the transfer.
	WithdrawalRejected WithdrawalStatus = "REJECTED"
)

// Terminal reports whether the status admits no further transitions.
func (s WithdrawalStatus) Terminal() bool {
	switch s {
	case WithdrawalCompleted, WithdrawalCancelled, WithdrawalFailed, WithdrawalRejected:
		return true
	}
	return false
}

// Failed reports whether the status is terminal and unsuccessful.
func (s WithdrawalStatus) Failed() bool {
	return s == WithdrawalCancelled || s == WithdrawalFailed || s == WithdrawalRejected
}

// PixKeyType identifies the DICT key kind of a beneficiary.
type PixKeyType string

const (
	PixKeyCPF    PixKeyType = "CPF"
	PixKeyCNPJ   PixKeyType = "CNPJ"
	PixKeyEmail  PixKeyType = "EMAIL"
	PixKeyPhone  PixKeyType = "PHONE"
	PixKeyRandom PixKeyType = "EVP"
)

// Withdrawal is a cash-out transaction.
//
// Debit point: automatic withdrawals debit TotalDebited from the payer at
// request time; manual-approval withdrawals debit only when an admin
// releases them. A given row is debited at exactly one of those points,
// and a failed terminal state refunds the debited total exactly once.
type Withdrawal struct {
	ID           uuid.UUID
	ExternalID   string
	AccountID    uuid.UUID
	Provider     string
	ProviderRef  string
	Gross        decimal.Decimal
	Net          decimal.Decimal
	Fee          decimal.Decimal
	FeeKind      FeeKind
	FeeSeparate  bool
	TotalDebited decimal.Decimal
	PixKey       string
	PixKeyType   PixKeyType
	CallbackURL  string
	Automatic    bool
	Refunded     bool
	Status       WithdrawalStatus
	SettledAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
