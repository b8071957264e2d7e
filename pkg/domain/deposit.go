package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositStatus is the lifecycle state of a PIX cash-in.
type DepositStatus string

const (
	// DepositWaitingApproval is the initial state: the charge was created
	// at the provider and awaits payment confirmation.
	DepositWaitingApproval DepositStatus = "WAITING_FOR_APPROVAL"
	// DepositReleased means the provider confirmed payment and the payer's
	// balance was credited with the net amount.
	DepositReleased DepositStatus = "RELEASE"
	// DepositCancelled means the charge expired or was refused.
	DepositCancelled DepositStatus = "CANCELLED"
)

// Terminal reports whether the status admits no further transitions.
func (s DepositStatus) Terminal() bool {
	return s == DepositReleased || s == DepositCancelled
}

// Customer holds the payer identity forwarded to the acquirer.
type Customer struct {
	Name     string
	Document string
	Email    string
	Phone    string
}

// Deposit is a cash-in transaction. It is created when a charge is
// initiated and mutated only by the reconciliation state machine (to
// RELEASE or CANCELLED) or by the allocator (id retry before first
// persist). Rows are never deleted.
type Deposit struct {
	ID           uuid.UUID
	ExternalID   string
	AccountID    uuid.UUID
	Provider     string
	ProviderRef  string
	Gross        decimal.Decimal
	Net          decimal.Decimal
	Fee          decimal.Decimal
	FeeKind      FeeKind
	// SplitBase is the percentage-computed portion of the fee, captured
	// at charge time. Zero whenever the fee resolved as FIXED.
	SplitBase   decimal.Decimal
	PaymentCode string
	Customer    Customer
	CallbackURL string
	Split       *InlineSplit
	Status      DepositStatus
	ReleasedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InlineSplit is a one-off split directive attached to a single deposit.
type InlineSplit struct {
	BeneficiaryEmail string
	Percentage       decimal.Decimal
}
