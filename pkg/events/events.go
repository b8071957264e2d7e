// Package events holds the domain events emitted by the reconciliation
// state machine and consumed by the split engine and merchant notifier.
package events

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type names used for bus registration.
const (
	TypeDepositReleased     = "DepositReleased"
	TypeDepositCancelled    = "DepositCancelled"
	TypeWithdrawalFinalized = "WithdrawalFinalized"
)

// DepositReleased fires after a deposit reached RELEASE and the payer's
// balance was credited. Handlers run split execution and the merchant
// callback.
type DepositReleased struct {
	TransactionID uuid.UUID
	ExternalID    string
	AccountID     uuid.UUID
	Net           decimal.Decimal
	CallbackURL   string
}

func (DepositReleased) Type() string { return TypeDepositReleased }

// DepositCancelled fires after a deposit reached CANCELLED. No balance
// moved; the merchant is still notified.
type DepositCancelled struct {
	TransactionID uuid.UUID
	ExternalID    string
	AccountID     uuid.UUID
	CallbackURL   string
}

func (DepositCancelled) Type() string { return TypeDepositCancelled }

// WithdrawalFinalized fires when a withdrawal reaches any terminal
// state.
type WithdrawalFinalized struct {
	TransactionID uuid.UUID
	ExternalID    string
	AccountID     uuid.UUID
	Status        string
	CallbackURL   string
}

func (WithdrawalFinalized) Type() string { return TypeWithdrawalFinalized }
