package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SplitKind tells whether a directive is a one-off attached to a single
// transaction or a standing relationship rule.
type SplitKind string

const (
	// SplitOneOff is attached to a single deposit by the merchant request.
	SplitOneOff SplitKind = "ONE_OFF"
	// SplitManager is a standing rule paying the payer's manager.
	SplitManager SplitKind = "MANAGER"
	// SplitAffiliate is a standing rule paying the payer's affiliate.
	SplitAffiliate SplitKind = "AFFILIATE"
)

// SplitDirective names a beneficiary and the percentage of the splittable
// fee base it receives. Standing rules (manager/affiliate) are created
// lazily the first time a qualifying deposit is processed and persist
// thereafter.
type SplitDirective struct {
	ID               uuid.UUID
	Kind             SplitKind
	PayerAccountID   uuid.UUID
	BeneficiaryID    uuid.UUID
	BeneficiaryEmail string
	Percentage       decimal.Decimal
	CreatedAt        time.Time
}

// SplitExecutionStatus is the state of one directive applied to one
// transaction.
type SplitExecutionStatus string

const (
	SplitPending    SplitExecutionStatus = "PENDING"
	SplitProcessing SplitExecutionStatus = "PROCESSING"
	SplitCompleted  SplitExecutionStatus = "COMPLETED"
	SplitFailed     SplitExecutionStatus = "FAILED"
	SplitCancelled  SplitExecutionStatus = "CANCELLED"
)

// SplitExecution is one row per (directive, transaction) pair. The ledger
// enforces a unique index on that pair, so "at most one non-failed
// execution" holds by construction: a retry after FAILED updates the
// existing row instead of inserting a sibling.
type SplitExecution struct {
	ID            uuid.UUID
	DirectiveID   uuid.UUID
	TransactionID uuid.UUID
	BaseAmount    decimal.Decimal
	SplitAmount   decimal.Decimal
	Status        SplitExecutionStatus
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
