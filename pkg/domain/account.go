package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is a merchant account on the platform. Balance and Withdrawn
// are mutated only through the ledger's atomic increment/decrement
// operations, invoked by reconciliation and split execution; they are
// never read-modify-written in application code.
type Account struct {
	ID        uuid.UUID
	Email     string
	Document  string
	Balance   decimal.Decimal
	Withdrawn decimal.Decimal

	// Standing split relationships. A nil pointer means no link; a link
	// with a zero percentage never materializes a directive.
	ManagerID    *uuid.UUID
	ManagerPct   decimal.Decimal
	AffiliateID  *uuid.UUID
	AffiliatePct decimal.Decimal

	// FeeSeparate debits the withdrawal fee in addition to the requested
	// amount ("taxa por fora") instead of subtracting it.
	FeeSeparate bool

	Fees      FeeConfig
	CreatedAt time.Time
	UpdatedAt time.Time
}
