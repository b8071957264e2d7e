package domain

import "github.com/shopspring/decimal"

// FeeKind describes how a fee was resolved. Splits apply only to
// percentage fees; a FIXED fee has no splittable base.
type FeeKind string

const (
	FeeFixed      FeeKind = "FIXED"
	FeePercentage FeeKind = "PERCENTAGE"
)

// FeeConfig is the fee schedule of an account (or the platform default).
// It is owned by account settings and read-only for the core engines.
type FeeConfig struct {
	// Percentage is the standard deposit fee, e.g. 4 for 4%.
	Percentage decimal.Decimal
	// Baseline is the minimum flat fee floor applied in standard mode.
	Baseline decimal.Decimal

	// Flexible mode picks between a low fixed fee and a high percentage
	// fee depending on the gross amount.
	FlexibleEnabled   bool
	FlexibleThreshold decimal.Decimal
	FlexibleLowFee    decimal.Decimal
	FlexibleHighPct   decimal.Decimal

	// Surcharge is an additional flat per-transaction amount charged by
	// the acquirer, added on top of the resolved fee.
	Surcharge decimal.Decimal

	// WithdrawalPct is the percentage fee for API-origin withdrawals.
	WithdrawalPct decimal.Decimal
	// WithdrawalWebFee is the flat fee for withdrawals requested through
	// the web panel.
	WithdrawalWebFee decimal.Decimal
}
