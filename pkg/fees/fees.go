// Package fees computes the platform fee for deposits and withdrawals.
// All functions are pure; monetary arithmetic uses decimals at full
// precision, rounding to two digits only at the point of persistence.
package fees

import (
	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Breakdown is the result of a fee computation.
type Breakdown struct {
	Gross decimal.Decimal
	Fee   decimal.Decimal
	Net   decimal.Decimal
	Kind  domain.FeeKind

	// SplittableBase is the percentage-computed portion of the fee. A
	// FIXED fee yields a zero base, so no split ever executes on it. The
	// acquirer surcharge is likewise never splittable.
	SplittableBase decimal.Decimal

	// TotalToDebit only applies to withdrawals: the amount removed from
	// the payer's balance. Equals Gross plus Fee when the fee is charged
	// separately ("taxa por fora"), Gross otherwise.
	TotalToDebit decimal.Decimal
}

// Deposit resolves the fee for a cash-in of the given gross amount.
//
// Flexible mode picks the high percentage at or above the threshold
// (inclusive) and the low fixed fee below it. Standard mode applies the
// percentage with the baseline minimum as a floor; hitting the floor
// turns the fee into a FIXED one. The acquirer surcharge is added last.
func Deposit(gross decimal.Decimal, cfg domain.FeeConfig) (Breakdown, error) {
	if gross.LessThanOrEqual(decimal.Zero) {
		return Breakdown{}, domain.ErrInvalidAmount
	}

	var fee, base decimal.Decimal
	kind := domain.FeePercentage

	switch {
	case cfg.FlexibleEnabled && gross.GreaterThanOrEqual(cfg.FlexibleThreshold):
		fee = gross.Mul(cfg.FlexibleHighPct).Div(hundred)
		base = fee
	case cfg.FlexibleEnabled:
		fee = cfg.FlexibleLowFee
		kind = domain.FeeFixed
	default:
		fee = gross.Mul(cfg.Percentage).Div(hundred)
		if fee.LessThan(cfg.Baseline) {
			fee = cfg.Baseline
			kind = domain.FeeFixed
		} else {
			base = fee
		}
	}

	fee = fee.Add(cfg.Surcharge)

	return Breakdown{
		Gross:          gross,
		Fee:            fee,
		Net:            gross.Sub(fee),
		Kind:           kind,
		SplittableBase: base,
	}, nil
}

// Withdrawal resolves the fee for a cash-out of the given gross amount.
//
// Web-panel withdrawals pay the flat web fee; API-origin withdrawals pay
// the percentage fee. feeSeparate changes only how much is debited from
// the payer, never what the beneficiary receives: net is always
// gross - fee, while the debit grows to gross + fee when the fee is
// charged separately. The balance check against TotalToDebit belongs to
// the orchestrator, not here.
func Withdrawal(gross decimal.Decimal, cfg domain.FeeConfig, webOrigin, feeSeparate bool) (Breakdown, error) {
	if gross.LessThanOrEqual(decimal.Zero) {
		return Breakdown{}, domain.ErrInvalidAmount
	}

	var fee, base decimal.Decimal
	kind := domain.FeeFixed
	if webOrigin {
		fee = cfg.WithdrawalWebFee
	} else {
		fee = gross.Mul(cfg.WithdrawalPct).Div(hundred)
		kind = domain.FeePercentage
		base = fee
	}

	total := gross
	if feeSeparate {
		total = gross.Add(fee)
	}

	return Breakdown{
		Gross:          gross,
		Fee:            fee,
		Net:            gross.Sub(fee),
		Kind:           kind,
		SplittableBase: base,
		TotalToDebit:   total,
	}, nil
}

// Round2 rounds a decimal to two digits (half away from zero) for
// persistence. Intermediate math keeps full precision to avoid
// compounding rounding error across splits.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
