package payment

import (
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

// ComputeChange compares cash tendered against a bill total.
func ComputeChange(total, tendered decimal.Decimal) (ChangeResult, error) {
	if total.IsNegative() {
		return ChangeResult{}, apperror.Validation("total must not be negative")
	}
	if tendered.IsNegative() {
		return ChangeResult{}, apperror.Validation("amount given must not be negative")
	}

	res := ChangeResult{
		Total:     total,
		Tendered:  tendered,
		Change:    decimal.Zero,
		Shortfall: decimal.Zero,
	}
	switch diff := tendered.Sub(total); diff.Sign() {
	case 0:
		res.Outcome = ChangeExact
	case 1:
		res.Outcome = ChangeDue
		res.Change = diff
	default:
		res.Outcome = ChangeInsufficient
		res.Shortfall = diff.Neg()
	}
	return res, nil
}
