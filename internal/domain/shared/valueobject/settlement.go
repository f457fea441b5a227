// Package valueobject holds the monetary conventions every aggregate settles
// against.
package valueobject

import "github.com/shopspring/decimal"

// MinorUnitPlaces is the number of decimal places balances and charges are
// settled at. All rounding uses banker's rounding so that many small
// transactions do not drift in one direction.
const MinorUnitPlaces int32 = 2

// RoundSettlement rounds an amount half-even to the settlement precision.
// Every derived charge goes through this so per-record and aggregate totals
// cannot disagree.
func RoundSettlement(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundBank(MinorUnitPlaces)
}
