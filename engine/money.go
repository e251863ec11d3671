package engine

import "github.com/shopspring/decimal"

// =============================================================================
// MONEY HELPERS - Single-currency amounts rounded to the cent
// =============================================================================

// RoundCents rounds a monetary amount to the cent. Every arithmetic step in
// the engine rounds immediately; unrounded fractions are never accumulated
// or re-derived into cycle counts.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Dollars builds an exact decimal amount from whole dollars.
func Dollars(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// MustMoney parses an exact decimal amount, for table data and tests.
func MustMoney(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// centTolerance is the largest difference treated as equal after rounding.
var centTolerance = decimal.New(1, -2) // 0.01

// withinCent reports whether two already-rounded amounts differ by at most
// one cent.
func withinCent(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(centTolerance)
}
