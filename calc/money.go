/*
money.go - Fixed-point arithmetic policy for the payroll engine

PURPOSE:
  Every monetary add/subtract/multiply/divide in the engine and the
  garnishment distributor goes through this file so rounding is uniform.
  A payroll record that differs by a stotinka depending on evaluation
  order is a defect, so the scale/rounding policy lives in exactly one
  place.

POLICY:
  - Stored monetary amounts: scale 2, round half up.
  - Intermediate ratios (hourly rates, proration factors): scale 8,
    rounded to scale 2 only at the end of a formula. This avoids
    compounding rounding error across multi-step calculations.
  - No binary floating point anywhere in the money path. float64 appears
    only at the JSON boundary in the api package.

USAGE:
  tax := calc.PercentOf(taxBase, rates.FlatTaxPercent)
  base := calc.Prorate(contract.BaseSalary, workedDays, workingDays)

SEE ALSO:
  - engine.go: All computation steps use these helpers
  - garnish.go: Protected-income tiers use the same policy
*/
package calc

import "github.com/shopspring/decimal"

const (
	// MoneyScale is the scale of every stored monetary amount.
	MoneyScale int32 = 2

	// RatioScale is the wider scale used for intermediate rates and ratios
	// before the final round to MoneyScale.
	RatioScale int32 = 8
)

var (
	hundred = decimal.NewFromInt(100)

	// Zero is the canonical zero amount.
	Zero = decimal.Zero
)

// RoundMoney rounds to MoneyScale, half up.
// decimal.Round rounds half away from zero, which is half up for the
// non-negative amounts that flow through payroll.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// PercentOf returns round(base * percent / 100) at money scale.
func PercentOf(base, percent decimal.Decimal) decimal.Decimal {
	return RoundMoney(base.Mul(percent).DivRound(hundred, RatioScale))
}

// DailyRate returns amount / days at ratio scale. Zero days yields zero.
func DailyRate(amount decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 {
		return decimal.Zero
	}
	return amount.DivRound(decimal.NewFromInt(int64(days)), RatioScale)
}

// HourlyRate returns amount / hours at ratio scale. Non-positive hours yield zero.
func HourlyRate(amount, hours decimal.Decimal) decimal.Decimal {
	if !hours.IsPositive() {
		return decimal.Zero
	}
	return amount.DivRound(hours, RatioScale)
}

// Prorate scales amount by part/whole and rounds to money scale.
// part >= whole returns the full amount; whole <= 0 returns zero
// (a month with no working days pays nothing, it does not divide by zero).
func Prorate(amount decimal.Decimal, part, whole int) decimal.Decimal {
	if whole <= 0 {
		return decimal.Zero
	}
	if part >= whole {
		return RoundMoney(amount)
	}
	factor := decimal.NewFromInt(int64(part)).DivRound(decimal.NewFromInt(int64(whole)), RatioScale)
	return RoundMoney(amount.Mul(factor))
}

// MustParseDecimal parses s, returning zero on malformed input.
// Used for package-level rate constants and test fixtures.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
