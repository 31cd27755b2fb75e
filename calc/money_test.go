package calc_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/calc"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func money(s string) decimal.Decimal {
	return calc.MustParseDecimal(s)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(money(want)) {
		t.Errorf("expected %s, got %s", want, got.String())
	}
}

// =============================================================================
// ROUNDING POLICY TESTS
// =============================================================================

func TestRoundMoney_HalfUp(t *testing.T) {
	// GIVEN: Amounts sitting exactly on the half boundary
	// WHEN: Rounding to money scale
	// THEN: Halves round up, not to even

	assertMoney(t, "1.01", calc.RoundMoney(money("1.005")))
	assertMoney(t, "2.68", calc.RoundMoney(money("2.675")))
	assertMoney(t, "0.10", calc.RoundMoney(money("0.095")))
	assertMoney(t, "3.00", calc.RoundMoney(money("3.004")))
}

func TestPercentOf_ContributionFigures(t *testing.T) {
	// Figures from the worked payroll example: 8.2% pension and 3.2%
	// health on 3000.00, 10% flat tax on 2658.00.

	assertMoney(t, "246.00", calc.PercentOf(money("3000.00"), money("8.2")))
	assertMoney(t, "96.00", calc.PercentOf(money("3000.00"), money("3.2")))
	assertMoney(t, "265.80", calc.PercentOf(money("2658.00"), money("10")))
}

func TestPercentOf_WideScaleBeforeFinalRound(t *testing.T) {
	// GIVEN: A base/percent pair whose intermediate product needs more
	//        than two decimal places
	// THEN: The result is rounded once at the end, not per step

	// 1234.56 * 9.99 / 100 = 123.332544 -> 123.33
	assertMoney(t, "123.33", calc.PercentOf(money("1234.56"), money("9.99")))
}

func TestDailyRate_ZeroDays(t *testing.T) {
	if !calc.DailyRate(money("1000"), 0).IsZero() {
		t.Error("zero days should yield zero rate, not panic")
	}
}

func TestHourlyRate_ZeroHours(t *testing.T) {
	if !calc.HourlyRate(money("1000"), decimal.Zero).IsZero() {
		t.Error("zero hours should yield zero rate, not panic")
	}
}

func TestProrate(t *testing.T) {
	// Full attendance pays the exact base, partial attendance prorates,
	// zero working days pays nothing.

	assertMoney(t, "3000.00", calc.Prorate(money("3000.00"), 22, 22))
	assertMoney(t, "3000.00", calc.Prorate(money("3000.00"), 23, 22))
	assertMoney(t, "1500.00", calc.Prorate(money("3000.00"), 11, 22))
	assertMoney(t, "0.00", calc.Prorate(money("3000.00"), 5, 0))
	assertMoney(t, "0.00", calc.Prorate(money("3000.00"), 0, 22))
}

func TestProrate_RoundsOnceAtTheEnd(t *testing.T) {
	// 1000 * 10/21 = 476.190476... -> 476.19; rounding the factor to
	// money scale first would give 480.00.
	assertMoney(t, "476.19", calc.Prorate(money("1000.00"), 10, 21))
}
