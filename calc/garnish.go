/*
garnish.go - Garnishment distribution under statutory income protection

PURPOSE:
  Given the active garnishments, the employee's pre-garnishment net salary
  and the legal minimum wage, decides how much each garnishment receives
  this month. The rules interact:
  (a) a protected floor of income that can never be touched,
  (b) statutory caps tiered by the net/minimum-wage ratio and by whether
      the debtor supports dependents,
  (c) alimony is exempt from the caps but consumes them for everyone else,
  (d) non-alimony garnishments are satisfied in priority order.

PROTECTED-INCOME TIERS (ratio = net / minWage):
  net <= minWage      nothing is garnishable
  1 < ratio < 2       net/3  (net/4 with dependents)
  2 <= ratio < 4      net/2  (net/3 with dependents)
  ratio >= 4          net - 2*minWage  (net - 2.5*minWage with dependents)

ORDERING:
  Alimony always first, then ascending priority rank. The ordering is an
  explicit two-key sort so the tie-break is auditable in isolation.

"HAS DEPENDENTS":
  A property of the debtor, not of a single debt: if ANY garnishment
  carries the flag, the higher protection applies to the whole
  distribution.

SEE ALSO:
  - engine.go: Invokes Distribute in step 13
  - types.go: Garnishment record and its invariants
*/
package calc

import (
	"sort"

	"github.com/shopspring/decimal"
)

var (
	three       = decimal.NewFromInt(3)
	four        = decimal.NewFromInt(4)
	two         = decimal.NewFromInt(2)
	twoAndAHalf = MustParseDecimal("2.5")
)

// =============================================================================
// GARNISHMENT DEDUCTION - One month's withholding for one garnishment
// =============================================================================

// GarnishmentDeduction is the distributor's output: the amount withheld
// this month for one garnishment. The id lets the period-close process
// apply the increment back onto the debt record.
type GarnishmentDeduction struct {
	GarnishmentID string
	Name          string
	Amount        decimal.Decimal
}

// =============================================================================
// PROTECTED-INCOME COMPUTATION
// =============================================================================

// GarnishableAmount returns the legally withholdable portion of net salary.
// Returns zero when net is at or below the minimum wage (fully protected)
// or not positive.
func GarnishableAmount(net, minWage decimal.Decimal, hasDependents bool) decimal.Decimal {
	if !net.IsPositive() || net.LessThanOrEqual(minWage) {
		return decimal.Zero
	}

	ratio := net.DivRound(minWage, RatioScale)

	switch {
	case ratio.LessThan(two): // 1 < ratio < 2
		if hasDependents {
			return RoundMoney(net.DivRound(four, RatioScale))
		}
		return RoundMoney(net.DivRound(three, RatioScale))

	case ratio.LessThan(four): // 2 <= ratio < 4
		if hasDependents {
			return RoundMoney(net.DivRound(three, RatioScale))
		}
		return RoundMoney(net.DivRound(two, RatioScale))

	default: // ratio >= 4
		if hasDependents {
			return RoundMoney(net.Sub(twoAndAHalf.Mul(minWage)))
		}
		return RoundMoney(net.Sub(two.Mul(minWage)))
	}
}

// =============================================================================
// ALLOCATION ORDER - Explicit two-key sort
// =============================================================================

// garnishmentRank is the first sort key: alimony before everything else.
func garnishmentRank(kind GarnishmentKind) int {
	if kind == GarnishAlimony {
		return 0
	}
	return 1
}

// sortForAllocation orders garnishments for allocation: alimony first,
// then ascending priority rank. Stable so equal keys keep input order.
func sortForAllocation(gs []Garnishment) []Garnishment {
	ordered := make([]Garnishment, len(gs))
	copy(ordered, gs)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, rj := garnishmentRank(ordered[i].Kind), garnishmentRank(ordered[j].Kind)
		if ri != rj {
			return ri < rj
		}
		return ordered[i].Priority < ordered[j].Priority
	})
	return ordered
}

// =============================================================================
// DISTRIBUTOR
// =============================================================================

// Distributor allocates monthly withholding across competing garnishments.
// Stateless; the zero value is ready to use.
type Distributor struct{}

// Distribute decides this month's withholding per garnishment.
//
// Alimony takes min(monthly amount, remaining net) regardless of the cap,
// but what it takes reduces the cap left for everyone else (floored at
// zero). Non-alimony garnishments then take min(remaining cap, remaining
// debt) in priority order until the cap is exhausted.
//
// Returns one entry per garnishment that received a nonzero amount; an
// empty or absent garnishment list, or a non-positive net, yields nil.
func (d *Distributor) Distribute(garnishments []Garnishment, net, minWage decimal.Decimal) []GarnishmentDeduction {
	if len(garnishments) == 0 || !net.IsPositive() {
		return nil
	}

	// Only active garnishments with something left to collect compete.
	var active []Garnishment
	hasDependents := false
	for _, g := range garnishments {
		if !g.Active {
			continue
		}
		if g.Kind == GarnishAlimony {
			if !g.MonthlyAmount.IsPositive() {
				continue
			}
		} else if !g.RemainingDebt().IsPositive() {
			// Fully paid (or malformed zero-total) debts are skipped.
			continue
		}
		active = append(active, g)
		if g.SupportsDependents {
			hasDependents = true
		}
	}
	if len(active) == 0 {
		return nil
	}

	capLeft := GarnishableAmount(net, minWage, hasDependents)
	remainingNet := net

	var result []GarnishmentDeduction
	for _, g := range sortForAllocation(active) {
		var take decimal.Decimal

		if g.Kind == GarnishAlimony {
			take = g.MonthlyAmount
			if !g.OpenEnded() {
				take = decimal.Min(take, g.RemainingDebt())
			}
			take = decimal.Min(take, remainingNet)
			if !take.IsPositive() {
				continue
			}
			// Alimony is not capped, but it consumes the cap.
			capLeft = decimal.Max(decimal.Zero, capLeft.Sub(take))
		} else {
			if !capLeft.IsPositive() {
				break // Cap exhausted; lower-priority debts get nothing.
			}
			take = decimal.Min(capLeft, g.RemainingDebt())
			if !take.IsPositive() {
				continue
			}
			capLeft = capLeft.Sub(take)
		}

		remainingNet = remainingNet.Sub(take)
		result = append(result, GarnishmentDeduction{
			GarnishmentID: g.ID,
			Name:          g.Name,
			Amount:        RoundMoney(take),
		})
	}

	return result
}
