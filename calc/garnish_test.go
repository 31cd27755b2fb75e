package calc_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/calc"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func judicial(id string, total, paid string, priority int) calc.Garnishment {
	return calc.Garnishment{
		ID:          id,
		Kind:        calc.GarnishJudicial,
		Name:        "Judicial enforcement " + id,
		TotalAmount: money(total),
		PaidAmount:  money(paid),
		Priority:    priority,
		Active:      true,
	}
}

func alimony(id string, monthly string) calc.Garnishment {
	return calc.Garnishment{
		ID:            id,
		Kind:          calc.GarnishAlimony,
		Name:          "Alimony " + id,
		MonthlyAmount: money(monthly),
		Active:        true,
	}
}

func distribute(gs []calc.Garnishment, net, minWage string) []calc.GarnishmentDeduction {
	var d calc.Distributor
	return d.Distribute(gs, money(net), money(minWage))
}

func totalWithheld(result []calc.GarnishmentDeduction) decimal.Decimal {
	total := decimal.Zero
	for _, r := range result {
		total = total.Add(r.Amount)
	}
	return total
}

// =============================================================================
// PROTECTED-INCOME TIER TESTS
// =============================================================================

func TestGarnishableAmount_Tiers(t *testing.T) {
	cases := []struct {
		name          string
		net           string
		minWage       string
		hasDependents bool
		want          string
	}{
		{"at minimum wage, fully protected", "933.00", "933.00", false, "0.00"},
		{"below minimum wage", "900.00", "933.00", false, "0.00"},
		{"ratio 1.61, no dependents: net/3", "1500.00", "933.00", false, "500.00"},
		{"ratio 1.61, dependents: net/4", "1500.00", "933.00", true, "375.00"},
		{"ratio exactly 2, no dependents: net/2", "1866.00", "933.00", false, "933.00"},
		{"ratio 2.14, no dependents: net/2", "2000.00", "933.00", false, "1000.00"},
		{"ratio 2.14, dependents: net/3", "2000.00", "933.00", true, "666.67"},
		{"ratio exactly 4: net - 2*minWage", "3732.00", "933.00", false, "1866.00"},
		{"ratio 4.29, no dependents", "4000.00", "933.00", false, "2134.00"},
		{"ratio 4.29, dependents: net - 2.5*minWage", "4000.00", "933.00", true, "1667.50"},
		{"zero net", "0.00", "933.00", false, "0.00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := calc.GarnishableAmount(money(tc.net), money(tc.minWage), tc.hasDependents)
			assertMoney(t, tc.want, got)
		})
	}
}

// =============================================================================
// DISTRIBUTION TESTS
// =============================================================================

func TestDistribute_EmptyList(t *testing.T) {
	if got := distribute(nil, "1500.00", "933.00"); got != nil {
		t.Errorf("expected no deductions, got %v", got)
	}
}

func TestDistribute_NetBelowMinimumWage(t *testing.T) {
	// GIVEN: Net salary at the minimum wage
	// THEN: Nothing is withheld, the income is fully protected

	gs := []calc.Garnishment{judicial("g1", "5000.00", "0.00", 1)}
	if got := distribute(gs, "933.00", "933.00"); got != nil {
		t.Errorf("expected no deductions, got %v", got)
	}
}

func TestDistribute_NonPositiveNet(t *testing.T) {
	gs := []calc.Garnishment{judicial("g1", "5000.00", "0.00", 1)}
	if got := distribute(gs, "0.00", "933.00"); got != nil {
		t.Errorf("expected no deductions for zero net, got %v", got)
	}
}

func TestDistribute_CappedByRemainingDebt(t *testing.T) {
	// GIVEN: Debt 200.00 with 180.00 already withheld, cap 500.00
	// THEN: Exactly the remaining 20.00 is withheld

	gs := []calc.Garnishment{judicial("g1", "200.00", "180.00", 1)}
	got := distribute(gs, "1500.00", "933.00")

	if len(got) != 1 {
		t.Fatalf("expected 1 deduction, got %d", len(got))
	}
	assertMoney(t, "20.00", got[0].Amount)
}

func TestDistribute_FullyPaidSkipped(t *testing.T) {
	gs := []calc.Garnishment{judicial("g1", "200.00", "200.00", 1)}
	if got := distribute(gs, "1500.00", "933.00"); got != nil {
		t.Errorf("fully paid debt should be skipped, got %v", got)
	}
}

func TestDistribute_InactiveSkipped(t *testing.T) {
	g := judicial("g1", "5000.00", "0.00", 1)
	g.Active = false
	if got := distribute([]calc.Garnishment{g}, "1500.00", "933.00"); got != nil {
		t.Errorf("inactive garnishment should be skipped, got %v", got)
	}
}

func TestDistribute_PriorityOrder(t *testing.T) {
	// GIVEN: Two judicial garnishments, cap 500.00, the later-listed one
	//        has the higher priority (lower rank)
	// THEN: The higher-priority debt is satisfied first

	gs := []calc.Garnishment{
		judicial("low", "5000.00", "0.00", 2),
		judicial("high", "300.00", "0.00", 1),
	}
	got := distribute(gs, "1500.00", "933.00")

	if len(got) != 2 {
		t.Fatalf("expected 2 deductions, got %d", len(got))
	}
	if got[0].GarnishmentID != "high" {
		t.Errorf("expected high-priority garnishment first, got %s", got[0].GarnishmentID)
	}
	assertMoney(t, "300.00", got[0].Amount)
	assertMoney(t, "200.00", got[1].Amount) // remainder of the 500.00 cap
}

func TestDistribute_AlimonyPrecedence(t *testing.T) {
	// GIVEN: One alimony and one judicial garnishment competing for the
	//        same net, alimony listed last and with a worse priority rank
	// THEN: Alimony is satisfied first, in full

	ali := alimony("a1", "300.00")
	ali.Priority = 99
	gs := []calc.Garnishment{judicial("g1", "5000.00", "0.00", 1), ali}

	got := distribute(gs, "1500.00", "933.00")
	if len(got) != 2 {
		t.Fatalf("expected 2 deductions, got %d", len(got))
	}
	if got[0].GarnishmentID != "a1" {
		t.Errorf("expected alimony first, got %s", got[0].GarnishmentID)
	}
	assertMoney(t, "300.00", got[0].Amount)
	// Alimony consumed 300.00 of the 500.00 cap.
	assertMoney(t, "200.00", got[1].Amount)
}

func TestDistribute_AlimonyExceedsCap(t *testing.T) {
	// GIVEN: Alimony above the garnishable cap
	// THEN: Alimony is paid anyway (exempt from the cap), the cap floors
	//       at zero and non-alimony garnishments get nothing

	gs := []calc.Garnishment{
		alimony("a1", "800.00"),
		judicial("g1", "5000.00", "0.00", 1),
	}
	got := distribute(gs, "1000.00", "933.00") // cap would be 333.33

	if len(got) != 1 {
		t.Fatalf("expected only the alimony deduction, got %d", len(got))
	}
	assertMoney(t, "800.00", got[0].Amount)
}

func TestDistribute_AlimonyLimitedByRemainingNet(t *testing.T) {
	gs := []calc.Garnishment{alimony("a1", "300.00")}
	got := distribute(gs, "250.00", "100.00")

	if len(got) != 1 {
		t.Fatalf("expected 1 deduction, got %d", len(got))
	}
	assertMoney(t, "250.00", got[0].Amount)
}

func TestDistribute_DependentsFlagIsDebtorWide(t *testing.T) {
	// GIVEN: Two garnishments, only one carries the dependents flag
	// THEN: The higher protection applies to the whole distribution
	//       (net/4 instead of net/3 at this ratio)

	withDeps := judicial("g2", "5000.00", "0.00", 2)
	withDeps.SupportsDependents = true
	gs := []calc.Garnishment{judicial("g1", "5000.00", "0.00", 1), withDeps}

	got := distribute(gs, "1500.00", "933.00")
	assertMoney(t, "375.00", totalWithheld(got))
}

func TestDistribute_Monotonicity(t *testing.T) {
	// Total withheld never exceeds cap + alimony, and never exceeds net.

	gs := []calc.Garnishment{
		alimony("a1", "400.00"),
		judicial("g1", "10000.00", "0.00", 1),
		judicial("g2", "10000.00", "0.00", 2),
	}
	net := money("1500.00")
	minWage := money("933.00")

	got := distribute(gs, "1500.00", "933.00")
	total := totalWithheld(got)

	capPlusAlimony := calc.GarnishableAmount(net, minWage, false).Add(money("400.00"))
	if total.GreaterThan(capPlusAlimony) {
		t.Errorf("withheld %s exceeds cap+alimony %s", total, capPlusAlimony)
	}
	if total.GreaterThan(net) {
		t.Errorf("withheld %s exceeds net %s", total, net)
	}
	// Alimony 400.00 plus the 100.00 left of the 500.00 cap.
	assertMoney(t, "500.00", total)
}
