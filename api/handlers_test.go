/*
handlers_test.go - Tests for input resolution and the calculation endpoints

Tests for:
- Resolving a calculation input from store + registry
- The calculate-and-store path (engine + snapshot versioning)
- Error mapping for missing facts and legislation gaps
- The period close endpoint
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/calc"
	"github.com/warp/payroll-engine/store/sqlite"
)

// newTestHandler creates a handler over an in-memory store.
func newTestHandler(t *testing.T) *Handler {
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewHandler(store)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	expected, err := decimal.NewFromString(want)
	if err != nil {
		t.Fatalf("Bad expected amount %q: %v", want, err)
	}
	if !got.Equal(expected) {
		t.Errorf("Expected %s, got %s", want, got.String())
	}
}

func findLineByCode(t *testing.T, lines []calc.PayrollLine, code string) calc.PayrollLine {
	t.Helper()
	for _, l := range lines {
		if l.Code == code {
			return l
		}
	}
	t.Fatalf("No line with code %s", code)
	return calc.PayrollLine{}
}

// =============================================================================
// CALCULATION PATH
// =============================================================================

func TestCalculateAndStore_StandardEmployee(t *testing.T) {
	// GIVEN: The standard demo employee (3000.00 base, 12% seniority,
	//        full month worked)
	// WHEN: Calculating March 2025
	// THEN: Gross is 3360.00 and net is 2558.30 after insurance and tax

	h := newTestHandler(t)
	ctx := context.Background()
	if err := h.loadStandardPayrollScenario(ctx); err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}

	rec, err := h.calculateAndStore(ctx, "emp-maria", CalculateRequest{Year: 2025, Month: 3})
	if err != nil {
		t.Fatalf("Calculation failed: %v", err)
	}

	s := rec.Snapshot
	assertAmount(t, "3360.00", s.GrossSalary)
	assertAmount(t, "3360.00", s.InsurableIncome)
	assertAmount(t, "517.44", s.TotalEmployeeInsurance)
	assertAmount(t, "2842.56", s.TaxBase)
	assertAmount(t, "284.26", s.IncomeTax)
	assertAmount(t, "2558.30", s.NetSalary)

	if rec.Version != 1 {
		t.Errorf("Expected version 1, got %d", rec.Version)
	}

	// Recalculating the same month creates version 2
	rec2, err := h.calculateAndStore(ctx, "emp-maria", CalculateRequest{Year: 2025, Month: 3})
	if err != nil {
		t.Fatalf("Recalculation failed: %v", err)
	}
	if rec2.Version != 2 {
		t.Errorf("Expected version 2, got %d", rec2.Version)
	}
}

func TestCalculateAndStore_GarnishedEmployee(t *testing.T) {
	// GIVEN: The garnished demo employee (2400.00 base, judicial debt +
	//        alimony with the dependents flag)
	// WHEN: Calculating March 2025
	// THEN: Pre-garnishment net is 1827.36; with dependents the cap is a
	//       quarter of net, alimony takes its 300.00 first and the
	//       judicial debt absorbs the rest of the cap

	h := newTestHandler(t)
	ctx := context.Background()
	if err := h.loadGarnishedEmployeeScenario(ctx); err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}

	rec, err := h.calculateAndStore(ctx, "emp-georgi", CalculateRequest{Year: 2025, Month: 3})
	if err != nil {
		t.Fatalf("Calculation failed: %v", err)
	}

	s := rec.Snapshot
	garnishLines := s.GarnishmentLines()
	if len(garnishLines) != 2 {
		t.Fatalf("Expected 2 garnishment lines, got %d", len(garnishLines))
	}
	// Alimony is withheld first
	assertAmount(t, "300.00", garnishLines[0].Amount)
	if garnishLines[0].Metadata[calc.MetaGarnishmentID] != "garn-alimony" {
		t.Errorf("Expected alimony first, got %s", garnishLines[0].Metadata[calc.MetaGarnishmentID])
	}
	// Cap is 1827.36/4 = 456.84; 156.84 remains for the judicial debt
	assertAmount(t, "156.84", garnishLines[1].Amount)

	assertAmount(t, "1370.52", s.NetSalary)
}

func TestCalculateAndStore_TeachersPensionSurcharge(t *testing.T) {
	// GIVEN: The teachers' pension demo employee (insured type 08)
	// WHEN: Calculating March 2025
	// THEN: The employer contributions include the pension fund surcharge

	h := newTestHandler(t)
	ctx := context.Background()
	if err := h.loadTeachersPensionScenario(ctx); err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}

	rec, err := h.calculateAndStore(ctx, "emp-elena", CalculateRequest{Year: 2025, Month: 3})
	if err != nil {
		t.Fatalf("Calculation failed: %v", err)
	}

	line := findLineByCode(t, rec.Snapshot.EmployerContributions, calc.CodePensionFundSurcharge)
	// 2100 + 8% seniority = 2268.00 gross; 4.3% surcharge = 97.52 (0.04324)
	assertAmount(t, "97.52", line.Amount)
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestResolveInput_MissingTimesheet(t *testing.T) {
	// GIVEN: An employee with a contract but no timesheet for the month
	// WHEN: Resolving the calculation input
	// THEN: ErrMissingTimesheet, mapped to 400

	h := newTestHandler(t)
	ctx := context.Background()
	if err := h.loadStandardPayrollScenario(ctx); err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}

	_, err := h.resolveInput(ctx, "emp-maria", CalculateRequest{Year: 2025, Month: 4})
	if !errors.Is(err, calc.ErrMissingTimesheet) {
		t.Fatalf("Expected ErrMissingTimesheet, got %v", err)
	}
	if statusFor(err) != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", statusFor(err))
	}
}

func TestResolveInput_UnregisteredYear(t *testing.T) {
	// GIVEN: A year with no registered legislation
	// WHEN: Resolving the calculation input
	// THEN: A missing-resolution error, mapped to 422

	h := newTestHandler(t)
	ctx := context.Background()
	if err := h.loadStandardPayrollScenario(ctx); err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}
	// Reuse the March calendar for a year the registry knows nothing about
	if err := h.Store.SaveCalendar(ctx, calc.Calendar{Year: 2030, Month: 3, WorkingDays: 21, WorkingHours: dec(168)}); err != nil {
		t.Fatalf("Failed to save calendar: %v", err)
	}
	if err := h.Store.SaveTimesheet(ctx, "emp-maria", 2030, 3, calc.Timesheet{Days: []calc.DayEntry{
		{Day: 1, Kind: calc.DayWork, WorkedHours: dec(8)},
	}}); err != nil {
		t.Fatalf("Failed to save timesheet: %v", err)
	}

	_, err := h.resolveInput(ctx, "emp-maria", CalculateRequest{Year: 2030, Month: 3})
	if !calc.IsMissingResolution(err) {
		t.Fatalf("Expected missing-resolution error, got %v", err)
	}
	if statusFor(err) != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d", statusFor(err))
	}
}

func TestResolveInput_UnknownEmployee(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()
	if err := h.loadDemoBase(ctx); err != nil {
		t.Fatalf("Failed to load base: %v", err)
	}

	_, err := h.resolveInput(ctx, "nobody", CalculateRequest{Year: 2025, Month: 3})
	if err == nil {
		t.Fatal("Expected an error")
	}
	if statusFor(err) != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", statusFor(err))
	}
}

// =============================================================================
// PAYRUN AND PERIOD CLOSE ENDPOINTS
// =============================================================================

func TestRunPayrun_IsolatesFailures(t *testing.T) {
	// GIVEN: Two employees, one of them without a timesheet
	// WHEN: Running a payrun for the month
	// THEN: One succeeds, one is reported failed, the run completes

	h := newTestHandler(t)
	ctx := context.Background()
	if err := h.loadStandardPayrollScenario(ctx); err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}
	if err := h.Store.SaveEmployee(ctx, sqlite.Employee{
		ID: "emp-no-timesheet", FirstName: "Ivan", LastName: "Todorov", EGN: "9101014567",
	}); err != nil {
		t.Fatalf("Failed to save employee: %v", err)
	}
	if err := h.Store.SaveContract(ctx, sqlite.Contract{
		EmployeeID: "emp-no-timesheet", BaseSalary: dec(1500),
		PersonnelGroup: "2", InsuredType: "01", WeeklyHours: dec(40),
	}); err != nil {
		t.Fatalf("Failed to save contract: %v", err)
	}

	body, _ := json.Marshal(PayrunRequest{Year: 2025, Month: 3})
	req := httptest.NewRequest("POST", "/api/payruns", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.RunPayrun(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result PayrunResultDTO
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.Total != 2 || result.Succeeded != 1 || result.Failed != 1 {
		t.Fatalf("Expected 2/1/1, got total=%d succeeded=%d failed=%d",
			result.Total, result.Succeeded, result.Failed)
	}
	if result.Results[0].EmployeeID != "emp-maria" {
		t.Errorf("Expected deterministic order, got %s first", result.Results[0].EmployeeID)
	}
	if result.Results[1].Error == "" {
		t.Error("Expected an error message for the employee without a timesheet")
	}
}

func TestClosePeriodEndpoint_AppliesGarnishments(t *testing.T) {
	// GIVEN: The garnished employee, calculated for March
	// WHEN: Closing the period via the endpoint
	// THEN: The judicial debt's paid amount reflects the withheld line

	h := newTestHandler(t)
	ctx := context.Background()
	if err := h.loadGarnishedEmployeeScenario(ctx); err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}
	if _, err := h.calculateAndStore(ctx, "emp-georgi", CalculateRequest{Year: 2025, Month: 3}); err != nil {
		t.Fatalf("Calculation failed: %v", err)
	}

	body, _ := json.Marshal(ClosePeriodRequest{Year: 2025, Month: 3})
	req := httptest.NewRequest("POST", "/api/periods/close", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ClosePeriod(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result ClosePeriodDTO
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.SnapshotsClosed != 1 {
		t.Errorf("Expected 1 snapshot closed, got %d", result.SnapshotsClosed)
	}
	if result.GarnishmentsUpdated != 2 {
		t.Errorf("Expected 2 garnishments updated, got %d", result.GarnishmentsUpdated)
	}

	g, _, err := h.Store.GetGarnishment(ctx, "garn-loan")
	if err != nil {
		t.Fatalf("Failed to get garnishment: %v", err)
	}
	assertAmount(t, "156.84", g.PaidAmount)
}
