/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates legislation, a
	calendar, employees, contracts, timesheets, and optionally garnishment
	debts that demonstrate specific features.

AVAILABLE SCENARIOS:

	standard-payroll:   Full month, base salary + seniority, flat tax
	garnished-employee: Judicial debt + alimony competing for net pay
	teachers-pension:   Insured type with the pension fund surcharge
	sick-and-leave:     Paid leave and sick days with the employer cap

HOW SCENARIOS WORK:
 1. Reset database (clear all data) and the legislation registry
 2. Register the demo year's legislated parameters via the factory
 3. Set the month's working calendar
 4. Create employees with contracts and timesheets
 5. Optionally add garnishment debts

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "garnished-employee"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Resolution and calculation endpoints exercised afterwards
  - factory/legislation.go: Legislation JSON definitions
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/calc"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/legislation"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "standard-payroll",
		Name:        "Standard Payroll",
		Description: "Full month worked, base salary plus seniority bonus, flat tax",
		Category:    "payroll",
	},
	{
		ID:          "garnished-employee",
		Name:        "Garnished Employee",
		Description: "Judicial enforcement debt and alimony competing for protected net pay",
		Category:    "garnishment",
	},
	{
		ID:          "teachers-pension",
		Name:        "Teachers' Pension Fund",
		Description: "Insured type with the employer pension fund surcharge",
		Category:    "payroll",
	},
	{
		ID:          "sick-and-leave",
		Name:        "Sick Leave and Paid Leave",
		Description: "Paid leave days plus sick days under the employer-paid cap",
		Category:    "timesheet",
	},
}

// demoLegislation is the demo year's parameters, in the same JSON schema
// the legislation endpoint accepts.
const demoLegislation = `{
	"year": 2025,
	"min_wage": "933.00",
	"max_insurable_income": "3750.00",
	"flat_tax_percent": "10",
	"disability_exemption": "450.00",
	"contributions": [
		{
			"insured_type": "01",
			"pension_employee": "8.2", "pension_employer": "11.02",
			"sickness_employee": "1.4", "sickness_employer": "2.1",
			"unemployment_employee": "0.4", "unemployment_employer": "0.6",
			"supplementary_employee": "2.2", "supplementary_employer": "2.8",
			"health_employee": "3.2", "health_employer": "4.8",
			"accident_employer": "0.7"
		},
		{
			"insured_type": "08",
			"pension_employee": "8.2", "pension_employer": "11.02",
			"sickness_employee": "1.4", "sickness_employer": "2.1",
			"unemployment_employee": "0.4", "unemployment_employer": "0.6",
			"supplementary_employee": "2.2", "supplementary_employer": "2.8",
			"health_employee": "3.2", "health_employer": "4.8",
			"accident_employer": "0.7",
			"pension_fund_surcharge_employer": "4.3"
		}
	],
	"thresholds": [
		{"personnel_group": "1", "min_insurable_income": "1077.00"},
		{"personnel_group": "2", "min_insurable_income": "933.00"}
	]
}`

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads the selected scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.Registry = legislation.NewRegistry()

	var err error
	switch req.ScenarioID {
	case "standard-payroll":
		err = h.loadStandardPayrollScenario(ctx)
	case "garnished-employee":
		err = h.loadGarnishedEmployeeScenario(ctx)
	case "teachers-pension":
		err = h.loadTeachersPensionScenario(ctx)
	case "sick-and-leave":
		err = h.loadSickAndLeaveScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.ScenarioID})
}

// ResetDatabase clears all data and the legislation registry.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.Registry = legislation.NewRegistry()
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// loadDemoBase registers the demo legislation and the demo month's
// calendar. Every scenario starts from this.
func (h *Handler) loadDemoBase(ctx context.Context) error {
	set, err := factory.ParseLegislation(demoLegislation)
	if err != nil {
		return err
	}
	if err := h.Store.SaveRates(ctx, set.Rates); err != nil {
		return err
	}
	for _, c := range set.Contributions {
		if err := h.Store.SaveContributionRates(ctx, c); err != nil {
			return err
		}
	}
	for _, t := range set.Thresholds {
		if err := h.Store.SaveThreshold(ctx, t); err != nil {
			return err
		}
	}
	set.Apply(h.Registry)

	return h.Store.SaveCalendar(ctx, calc.Calendar{
		Year:         2025,
		Month:        time.March,
		WorkingDays:  21,
		WorkingHours: decimal.NewFromInt(168),
	})
}

// fullMonthTimesheet builds 21 worked days of 8 hours.
func fullMonthTimesheet() calc.Timesheet {
	var ts calc.Timesheet
	for day := 1; day <= 21; day++ {
		ts.Days = append(ts.Days, calc.DayEntry{
			Day:         day,
			Kind:        calc.DayWork,
			WorkedHours: decimal.NewFromInt(8),
		})
	}
	return ts
}

func (h *Handler) createDemoEmployee(ctx context.Context, emp sqlite.Employee, contract sqlite.Contract, ts calc.Timesheet) error {
	if err := h.Store.SaveEmployee(ctx, emp); err != nil {
		return err
	}
	contract.EmployeeID = emp.ID
	if err := h.Store.SaveContract(ctx, contract); err != nil {
		return err
	}
	return h.Store.SaveTimesheet(ctx, emp.ID, 2025, time.March, ts)
}

func (h *Handler) loadStandardPayrollScenario(ctx context.Context) error {
	if err := h.loadDemoBase(ctx); err != nil {
		return err
	}
	return h.createDemoEmployee(ctx,
		sqlite.Employee{ID: "emp-maria", FirstName: "Maria", LastName: "Ivanova", EGN: "8504156987"},
		sqlite.Contract{
			BaseSalary:       decimal.NewFromInt(3000),
			SeniorityPercent: decimal.NewFromInt(12),
			PersonnelGroup:   "1",
			InsuredType:      "01",
			WeeklyHours:      decimal.NewFromInt(40),
		},
		fullMonthTimesheet())
}

func (h *Handler) loadGarnishedEmployeeScenario(ctx context.Context) error {
	if err := h.loadDemoBase(ctx); err != nil {
		return err
	}
	if err := h.createDemoEmployee(ctx,
		sqlite.Employee{ID: "emp-georgi", FirstName: "Georgi", LastName: "Petrov", EGN: "7811034251"},
		sqlite.Contract{
			BaseSalary:     decimal.NewFromInt(2400),
			PersonnelGroup: "2",
			InsuredType:    "01",
			WeeklyHours:    decimal.NewFromInt(40),
		},
		fullMonthTimesheet()); err != nil {
		return err
	}

	if err := h.Store.SaveGarnishment(ctx, "emp-georgi", calc.Garnishment{
		ID:          "garn-loan",
		Kind:        calc.GarnishJudicial,
		Name:        "Consumer loan enforcement",
		TotalAmount: decimal.NewFromInt(10000),
		Priority:    1,
		Active:      true,
	}); err != nil {
		return err
	}
	return h.Store.SaveGarnishment(ctx, "emp-georgi", calc.Garnishment{
		ID:                 "garn-alimony",
		Kind:               calc.GarnishAlimony,
		Name:               "Child support",
		MonthlyAmount:      decimal.NewFromInt(300),
		SupportsDependents: true,
		Active:             true,
	})
}

func (h *Handler) loadTeachersPensionScenario(ctx context.Context) error {
	if err := h.loadDemoBase(ctx); err != nil {
		return err
	}
	return h.createDemoEmployee(ctx,
		sqlite.Employee{ID: "emp-elena", FirstName: "Elena", LastName: "Dimitrova", EGN: "9005121234"},
		sqlite.Contract{
			BaseSalary:       decimal.NewFromInt(2100),
			SeniorityPercent: decimal.NewFromInt(8),
			PersonnelGroup:   "1",
			InsuredType:      "08",
			WeeklyHours:      decimal.NewFromInt(40),
		},
		fullMonthTimesheet())
}

func (h *Handler) loadSickAndLeaveScenario(ctx context.Context) error {
	if err := h.loadDemoBase(ctx); err != nil {
		return err
	}

	// 14 worked days, 2 paid-leave days, 5 sick days. Only the first
	// 3 sick days are employer-paid.
	var ts calc.Timesheet
	for day := 1; day <= 14; day++ {
		ts.Days = append(ts.Days, calc.DayEntry{
			Day:         day,
			Kind:        calc.DayWork,
			WorkedHours: decimal.NewFromInt(8),
		})
	}
	for day := 15; day <= 16; day++ {
		ts.Days = append(ts.Days, calc.DayEntry{Day: day, Kind: calc.DayAbsence, AbsenceCode: 400})
	}
	for day := 17; day <= 21; day++ {
		ts.Days = append(ts.Days, calc.DayEntry{Day: day, Kind: calc.DayAbsence, AbsenceCode: 501})
	}

	return h.createDemoEmployee(ctx,
		sqlite.Employee{ID: "emp-stefan", FirstName: "Stefan", LastName: "Kolev", EGN: "8812273456"},
		sqlite.Contract{
			BaseSalary:     decimal.NewFromInt(1860),
			PersonnelGroup: "2",
			InsuredType:    "01",
			WeeklyHours:    decimal.NewFromInt(40),
		},
		ts)
}
