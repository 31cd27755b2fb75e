/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

AMOUNTS:
  Amounts cross the API boundary as float64 for client convenience and
  are converted to exact decimals immediately on entry. All arithmetic
  inside the system is decimal; floats exist only in this file's types.

TYPES:
  Employee:     EmployeeDTO, CreateEmployeeRequest
  Contract:     ContractDTO, SaveContractRequest
  Timesheet:    TimesheetRequest, TimesheetDayJSON, CalendarRequest
  Garnishment:  GarnishmentDTO, SaveGarnishmentRequest
  Calculation:  CalculateRequest, SnapshotDTO, PayrollLineDTO
  Payrun:       PayrunRequest, PayrunResultDTO
  Legislation:  LoadLegislationRequest (wraps factory.LegislationJSON)
  Period close: ClosePeriodRequest, ClosePeriodDTO
  Scenarios:    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/legislation.go: LegislationJSON type
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/calc"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// EMPLOYEES AND CONTRACTS
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	EGN       string `json:"egn"`
	Disabled  bool   `json:"disabled"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateEmployeeRequest is the request to create an employee.
type CreateEmployeeRequest struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	EGN       string `json:"egn"`
	Disabled  bool   `json:"disabled"`
}

// ContractDTO represents an employee's contract.
type ContractDTO struct {
	EmployeeID       string  `json:"employee_id"`
	BaseSalary       float64 `json:"base_salary"`
	SeniorityPercent float64 `json:"seniority_percent"`
	PersonnelGroup   string  `json:"personnel_group"`
	InsuredType      string  `json:"insured_type"`
	WeeklyHours      float64 `json:"weekly_hours"`
}

// SaveContractRequest is the request to create or replace a contract.
type SaveContractRequest struct {
	BaseSalary       float64 `json:"base_salary"`
	SeniorityPercent float64 `json:"seniority_percent"`
	PersonnelGroup   string  `json:"personnel_group"`
	InsuredType      string  `json:"insured_type"`
	WeeklyHours      float64 `json:"weekly_hours"`
}

// =============================================================================
// CALENDARS AND TIMESHEETS
// =============================================================================

// CalendarRequest defines a month's working calendar.
type CalendarRequest struct {
	Year         int     `json:"year"`
	Month        int     `json:"month"`
	WorkingDays  int     `json:"working_days"`
	WorkingHours float64 `json:"working_hours"`
}

// TimesheetDayJSON is one day of a monthly timesheet.
type TimesheetDayJSON struct {
	Day           int     `json:"day"`
	Kind          string  `json:"kind"`
	WorkedHours   float64 `json:"worked_hours,omitempty"`
	OvertimeHours float64 `json:"overtime_hours,omitempty"`
	NightHours    float64 `json:"night_hours,omitempty"`
	AbsenceCode   int     `json:"absence_code,omitempty"`
}

// TimesheetRequest replaces an employee's timesheet for a month.
type TimesheetRequest struct {
	Year  int                `json:"year"`
	Month int                `json:"month"`
	Days  []TimesheetDayJSON `json:"days"`
}

// =============================================================================
// GARNISHMENTS
// =============================================================================

// GarnishmentDTO represents a garnishment debt record.
type GarnishmentDTO struct {
	ID                 string  `json:"id"`
	Kind               string  `json:"kind"`
	Name               string  `json:"name"`
	TotalAmount        float64 `json:"total_amount"`
	PaidAmount         float64 `json:"paid_amount"`
	RemainingDebt      float64 `json:"remaining_debt"`
	MonthlyAmount      float64 `json:"monthly_amount,omitempty"`
	Priority           int     `json:"priority"`
	SupportsDependents bool    `json:"supports_dependents"`
	Active             bool    `json:"active"`
}

// SaveGarnishmentRequest creates or replaces a garnishment.
type SaveGarnishmentRequest struct {
	ID                 string  `json:"id"`
	Kind               string  `json:"kind"`
	Name               string  `json:"name"`
	TotalAmount        float64 `json:"total_amount"`
	PaidAmount         float64 `json:"paid_amount"`
	MonthlyAmount      float64 `json:"monthly_amount"`
	Priority           int     `json:"priority"`
	SupportsDependents bool    `json:"supports_dependents"`
	Active             *bool   `json:"active,omitempty"` // nil = active
}

// =============================================================================
// CALCULATION
// =============================================================================

// EarningJSON is an ad-hoc pay item for one calculation.
type EarningJSON struct {
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Kind   string  `json:"kind,omitempty"` // defaults to "fixed"
	Amount float64 `json:"amount"`
}

// DeductionJSON is an ad-hoc fixed deduction for one calculation.
type DeductionJSON struct {
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// CalculateRequest runs one payroll calculation for an employee-month.
type CalculateRequest struct {
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	Earnings   []EarningJSON   `json:"earnings,omitempty"`
	Deductions []DeductionJSON `json:"deductions,omitempty"`
}

// PayrollLineDTO is one line item of a snapshot.
type PayrollLineDTO struct {
	Code     string            `json:"code"`
	Name     string            `json:"name"`
	Kind     string            `json:"kind"`
	Base     float64           `json:"base,omitempty"`
	Rate     float64           `json:"rate,omitempty"`
	Quantity float64           `json:"quantity,omitempty"`
	Amount   float64           `json:"amount"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SnapshotDTO represents a stored payroll snapshot.
type SnapshotDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Version    int    `json:"version"`
	Closed     bool   `json:"closed"`
	CreatedAt  string `json:"created_at,omitempty"`

	Earnings              []PayrollLineDTO `json:"earnings"`
	Deductions            []PayrollLineDTO `json:"deductions"`
	EmployerContributions []PayrollLineDTO `json:"employer_contributions"`

	GrossSalary            float64 `json:"gross_salary"`
	InsurableIncome        float64 `json:"insurable_income"`
	TotalEmployeeInsurance float64 `json:"total_employee_insurance"`
	TaxBase                float64 `json:"tax_base"`
	IncomeTax              float64 `json:"income_tax"`
	TotalDeductions        float64 `json:"total_deductions"`
	NetSalary              float64 `json:"net_salary"`
	TotalEmployerInsurance float64 `json:"total_employer_insurance"`
	TotalEmployerCost      float64 `json:"total_employer_cost"`
}

// =============================================================================
// PAYRUNS AND PERIOD CLOSE
// =============================================================================

// PayrunRequest calculates a whole month in one batch. With no employee
// ids, every employee with a contract is included.
type PayrunRequest struct {
	Year        int      `json:"year"`
	Month       int      `json:"month"`
	EmployeeIDs []string `json:"employee_ids,omitempty"`
}

// PayrunEmployeeResult is one employee's outcome within a payrun.
type PayrunEmployeeResult struct {
	EmployeeID string       `json:"employee_id"`
	SnapshotID string       `json:"snapshot_id,omitempty"`
	Version    int          `json:"version,omitempty"`
	Snapshot   *SnapshotDTO `json:"snapshot,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// PayrunResultDTO summarizes a batch calculation.
type PayrunResultDTO struct {
	Year      int                    `json:"year"`
	Month     int                    `json:"month"`
	Total     int                    `json:"total"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Results   []PayrunEmployeeResult `json:"results"`
}

// ClosePeriodRequest closes a month, applying garnishment progress.
type ClosePeriodRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// ClosePeriodDTO reports what a period close did.
type ClosePeriodDTO struct {
	Year                int `json:"year"`
	Month               int `json:"month"`
	SnapshotsClosed     int `json:"snapshots_closed"`
	GarnishmentsUpdated int `json:"garnishments_updated"`
	GarnishmentsSettled int `json:"garnishments_settled"`
}

// =============================================================================
// LEGISLATION AND SCENARIOS
// =============================================================================

// LoadLegislationRequest registers one year's legislated parameters.
type LoadLegislationRequest struct {
	Config factory.LegislationJSON `json:"config"`
}

// LegislationYearDTO lists a registered legislation year.
type LegislationYearDTO struct {
	Year int `json:"year"`
}

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest selects a demo scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toEmployeeDTO(e sqlite.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:        e.ID,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		EGN:       e.EGN,
		Disabled:  e.Disabled,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

func toContractDTO(c sqlite.Contract) ContractDTO {
	return ContractDTO{
		EmployeeID:       c.EmployeeID,
		BaseSalary:       c.BaseSalary.InexactFloat64(),
		SeniorityPercent: c.SeniorityPercent.InexactFloat64(),
		PersonnelGroup:   c.PersonnelGroup,
		InsuredType:      c.InsuredType,
		WeeklyHours:      c.WeeklyHours.InexactFloat64(),
	}
}

func toGarnishmentDTO(g calc.Garnishment) GarnishmentDTO {
	return GarnishmentDTO{
		ID:                 g.ID,
		Kind:               string(g.Kind),
		Name:               g.Name,
		TotalAmount:        g.TotalAmount.InexactFloat64(),
		PaidAmount:         g.PaidAmount.InexactFloat64(),
		RemainingDebt:      g.RemainingDebt().InexactFloat64(),
		MonthlyAmount:      g.MonthlyAmount.InexactFloat64(),
		Priority:           g.Priority,
		SupportsDependents: g.SupportsDependents,
		Active:             g.Active,
	}
}

func toLineDTOs(lines []calc.PayrollLine) []PayrollLineDTO {
	dtos := make([]PayrollLineDTO, len(lines))
	for i, l := range lines {
		dtos[i] = PayrollLineDTO{
			Code:     l.Code,
			Name:     l.Name,
			Kind:     string(l.Kind),
			Base:     l.Base.InexactFloat64(),
			Rate:     l.Rate.InexactFloat64(),
			Quantity: l.Quantity.InexactFloat64(),
			Amount:   l.Amount.InexactFloat64(),
			Metadata: l.Metadata,
		}
	}
	return dtos
}

func toSnapshotDTO(rec *sqlite.SnapshotRecord) SnapshotDTO {
	s := rec.Snapshot
	return SnapshotDTO{
		ID:         rec.ID,
		EmployeeID: rec.EmployeeID,
		Year:       rec.Year,
		Month:      int(rec.Month),
		Version:    rec.Version,
		Closed:     rec.Closed,
		CreatedAt:  rec.CreatedAt.Format(time.RFC3339),

		Earnings:              toLineDTOs(s.Earnings),
		Deductions:            toLineDTOs(s.Deductions),
		EmployerContributions: toLineDTOs(s.EmployerContributions),

		GrossSalary:            s.GrossSalary.InexactFloat64(),
		InsurableIncome:        s.InsurableIncome.InexactFloat64(),
		TotalEmployeeInsurance: s.TotalEmployeeInsurance.InexactFloat64(),
		TaxBase:                s.TaxBase.InexactFloat64(),
		IncomeTax:              s.IncomeTax.InexactFloat64(),
		TotalDeductions:        s.TotalDeductions.InexactFloat64(),
		NetSalary:              s.NetSalary.InexactFloat64(),
		TotalEmployerInsurance: s.TotalEmployerInsurance.InexactFloat64(),
		TotalEmployerCost:      s.TotalEmployerCost.InexactFloat64(),
	}
}

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}
