/*
Package calc implements the payroll calculation core.

PURPOSE:
  This package contains the pure, deterministic heart of the payroll
  system: given a frozen set of per-employee, per-month facts (contract
  terms, attendance, legislated rates and contributions, individual pay
  items, wage garnishments), it derives the complete breakdown of gross
  pay, social-insurance contributions, income tax, garnishment
  withholding, and net pay - then freezes the result as an immutable
  snapshot.

KEY CONCEPTS IN THIS FILE (types.go):
  - CalculationInput: Everything one calculation needs, resolved up front
  - PayrollLine: One row of a computation (pure data, no behavior)
  - Garnishment: A wage garnishment competing for the employee's net pay
  - Rates / ContributionRates / Threshold: Legislated facts for a year

DESIGN PRINCIPLES:
  1. Immutability: Inputs and snapshots are value structures built once
     and never mutated; a correction produces a NEW snapshot.
  2. Precision: decimal.Decimal everywhere, see money.go for the policy.
  3. Purity: No I/O, no hidden state. Identical input gives bit-identical
     output forever, regardless of later rate changes elsewhere.
  4. Statelessness: Safe to run concurrently, one call per employee.

USAGE:
  snapshot, err := calc.Calculate(input)
  if err != nil {
      // missing legislation for this employee/month; skip and continue
  }

SEE ALSO:
  - engine.go: The ordered calculation steps
  - garnish.go: Garnishment distribution under statutory caps
  - timesheet.go: Attendance facts and day classification
  - snapshot.go: The frozen output record
*/
package calc

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PAYROLL LINE - One row of a computation
// =============================================================================

type LineKind string

const (
	LineFixed      LineKind = "fixed"      // Flat amount (base salary, ad-hoc items)
	LinePercent    LineKind = "percent"    // Percentage of a base (insurance, tax)
	LineCalculated LineKind = "calculated" // Derived by a formula (proration, garnishment)
	LinePerUnit    LineKind = "per_unit"   // Rate x quantity (overtime, leave days)
)

// PayrollLine is one row of a payroll computation. Pure data: the engine
// fills every field at creation and nothing ever mutates it afterwards.
type PayrollLine struct {
	Code     string
	Name     string
	Kind     LineKind
	Base     decimal.Decimal // Base the line was computed from (if any)
	Rate     decimal.Decimal // Percent or per-unit rate (if any)
	Quantity decimal.Decimal // Units for per-unit lines (hours, days)
	Amount   decimal.Decimal // Final amount at money scale
	Metadata map[string]string
}

// Line codes. Earnings are 1xx, employee-side deductions 2xx,
// garnishments 3xx, employer contributions 4xx.
const (
	CodeBaseSalary      = "101"
	CodeSeniorityBonus  = "102"
	CodeOvertimeWorkday = "103"
	CodeOvertimeWeekend = "104"
	CodeOvertimeHoliday = "105"
	CodeNightWork       = "106"
	CodePaidLeave       = "107"
	CodeSickLeave       = "108"

	CodePensionEmployee       = "201"
	CodeSicknessEmployee      = "202"
	CodeUnemploymentEmployee  = "203"
	CodeSupplementaryEmployee = "204"
	CodeHealthEmployee        = "205"
	CodeIncomeTax             = "210"

	CodeGarnishment = "301"

	CodePensionEmployer       = "401"
	CodeSicknessEmployer      = "402"
	CodeUnemploymentEmployer  = "403"
	CodeSupplementaryEmployer = "404"
	CodeHealthEmployer        = "405"
	CodeAccidentEmployer      = "406"
	CodePensionFundSurcharge  = "407"
)

// MetaGarnishmentID is the metadata key carrying the originating
// garnishment id on a garnishment deduction line. The period-close
// process uses it to apply paid-amount increments back onto the debt.
const MetaGarnishmentID = "garnishment_id"

// =============================================================================
// EMPLOYEE AND CONTRACT FACTS
// =============================================================================

// EmployeeFacts are the identity facts a calculation needs.
// The EGN (national identifier) is carried verbatim; cohort derivation
// from it lives in the legislation package, not here.
type EmployeeFacts struct {
	ID        string
	FirstName string
	LastName  string
	EGN       string
	Disabled  bool // Enables the disability tax-base exemption when configured
}

// ContractFacts are the resolved contract terms for the month.
type ContractFacts struct {
	BaseSalary       decimal.Decimal
	SeniorityPercent decimal.Decimal // 0 = no seniority bonus line
	PersonnelGroup   string          // Keys the minimum-insurable-income threshold
	InsuredType      string          // Keys the contribution rate row
	WeeklyHours      decimal.Decimal
}

// =============================================================================
// LEGISLATED FACTS - Resolved for the year by the caller
// =============================================================================

// Rates are the legislated scalar rates for a year.
type Rates struct {
	Year                int
	MinWage             decimal.Decimal
	MaxInsurableIncome  decimal.Decimal
	FlatTaxPercent      decimal.Decimal
	DisabilityExemption decimal.Decimal // Monthly tax-base exemption; zero = none configured
}

// ContributionRates are the legislated social-insurance percentages for a
// year and insured-type code, split employer/employee. A zero supplementary
// rate means the employee's birth cohort is not eligible for the
// supplementary pension fund; the engine only checks for nonzero.
type ContributionRates struct {
	Year        int
	InsuredType string

	PensionEmployee decimal.Decimal
	PensionEmployer decimal.Decimal

	SicknessEmployee decimal.Decimal
	SicknessEmployer decimal.Decimal

	UnemploymentEmployee decimal.Decimal
	UnemploymentEmployer decimal.Decimal

	SupplementaryEmployee decimal.Decimal
	SupplementaryEmployer decimal.Decimal

	HealthEmployee decimal.Decimal
	HealthEmployer decimal.Decimal

	// Employer-only contributions.
	AccidentEmployer decimal.Decimal

	// Special pension-fund surcharge for particular insured-type codes
	// (e.g. the teachers' pension fund). Zero = not applicable.
	PensionFundSurchargeEmployer decimal.Decimal
}

// Threshold is the minimum insurable income for a personnel group.
type Threshold struct {
	Year               int
	PersonnelGroup     string
	MinInsurableIncome decimal.Decimal
}

// =============================================================================
// AD-HOC ITEMS - Pre-resolved per-employee pay and deduction items
// =============================================================================

// Earning is an additional pay item valid for the month, appended verbatim.
// The caller resolves its value and kind before invoking the engine.
type Earning struct {
	Code   string
	Name   string
	Kind   LineKind
	Amount decimal.Decimal
}

// Deduction is an additional fixed deduction (advance, canteen, ...).
type Deduction struct {
	Code   string
	Name   string
	Amount decimal.Decimal
}

// =============================================================================
// GARNISHMENT - A debt competing for the employee's net pay
// =============================================================================

type GarnishmentKind string

const (
	GarnishJudicial GarnishmentKind = "judicial_enforcement"
	GarnishPublic   GarnishmentKind = "public_enforcement"
	GarnishAlimony  GarnishmentKind = "alimony"
)

// Garnishment is one wage garnishment record. Invariant: PaidAmount never
// exceeds TotalAmount once TotalAmount is set; the record is deactivated
// once fully paid (the period-close process enforces both).
type Garnishment struct {
	ID   string
	Kind GarnishmentKind
	Name string

	// TotalAmount is the full debt. Zero means open-ended, which is only
	// meaningful for alimony.
	TotalAmount decimal.Decimal
	PaidAmount  decimal.Decimal

	// MonthlyAmount is the fixed monthly obligation; alimony only.
	MonthlyAmount decimal.Decimal

	// Priority among non-alimony garnishments; lower = withheld first.
	Priority int

	// SupportsDependents raises the protected-income floor. The protection
	// is a property of the debtor: if ANY garnishment carries the flag it
	// applies to the whole distribution.
	SupportsDependents bool

	Active bool
}

// RemainingDebt returns what is still owed. Open-ended debts (zero total)
// report zero; callers decide separately what an open-ended debt takes
// each month (its MonthlyAmount).
func (g Garnishment) RemainingDebt() decimal.Decimal {
	if !g.TotalAmount.IsPositive() {
		return decimal.Zero
	}
	return g.TotalAmount.Sub(g.PaidAmount)
}

// OpenEnded reports whether the garnishment has no total debt amount.
func (g Garnishment) OpenEnded() bool {
	return !g.TotalAmount.IsPositive()
}

// FullyPaid reports whether a bounded debt has been settled.
func (g Garnishment) FullyPaid() bool {
	return g.TotalAmount.IsPositive() && g.PaidAmount.GreaterThanOrEqual(g.TotalAmount)
}

// =============================================================================
// CALCULATION INPUT - The frozen fact bundle for one employee-month
// =============================================================================

// CalculationInput is everything one calculation needs, fully resolved by
// the caller. The engine does not validate referential existence; it only
// fails when a required legislated row (Rates, Contributions) is absent.
type CalculationInput struct {
	EmployeeID string
	Year       int
	Month      time.Month

	Employee EmployeeFacts
	Contract ContractFacts

	Calendar  Calendar
	Timesheet Timesheet

	Rates         *Rates
	Contributions *ContributionRates
	Threshold     *Threshold // Optional; nil = no group minimum

	Earnings     []Earning
	Deductions   []Deduction
	Garnishments []Garnishment
}
