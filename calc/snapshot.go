/*
snapshot.go - The frozen output record of one payroll computation

PURPOSE:
  PayrollSnapshot is the engine's only output: one employee's one month,
  fully broken down, with verbatim copies of every fact that went into
  it. Once created it is never recomputed in place - a correction
  produces a NEW snapshot. The embedded facts are the ground truth for
  that month regardless of later changes to the source records.

USED FOR:
  - Persistence as an immutable audit record
  - Payslip and report rendering (downstream, out of this package)
  - Period close: applying garnishment paid-amount increments back onto
    the originating debt records (via line metadata)

SEE ALSO:
  - engine.go: Builds the snapshot in step 16
  - store/sqlite: Persists snapshots append-only, versioned
*/
package calc

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PAYROLL SNAPSHOT - Immutable once produced
// =============================================================================

// PayrollSnapshot is the complete result of one calculation. Every field
// is set at construction; nothing mutates it afterwards.
type PayrollSnapshot struct {
	EmployeeID string
	Year       int
	Month      time.Month

	// Line items.
	Earnings              []PayrollLine
	Deductions            []PayrollLine
	EmployerContributions []PayrollLine

	// Derived scalar totals, all at money scale.
	GrossSalary            decimal.Decimal
	InsurableIncome        decimal.Decimal
	TotalEmployeeInsurance decimal.Decimal
	TaxBase                decimal.Decimal
	IncomeTax              decimal.Decimal
	TotalDeductions        decimal.Decimal
	NetSalary              decimal.Decimal
	TotalEmployerInsurance decimal.Decimal
	TotalEmployerCost      decimal.Decimal

	// Verbatim copies of the facts used, so the record is self-contained.
	Employee      EmployeeFacts
	Contract      ContractFacts
	Rates         Rates
	Contributions ContributionRates
	Threshold     *Threshold
	Calendar      Calendar
	Timesheet     TimesheetTotals
}

// GarnishmentLines returns the deduction lines that originate from
// garnishments, identified by their metadata. Period close consumes this.
func (s *PayrollSnapshot) GarnishmentLines() []PayrollLine {
	var lines []PayrollLine
	for _, l := range s.Deductions {
		if l.Metadata != nil && l.Metadata[MetaGarnishmentID] != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
