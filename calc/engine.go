/*
engine.go - The ordered payroll computation

PURPOSE:
  Calculate runs the full per-employee monthly computation as a fixed
  sequence of steps over an already-resolved input bundle and returns an
  immutable snapshot. Pure function: no I/O, no side effects, identical
  input yields bit-identical output after rounding.

ORDERED STEPS:
   1. Base salary proration (workedDays / workingDays)
   2. Seniority bonus (same proration, only when a percent is set)
   3. Hourly rate base = (1+2) / calendar working hours, wide scale
   4. Overtime premiums per day-kind bucket + night premium
   5. Leave-day compensation (annual leave, employer-funded sick days)
   6. Ad-hoc earnings, verbatim
   7. Gross = sum of earnings
   8. Insurable income (floor at group threshold, cap at legal max),
      employee-side insurance lines
   9. Tax base = gross - employee insurance - disability exemption, >= 0
  10. Income tax (flat rate)
  11. Ad-hoc deductions
  12. Pre-garnishment net
  13. Garnishment distribution (garnish.go)
  14. Final net, total deductions
  15. Employer-side contribution lines, total employer cost
  16. Snapshot assembly with verbatim input facts

FAILURE SEMANTICS:
  Returns an error only for missing required legislation (Rates,
  Contributions). Referential validation is the caller's job. Division
  guards exist only where a denominator can legitimately be zero by
  business rule (a month with zero working days).

SEE ALSO:
  - money.go: The rounding policy every step uses
  - garnish.go: Step 13
  - snapshot.go: The output record
*/
package calc

import (
	"github.com/shopspring/decimal"
)

// Overtime premium multipliers: the EXTRA surcharge on top of the already
// paid base, not replacement pay.
var (
	overtimeWorkdayRate = MustParseDecimal("0.50")
	overtimeWeekendRate = MustParseDecimal("0.75")
	overtimeHolidayRate = MustParseDecimal("1.00")
	nightWorkRate       = MustParseDecimal("0.143")
	sickLeaveRate       = MustParseDecimal("0.70")
)

// Engine runs payroll calculations. Stateless and safe for concurrent
// use; the zero value is ready.
type Engine struct {
	Distributor Distributor
}

// Calculate is the package-level convenience over a zero-value Engine.
func Calculate(input CalculationInput) (*PayrollSnapshot, error) {
	var e Engine
	return e.Calculate(input)
}

// Calculate derives the complete payroll breakdown for one employee-month.
func (e *Engine) Calculate(input CalculationInput) (*PayrollSnapshot, error) {
	if input.Rates == nil {
		return nil, &CalculationError{
			EmployeeID: input.EmployeeID, Year: input.Year, Month: int(input.Month),
			Err: &MissingLegislationError{What: "rates", Year: input.Year},
		}
	}
	if input.Contributions == nil {
		return nil, &CalculationError{
			EmployeeID: input.EmployeeID, Year: input.Year, Month: int(input.Month),
			Err: &MissingLegislationError{What: "contributions", Year: input.Year, Key: input.Contract.InsuredType},
		}
	}

	rates := *input.Rates
	contrib := *input.Contributions
	workingDays := input.Calendar.WorkingDays
	workedDays := input.Timesheet.WorkedDays()

	var earnings []PayrollLine

	// Step 1: base salary, prorated by attendance.
	baseAmount := Prorate(input.Contract.BaseSalary, workedDays, workingDays)
	earnings = append(earnings, PayrollLine{
		Code:     CodeBaseSalary,
		Name:     "Base salary",
		Kind:     LineCalculated,
		Base:     input.Contract.BaseSalary,
		Quantity: decimal.NewFromInt(int64(workedDays)),
		Amount:   baseAmount,
	})

	// Step 2: seniority bonus, same proration pattern.
	seniorityAmount := decimal.Zero
	if input.Contract.SeniorityPercent.IsPositive() {
		full := PercentOf(input.Contract.BaseSalary, input.Contract.SeniorityPercent)
		seniorityAmount = Prorate(full, workedDays, workingDays)
		earnings = append(earnings, PayrollLine{
			Code:   CodeSeniorityBonus,
			Name:   "Seniority bonus",
			Kind:   LinePercent,
			Base:   input.Contract.BaseSalary,
			Rate:   input.Contract.SeniorityPercent,
			Amount: seniorityAmount,
		})
	}

	// Step 3: hourly rate base from the earned base, wide scale. Used only
	// for the extra-hours premiums and leave compensation below.
	earnedBase := baseAmount.Add(seniorityAmount)
	hourlyRate := HourlyRate(earnedBase, input.Calendar.WorkingHours)

	// Step 4: overtime premiums per day-kind bucket; zero buckets omitted.
	overtime := input.Timesheet.OvertimeByKind()
	overtimeBuckets := []struct {
		kind DayKind
		code string
		name string
		rate decimal.Decimal
	}{
		{DayWork, CodeOvertimeWorkday, "Overtime (workday)", overtimeWorkdayRate},
		{DayWeekend, CodeOvertimeWeekend, "Overtime (weekend)", overtimeWeekendRate},
		{DayHoliday, CodeOvertimeHoliday, "Overtime (holiday)", overtimeHolidayRate},
	}
	for _, b := range overtimeBuckets {
		hours := overtime[b.kind]
		if !hours.IsPositive() {
			continue
		}
		earnings = append(earnings, PayrollLine{
			Code:     b.code,
			Name:     b.name,
			Kind:     LinePerUnit,
			Rate:     b.rate,
			Quantity: hours,
			Amount:   RoundMoney(hours.Mul(hourlyRate).Mul(b.rate)),
		})
	}

	nightHours := input.Timesheet.NightHours()
	if nightHours.IsPositive() {
		earnings = append(earnings, PayrollLine{
			Code:     CodeNightWork,
			Name:     "Night work premium",
			Kind:     LinePerUnit,
			Rate:     nightWorkRate,
			Quantity: nightHours,
			Amount:   RoundMoney(nightHours.Mul(hourlyRate).Mul(nightWorkRate)),
		})
	}

	// Step 5: leave-day compensation at the average daily rate.
	avgDailyRate := DailyRate(earnedBase, workingDays)

	if leaveDays := input.Timesheet.PaidLeaveDays(); leaveDays > 0 {
		earnings = append(earnings, PayrollLine{
			Code:     CodePaidLeave,
			Name:     "Paid annual leave",
			Kind:     LinePerUnit,
			Rate:     avgDailyRate,
			Quantity: decimal.NewFromInt(int64(leaveDays)),
			Amount:   RoundMoney(avgDailyRate.Mul(decimal.NewFromInt(int64(leaveDays)))),
		})
	}

	if sickDays := input.Timesheet.SickDays(); sickDays > 0 {
		// Employer funds the first EmployerSickDayCap days at 70%; the
		// remainder is funded externally, outside this engine.
		paid := sickDays
		if paid > EmployerSickDayCap {
			paid = EmployerSickDayCap
		}
		earnings = append(earnings, PayrollLine{
			Code:     CodeSickLeave,
			Name:     "Sick leave (employer-funded)",
			Kind:     LinePerUnit,
			Rate:     sickLeaveRate,
			Base:     avgDailyRate,
			Quantity: decimal.NewFromInt(int64(paid)),
			Amount:   RoundMoney(avgDailyRate.Mul(sickLeaveRate).Mul(decimal.NewFromInt(int64(paid)))),
		})
	}

	// Step 6: ad-hoc earnings, pre-resolved by the caller.
	for _, item := range input.Earnings {
		earnings = append(earnings, PayrollLine{
			Code:   item.Code,
			Name:   item.Name,
			Kind:   item.Kind,
			Amount: RoundMoney(item.Amount),
		})
	}

	// Step 7: gross.
	gross := decimal.Zero
	for _, l := range earnings {
		gross = gross.Add(l.Amount)
	}
	gross = RoundMoney(gross)

	// Step 8: insurable income, clamped, then employee-side insurance.
	insurable := gross
	if input.Threshold != nil && insurable.LessThan(input.Threshold.MinInsurableIncome) {
		insurable = input.Threshold.MinInsurableIncome
	}
	if insurable.GreaterThan(rates.MaxInsurableIncome) {
		insurable = rates.MaxInsurableIncome
	}

	var deductions []PayrollLine
	employeeInsurance := decimal.Zero

	employeeContribs := []struct {
		code string
		name string
		rate decimal.Decimal
	}{
		{CodePensionEmployee, "Pension insurance", contrib.PensionEmployee},
		{CodeSicknessEmployee, "Sickness and maternity insurance", contrib.SicknessEmployee},
		{CodeUnemploymentEmployee, "Unemployment insurance", contrib.UnemploymentEmployee},
		{CodeSupplementaryEmployee, "Supplementary pension fund", contrib.SupplementaryEmployee},
		{CodeHealthEmployee, "Health insurance", contrib.HealthEmployee},
	}
	for _, c := range employeeContribs {
		// A zero supplementary rate means the birth cohort is not eligible;
		// zero rates emit no line.
		if !c.rate.IsPositive() {
			continue
		}
		amount := PercentOf(insurable, c.rate)
		employeeInsurance = employeeInsurance.Add(amount)
		deductions = append(deductions, PayrollLine{
			Code: c.code, Name: c.name, Kind: LinePercent,
			Base: insurable, Rate: c.rate, Amount: amount,
		})
	}
	employeeInsurance = RoundMoney(employeeInsurance)

	// Step 9: tax base.
	taxBase := gross.Sub(employeeInsurance)
	if input.Employee.Disabled && rates.DisabilityExemption.IsPositive() {
		taxBase = taxBase.Sub(rates.DisabilityExemption)
	}
	if taxBase.IsNegative() {
		taxBase = decimal.Zero
	}
	taxBase = RoundMoney(taxBase)

	// Step 10: flat income tax.
	incomeTax := PercentOf(taxBase, rates.FlatTaxPercent)
	deductions = append(deductions, PayrollLine{
		Code: CodeIncomeTax, Name: "Income tax", Kind: LinePercent,
		Base: taxBase, Rate: rates.FlatTaxPercent, Amount: incomeTax,
	})

	// Step 11: ad-hoc deductions.
	otherDeductions := decimal.Zero
	for _, item := range input.Deductions {
		amount := RoundMoney(item.Amount)
		otherDeductions = otherDeductions.Add(amount)
		deductions = append(deductions, PayrollLine{
			Code: item.Code, Name: item.Name, Kind: LineFixed, Amount: amount,
		})
	}

	// Step 12: pre-garnishment net.
	preGarnishmentNet := RoundMoney(gross.Sub(employeeInsurance).Sub(incomeTax).Sub(otherDeductions))

	// Step 13: garnishment pass.
	garnishmentTotal := decimal.Zero
	for _, gd := range e.Distributor.Distribute(input.Garnishments, preGarnishmentNet, rates.MinWage) {
		garnishmentTotal = garnishmentTotal.Add(gd.Amount)
		deductions = append(deductions, PayrollLine{
			Code:     CodeGarnishment,
			Name:     gd.Name,
			Kind:     LineCalculated,
			Amount:   gd.Amount,
			Metadata: map[string]string{MetaGarnishmentID: gd.GarnishmentID},
		})
	}
	garnishmentTotal = RoundMoney(garnishmentTotal)

	// Step 14: final net and total deductions.
	netSalary := RoundMoney(preGarnishmentNet.Sub(garnishmentTotal))
	totalDeductions := RoundMoney(employeeInsurance.Add(incomeTax).Add(otherDeductions).Add(garnishmentTotal))

	// Step 15: employer contributions, mirroring step 8 on the same base.
	var employer []PayrollLine
	employerInsurance := decimal.Zero

	employerContribs := []struct {
		code string
		name string
		rate decimal.Decimal
	}{
		{CodePensionEmployer, "Pension insurance (employer)", contrib.PensionEmployer},
		{CodeSicknessEmployer, "Sickness and maternity insurance (employer)", contrib.SicknessEmployer},
		{CodeUnemploymentEmployer, "Unemployment insurance (employer)", contrib.UnemploymentEmployer},
		{CodeSupplementaryEmployer, "Supplementary pension fund (employer)", contrib.SupplementaryEmployer},
		{CodeHealthEmployer, "Health insurance (employer)", contrib.HealthEmployer},
		{CodeAccidentEmployer, "Occupational accident insurance", contrib.AccidentEmployer},
		{CodePensionFundSurcharge, "Pension fund surcharge", contrib.PensionFundSurchargeEmployer},
	}
	for _, c := range employerContribs {
		if !c.rate.IsPositive() {
			continue
		}
		amount := PercentOf(insurable, c.rate)
		employerInsurance = employerInsurance.Add(amount)
		employer = append(employer, PayrollLine{
			Code: c.code, Name: c.name, Kind: LinePercent,
			Base: insurable, Rate: c.rate, Amount: amount,
		})
	}
	employerInsurance = RoundMoney(employerInsurance)

	// Step 16: freeze everything into the snapshot.
	var threshold *Threshold
	if input.Threshold != nil {
		t := *input.Threshold
		threshold = &t
	}

	return &PayrollSnapshot{
		EmployeeID: input.EmployeeID,
		Year:       input.Year,
		Month:      input.Month,

		Earnings:              earnings,
		Deductions:            deductions,
		EmployerContributions: employer,

		GrossSalary:            gross,
		InsurableIncome:        insurable,
		TotalEmployeeInsurance: employeeInsurance,
		TaxBase:                taxBase,
		IncomeTax:              incomeTax,
		TotalDeductions:        totalDeductions,
		NetSalary:              netSalary,
		TotalEmployerInsurance: employerInsurance,
		TotalEmployerCost:      RoundMoney(gross.Add(employerInsurance)),

		Employee:      input.Employee,
		Contract:      input.Contract,
		Rates:         rates,
		Contributions: contrib,
		Threshold:     threshold,
		Calendar:      input.Calendar,
		Timesheet:     input.Timesheet.Totals(),
	}, nil
}
