/*
timesheet.go - Attendance facts: calendar, day classification, absence codes

PURPOSE:
  Models the resolved monthly timesheet the engine consumes: one entry per
  day with its classification, worked/overtime/night hours, and absence
  code. All aggregation the engine needs (worked days, overtime buckets,
  leave days) lives here so the engine reads totals, not raw days.

DAY CLASSIFICATION:
  WORK      Ordinary scheduled workday
  WEEKEND   Saturday/Sunday
  HOLIDAY   Official public holiday
  ABSENCE   Scheduled workday not worked (carries an absence code)

ABSENCE CODE RANGES:
  400-409   Paid annual leave, employer-paid at the average daily rate
  500-509   Sick leave; the employer funds the first 3 days per month at
            70% of the average daily rate, the remainder is funded
            externally and is outside this engine's scope

OVERTIME PREMIUMS (additive surcharge on top of already-paid base):
  workday 50%, weekend 75%, holiday 100%; night hours 14.3%

SEE ALSO:
  - engine.go: Steps 4 and 5 consume these totals
*/
package calc

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CALENDAR - The month's working-time frame
// =============================================================================

// Calendar carries the resolved working days and total working hours for
// the month. Generation of calendars (holidays etc.) happens upstream.
type Calendar struct {
	Year         int
	Month        time.Month
	WorkingDays  int
	WorkingHours decimal.Decimal
}

// =============================================================================
// DAY CLASSIFICATION AND ABSENCE CODES
// =============================================================================

type DayKind string

const (
	DayWork    DayKind = "work"
	DayWeekend DayKind = "weekend"
	DayHoliday DayKind = "holiday"
	DayAbsence DayKind = "absence"
)

// Absence code ranges. The sub-codes within a range are legally
// equivalent for this engine's purposes.
const (
	AbsencePaidLeaveMin = 400
	AbsencePaidLeaveMax = 409

	AbsenceSickMin = 500
	AbsenceSickMax = 509
)

// EmployerSickDayCap is the number of sick days per month the employer
// funds; the remainder of statutory sick leave is funded externally.
const EmployerSickDayCap = 3

// IsPaidLeaveCode reports whether code is employer-paid annual leave.
func IsPaidLeaveCode(code int) bool {
	return code >= AbsencePaidLeaveMin && code <= AbsencePaidLeaveMax
}

// IsSickLeaveCode reports whether code is sick leave.
func IsSickLeaveCode(code int) bool {
	return code >= AbsenceSickMin && code <= AbsenceSickMax
}

// =============================================================================
// TIMESHEET - One entry per day of the month
// =============================================================================

// DayEntry is one day of the resolved timesheet.
type DayEntry struct {
	Day           int // Day of month, 1-based
	Kind          DayKind
	WorkedHours   decimal.Decimal
	OvertimeHours decimal.Decimal
	NightHours    decimal.Decimal
	AbsenceCode   int // 0 = none
}

// Timesheet is the month's resolved attendance. Built once, never mutated.
type Timesheet struct {
	Days []DayEntry
}

// WorkedDays counts days with any worked hours.
func (t Timesheet) WorkedDays() int {
	n := 0
	for _, d := range t.Days {
		if d.WorkedHours.IsPositive() {
			n++
		}
	}
	return n
}

// OvertimeByKind sums overtime hours bucketed by day kind. Overtime on an
// absence day does not occur; such entries are ignored.
func (t Timesheet) OvertimeByKind() map[DayKind]decimal.Decimal {
	buckets := map[DayKind]decimal.Decimal{
		DayWork:    decimal.Zero,
		DayWeekend: decimal.Zero,
		DayHoliday: decimal.Zero,
	}
	for _, d := range t.Days {
		if !d.OvertimeHours.IsPositive() {
			continue
		}
		switch d.Kind {
		case DayWork, DayWeekend, DayHoliday:
			buckets[d.Kind] = buckets[d.Kind].Add(d.OvertimeHours)
		}
	}
	return buckets
}

// NightHours sums night-work hours across the month.
func (t Timesheet) NightHours() decimal.Decimal {
	total := decimal.Zero
	for _, d := range t.Days {
		total = total.Add(d.NightHours)
	}
	return total
}

// PaidLeaveDays counts absence days in the paid-annual-leave code range.
func (t Timesheet) PaidLeaveDays() int {
	n := 0
	for _, d := range t.Days {
		if d.Kind == DayAbsence && IsPaidLeaveCode(d.AbsenceCode) {
			n++
		}
	}
	return n
}

// SickDays counts absence days in the sick-leave code range, uncapped.
// The engine applies EmployerSickDayCap.
func (t Timesheet) SickDays() int {
	n := 0
	for _, d := range t.Days {
		if d.Kind == DayAbsence && IsSickLeaveCode(d.AbsenceCode) {
			n++
		}
	}
	return n
}

// Totals summarizes the timesheet into the figures the snapshot embeds.
func (t Timesheet) Totals() TimesheetTotals {
	overtime := t.OvertimeByKind()
	return TimesheetTotals{
		WorkedDays:      t.WorkedDays(),
		OvertimeWorkday: overtime[DayWork],
		OvertimeWeekend: overtime[DayWeekend],
		OvertimeHoliday: overtime[DayHoliday],
		NightHours:      t.NightHours(),
		PaidLeaveDays:   t.PaidLeaveDays(),
		SickDays:        t.SickDays(),
	}
}

// TimesheetTotals are the aggregated attendance facts embedded verbatim in
// the snapshot so the record stays self-contained.
type TimesheetTotals struct {
	WorkedDays      int
	OvertimeWorkday decimal.Decimal
	OvertimeWeekend decimal.Decimal
	OvertimeHoliday decimal.Decimal
	NightHours      decimal.Decimal
	PaidLeaveDays   int
	SickDays        int
}
