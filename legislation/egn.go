/*
Package legislation resolves the legislated facts a payroll calculation
needs: rates, contribution percentages and insurable-income thresholds per
year, and the employee's supplementary-pension cohort derived from the
national identifier.

The calc package consumes only the resolved results; everything here is
the caller-side resolution the engine deliberately does not do.
*/
package legislation

import (
	"strconv"
	"time"

	"github.com/warp/payroll-engine/calc"
)

// =============================================================================
// EGN DECODING - Birth date from the national identifier
// =============================================================================

// BirthDateFromEGN decodes the birth date from the YYMMDD prefix of an
// EGN. The month field disambiguates the century: months 1-12 mean the
// 1900s, 21-32 the 1800s, 41-52 the 2000s.
//
// The heuristic is preserved exactly for compatibility and isolated here
// so it can be swapped without touching anything else.
func BirthDateFromEGN(egn string) (time.Time, error) {
	if len(egn) < 6 {
		return time.Time{}, calc.ErrInvalidEGN
	}

	yy, err := strconv.Atoi(egn[0:2])
	if err != nil {
		return time.Time{}, calc.ErrInvalidEGN
	}
	mm, err := strconv.Atoi(egn[2:4])
	if err != nil {
		return time.Time{}, calc.ErrInvalidEGN
	}
	dd, err := strconv.Atoi(egn[4:6])
	if err != nil {
		return time.Time{}, calc.ErrInvalidEGN
	}

	var year, month int
	switch {
	case mm >= 1 && mm <= 12:
		year, month = 1900+yy, mm
	case mm >= 21 && mm <= 32:
		year, month = 1800+yy, mm-20
	case mm >= 41 && mm <= 52:
		year, month = 2000+yy, mm-40
	default:
		return time.Time{}, calc.ErrInvalidEGN
	}

	date := time.Date(year, time.Month(month), dd, 0, 0, 0, 0, time.UTC)
	// Reject day overflow (e.g. February 30 normalizing into March).
	if date.Day() != dd || date.Month() != time.Month(month) {
		return time.Time{}, calc.ErrInvalidEGN
	}
	return date, nil
}

// =============================================================================
// SUPPLEMENTARY-PENSION COHORT
// =============================================================================

// Cohort classifies an employee's eligibility for the supplementary
// (universal) pension fund, by birth year.
type Cohort string

const (
	// CohortSupplementary: born 1960 or later, insured in the universal
	// supplementary pension fund.
	CohortSupplementary Cohort = "supplementary"

	// CohortLegacy: born before 1960, state pension only; the
	// supplementary rate is zero for them.
	CohortLegacy Cohort = "legacy"
)

// supplementaryCohortFirstYear is the first birth year insured in the
// universal supplementary pension fund.
const supplementaryCohortFirstYear = 1960

// CohortForBirthYear classifies a birth year.
func CohortForBirthYear(year int) Cohort {
	if year >= supplementaryCohortFirstYear {
		return CohortSupplementary
	}
	return CohortLegacy
}

// CohortFromEGN derives the cohort straight from the identifier.
func CohortFromEGN(egn string) (Cohort, error) {
	birth, err := BirthDateFromEGN(egn)
	if err != nil {
		return "", err
	}
	return CohortForBirthYear(birth.Year()), nil
}
