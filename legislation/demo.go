package legislation

import "github.com/warp/payroll-engine/calc"

// =============================================================================
// DEMO LEGISLATION SET - Illustrative figures for scenarios and local runs
// =============================================================================

// Demo2025 returns a registry loaded with an illustrative 2025 set.
// The figures are plausible, not authoritative; production sets come from
// config via the factory package.
func Demo2025() *Registry {
	r := NewRegistry()

	r.AddRates(calc.Rates{
		Year:                2025,
		MinWage:             calc.MustParseDecimal("933.00"),
		MaxInsurableIncome:  calc.MustParseDecimal("3750.00"),
		FlatTaxPercent:      calc.MustParseDecimal("10"),
		DisabilityExemption: calc.MustParseDecimal("450.00"),
	})

	// Insured type 01: third-category labor under standard conditions.
	r.AddContributions(calc.ContributionRates{
		Year:                  2025,
		InsuredType:           "01",
		PensionEmployee:       calc.MustParseDecimal("8.2"),
		PensionEmployer:       calc.MustParseDecimal("11.02"),
		SicknessEmployee:      calc.MustParseDecimal("1.4"),
		SicknessEmployer:      calc.MustParseDecimal("2.1"),
		UnemploymentEmployee:  calc.MustParseDecimal("0.4"),
		UnemploymentEmployer:  calc.MustParseDecimal("0.6"),
		SupplementaryEmployee: calc.MustParseDecimal("2.2"),
		SupplementaryEmployer: calc.MustParseDecimal("2.8"),
		HealthEmployee:        calc.MustParseDecimal("3.2"),
		HealthEmployer:        calc.MustParseDecimal("4.8"),
		AccidentEmployer:      calc.MustParseDecimal("0.7"),
	})

	// Insured type 08: pedagogical staff, with the pension fund surcharge.
	r.AddContributions(calc.ContributionRates{
		Year:                         2025,
		InsuredType:                  "08",
		PensionEmployee:              calc.MustParseDecimal("8.2"),
		PensionEmployer:              calc.MustParseDecimal("11.02"),
		SicknessEmployee:             calc.MustParseDecimal("1.4"),
		SicknessEmployer:             calc.MustParseDecimal("2.1"),
		UnemploymentEmployee:         calc.MustParseDecimal("0.4"),
		UnemploymentEmployer:         calc.MustParseDecimal("0.6"),
		SupplementaryEmployee:        calc.MustParseDecimal("2.2"),
		SupplementaryEmployer:        calc.MustParseDecimal("2.8"),
		HealthEmployee:               calc.MustParseDecimal("3.2"),
		HealthEmployer:               calc.MustParseDecimal("4.8"),
		AccidentEmployer:             calc.MustParseDecimal("0.4"),
		PensionFundSurchargeEmployer: calc.MustParseDecimal("4.3"),
	})

	r.AddThreshold(calc.Threshold{Year: 2025, PersonnelGroup: "1", MinInsurableIncome: calc.MustParseDecimal("1077.00")})
	r.AddThreshold(calc.Threshold{Year: 2025, PersonnelGroup: "2", MinInsurableIncome: calc.MustParseDecimal("933.00")})

	return r
}
