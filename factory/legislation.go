/*
Package factory provides JSON to Go legislation conversion.

PURPOSE:
  Converts JSON legislation definitions into calc.Rates,
  calc.ContributionRates and calc.Threshold rows. This enables yearly
  rate updates without code changes - payroll administrators load the
  year's figures as JSON, and the factory builds the typed rows the
  engine consumes.

WHY JSON?
  - Non-developers can load the yearly legislated figures
  - Easy integration with an admin UI
  - Version control for rate sets
  - Database storage of legislation configs

JSON SCHEMA:
  {
    "year": 2025,
    "min_wage": "933.00",
    "max_insurable_income": "3750.00",
    "flat_tax_percent": "10",
    "disability_exemption": "450.00",
    "contributions": [
      {
        "insured_type": "01",
        "pension_employee": "8.2", "pension_employer": "11.02",
        "health_employee": "3.2",  "health_employer": "4.8",
        ...
      }
    ],
    "thresholds": [
      {"personnel_group": "1", "min_insurable_income": "1077.00"}
    ]
  }

  All monetary and percentage figures are decimal STRINGS so no binary
  float ever touches the money path.

USAGE:
  set, err := factory.ParseLegislation(jsonStr)
  set.Apply(registry)

SEE ALSO:
  - legislation/registry.go: Where parsed rows are registered
  - calc/types.go: The row types
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/calc"
	"github.com/warp/payroll-engine/legislation"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// LegislationJSON is the JSON representation of one year's legislation.
type LegislationJSON struct {
	Year                int                 `json:"year"`
	MinWage             string              `json:"min_wage"`
	MaxInsurableIncome  string              `json:"max_insurable_income"`
	FlatTaxPercent      string              `json:"flat_tax_percent"`
	DisabilityExemption string              `json:"disability_exemption,omitempty"`
	Contributions       []ContributionJSON  `json:"contributions"`
	Thresholds          []ThresholdJSON     `json:"thresholds,omitempty"`
}

// ContributionJSON is one insured-type contribution row.
type ContributionJSON struct {
	InsuredType string `json:"insured_type"`

	PensionEmployee string `json:"pension_employee,omitempty"`
	PensionEmployer string `json:"pension_employer,omitempty"`

	SicknessEmployee string `json:"sickness_employee,omitempty"`
	SicknessEmployer string `json:"sickness_employer,omitempty"`

	UnemploymentEmployee string `json:"unemployment_employee,omitempty"`
	UnemploymentEmployer string `json:"unemployment_employer,omitempty"`

	SupplementaryEmployee string `json:"supplementary_employee,omitempty"`
	SupplementaryEmployer string `json:"supplementary_employer,omitempty"`

	HealthEmployee string `json:"health_employee,omitempty"`
	HealthEmployer string `json:"health_employer,omitempty"`

	AccidentEmployer             string `json:"accident_employer,omitempty"`
	PensionFundSurchargeEmployer string `json:"pension_fund_surcharge_employer,omitempty"`
}

// ThresholdJSON is one personnel-group threshold row.
type ThresholdJSON struct {
	PersonnelGroup     string `json:"personnel_group"`
	MinInsurableIncome string `json:"min_insurable_income"`
}

// =============================================================================
// LEGISLATION SET - Parsed, typed rows
// =============================================================================

// LegislationSet is one year's parsed legislation, ready to register.
type LegislationSet struct {
	Rates         calc.Rates
	Contributions []calc.ContributionRates
	Thresholds    []calc.Threshold
}

// Apply registers every row of the set into a registry.
func (s *LegislationSet) Apply(r *legislation.Registry) {
	r.AddRates(s.Rates)
	for _, c := range s.Contributions {
		r.AddContributions(c)
	}
	for _, t := range s.Thresholds {
		r.AddThreshold(t)
	}
}

// =============================================================================
// PARSING
// =============================================================================

// ParseLegislation parses a JSON string into a LegislationSet.
func ParseLegislation(jsonStr string) (*LegislationSet, error) {
	var lj LegislationJSON
	if err := json.Unmarshal([]byte(jsonStr), &lj); err != nil {
		return nil, fmt.Errorf("failed to parse legislation JSON: %w", err)
	}
	return FromJSON(lj)
}

// FromJSON converts LegislationJSON into typed rows.
func FromJSON(lj LegislationJSON) (*LegislationSet, error) {
	if lj.Year == 0 {
		return nil, fmt.Errorf("legislation config requires a year")
	}

	rates := calc.Rates{Year: lj.Year}
	var err error
	if rates.MinWage, err = parseAmount("min_wage", lj.MinWage, true); err != nil {
		return nil, err
	}
	if rates.MaxInsurableIncome, err = parseAmount("max_insurable_income", lj.MaxInsurableIncome, true); err != nil {
		return nil, err
	}
	if rates.FlatTaxPercent, err = parseAmount("flat_tax_percent", lj.FlatTaxPercent, true); err != nil {
		return nil, err
	}
	if rates.DisabilityExemption, err = parseAmount("disability_exemption", lj.DisabilityExemption, false); err != nil {
		return nil, err
	}

	if len(lj.Contributions) == 0 {
		return nil, fmt.Errorf("legislation config for %d has no contribution rows", lj.Year)
	}

	set := &LegislationSet{Rates: rates}
	for i, cj := range lj.Contributions {
		if cj.InsuredType == "" {
			return nil, fmt.Errorf("contribution row %d has no insured_type", i)
		}
		row := calc.ContributionRates{Year: lj.Year, InsuredType: cj.InsuredType}

		fields := []struct {
			name string
			src  string
			dst  *decimal.Decimal
		}{
			{"pension_employee", cj.PensionEmployee, &row.PensionEmployee},
			{"pension_employer", cj.PensionEmployer, &row.PensionEmployer},
			{"sickness_employee", cj.SicknessEmployee, &row.SicknessEmployee},
			{"sickness_employer", cj.SicknessEmployer, &row.SicknessEmployer},
			{"unemployment_employee", cj.UnemploymentEmployee, &row.UnemploymentEmployee},
			{"unemployment_employer", cj.UnemploymentEmployer, &row.UnemploymentEmployer},
			{"supplementary_employee", cj.SupplementaryEmployee, &row.SupplementaryEmployee},
			{"supplementary_employer", cj.SupplementaryEmployer, &row.SupplementaryEmployer},
			{"health_employee", cj.HealthEmployee, &row.HealthEmployee},
			{"health_employer", cj.HealthEmployer, &row.HealthEmployer},
			{"accident_employer", cj.AccidentEmployer, &row.AccidentEmployer},
			{"pension_fund_surcharge_employer", cj.PensionFundSurchargeEmployer, &row.PensionFundSurchargeEmployer},
		}
		for _, f := range fields {
			if *f.dst, err = parseAmount(f.name, f.src, false); err != nil {
				return nil, fmt.Errorf("insured type %s: %w", cj.InsuredType, err)
			}
		}
		set.Contributions = append(set.Contributions, row)
	}

	for i, tj := range lj.Thresholds {
		if tj.PersonnelGroup == "" {
			return nil, fmt.Errorf("threshold row %d has no personnel_group", i)
		}
		min, err := parseAmount("min_insurable_income", tj.MinInsurableIncome, true)
		if err != nil {
			return nil, fmt.Errorf("personnel group %s: %w", tj.PersonnelGroup, err)
		}
		set.Thresholds = append(set.Thresholds, calc.Threshold{
			Year:               lj.Year,
			PersonnelGroup:     tj.PersonnelGroup,
			MinInsurableIncome: min,
		})
	}

	return set, nil
}

// parseAmount parses a decimal string; empty is zero unless required.
// Negative figures are always rejected - legislation never legislates a
// negative rate.
func parseAmount(field, value string, required bool) (decimal.Decimal, error) {
	if value == "" {
		if required {
			return decimal.Zero, fmt.Errorf("field %s is required", field)
		}
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("field %s: invalid decimal %q", field, value)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("field %s: negative value %q", field, value)
	}
	return d, nil
}
