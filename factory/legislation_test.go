package factory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/calc"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/legislation"
)

const validLegislationJSON = `{
	"year": 2025,
	"min_wage": "933.00",
	"max_insurable_income": "3750.00",
	"flat_tax_percent": "10",
	"disability_exemption": "450.00",
	"contributions": [
		{
			"insured_type": "01",
			"pension_employee": "8.2", "pension_employer": "11.02",
			"health_employee": "3.2", "health_employer": "4.8",
			"accident_employer": "0.7"
		}
	],
	"thresholds": [
		{"personnel_group": "1", "min_insurable_income": "1077.00"}
	]
}`

func TestParseLegislation_Valid(t *testing.T) {
	set, err := factory.ParseLegislation(validLegislationJSON)
	require.NoError(t, err)

	assert.Equal(t, 2025, set.Rates.Year)
	assert.True(t, set.Rates.MinWage.Equal(calc.MustParseDecimal("933.00")))
	assert.True(t, set.Rates.FlatTaxPercent.Equal(calc.MustParseDecimal("10")))

	require.Len(t, set.Contributions, 1)
	row := set.Contributions[0]
	assert.Equal(t, "01", row.InsuredType)
	assert.True(t, row.PensionEmployee.Equal(calc.MustParseDecimal("8.2")))
	assert.True(t, row.SupplementaryEmployee.IsZero(), "omitted fields default to zero")

	require.Len(t, set.Thresholds, 1)
	assert.Equal(t, "1", set.Thresholds[0].PersonnelGroup)
}

func TestParseLegislation_AppliesToRegistry(t *testing.T) {
	set, err := factory.ParseLegislation(validLegislationJSON)
	require.NoError(t, err)

	reg := legislation.NewRegistry()
	set.Apply(reg)

	rates, err := reg.RatesFor(2025)
	require.NoError(t, err)
	assert.True(t, rates.MaxInsurableIncome.Equal(calc.MustParseDecimal("3750.00")))

	row, err := reg.ContributionsFor(2025, "01", legislation.CohortSupplementary)
	require.NoError(t, err)
	assert.True(t, row.AccidentEmployer.Equal(calc.MustParseDecimal("0.7")))
}

func TestParseLegislation_Invalid(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{"not json", `{`},
		{"missing year", `{"min_wage":"933","max_insurable_income":"3750","flat_tax_percent":"10","contributions":[{"insured_type":"01"}]}`},
		{"missing min wage", `{"year":2025,"max_insurable_income":"3750","flat_tax_percent":"10","contributions":[{"insured_type":"01"}]}`},
		{"no contributions", `{"year":2025,"min_wage":"933","max_insurable_income":"3750","flat_tax_percent":"10"}`},
		{"contribution without insured type", `{"year":2025,"min_wage":"933","max_insurable_income":"3750","flat_tax_percent":"10","contributions":[{"pension_employee":"8.2"}]}`},
		{"malformed decimal", `{"year":2025,"min_wage":"nine","max_insurable_income":"3750","flat_tax_percent":"10","contributions":[{"insured_type":"01"}]}`},
		{"negative rate", `{"year":2025,"min_wage":"933","max_insurable_income":"3750","flat_tax_percent":"10","contributions":[{"insured_type":"01","pension_employee":"-8.2"}]}`},
		{"threshold without group", `{"year":2025,"min_wage":"933","max_insurable_income":"3750","flat_tax_percent":"10","contributions":[{"insured_type":"01"}],"thresholds":[{"min_insurable_income":"1077"}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := factory.ParseLegislation(tc.json)
			assert.Error(t, err)
		})
	}
}
