/*
registry.go - In-memory legislation registry

PURPOSE:
  Holds the legislated rows (rates, contribution percentages, thresholds)
  keyed by year and resolves them for a calculation. Resolution failures
  return the calc package's missing-resolution errors with year context -
  a calculation for an employee whose year or insured type has no row
  must fail loudly, never silently default.

COHORT HANDLING:
  ContributionsFor applies the supplementary-pension cohort: legacy
  cohorts (born before 1960) get a copy of the row with the supplementary
  rates zeroed. The engine itself only checks "rate nonzero", so
  eligibility is decided entirely here.

SEE ALSO:
  - egn.go: Cohort derivation
  - factory/legislation.go: Building a registry from JSON config
*/
package legislation

import (
	"sync"

	"github.com/warp/payroll-engine/calc"
)

// Registry is an in-memory legislation set. Safe for concurrent use.
type Registry struct {
	mu            sync.RWMutex
	rates         map[int]calc.Rates
	contributions map[int]map[string]calc.ContributionRates
	thresholds    map[int]map[string]calc.Threshold
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rates:         make(map[int]calc.Rates),
		contributions: make(map[int]map[string]calc.ContributionRates),
		thresholds:    make(map[int]map[string]calc.Threshold),
	}
}

// AddRates registers (or replaces) the scalar rates for a year.
func (r *Registry) AddRates(rates calc.Rates) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rates[rates.Year] = rates
}

// AddContributions registers a contribution row for its year and
// insured-type code.
func (r *Registry) AddContributions(c calc.ContributionRates) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.contributions[c.Year] == nil {
		r.contributions[c.Year] = make(map[string]calc.ContributionRates)
	}
	r.contributions[c.Year][c.InsuredType] = c
}

// AddThreshold registers a minimum-insurable-income row for its year and
// personnel group.
func (r *Registry) AddThreshold(t calc.Threshold) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.thresholds[t.Year] == nil {
		r.thresholds[t.Year] = make(map[string]calc.Threshold)
	}
	r.thresholds[t.Year][t.PersonnelGroup] = t
}

// RatesFor resolves the scalar rates for a year.
func (r *Registry) RatesFor(year int) (*calc.Rates, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rates, ok := r.rates[year]
	if !ok {
		return nil, &calc.MissingLegislationError{What: "rates", Year: year}
	}
	return &rates, nil
}

// ContributionsFor resolves the contribution row for a year and insured
// type, with the supplementary rates zeroed for legacy cohorts.
func (r *Registry) ContributionsFor(year int, insuredType string, cohort Cohort) (*calc.ContributionRates, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.contributions[year][insuredType]
	if !ok {
		return nil, &calc.MissingLegislationError{What: "contributions", Year: year, Key: insuredType}
	}
	if cohort == CohortLegacy {
		row.SupplementaryEmployee = calc.Zero
		row.SupplementaryEmployer = calc.Zero
	}
	return &row, nil
}

// ThresholdFor resolves the minimum-insurable-income row for a personnel
// group. A group without a row is a legitimate state: the engine treats a
// nil threshold as "no group minimum", so absence returns (nil, nil), not
// an error. Use ErrMissingThreshold-wrapping lookups only where a row is
// mandatory.
func (r *Registry) ThresholdFor(year int, personnelGroup string) (*calc.Threshold, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.thresholds[year][personnelGroup]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// Years lists the years with registered rates, for the API surface.
func (r *Registry) Years() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	years := make([]int, 0, len(r.rates))
	for y := range r.rates {
		years = append(years, y)
	}
	return years
}
