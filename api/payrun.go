/*
payrun.go - Batch payroll calculation for a whole month

PURPOSE:
  Runs the calculation for every selected employee of a month in one
  request. Each employee's input is resolved and calculated in
  isolation: one failed employee (missing timesheet, legislation gap,
  malformed EGN) is reported in the result and never aborts the rest
  of the batch.

DESIGN:
  - A small worker pool calculates employees concurrently; the engine
    is pure so workers share nothing but the store
  - Results are collected per employee and re-sorted by id so the
    response order is deterministic
  - Snapshots are persisted as new versions exactly as single
    calculations are; re-running a payrun creates version n+1 per
    employee

USAGE VIA API:
  POST /api/payruns
  {"year": 2025, "month": 3}

SEE ALSO:
  - handlers.go: calculateAndStore, the per-employee path this reuses
  - store/sqlite: ClosePeriod consumes the latest versions produced here
*/
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"sync"
)

// payrunWorkers bounds the concurrent per-employee calculations.
const payrunWorkers = 4

// RunPayrun calculates a whole month in one batch.
// POST /api/payruns
func (h *Handler) RunPayrun(w http.ResponseWriter, r *http.Request) {
	var req PayrunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Month < 1 || req.Month > 12 {
		writeError(w, http.StatusBadRequest, "Invalid month", nil)
		return
	}

	ids := req.EmployeeIDs
	if len(ids) == 0 {
		employees, err := h.Store.ListEmployees(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
			return
		}
		for _, e := range employees {
			ids = append(ids, e.ID)
		}
	}

	result := PayrunResultDTO{
		Year:    req.Year,
		Month:   req.Month,
		Total:   len(ids),
		Results: make([]PayrunEmployeeResult, 0, len(ids)),
	}

	perEmployee := CalculateRequest{Year: req.Year, Month: req.Month}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	work := make(chan string)

	for i := 0; i < payrunWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range work {
				rec, err := h.calculateAndStore(r.Context(), id, perEmployee)

				mu.Lock()
				if err != nil {
					log.Printf("[Payrun] %d-%02d employee %s skipped: %v", req.Year, req.Month, id, err)
					result.Results = append(result.Results, PayrunEmployeeResult{
						EmployeeID: id,
						Error:      err.Error(),
					})
					result.Failed++
				} else {
					dto := toSnapshotDTO(rec)
					result.Results = append(result.Results, PayrunEmployeeResult{
						EmployeeID: id,
						SnapshotID: rec.ID,
						Version:    rec.Version,
						Snapshot:   &dto,
					})
					result.Succeeded++
				}
				mu.Unlock()
			}
		}()
	}

	for _, id := range ids {
		work <- id
	}
	close(work)
	wg.Wait()

	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].EmployeeID < result.Results[j].EmployeeID
	})

	writeJSON(w, http.StatusOK, result)
}
