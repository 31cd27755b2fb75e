/*
handlers.go - HTTP API handlers for the payroll system

PURPOSE:
  Exposes the payroll calculation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees                      List all employees
    POST   /api/employees                      Create employee
    GET    /api/employees/{id}                 Get employee details
    PUT    /api/employees/{id}/contract        Create/replace contract
    GET    /api/employees/{id}/contract        Get contract
    PUT    /api/employees/{id}/timesheet       Replace a month's timesheet
    GET    /api/employees/{id}/timesheet       Get a month's timesheet
    GET    /api/employees/{id}/garnishments    List garnishments
    PUT    /api/employees/{id}/garnishments    Create/replace garnishment
    POST   /api/employees/{id}/calculate       Run one payroll calculation
    GET    /api/employees/{id}/snapshots       List snapshot versions

  Snapshots:
    GET    /api/snapshots/{id}                 Get one stored snapshot

  Payruns and periods:
    POST   /api/payruns                        Calculate a whole month
    POST   /api/periods/close                  Close a month

  Legislation:
    POST   /api/legislation                    Register a year's parameters
    GET    /api/legislation/years              List registered years

  Calendars:
    PUT    /api/calendars                      Set a month's working calendar

  Scenarios:
    GET    /api/scenarios                      List demo scenarios
    POST   /api/scenarios/load                 Load a demo scenario

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store:    Database access
  - Registry: Resolved legislated parameters by year
  - Engine:   The pure calculation engine

REQUEST FLOW:
  1. Parse HTTP request
  2. Resolve the calculation input from store + registry
  3. Call the engine (pure, no I/O)
  4. Persist the snapshot, serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, missing timesheet/contract
  - 404: Resource not found
  - 422: No legislated parameters registered for the requested year
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - payrun.go: Batch calculation
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/payroll-engine/calc"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/legislation"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Registry *legislation.Registry
	Engine   *calc.Engine

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:    store,
		Registry: legislation.NewRegistry(),
		Engine:   &calc.Engine{},
	}
}

// LoadLegislation rebuilds the registry from the persisted legislation
// rows. Called at startup and after bulk loads.
func (h *Handler) LoadLegislation(ctx context.Context) error {
	rates, err := h.Store.ListRates(ctx)
	if err != nil {
		return err
	}
	for _, r := range rates {
		h.Registry.AddRates(r)
	}

	contributions, err := h.Store.ListContributionRates(ctx)
	if err != nil {
		return err
	}
	for _, c := range contributions {
		h.Registry.AddContributions(c)
	}

	thresholds, err := h.Store.ListThresholds(ctx)
	if err != nil {
		return err
	}
	for _, t := range thresholds {
		h.Registry.AddThreshold(t)
	}
	return nil
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.ID == "" || req.FirstName == "" || req.LastName == "" {
		writeError(w, http.StatusBadRequest, "id, first_name and last_name are required", nil)
		return
	}
	if _, err := legislation.BirthDateFromEGN(req.EGN); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid EGN", err)
		return
	}

	emp := sqlite.Employee{
		ID:        req.ID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		EGN:       req.EGN,
		Disabled:  req.Disabled,
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}

	saved, err := h.Store.GetEmployee(r.Context(), req.ID)
	if err != nil || saved == nil {
		writeError(w, http.StatusInternalServerError, "Failed to read back employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(*saved))
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// =============================================================================
// CONTRACT HANDLERS
// =============================================================================

// SaveContract creates or replaces the employee's contract.
func (h *Handler) SaveContract(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	var req SaveContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.BaseSalary <= 0 {
		writeError(w, http.StatusBadRequest, "base_salary must be positive", nil)
		return
	}
	if req.InsuredType == "" {
		writeError(w, http.StatusBadRequest, "insured_type is required", nil)
		return
	}

	contract := sqlite.Contract{
		EmployeeID:       id,
		BaseSalary:       dec(req.BaseSalary),
		SeniorityPercent: dec(req.SeniorityPercent),
		PersonnelGroup:   req.PersonnelGroup,
		InsuredType:      req.InsuredType,
		WeeklyHours:      dec(req.WeeklyHours),
	}
	if err := h.Store.SaveContract(r.Context(), contract); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save contract", err)
		return
	}
	writeJSON(w, http.StatusOK, toContractDTO(contract))
}

// GetContract returns the employee's contract.
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	contract, err := h.Store.GetContract(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get contract", err)
		return
	}
	if contract == nil {
		writeError(w, http.StatusNotFound, "Contract not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toContractDTO(*contract))
}

// =============================================================================
// CALENDAR AND TIMESHEET HANDLERS
// =============================================================================

// SaveCalendar sets a month's working calendar.
func (h *Handler) SaveCalendar(w http.ResponseWriter, r *http.Request) {
	var req CalendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Month < 1 || req.Month > 12 || req.WorkingDays <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid calendar", nil)
		return
	}

	cal := calc.Calendar{
		Year:         req.Year,
		Month:        time.Month(req.Month),
		WorkingDays:  req.WorkingDays,
		WorkingHours: dec(req.WorkingHours),
	}
	if err := h.Store.SaveCalendar(r.Context(), cal); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// SaveTimesheet replaces the employee's timesheet for a month.
func (h *Handler) SaveTimesheet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req TimesheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Month < 1 || req.Month > 12 {
		writeError(w, http.StatusBadRequest, "Invalid month", nil)
		return
	}

	var ts calc.Timesheet
	for _, d := range req.Days {
		ts.Days = append(ts.Days, calc.DayEntry{
			Day:           d.Day,
			Kind:          calc.DayKind(d.Kind),
			WorkedHours:   dec(d.WorkedHours),
			OvertimeHours: dec(d.OvertimeHours),
			NightHours:    dec(d.NightHours),
			AbsenceCode:   d.AbsenceCode,
		})
	}

	if err := h.Store.SaveTimesheet(r.Context(), id, req.Year, time.Month(req.Month), ts); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save timesheet", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// GetTimesheet returns the employee's timesheet for a month
// (?year=YYYY&month=M).
func (h *Handler) GetTimesheet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	year, month, err := periodFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	ts, err := h.Store.GetTimesheet(r.Context(), id, year, month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get timesheet", err)
		return
	}
	if ts == nil {
		writeError(w, http.StatusNotFound, "Timesheet not found", nil)
		return
	}

	resp := TimesheetRequest{Year: year, Month: int(month)}
	for _, d := range ts.Days {
		resp.Days = append(resp.Days, TimesheetDayJSON{
			Day:           d.Day,
			Kind:          string(d.Kind),
			WorkedHours:   d.WorkedHours.InexactFloat64(),
			OvertimeHours: d.OvertimeHours.InexactFloat64(),
			NightHours:    d.NightHours.InexactFloat64(),
			AbsenceCode:   d.AbsenceCode,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// GARNISHMENT HANDLERS
// =============================================================================

// ListGarnishments returns the employee's garnishments.
func (h *Handler) ListGarnishments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	activeOnly := r.URL.Query().Get("active") == "true"

	gs, err := h.Store.ListGarnishments(r.Context(), id, activeOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list garnishments", err)
		return
	}

	dtos := make([]GarnishmentDTO, len(gs))
	for i, g := range gs {
		dtos[i] = toGarnishmentDTO(g)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveGarnishment creates or replaces a garnishment for the employee.
func (h *Handler) SaveGarnishment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	var req SaveGarnishmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required", nil)
		return
	}

	kind := calc.GarnishmentKind(req.Kind)
	switch kind {
	case calc.GarnishJudicial, calc.GarnishPublic, calc.GarnishAlimony:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown garnishment kind: %s", req.Kind), nil)
		return
	}
	if kind == calc.GarnishAlimony && req.MonthlyAmount <= 0 {
		writeError(w, http.StatusBadRequest, "Alimony requires a positive monthly_amount", nil)
		return
	}
	if kind != calc.GarnishAlimony && req.TotalAmount <= 0 {
		writeError(w, http.StatusBadRequest, "A non-alimony garnishment requires a positive total_amount", nil)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	g := calc.Garnishment{
		ID:                 req.ID,
		Kind:               kind,
		Name:               req.Name,
		TotalAmount:        dec(req.TotalAmount),
		PaidAmount:         dec(req.PaidAmount),
		MonthlyAmount:      dec(req.MonthlyAmount),
		Priority:           req.Priority,
		SupportsDependents: req.SupportsDependents,
		Active:             active,
	}
	if err := h.Store.SaveGarnishment(r.Context(), id, g); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save garnishment", err)
		return
	}
	writeJSON(w, http.StatusOK, toGarnishmentDTO(g))
}

// =============================================================================
// CALCULATION HANDLERS
// =============================================================================

// Calculate runs one payroll calculation and persists the snapshot as a
// new version.
// POST /api/employees/{id}/calculate
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Month < 1 || req.Month > 12 {
		writeError(w, http.StatusBadRequest, "Invalid month", nil)
		return
	}

	rec, err := h.calculateAndStore(r.Context(), id, req)
	if err != nil {
		writeError(w, statusFor(err), "Calculation failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSnapshotDTO(rec))
}

// calculateAndStore resolves the input, runs the engine, and persists
// the snapshot. Shared by Calculate and the payrun batch.
func (h *Handler) calculateAndStore(ctx context.Context, employeeID string, req CalculateRequest) (*sqlite.SnapshotRecord, error) {
	input, err := h.resolveInput(ctx, employeeID, req)
	if err != nil {
		return nil, err
	}

	snapshot, err := h.Engine.Calculate(*input)
	if err != nil {
		return nil, err
	}

	id, version, err := h.Store.SaveSnapshot(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	return &sqlite.SnapshotRecord{
		ID:         id,
		EmployeeID: snapshot.EmployeeID,
		Year:       snapshot.Year,
		Month:      snapshot.Month,
		Version:    version,
		CreatedAt:  time.Now().UTC(),
		Snapshot:   snapshot,
	}, nil
}

// resolveInput gathers every fact one calculation needs from the store
// and the legislation registry.
func (h *Handler) resolveInput(ctx context.Context, employeeID string, req CalculateRequest) (*calc.CalculationInput, error) {
	year, month := req.Year, time.Month(req.Month)

	emp, err := h.Store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, &notFoundError{what: "employee", id: employeeID}
	}

	contract, err := h.Store.GetContract(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, fmt.Errorf("employee %s: %w", employeeID, calc.ErrMissingContract)
	}

	cal, err := h.Store.GetCalendar(ctx, year, month)
	if err != nil {
		return nil, err
	}
	if cal == nil {
		return nil, fmt.Errorf("%d-%02d: %w", year, int(month), calc.ErrMissingCalendar)
	}

	ts, err := h.Store.GetTimesheet(ctx, employeeID, year, month)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		return nil, fmt.Errorf("employee %s %d-%02d: %w", employeeID, year, int(month), calc.ErrMissingTimesheet)
	}

	rates, err := h.Registry.RatesFor(year)
	if err != nil {
		return nil, err
	}

	cohort, err := legislation.CohortFromEGN(emp.EGN)
	if err != nil {
		return nil, err
	}
	contributions, err := h.Registry.ContributionsFor(year, contract.InsuredType, cohort)
	if err != nil {
		return nil, err
	}

	threshold, err := h.Registry.ThresholdFor(year, contract.PersonnelGroup)
	if err != nil {
		return nil, err
	}

	garnishments, err := h.Store.ListGarnishments(ctx, employeeID, true)
	if err != nil {
		return nil, err
	}

	input := &calc.CalculationInput{
		EmployeeID:    employeeID,
		Year:          year,
		Month:         month,
		Employee:      emp.Facts(),
		Contract:      contract.Facts(),
		Calendar:      *cal,
		Timesheet:     *ts,
		Rates:         rates,
		Contributions: contributions,
		Threshold:     threshold,
		Garnishments:  garnishments,
	}

	for _, e := range req.Earnings {
		kind := calc.LineKind(e.Kind)
		if kind == "" {
			kind = calc.LineFixed
		}
		input.Earnings = append(input.Earnings, calc.Earning{
			Code:   e.Code,
			Name:   e.Name,
			Kind:   kind,
			Amount: dec(e.Amount),
		})
	}
	for _, d := range req.Deductions {
		input.Deductions = append(input.Deductions, calc.Deduction{
			Code:   d.Code,
			Name:   d.Name,
			Amount: dec(d.Amount),
		})
	}
	return input, nil
}

// GetSnapshot returns one stored snapshot by id.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.Store.GetSnapshot(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get snapshot", err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "Snapshot not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotDTO(rec))
}

// ListSnapshots returns all snapshot versions for an employee.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	records, err := h.Store.ListSnapshots(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list snapshots", err)
		return
	}

	dtos := make([]SnapshotDTO, len(records))
	for i, rec := range records {
		dtos[i] = toSnapshotDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// PERIOD CLOSE
// =============================================================================

// ClosePeriod closes a month: garnishment progress from the latest
// snapshots is applied onto the debt records and the snapshots are
// marked closed.
// POST /api/periods/close
func (h *Handler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	var req ClosePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Month < 1 || req.Month > 12 {
		writeError(w, http.StatusBadRequest, "Invalid month", nil)
		return
	}

	result, err := h.Store.ClosePeriod(r.Context(), req.Year, time.Month(req.Month))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to close period", err)
		return
	}
	writeJSON(w, http.StatusOK, ClosePeriodDTO{
		Year:                req.Year,
		Month:               req.Month,
		SnapshotsClosed:     result.SnapshotsClosed,
		GarnishmentsUpdated: result.GarnishmentsUpdated,
		GarnishmentsSettled: result.GarnishmentsSettled,
	})
}

// =============================================================================
// LEGISLATION HANDLERS
// =============================================================================

// LoadLegislationYear registers one year's legislated parameters, both
// persisting the rows and updating the live registry.
// POST /api/legislation
func (h *Handler) LoadLegislationYear(w http.ResponseWriter, r *http.Request) {
	var req LoadLegislationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	set, err := factory.FromJSON(req.Config)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid legislation config", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.SaveRates(ctx, set.Rates); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save rates", err)
		return
	}
	for _, c := range set.Contributions {
		if err := h.Store.SaveContributionRates(ctx, c); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save contribution rates", err)
			return
		}
	}
	for _, t := range set.Thresholds {
		if err := h.Store.SaveThreshold(ctx, t); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save threshold", err)
			return
		}
	}
	set.Apply(h.Registry)

	writeJSON(w, http.StatusCreated, LegislationYearDTO{Year: set.Rates.Year})
}

// ListLegislationYears returns the years with registered parameters.
func (h *Handler) ListLegislationYears(w http.ResponseWriter, r *http.Request) {
	years := h.Registry.Years()
	dtos := make([]LegislationYearDTO, len(years))
	for i, y := range years {
		dtos[i] = LegislationYearDTO{Year: y}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

type notFoundError struct {
	what string
	id   string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.what, e.id)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var nf *notFoundError
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound
	case calc.IsMissingResolution(err):
		return http.StatusUnprocessableEntity
	case calc.IsMissingInput(err), errors.Is(err, calc.ErrInvalidEGN):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func periodFromQuery(r *http.Request) (int, time.Month, error) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year: %w", err)
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month")
	}
	return year, time.Month(month), nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
