/*
Package sqlite provides the SQLite-backed persistence for the payroll system.

PURPOSE:
  Persists everything the calculation engine treats as external input:
  employee and contract records, monthly calendars and timesheets,
  garnishment debts, legislation rows, and the immutable payroll
  snapshots the engine produces. In production the same patterns apply
  to PostgreSQL - only minor SQL dialect differences.

IMMUTABILITY ENFORCEMENT:
  Snapshots are append-only and versioned:
  - Saving a snapshot for an employee-month that already has one inserts
    a NEW version; there is no UPDATE path for snapshot payloads
  - Corrections are new versions, never recalculations in place

PERIOD CLOSE:
  ClosePeriod walks the latest unclosed snapshot of every employee for a
  month, applies each garnishment line's amount onto the originating
  debt's paid_amount (the line metadata carries the source id),
  deactivates fully paid debts, and marks the snapshot closed. Closing
  is idempotent: a closed snapshot is never applied twice.

KEY TABLES:
  employees, contracts:  Master data
  calendars:             Working days/hours per month
  timesheet_days:        One row per day of a monthly timesheet
  garnishments:          Debt records with repayment progress
  rates, contribution_rates, thresholds: Legislation rows by year
  snapshots:             Immutable versioned payroll results (JSON payload)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - calc/snapshot.go: The snapshot this store freezes
  - api/handlers.go: The consumer of this package
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/calc"
)

// =============================================================================
// ENTITIES OWNED BY THE STORE
// =============================================================================

// Employee is the master record; the engine sees only the resolved
// calc.EmployeeFacts built from it.
type Employee struct {
	ID        string
	FirstName string
	LastName  string
	EGN       string
	Disabled  bool
	CreatedAt time.Time
}

// Facts converts the record into the engine's value type.
func (e Employee) Facts() calc.EmployeeFacts {
	return calc.EmployeeFacts{
		ID:        e.ID,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		EGN:       e.EGN,
		Disabled:  e.Disabled,
	}
}

// Contract is the current contract for an employee. One row per
// employee; historical contract versions are out of scope here.
type Contract struct {
	EmployeeID       string
	BaseSalary       decimal.Decimal
	SeniorityPercent decimal.Decimal
	PersonnelGroup   string
	InsuredType      string
	WeeklyHours      decimal.Decimal
}

// Facts converts the record into the engine's value type.
func (c Contract) Facts() calc.ContractFacts {
	return calc.ContractFacts{
		BaseSalary:       c.BaseSalary,
		SeniorityPercent: c.SeniorityPercent,
		PersonnelGroup:   c.PersonnelGroup,
		InsuredType:      c.InsuredType,
		WeeklyHours:      c.WeeklyHours,
	}
}

// SnapshotRecord is a stored snapshot with its storage identity.
type SnapshotRecord struct {
	ID         string
	EmployeeID string
	Year       int
	Month      time.Month
	Version    int
	Closed     bool
	CreatedAt  time.Time
	Snapshot   *calc.PayrollSnapshot
}

// ClosePeriodResult summarizes one period close.
type ClosePeriodResult struct {
	SnapshotsClosed     int
	GarnishmentsUpdated int
	GarnishmentsSettled int
}

// =============================================================================
// STORE
// =============================================================================

// Store implements all persistence for the payroll system using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database (useful for testing).
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Reset clears all data. Development and demo use only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"snapshots", "garnishments", "timesheet_days", "calendars",
		"contracts", "employees", "rates", "contribution_rates", "thresholds",
	}
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return err
		}
	}
	return nil
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		egn TEXT NOT NULL,
		disabled INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS contracts (
		employee_id TEXT PRIMARY KEY REFERENCES employees(id),
		base_salary TEXT NOT NULL,
		seniority_percent TEXT NOT NULL,
		personnel_group TEXT NOT NULL,
		insured_type TEXT NOT NULL,
		weekly_hours TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS calendars (
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		working_days INTEGER NOT NULL,
		working_hours TEXT NOT NULL,
		PRIMARY KEY (year, month)
	);

	CREATE TABLE IF NOT EXISTS timesheet_days (
		employee_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		day INTEGER NOT NULL,
		kind TEXT NOT NULL,
		worked_hours TEXT NOT NULL,
		overtime_hours TEXT NOT NULL,
		night_hours TEXT NOT NULL,
		absence_code INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (employee_id, year, month, day)
	);

	CREATE INDEX IF NOT EXISTS idx_timesheet_days_period
		ON timesheet_days(employee_id, year, month);

	CREATE TABLE IF NOT EXISTS garnishments (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		paid_amount TEXT NOT NULL,
		monthly_amount TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		supports_dependents INTEGER NOT NULL DEFAULT 0,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_garnishments_employee
		ON garnishments(employee_id, active);

	CREATE TABLE IF NOT EXISTS rates (
		year INTEGER PRIMARY KEY,
		min_wage TEXT NOT NULL,
		max_insurable_income TEXT NOT NULL,
		flat_tax_percent TEXT NOT NULL,
		disability_exemption TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS contribution_rates (
		year INTEGER NOT NULL,
		insured_type TEXT NOT NULL,
		rates_json TEXT NOT NULL,
		PRIMARY KEY (year, insured_type)
	);

	CREATE TABLE IF NOT EXISTS thresholds (
		year INTEGER NOT NULL,
		personnel_group TEXT NOT NULL,
		min_insurable_income TEXT NOT NULL,
		PRIMARY KEY (year, personnel_group)
	);

	-- Append-only, versioned. No UPDATE path for the payload; only
	-- the closed marker ever changes.
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		version INTEGER NOT NULL,
		closed INTEGER NOT NULL DEFAULT 0,
		payload_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(employee_id, year, month, version)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_period
		ON snapshots(year, month);
	CREATE INDEX IF NOT EXISTS idx_snapshots_employee
		ON snapshots(employee_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Row-scanning helpers work over both *sql.Row and *sql.Rows, and the
// garnishment helpers work inside and outside a transaction.

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// =============================================================================
// EMPLOYEES AND CONTRACTS
// =============================================================================

// SaveEmployee inserts or replaces an employee record.
func (s *Store) SaveEmployee(ctx context.Context, e Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO employees (id, first_name, last_name, egn, disabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.FirstName, e.LastName, e.EGN, boolToInt(e.Disabled), e.CreatedAt.Format(time.RFC3339))
	return err
}

// GetEmployee returns an employee record, or nil when absent.
func (s *Store) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, egn, disabled, created_at
		FROM employees WHERE id = ?`, id)
	e, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEmployees returns all employees ordered by id.
func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, egn, disabled, created_at
		FROM employees ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func scanEmployee(row scanner) (Employee, error) {
	var e Employee
	var disabled int
	var createdAt string
	if err := row.Scan(&e.ID, &e.FirstName, &e.LastName, &e.EGN, &disabled, &createdAt); err != nil {
		return e, err
	}
	e.Disabled = disabled != 0
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return e, nil
}

// SaveContract inserts or replaces the employee's contract.
func (s *Store) SaveContract(ctx context.Context, c Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO contracts
			(employee_id, base_salary, seniority_percent, personnel_group, insured_type, weekly_hours)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.EmployeeID, c.BaseSalary.String(), c.SeniorityPercent.String(),
		c.PersonnelGroup, c.InsuredType, c.WeeklyHours.String())
	return err
}

// GetContract returns the employee's contract, or nil when absent.
func (s *Store) GetContract(ctx context.Context, employeeID string) (*Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT employee_id, base_salary, seniority_percent, personnel_group, insured_type, weekly_hours
		FROM contracts WHERE employee_id = ?`, employeeID)

	var c Contract
	var base, seniority, weekly string
	err := row.Scan(&c.EmployeeID, &base, &seniority, &c.PersonnelGroup, &c.InsuredType, &weekly)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if c.BaseSalary, err = decimal.NewFromString(base); err != nil {
		return nil, err
	}
	if c.SeniorityPercent, err = decimal.NewFromString(seniority); err != nil {
		return nil, err
	}
	if c.WeeklyHours, err = decimal.NewFromString(weekly); err != nil {
		return nil, err
	}
	return &c, nil
}

// =============================================================================
// CALENDARS AND TIMESHEETS
// =============================================================================

// SaveCalendar inserts or replaces a month's working calendar.
func (s *Store) SaveCalendar(ctx context.Context, cal calc.Calendar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO calendars (year, month, working_days, working_hours)
		VALUES (?, ?, ?, ?)`,
		cal.Year, int(cal.Month), cal.WorkingDays, cal.WorkingHours.String())
	return err
}

// GetCalendar returns the calendar for a month, or nil when absent.
func (s *Store) GetCalendar(ctx context.Context, year int, month time.Month) (*calc.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT working_days, working_hours FROM calendars WHERE year = ? AND month = ?`,
		year, int(month))

	var days int
	var hours string
	err := row.Scan(&days, &hours)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	h, err := decimal.NewFromString(hours)
	if err != nil {
		return nil, err
	}
	return &calc.Calendar{Year: year, Month: month, WorkingDays: days, WorkingHours: h}, nil
}

// SaveTimesheet replaces the employee's timesheet for a month.
func (s *Store) SaveTimesheet(ctx context.Context, employeeID string, year int, month time.Month, ts calc.Timesheet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM timesheet_days WHERE employee_id = ? AND year = ? AND month = ?`,
		employeeID, year, int(month)); err != nil {
		return err
	}

	for _, d := range ts.Days {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO timesheet_days
				(employee_id, year, month, day, kind, worked_hours, overtime_hours, night_hours, absence_code)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			employeeID, year, int(month), d.Day, string(d.Kind),
			d.WorkedHours.String(), d.OvertimeHours.String(), d.NightHours.String(), d.AbsenceCode); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetTimesheet returns the employee's timesheet for a month, or nil
// when no day rows exist.
func (s *Store) GetTimesheet(ctx context.Context, employeeID string, year int, month time.Month) (*calc.Timesheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT day, kind, worked_hours, overtime_hours, night_hours, absence_code
		FROM timesheet_days
		WHERE employee_id = ? AND year = ? AND month = ?
		ORDER BY day`, employeeID, year, int(month))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ts calc.Timesheet
	for rows.Next() {
		var d calc.DayEntry
		var kind, worked, overtime, night string
		if err := rows.Scan(&d.Day, &kind, &worked, &overtime, &night, &d.AbsenceCode); err != nil {
			return nil, err
		}
		d.Kind = calc.DayKind(kind)
		if d.WorkedHours, err = decimal.NewFromString(worked); err != nil {
			return nil, err
		}
		if d.OvertimeHours, err = decimal.NewFromString(overtime); err != nil {
			return nil, err
		}
		if d.NightHours, err = decimal.NewFromString(night); err != nil {
			return nil, err
		}
		ts.Days = append(ts.Days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ts.Days) == 0 {
		return nil, nil
	}
	return &ts, nil
}

// =============================================================================
// GARNISHMENTS
// =============================================================================

// SaveGarnishment inserts or replaces a garnishment record.
func (s *Store) SaveGarnishment(ctx context.Context, employeeID string, g calc.Garnishment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return upsertGarnishment(ctx, s.db, employeeID, g)
}

func upsertGarnishment(ctx context.Context, db execer, employeeID string, g calc.Garnishment) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR REPLACE INTO garnishments
			(id, employee_id, kind, name, total_amount, paid_amount, monthly_amount, priority, supports_dependents, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, employeeID, string(g.Kind), g.Name,
		g.TotalAmount.String(), g.PaidAmount.String(), g.MonthlyAmount.String(),
		g.Priority, boolToInt(g.SupportsDependents), boolToInt(g.Active))
	return err
}

// GetGarnishment returns one garnishment with its owner, or nil when
// absent.
func (s *Store) GetGarnishment(ctx context.Context, id string) (*calc.Garnishment, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fetchGarnishment(ctx, s.db, id)
}

func fetchGarnishment(ctx context.Context, db rowQuerier, id string) (*calc.Garnishment, string, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, employee_id, kind, name, total_amount, paid_amount, monthly_amount, priority, supports_dependents, active
		FROM garnishments WHERE id = ?`, id)

	g, owner, err := scanGarnishment(row)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return &g, owner, nil
}

// ListGarnishments returns the employee's garnishments ordered by
// priority; activeOnly filters to the ones still competing for net pay.
func (s *Store) ListGarnishments(ctx context.Context, employeeID string, activeOnly bool) ([]calc.Garnishment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, employee_id, kind, name, total_amount, paid_amount, monthly_amount, priority, supports_dependents, active
		FROM garnishments WHERE employee_id = ?`
	if activeOnly {
		query += ` AND active = 1`
	}
	query += ` ORDER BY priority, id`

	rows, err := s.db.QueryContext(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gs []calc.Garnishment
	for rows.Next() {
		g, _, err := scanGarnishment(rows)
		if err != nil {
			return nil, err
		}
		gs = append(gs, g)
	}
	return gs, rows.Err()
}

func scanGarnishment(row scanner) (calc.Garnishment, string, error) {
	var g calc.Garnishment
	var owner, kind, total, paid, monthly string
	var deps, active int
	err := row.Scan(&g.ID, &owner, &kind, &g.Name, &total, &paid, &monthly, &g.Priority, &deps, &active)
	if err != nil {
		return g, "", err
	}
	g.Kind = calc.GarnishmentKind(kind)
	if g.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return g, "", err
	}
	if g.PaidAmount, err = decimal.NewFromString(paid); err != nil {
		return g, "", err
	}
	if g.MonthlyAmount, err = decimal.NewFromString(monthly); err != nil {
		return g, "", err
	}
	g.SupportsDependents = deps != 0
	g.Active = active != 0
	return g, owner, nil
}

// =============================================================================
// LEGISLATION ROWS
// =============================================================================

// SaveRates inserts or replaces the scalar rates for a year.
func (s *Store) SaveRates(ctx context.Context, r calc.Rates) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO rates (year, min_wage, max_insurable_income, flat_tax_percent, disability_exemption)
		VALUES (?, ?, ?, ?, ?)`,
		r.Year, r.MinWage.String(), r.MaxInsurableIncome.String(),
		r.FlatTaxPercent.String(), r.DisabilityExemption.String())
	return err
}

// ListRates returns all stored rate rows ordered by year.
func (s *Store) ListRates(ctx context.Context) ([]calc.Rates, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT year, min_wage, max_insurable_income, flat_tax_percent, disability_exemption
		FROM rates ORDER BY year`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []calc.Rates
	for rows.Next() {
		var r calc.Rates
		var minWage, maxIns, tax, exemption string
		if err := rows.Scan(&r.Year, &minWage, &maxIns, &tax, &exemption); err != nil {
			return nil, err
		}
		if r.MinWage, err = decimal.NewFromString(minWage); err != nil {
			return nil, err
		}
		if r.MaxInsurableIncome, err = decimal.NewFromString(maxIns); err != nil {
			return nil, err
		}
		if r.FlatTaxPercent, err = decimal.NewFromString(tax); err != nil {
			return nil, err
		}
		if r.DisabilityExemption, err = decimal.NewFromString(exemption); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// SaveContributionRates inserts or replaces a contribution row. The row
// is stored as JSON: it is read back whole, never queried by field.
func (s *Store) SaveContributionRates(ctx context.Context, c calc.ContributionRates) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO contribution_rates (year, insured_type, rates_json)
		VALUES (?, ?, ?)`, c.Year, c.InsuredType, string(payload))
	return err
}

// ListContributionRates returns all stored contribution rows.
func (s *Store) ListContributionRates(ctx context.Context) ([]calc.ContributionRates, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT rates_json FROM contribution_rates ORDER BY year, insured_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []calc.ContributionRates
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var c calc.ContributionRates
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// SaveThreshold inserts or replaces a minimum insurable income row.
func (s *Store) SaveThreshold(ctx context.Context, t calc.Threshold) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO thresholds (year, personnel_group, min_insurable_income)
		VALUES (?, ?, ?)`, t.Year, t.PersonnelGroup, t.MinInsurableIncome.String())
	return err
}

// ListThresholds returns all stored threshold rows.
func (s *Store) ListThresholds(ctx context.Context) ([]calc.Threshold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT year, personnel_group, min_insurable_income
		FROM thresholds ORDER BY year, personnel_group`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []calc.Threshold
	for rows.Next() {
		var t calc.Threshold
		var min string
		if err := rows.Scan(&t.Year, &t.PersonnelGroup, &min); err != nil {
			return nil, err
		}
		if t.MinInsurableIncome, err = decimal.NewFromString(min); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// =============================================================================
// SNAPSHOTS - Append-only, versioned
// =============================================================================

// SaveSnapshot persists a snapshot as a NEW version for its
// employee-month. There is no update path: recalculating a month
// inserts version n+1 and leaves every earlier version untouched.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot *calc.PayrollSnapshot) (string, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	var maxVersion sql.NullInt64
	err = tx.QueryRowContext(ctx, `
		SELECT MAX(version) FROM snapshots WHERE employee_id = ? AND year = ? AND month = ?`,
		snapshot.EmployeeID, snapshot.Year, int(snapshot.Month)).Scan(&maxVersion)
	if err != nil {
		return "", 0, err
	}
	version := int(maxVersion.Int64) + 1

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return "", 0, err
	}

	id := fmt.Sprintf("%s-%d-%02d-v%d", snapshot.EmployeeID, snapshot.Year, int(snapshot.Month), version)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, employee_id, year, month, version, closed, payload_json, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		id, snapshot.EmployeeID, snapshot.Year, int(snapshot.Month), version,
		string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", 0, err
	}

	return id, version, tx.Commit()
}

// GetSnapshot returns a stored snapshot by id, or nil when absent.
func (s *Store) GetSnapshot(ctx context.Context, id string) (*SnapshotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, year, month, version, closed, payload_json, created_at
		FROM snapshots WHERE id = ?`, id)
	rec, err := scanSnapshotRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListSnapshots returns all snapshot versions for an employee, newest
// period first, newest version first within a period.
func (s *Store) ListSnapshots(ctx context.Context, employeeID string) ([]*SnapshotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, year, month, version, closed, payload_json, created_at
		FROM snapshots WHERE employee_id = ?
		ORDER BY year DESC, month DESC, version DESC`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*SnapshotRecord
	for rows.Next() {
		rec, err := scanSnapshotRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LatestSnapshotsForPeriod returns the latest version per employee for
// a month, ordered by employee id.
func (s *Store) LatestSnapshotsForPeriod(ctx context.Context, year int, month time.Month) ([]*SnapshotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestForPeriod(ctx, year, month)
}

func (s *Store) latestForPeriod(ctx context.Context, year int, month time.Month) ([]*SnapshotRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sn.id, sn.employee_id, sn.year, sn.month, sn.version, sn.closed, sn.payload_json, sn.created_at
		FROM snapshots sn
		JOIN (
			SELECT employee_id, MAX(version) AS max_version
			FROM snapshots WHERE year = ? AND month = ?
			GROUP BY employee_id
		) latest ON latest.employee_id = sn.employee_id AND latest.max_version = sn.version
		WHERE sn.year = ? AND sn.month = ?
		ORDER BY sn.employee_id`, year, int(month), year, int(month))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*SnapshotRecord
	for rows.Next() {
		rec, err := scanSnapshotRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanSnapshotRecord(row scanner) (*SnapshotRecord, error) {
	var rec SnapshotRecord
	var month, closed int
	var payload, createdAt string
	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.Year, &month, &rec.Version, &closed, &payload, &createdAt)
	if err != nil {
		return nil, err
	}
	rec.Month = time.Month(month)
	rec.Closed = closed != 0
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	var snapshot calc.PayrollSnapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return nil, err
	}
	rec.Snapshot = &snapshot
	return &rec, nil
}

// =============================================================================
// PERIOD CLOSE
// =============================================================================

// ClosePeriod applies garnishment withholding from the latest unclosed
// snapshot of every employee for the month back onto the originating
// debt records: paid_amount grows by each garnishment line's amount
// (clamped to the total), fully paid debts are deactivated, and the
// snapshot is marked closed. Idempotent: already-closed snapshots are
// skipped.
func (s *Store) ClosePeriod(ctx context.Context, year int, month time.Month) (*ClosePeriodResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.latestForPeriod(ctx, year, month)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result := &ClosePeriodResult{}
	for _, rec := range records {
		if rec.Closed {
			continue
		}

		for _, line := range rec.Snapshot.GarnishmentLines() {
			id := line.Metadata[calc.MetaGarnishmentID]
			g, owner, err := fetchGarnishment(ctx, tx, id)
			if err != nil {
				return nil, err
			}
			if g == nil {
				// The debt was removed after calculation; nothing to apply.
				continue
			}

			g.PaidAmount = g.PaidAmount.Add(line.Amount)
			if g.TotalAmount.IsPositive() && g.PaidAmount.GreaterThanOrEqual(g.TotalAmount) {
				g.PaidAmount = g.TotalAmount
				g.Active = false
				result.GarnishmentsSettled++
			}
			if err := upsertGarnishment(ctx, tx, owner, *g); err != nil {
				return nil, err
			}
			result.GarnishmentsUpdated++
		}

		if _, err := tx.ExecContext(ctx, `UPDATE snapshots SET closed = 1 WHERE id = ?`, rec.ID); err != nil {
			return nil, err
		}
		result.SnapshotsClosed++
	}

	return result, tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
