package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/calc"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// garnishedSnapshot builds a minimal snapshot whose deductions include a
// garnishment line pointing at the given debt id.
func garnishedSnapshot(employeeID string, garnishmentID string, withheld string) *calc.PayrollSnapshot {
	return &calc.PayrollSnapshot{
		EmployeeID: employeeID,
		Year:       2025,
		Month:      time.March,
		Deductions: []calc.PayrollLine{
			{
				Code:     "301",
				Name:     "Garnishment",
				Kind:     calc.LineCalculated,
				Amount:   money(withheld),
				Metadata: map[string]string{calc.MetaGarnishmentID: garnishmentID},
			},
		},
		NetSalary: money("2392.20"),
	}
}

// =============================================================================
// SNAPSHOT VERSIONING
// =============================================================================

func TestSaveSnapshot_NewVersionPerSave(t *testing.T) {
	// GIVEN: A snapshot saved for an employee-month
	// WHEN: Saving again for the same employee-month
	// THEN: A new version is created and the first is untouched

	store := newTestStore(t)
	ctx := context.Background()

	first := garnishedSnapshot("emp-1", "garn-1", "500.00")
	id1, v1, err := store.SaveSnapshot(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 1, v1)
	assert.Equal(t, "emp-1-2025-03-v1", id1)

	second := garnishedSnapshot("emp-1", "garn-1", "450.00")
	id2, v2, err := store.SaveSnapshot(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 2, v2)
	assert.Equal(t, "emp-1-2025-03-v2", id2)

	rec1, err := store.GetSnapshot(ctx, id1)
	require.NoError(t, err)
	require.NotNil(t, rec1)
	assert.True(t, rec1.Snapshot.Deductions[0].Amount.Equal(money("500.00")))

	records, err := store.ListSnapshots(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2, records[0].Version) // Newest version first
}

func TestGetSnapshot_Absent(t *testing.T) {
	store := newTestStore(t)

	rec, err := store.GetSnapshot(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestLatestSnapshotsForPeriod(t *testing.T) {
	// GIVEN: Two employees with snapshots, one of them recalculated
	// WHEN: Fetching the period's latest snapshots
	// THEN: Exactly one record per employee, with the highest version

	store := newTestStore(t)
	ctx := context.Background()

	_, _, err := store.SaveSnapshot(ctx, garnishedSnapshot("emp-1", "garn-1", "500.00"))
	require.NoError(t, err)
	_, _, err = store.SaveSnapshot(ctx, garnishedSnapshot("emp-1", "garn-1", "450.00"))
	require.NoError(t, err)
	_, _, err = store.SaveSnapshot(ctx, garnishedSnapshot("emp-2", "garn-2", "300.00"))
	require.NoError(t, err)

	records, err := store.LatestSnapshotsForPeriod(ctx, 2025, time.March)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "emp-1", records[0].EmployeeID)
	assert.Equal(t, 2, records[0].Version)
	assert.Equal(t, "emp-2", records[1].EmployeeID)
	assert.Equal(t, 1, records[1].Version)
}

// =============================================================================
// PERIOD CLOSE
// =============================================================================

func TestClosePeriod_AppliesGarnishmentProgress(t *testing.T) {
	// GIVEN: A garnished employee with a calculated month
	// WHEN: Closing the period
	// THEN: The debt's paid amount grows by the withheld line amount

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, sqlite.Employee{
		ID: "emp-1", FirstName: "Maria", LastName: "Ivanova", EGN: "8504156987",
	}))
	require.NoError(t, store.SaveGarnishment(ctx, "emp-1", calc.Garnishment{
		ID:          "garn-1",
		Kind:        calc.GarnishJudicial,
		Name:        "Loan enforcement",
		TotalAmount: money("10000.00"),
		PaidAmount:  money("1000.00"),
		Priority:    1,
		Active:      true,
	}))

	_, _, err := store.SaveSnapshot(ctx, garnishedSnapshot("emp-1", "garn-1", "500.00"))
	require.NoError(t, err)

	result, err := store.ClosePeriod(ctx, 2025, time.March)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SnapshotsClosed)
	assert.Equal(t, 1, result.GarnishmentsUpdated)
	assert.Equal(t, 0, result.GarnishmentsSettled)

	g, _, err := store.GetGarnishment(ctx, "garn-1")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.True(t, g.PaidAmount.Equal(money("1500.00")), "paid amount is %s", g.PaidAmount)
	assert.True(t, g.Active)
}

func TestClosePeriod_SettlesAndClampsFullyPaidDebt(t *testing.T) {
	// GIVEN: A debt with less remaining than the withheld amount
	// WHEN: Closing the period
	// THEN: Paid amount is clamped to the total and the debt deactivated

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, sqlite.Employee{
		ID: "emp-1", FirstName: "Maria", LastName: "Ivanova", EGN: "8504156987",
	}))
	require.NoError(t, store.SaveGarnishment(ctx, "emp-1", calc.Garnishment{
		ID:          "garn-1",
		Kind:        calc.GarnishJudicial,
		Name:        "Loan enforcement",
		TotalAmount: money("1000.00"),
		PaidAmount:  money("980.00"),
		Active:      true,
	}))

	_, _, err := store.SaveSnapshot(ctx, garnishedSnapshot("emp-1", "garn-1", "20.00"))
	require.NoError(t, err)

	result, err := store.ClosePeriod(ctx, 2025, time.March)
	require.NoError(t, err)
	assert.Equal(t, 1, result.GarnishmentsSettled)

	g, _, err := store.GetGarnishment(ctx, "garn-1")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.True(t, g.PaidAmount.Equal(money("1000.00")))
	assert.False(t, g.Active)

	active, err := store.ListGarnishments(ctx, "emp-1", true)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestClosePeriod_Idempotent(t *testing.T) {
	// GIVEN: A period that has already been closed
	// WHEN: Closing it again
	// THEN: Nothing is applied twice

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, sqlite.Employee{
		ID: "emp-1", FirstName: "Maria", LastName: "Ivanova", EGN: "8504156987",
	}))
	require.NoError(t, store.SaveGarnishment(ctx, "emp-1", calc.Garnishment{
		ID:          "garn-1",
		Kind:        calc.GarnishJudicial,
		Name:        "Loan enforcement",
		TotalAmount: money("10000.00"),
		Active:      true,
	}))
	_, _, err := store.SaveSnapshot(ctx, garnishedSnapshot("emp-1", "garn-1", "500.00"))
	require.NoError(t, err)

	_, err = store.ClosePeriod(ctx, 2025, time.March)
	require.NoError(t, err)

	result, err := store.ClosePeriod(ctx, 2025, time.March)
	require.NoError(t, err)
	assert.Equal(t, 0, result.SnapshotsClosed)
	assert.Equal(t, 0, result.GarnishmentsUpdated)

	g, _, err := store.GetGarnishment(ctx, "garn-1")
	require.NoError(t, err)
	assert.True(t, g.PaidAmount.Equal(money("500.00")))
}

// =============================================================================
// TIMESHEETS AND MASTER DATA
// =============================================================================

func TestTimesheet_SaveReplacesMonth(t *testing.T) {
	// GIVEN: A saved timesheet for a month
	// WHEN: Saving a different timesheet for the same month
	// THEN: The old day rows are fully replaced

	store := newTestStore(t)
	ctx := context.Background()

	first := calc.Timesheet{Days: []calc.DayEntry{
		{Day: 1, Kind: calc.DayWork, WorkedHours: decimal.NewFromInt(8)},
		{Day: 2, Kind: calc.DayWork, WorkedHours: decimal.NewFromInt(8)},
	}}
	require.NoError(t, store.SaveTimesheet(ctx, "emp-1", 2025, time.March, first))

	second := calc.Timesheet{Days: []calc.DayEntry{
		{Day: 1, Kind: calc.DayAbsence, AbsenceCode: 501},
	}}
	require.NoError(t, store.SaveTimesheet(ctx, "emp-1", 2025, time.March, second))

	ts, err := store.GetTimesheet(ctx, "emp-1", 2025, time.March)
	require.NoError(t, err)
	require.NotNil(t, ts)
	require.Len(t, ts.Days, 1)
	assert.Equal(t, calc.DayAbsence, ts.Days[0].Kind)
	assert.Equal(t, 501, ts.Days[0].AbsenceCode)
}

func TestGetTimesheet_AbsentIsNil(t *testing.T) {
	store := newTestStore(t)

	ts, err := store.GetTimesheet(context.Background(), "emp-1", 2025, time.March)
	require.NoError(t, err)
	assert.Nil(t, ts)
}

func TestContract_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved := sqlite.Contract{
		EmployeeID:       "emp-1",
		BaseSalary:       money("3000.00"),
		SeniorityPercent: money("12"),
		PersonnelGroup:   "1",
		InsuredType:      "01",
		WeeklyHours:      decimal.NewFromInt(40),
	}
	require.NoError(t, store.SaveContract(ctx, saved))

	got, err := store.GetContract(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.BaseSalary.Equal(saved.BaseSalary))
	assert.Equal(t, "01", got.InsuredType)
}
