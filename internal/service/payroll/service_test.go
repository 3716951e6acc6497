package payroll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/master/position"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/schedule"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/jwt"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/repository/memory"
	schedulesvc "github.com/cmlabs-hris/cafeteria-payroll/internal/service/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []notification.Event
}

func (r *recorder) Publish(ctx context.Context, e notification.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

type fixture struct {
	svc       payroll.PayrollService
	events    *recorder
	employees employee.EmployeeRepository
	positions position.PositionRepository
	blocks    workblock.WorkBlockRepository
	schedules schedule.ScheduleRepository
	shifts    schedule.ShiftRepository
	cook      position.Position
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	tx := memory.NewTransactor(store)
	f := &fixture{
		events:    &recorder{},
		employees: memory.NewEmployeeRepository(store),
		positions: memory.NewPositionRepository(store),
		blocks:    memory.NewWorkBlockRepository(store),
		schedules: memory.NewScheduleRepository(store),
		shifts:    memory.NewShiftRepository(store),
	}
	scheduled := schedulesvc.NewScheduleService(tx, f.schedules, f.shifts, f.employees, memory.NewAbsenceRepository(store), nil, time.UTC)
	calc := NewCalculator(f.employees, f.positions, f.blocks, memory.NewHolidayRepository(store), scheduled)
	f.svc = NewPayrollService(calc, memory.NewPayrollRepository(store), f.employees, f.blocks, f.shifts, f.events, nil)

	var err error
	f.cook, err = f.positions.Create(context.Background(), position.Position{Name: "Cook", RatePolicy: hourly("1000")})
	require.NoError(t, err)
	return f
}

func (f *fixture) hire(t *testing.T, name string, positionID *string) employee.Employee {
	t.Helper()
	e, err := f.employees.Create(context.Background(), employee.Employee{FullName: name, Email: name + "@cafe.com", PositionID: positionID, IsActive: true})
	require.NoError(t, err)
	return e
}

// work records a Monday 09:00-17:00 block and the matching shift.
func (f *fixture) work(t *testing.T, emp employee.Employee) {
	t.Helper()
	ctx := context.Background()
	_, err := f.blocks.Create(ctx, blockFor(emp.ID, "2026-03-02", "09:00", "17:00"))
	require.NoError(t, err)
	from, to := clock.MonthBounds(2026, 3)
	sc, err := f.schedules.Create(ctx, schedule.Schedule{Name: "March " + emp.FullName, StartDate: from, EndDate: to, Status: schedule.StatusDraft})
	require.NoError(t, err)
	_, err = f.shifts.Create(ctx, schedule.Shift{ScheduleID: sc.ID, EmployeeID: emp.ID, Date: day("2026-03-02"), StartTime: hm("09:00"), EndTime: hm("17:00")})
	require.NoError(t, err)
}

func adminCtx() context.Context {
	return jwt.ContextWithActor(context.Background(), jwt.Actor{UserID: "admin-user", IsAdmin: true})
}

func employeeCtx(id string) context.Context {
	return jwt.ContextWithActor(context.Background(), jwt.Actor{UserID: "u-" + id, EmployeeID: &id})
}

func TestGenerate_WorkedExample(t *testing.T) {
	f := newFixture(t)
	ana := f.hire(t, "ana", &f.cook.ID)
	f.work(t, ana)

	resp, err := f.svc.Generate(adminCtx(), payroll.CalculateRequest{EmployeeID: ana.ID, Year: 2026, Month: 3})

	require.NoError(t, err)
	assert.Equal(t, string(payroll.StatusDraft), resp.Status)
	assert.Equal(t, "8", resp.HoursWorked.String())
	assert.Equal(t, "8", resp.ScheduledHours.String())
	assert.Equal(t, "0", resp.HoursDifference.String())
	assert.Equal(t, "8000", resp.GrossSalary.String())
	require.Len(t, resp.DailyRecords, 1)
	require.Len(t, resp.ScheduledRecords, 1)

	_, err = f.svc.Generate(adminCtx(), payroll.CalculateRequest{EmployeeID: ana.ID, Year: 2026, Month: 3})
	assert.ErrorIs(t, err, payroll.ErrPayrollAlreadyExists)
}

func TestCalculate_DoesNotPersist(t *testing.T) {
	f := newFixture(t)
	ana := f.hire(t, "ana", &f.cook.ID)
	f.work(t, ana)

	preview, err := f.svc.Calculate(adminCtx(), payroll.CalculateRequest{EmployeeID: ana.ID, Year: 2026, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, "8000", preview.GrossSalary.String())

	list, err := f.svc.List(adminCtx(), payroll.PayrollFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)
}

func TestCalculate_Errors(t *testing.T) {
	f := newFixture(t)
	drifter := f.hire(t, "drifter", nil)

	_, err := f.svc.Calculate(adminCtx(), payroll.CalculateRequest{EmployeeID: drifter.ID, Year: 2026, Month: 3})
	assert.ErrorIs(t, err, position.ErrNoRatePolicyConfigured)

	_, err = f.svc.Calculate(adminCtx(), payroll.CalculateRequest{EmployeeID: "missing", Year: 2026, Month: 3})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	_, err = f.svc.Calculate(adminCtx(), payroll.CalculateRequest{EmployeeID: drifter.ID, Year: 2026, Month: 13})
	assert.Error(t, err)
}

func TestRecalculate_IdempotentAndPicksUpEdits(t *testing.T) {
	f := newFixture(t)
	ana := f.hire(t, "ana", &f.cook.ID)
	f.work(t, ana)
	generated, err := f.svc.Generate(adminCtx(), payroll.CalculateRequest{EmployeeID: ana.ID, Year: 2026, Month: 3})
	require.NoError(t, err)

	first, err := f.svc.Recalculate(adminCtx(), generated.ID)
	require.NoError(t, err)
	second, err := f.svc.Recalculate(adminCtx(), generated.ID)
	require.NoError(t, err)
	assert.Equal(t, first.GrossSalary.String(), second.GrossSalary.String())
	assert.Equal(t, first.Breakdown, second.Breakdown)

	_, err = f.blocks.Create(context.Background(), blockFor(ana.ID, "2026-03-03", "09:00", "10:00"))
	require.NoError(t, err)

	// The snapshot does not move until recalculated.
	stale, err := f.svc.Get(adminCtx(), generated.ID)
	require.NoError(t, err)
	assert.Equal(t, "8000", stale.GrossSalary.String())
	assert.Len(t, stale.DailyRecords, 2)

	fresh, err := f.svc.Recalculate(adminCtx(), generated.ID)
	require.NoError(t, err)
	assert.Equal(t, "9000", fresh.GrossSalary.String())
	assert.Equal(t, "1", fresh.HoursDifference.String())
}

func TestLifecycle_IsMonotonic(t *testing.T) {
	f := newFixture(t)
	ana := f.hire(t, "ana", &f.cook.ID)
	ben := f.hire(t, "ben", &f.cook.ID)
	f.work(t, ana)
	generated, err := f.svc.Generate(adminCtx(), payroll.CalculateRequest{EmployeeID: ana.ID, Year: 2026, Month: 3})
	require.NoError(t, err)

	_, err = f.svc.Accept(employeeCtx(ana.ID), generated.ID)
	assert.ErrorIs(t, err, payroll.ErrPayrollNotValidated)

	validated, err := f.svc.Validate(adminCtx(), generated.ID)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.StatusValidated), validated.Status)
	require.NotNil(t, validated.ValidatedBy)
	assert.Equal(t, "admin-user", *validated.ValidatedBy)

	_, err = f.svc.Validate(adminCtx(), generated.ID)
	assert.ErrorIs(t, err, payroll.ErrPayrollLocked)
	_, err = f.svc.Recalculate(adminCtx(), generated.ID)
	assert.ErrorIs(t, err, payroll.ErrPayrollLocked)
	assert.ErrorIs(t, f.svc.Delete(adminCtx(), generated.ID), payroll.ErrPayrollLocked)

	notes := "paid by transfer"
	noted, err := f.svc.UpdateNotes(adminCtx(), payroll.UpdateNotesRequest{ID: generated.ID, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, string(payroll.StatusValidated), noted.Status)
	require.NotNil(t, noted.Notes)

	_, err = f.svc.Accept(employeeCtx(ben.ID), generated.ID)
	assert.ErrorIs(t, err, payroll.ErrPayrollNotFound)

	accepted, err := f.svc.Accept(employeeCtx(ana.ID), generated.ID)
	require.NoError(t, err)
	require.NotNil(t, accepted.EmployeeValidatedBy)
	assert.Equal(t, ana.ID, *accepted.EmployeeValidatedBy)

	_, err = f.svc.Accept(employeeCtx(ana.ID), generated.ID)
	assert.ErrorIs(t, err, payroll.ErrPayrollAlreadyAccepted)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, notification.EventPayrollValidated, f.events.events[0].Name)
	assert.Equal(t, ana.ID, f.events.events[0].EmployeeID)
}

func TestValidated_SnapshotIgnoresRateChanges(t *testing.T) {
	f := newFixture(t)
	ana := f.hire(t, "ana", &f.cook.ID)
	f.work(t, ana)
	generated, err := f.svc.Generate(adminCtx(), payroll.CalculateRequest{EmployeeID: ana.ID, Year: 2026, Month: 3})
	require.NoError(t, err)
	_, err = f.svc.Validate(adminCtx(), generated.ID)
	require.NoError(t, err)

	raised := f.cook
	raised.RatePolicy = hourly("2000")
	require.NoError(t, f.positions.Update(context.Background(), raised))

	stored, err := f.svc.Get(adminCtx(), generated.ID)
	require.NoError(t, err)
	assert.Equal(t, "8000", stored.GrossSalary.String())
	assert.Equal(t, "1000", stored.RatePolicy.HourlyRate.String())

	preview, err := f.svc.Calculate(adminCtx(), payroll.CalculateRequest{EmployeeID: ana.ID, Year: 2026, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, "16000", preview.GrossSalary.String())
}

func TestDelete_Draft(t *testing.T) {
	f := newFixture(t)
	ana := f.hire(t, "ana", &f.cook.ID)
	generated, err := f.svc.Generate(adminCtx(), payroll.CalculateRequest{EmployeeID: ana.ID, Year: 2026, Month: 3})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(adminCtx(), generated.ID))
	_, err = f.svc.Get(adminCtx(), generated.ID)
	assert.ErrorIs(t, err, payroll.ErrPayrollNotFound)
}

func TestGenerateBatch(t *testing.T) {
	f := newFixture(t)
	ana := f.hire(t, "ana", &f.cook.ID)
	ben := f.hire(t, "ben", &f.cook.ID)
	drifter := f.hire(t, "drifter", nil)
	_, err := f.svc.Generate(adminCtx(), payroll.CalculateRequest{EmployeeID: ana.ID, Year: 2026, Month: 3})
	require.NoError(t, err)

	resp, err := f.svc.GenerateBatch(adminCtx(), payroll.GenerateBatchRequest{Year: 2026, Month: 3})

	require.NoError(t, err)
	require.Len(t, resp.Generated, 1)
	assert.Equal(t, ben.ID, resp.Generated[0].EmployeeID)
	assert.Equal(t, []string{ana.ID}, resp.Skipped)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, drifter.ID, resp.Errors[0].EmployeeID)
	assert.Equal(t, "NO_RATE_POLICY_CONFIGURED", resp.Errors[0].Code)
}

func TestSelfService_OnlyOwnPayrolls(t *testing.T) {
	f := newFixture(t)
	ana := f.hire(t, "ana", &f.cook.ID)
	ben := f.hire(t, "ben", &f.cook.ID)
	f.work(t, ana)
	anaPayroll, err := f.svc.Generate(adminCtx(), payroll.CalculateRequest{EmployeeID: ana.ID, Year: 2026, Month: 3})
	require.NoError(t, err)
	_, err = f.svc.Generate(adminCtx(), payroll.CalculateRequest{EmployeeID: ben.ID, Year: 2026, Month: 3})
	require.NoError(t, err)

	mine, err := f.svc.ListMine(employeeCtx(ana.ID), payroll.PayrollFilter{})
	require.NoError(t, err)
	require.Len(t, mine.Data, 1)
	assert.Equal(t, anaPayroll.ID, mine.Data[0].ID)

	_, err = f.svc.GetMine(employeeCtx(ben.ID), anaPayroll.ID)
	assert.ErrorIs(t, err, payroll.ErrPayrollNotFound)

	own, err := f.svc.GetMine(employeeCtx(ana.ID), anaPayroll.ID)
	require.NoError(t, err)
	assert.Len(t, own.DailyRecords, 1)

	blocks, err := f.svc.ListWorkBlocks(adminCtx(), anaPayroll.ID)
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
}

func TestValidate_ConcurrentAdminsOneWins(t *testing.T) {
	f := newFixture(t)
	ana := f.hire(t, "ana", &f.cook.ID)
	f.work(t, ana)
	generated, err := f.svc.Generate(adminCtx(), payroll.CalculateRequest{EmployeeID: ana.ID, Year: 2026, Month: 3})
	require.NoError(t, err)

	const admins = 8
	errs := make([]error, admins)
	var wg sync.WaitGroup
	for i := 0; i < admins; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Validate(adminCtx(), generated.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, payroll.ErrPayrollLocked)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.events.events, 1)
}

func TestRecalculate_RacingValidate(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newFixture(t)
		ana := f.hire(t, "ana", &f.cook.ID)
		f.work(t, ana)
		generated, err := f.svc.Generate(adminCtx(), payroll.CalculateRequest{EmployeeID: ana.ID, Year: 2026, Month: 3})
		require.NoError(t, err)

		var validateErr, recalcErr error
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, validateErr = f.svc.Validate(adminCtx(), generated.ID)
		}()
		go func() {
			defer wg.Done()
			_, recalcErr = f.svc.Recalculate(adminCtx(), generated.ID)
		}()
		wg.Wait()

		require.NoError(t, validateErr)
		if recalcErr != nil {
			assert.ErrorIs(t, recalcErr, payroll.ErrPayrollLocked)
		}
		got, err := f.svc.Get(adminCtx(), generated.ID)
		require.NoError(t, err)
		assert.Equal(t, string(payroll.StatusValidated), got.Status)
	}
}

func TestCalculate_SharedPreviewSurvivesCancelledCaller(t *testing.T) {
	f := newFixture(t)
	ana := f.hire(t, "ana", &f.cook.ID)
	f.work(t, ana)
	req := payroll.CalculateRequest{EmployeeID: ana.ID, Year: 2026, Month: 3}

	cancelled, cancel := context.WithCancel(adminCtx())
	cancel()

	const callers = 6
	errs := make([]error, callers)
	gross := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx := adminCtx()
			if i%2 == 0 {
				ctx = cancelled
			}
			resp, err := f.svc.Calculate(ctx, req)
			errs[i] = err
			if err == nil {
				gross[i] = resp.GrossSalary.String()
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if i%2 == 0 {
			if errs[i] != nil {
				assert.True(t, errors.Is(errs[i], context.Canceled))
			}
			continue
		}
		require.NoError(t, errs[i])
		assert.Equal(t, "8000", gross[i])
	}
}
