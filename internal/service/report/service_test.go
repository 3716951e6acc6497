package report

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/report"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/cache"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/repository/memory"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc       report.ReportService
	cache     *cache.Cache
	employees employee.EmployeeRepository
	blocks    workblock.WorkBlockRepository
	payrolls  payroll.PayrollRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := memory.NewStore()
	f := &fixture{
		cache:     cache.NewCache(client, time.Hour),
		employees: memory.NewEmployeeRepository(store),
		blocks:    memory.NewWorkBlockRepository(store),
		payrolls:  memory.NewPayrollRepository(store),
	}
	f.svc = NewReportService(f.employees, f.blocks, memory.NewShiftRepository(store), f.payrolls, f.cache)
	return f
}

func (f *fixture) hire(t *testing.T, name string, active bool) employee.Employee {
	t.Helper()
	e, err := f.employees.Create(context.Background(), employee.Employee{FullName: name, Email: name + "@cafe.com", IsActive: active})
	require.NoError(t, err)
	return e
}

func (f *fixture) worked(t *testing.T, emp employee.Employee, date string, minutes int) {
	t.Helper()
	d, _ := clock.ParseDate(date)
	_, err := f.blocks.Create(context.Background(), workblock.WorkBlock{EmployeeID: emp.ID, Date: d, StartTime: 8 * 60, EndTime: clock.TimeOfDay(8*60 + minutes), Source: workblock.SourceManual})
	require.NoError(t, err)
}

func (f *fixture) payroll(t *testing.T, emp employee.Employee, year, month int, gross string) payroll.Payroll {
	t.Helper()
	p, err := f.payrolls.Create(context.Background(), payroll.Payroll{
		EmployeeID:  emp.ID,
		Year:        year,
		Month:       month,
		Status:      payroll.StatusDraft,
		HoursWorked: decimal.NewFromInt(8),
		GrossSalary: decimal.RequireFromString(gross),
	})
	require.NoError(t, err)
	return p
}

func TestEmployeesStatus_OnlyActiveWithWorkedTime(t *testing.T) {
	f := newFixture(t)
	ana := f.hire(t, "ana", true)
	ben := f.hire(t, "ben", true)
	f.hire(t, "idle", true)
	gone := f.hire(t, "gone", false)
	f.worked(t, ben, "2026-03-02", 90)
	f.worked(t, ana, "2026-03-03", 60)
	f.worked(t, gone, "2026-03-03", 60)
	f.worked(t, ana, "2026-04-01", 60)
	f.payroll(t, ana, 2026, 3, "1000")

	got, err := f.svc.EmployeesStatus(context.Background(), report.PeriodRequest{Year: 2026, Month: 3})

	require.NoError(t, err)
	require.Len(t, got.Employees, 2)
	assert.Equal(t, "ana", got.Employees[0].FullName)
	assert.Equal(t, "1", got.Employees[0].HoursWorked.String())
	assert.True(t, got.Employees[0].HasPayroll)
	require.NotNil(t, got.Employees[0].PayrollStatus)
	assert.Equal(t, "draft", *got.Employees[0].PayrollStatus)
	assert.Equal(t, "ben", got.Employees[1].FullName)
	assert.Equal(t, "1.5", got.Employees[1].HoursWorked.String())
	assert.False(t, got.Employees[1].HasPayroll)
	assert.Equal(t, 2, got.TotalEmployees)
	assert.Equal(t, 1, got.WithPayroll)
	assert.Equal(t, 1, got.WithoutPayroll)
}

func TestMonthlySummary_CachedUntilBump(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.hire(t, "ana", true)
	ben := f.hire(t, "ben", true)
	p := f.payroll(t, ana, 2026, 3, "1000.50")
	_, err := f.payrolls.Validate(ctx, p.ID, "admin", time.Now())
	require.NoError(t, err)

	first, err := f.svc.MonthlySummary(ctx, report.PeriodRequest{Year: 2026, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, first.PayrollCount)
	assert.Equal(t, 1, first.ValidatedCount)
	assert.Equal(t, "1000.5", first.TotalGrossSalary.String())

	f.payroll(t, ben, 2026, 3, "200")
	cached, err := f.svc.MonthlySummary(ctx, report.PeriodRequest{Year: 2026, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, cached.PayrollCount)

	require.NoError(t, f.cache.Bump(ctx))
	fresh, err := f.svc.MonthlySummary(ctx, report.PeriodRequest{Year: 2026, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.PayrollCount)
	assert.Equal(t, 1, fresh.DraftCount)
	assert.Equal(t, "1200.5", fresh.TotalGrossSalary.String())
	assert.Equal(t, "16", fresh.TotalHoursWorked.String())
}

func TestHistorySummary_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ana := f.hire(t, "ana", true)
	ben := f.hire(t, "ben", true)
	f.payroll(t, ana, 2025, 12, "100")
	f.payroll(t, ana, 2026, 1, "200")
	f.payroll(t, ben, 2026, 1, "300")
	f.payroll(t, ana, 2026, 2, "400")

	got, err := f.svc.HistorySummary(context.Background(), report.HistoryRequest{Months: 2})

	require.NoError(t, err)
	require.Len(t, got.Months, 2)
	assert.Equal(t, "February", got.Months[0].MonthName)
	assert.Equal(t, 2026, got.Months[1].Year)
	assert.Equal(t, 1, got.Months[1].Month)
	assert.Equal(t, 2, got.Months[1].PayrollCount)
	assert.Equal(t, "500", got.Months[1].TotalGrossSalary.String())
}

func TestReports_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.MonthlySummary(ctx, report.PeriodRequest{Year: 2026, Month: 0})
	assert.Error(t, err)
	_, err = f.svc.HistorySummary(ctx, report.HistoryRequest{Months: 37})
	assert.Error(t, err)
}
