package payroll

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/master/holiday"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/master/position"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/schedule"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := clock.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func hm(s string) clock.TimeOfDay {
	t, err := clock.ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func block(date, start, end string) workblock.WorkBlock {
	return blockFor("emp", date, start, end)
}

func blockFor(employeeID, date, start, end string) workblock.WorkBlock {
	return workblock.WorkBlock{EmployeeID: employeeID, Date: day(date), StartTime: hm(start), EndTime: hm(end)}
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func hourly(rate string) position.RatePolicy {
	return position.RatePolicy{ContractType: position.ContractHourly, HourlyRate: decPtr(rate)}.WithDefaults()
}

func input(policy position.RatePolicy, blocks []workblock.WorkBlock, shifts []schedule.Shift, holidays ...string) calculationInput {
	rate, err := policy.EffectiveHourlyRate()
	if err != nil {
		panic(err)
	}
	var hs []holiday.Holiday
	for _, h := range holidays {
		hs = append(hs, holiday.Holiday{Date: day(h)})
	}
	return calculationInput{
		employee: employee.Employee{ID: "emp", FullName: "Ana"},
		year:     2026,
		month:    3,
		policy:   policy,
		rate:     rate,
		blocks:   blocks,
		shifts:   shifts,
		holidays: holiday.NewSet(hs),
	}
}

func TestCompute_WorkedExample(t *testing.T) {
	// Monday 2026-03-02, worked exactly as scheduled.
	shifts := []schedule.Shift{{ID: "s1", EmployeeID: "emp", Date: day("2026-03-02"), StartTime: hm("09:00"), EndTime: hm("17:00")}}

	calc := compute(input(hourly("1000"), []workblock.WorkBlock{block("2026-03-02", "09:00", "17:00")}, shifts))

	assert.Equal(t, "8", calc.HoursWorked.String())
	assert.Equal(t, "8", calc.ScheduledHours.String())
	assert.Equal(t, "0", calc.HoursDifference.String())
	assert.Equal(t, "8000", calc.GrossSalary.String())
	assert.EqualValues(t, 480, calc.Breakdown.Regular.Minutes)
	require.Len(t, calc.DailyRecords, 1)
	require.Len(t, calc.ScheduledRecords, 1)
	assert.Equal(t, "2026-03-01", clock.FormatDate(calc.PeriodStart))
	assert.Equal(t, "2026-03-31", clock.FormatDate(calc.PeriodEnd))
}

func TestCompute_CategoryPrecedence(t *testing.T) {
	policy := position.RatePolicy{
		ContractType:           position.ContractHourly,
		HourlyRate:             decPtr("10"),
		StandardHoursPerPeriod: decPtr("10"),
		OvertimeMultiplier:     decimal.RequireFromString("1.5"),
		WeekendMultiplier:      decimal.NewFromInt(2),
		HolidayMultiplier:      decimal.NewFromInt(3),
	}
	blocks := []workblock.WorkBlock{
		block("2026-03-03", "08:00", "12:00"), // Tue: 120 regular, 120 overtime
		block("2026-03-02", "08:00", "16:00"), // Mon: 480 regular
		block("2026-03-04", "08:00", "09:00"), // Wed holiday
		block("2026-03-07", "10:00", "12:00"), // Sat
		block("2026-03-08", "10:00", "11:00"), // Sun holiday
	}

	calc := compute(input(policy, blocks, nil, "2026-03-04", "2026-03-08"))

	b := calc.Breakdown
	assert.EqualValues(t, 600, b.Regular.Minutes)
	assert.EqualValues(t, 120, b.Overtime.Minutes)
	assert.EqualValues(t, 120, b.Weekend.Minutes)
	assert.EqualValues(t, 120, b.Holiday.Minutes)
	assert.Equal(t, "100", b.Regular.Amount.String())
	assert.Equal(t, "30", b.Overtime.Amount.String())
	assert.Equal(t, "40", b.Weekend.Amount.String())
	assert.Equal(t, "60", b.Holiday.Amount.String())
	assert.Equal(t, "230", calc.GrossSalary.String())
	assert.EqualValues(t, 960, calc.WorkedMinutes)
	assert.Equal(t, "16", calc.HoursWorked.String())
	assert.Equal(t, "16", calc.HoursDifference.String())
}

func TestCompute_OvertimeIsChronological(t *testing.T) {
	policy := hourly("60")
	policy.StandardHoursPerPeriod = decPtr("1")

	// The later block in the slice is earlier in time and gets the regular hour.
	calc := compute(input(policy, []workblock.WorkBlock{
		block("2026-03-03", "08:00", "09:00"),
		block("2026-03-02", "08:00", "09:00"),
	}, nil))

	assert.EqualValues(t, 60, calc.Breakdown.Regular.Minutes)
	assert.EqualValues(t, 60, calc.Breakdown.Overtime.Minutes)
	assert.Equal(t, "150", calc.GrossSalary.String())
}

func TestCompute_NoThresholdMeansNoOvertime(t *testing.T) {
	calc := compute(input(hourly("60"), []workblock.WorkBlock{
		block("2026-03-02", "00:00", "23:00"),
		block("2026-03-03", "00:00", "23:00"),
	}, nil))

	assert.EqualValues(t, 2760, calc.Breakdown.Regular.Minutes)
	assert.Zero(t, calc.Breakdown.Overtime.Minutes)
}

func TestCompute_GrossRoundedOnce(t *testing.T) {
	// One minute each of regular and weekend at 1/hour: each line shows
	// 0.02 but the gross is 2/60 rounded, not the sum of the lines.
	calc := compute(input(hourly("1"), []workblock.WorkBlock{
		block("2026-03-02", "08:00", "08:01"),
		block("2026-03-07", "08:00", "08:01"),
	}, nil))

	assert.Equal(t, "0.02", calc.Breakdown.Regular.Amount.String())
	assert.Equal(t, "0.02", calc.Breakdown.Weekend.Amount.String())
	assert.Equal(t, "0.03", calc.GrossSalary.String())
}

func TestCompute_SalariedRate(t *testing.T) {
	policy := position.RatePolicy{
		ContractType:           position.ContractFullTime,
		BaseSalary:             decPtr("1600"),
		StandardHoursPerPeriod: decPtr("160"),
	}.WithDefaults()

	calc := compute(input(policy, []workblock.WorkBlock{block("2026-03-02", "09:00", "17:00")}, nil))

	assert.Equal(t, "10", calc.HourlyRate.String())
	assert.Equal(t, "80", calc.GrossSalary.String())
	assert.Equal(t, "8", calc.HoursDifference.String())
}

func TestCompute_Idempotent(t *testing.T) {
	in := input(hourly("1000"), []workblock.WorkBlock{
		block("2026-03-02", "09:00", "12:30"),
		block("2026-03-02", "13:00", "17:00"),
	}, nil, "2026-03-02")

	first := compute(in)
	second := compute(in)

	assert.Equal(t, first, second)
	assert.Equal(t, "7.5", first.HoursWorked.String())
	assert.EqualValues(t, 450, first.Breakdown.Holiday.Minutes)
}

