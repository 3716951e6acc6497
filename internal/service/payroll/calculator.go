package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/master/holiday"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/master/position"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/schedule"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ScheduledHoursSource reports the planned hours of an employee.
type ScheduledHoursSource interface {
	ScheduledHours(ctx context.Context, employeeID string, from, to time.Time) (decimal.Decimal, []schedule.Shift, error)
}

type CalculatorImpl struct {
	employeeRepo employee.EmployeeRepository
	positionRepo position.PositionRepository
	blockRepo    workblock.WorkBlockRepository
	holidayRepo  holiday.HolidayRepository
	scheduled    ScheduledHoursSource
}

func NewCalculator(
	employeeRepo employee.EmployeeRepository,
	positionRepo position.PositionRepository,
	blockRepo workblock.WorkBlockRepository,
	holidayRepo holiday.HolidayRepository,
	scheduled ScheduledHoursSource,
) payroll.Calculator {
	return &CalculatorImpl{
		employeeRepo: employeeRepo,
		positionRepo: positionRepo,
		blockRepo:    blockRepo,
		holidayRepo:  holidayRepo,
		scheduled:    scheduled,
	}
}

// Calculate loads the period's inputs concurrently and folds them. Nothing
// is persisted.
func (c *CalculatorImpl) Calculate(ctx context.Context, employeeID string, year, month int) (payroll.Calculation, error) {
	if !clock.ValidPeriod(year, month) {
		return payroll.Calculation{}, payroll.ErrInvalidPeriod
	}

	emp, err := c.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return payroll.Calculation{}, err
	}
	if emp.PositionID == nil {
		return payroll.Calculation{}, position.ErrNoRatePolicyConfigured
	}
	pos, err := c.positionRepo.GetByID(ctx, *emp.PositionID)
	if err != nil {
		return payroll.Calculation{}, err
	}
	policy := pos.RatePolicy.WithDefaults()
	rate, err := policy.EffectiveHourlyRate()
	if err != nil {
		return payroll.Calculation{}, err
	}

	from, to := clock.MonthBounds(year, month)
	in := calculationInput{
		employee: emp,
		year:     year,
		month:    month,
		policy:   policy,
		rate:     rate,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		blocks, err := c.blockRepo.ListByEmployeeBetween(gctx, employeeID, from, to)
		if err != nil {
			return fmt.Errorf("failed to load work blocks: %w", err)
		}
		in.blocks = blocks
		return nil
	})
	g.Go(func() error {
		_, shifts, err := c.scheduled.ScheduledHours(gctx, employeeID, from, to)
		if err != nil {
			return fmt.Errorf("failed to load shifts: %w", err)
		}
		in.shifts = shifts
		return nil
	})
	g.Go(func() error {
		holidays, err := c.holidayRepo.ListBetween(gctx, from, to)
		if err != nil {
			return fmt.Errorf("failed to load holidays: %w", err)
		}
		in.holidays = holiday.NewSet(holidays)
		return nil
	})
	if err := g.Wait(); err != nil {
		return payroll.Calculation{}, err
	}

	return compute(in), nil
}

type calculationInput struct {
	employee employee.Employee
	year     int
	month    int
	policy   position.RatePolicy
	rate     decimal.Decimal
	blocks   []workblock.WorkBlock
	shifts   []schedule.Shift
	holidays holiday.Set
}

// categoryMinutes attributes every worked minute to exactly one category.
// Holiday wins over weekend; remaining weekday minutes are regular until the
// period threshold is used up, in chronological order, and overtime after.
func categoryMinutes(blocks []workblock.WorkBlock, holidays holiday.Set, policy position.RatePolicy) map[payroll.Category]int64 {
	sorted := make([]workblock.WorkBlock, len(blocks))
	copy(sorted, blocks)
	workblock.SortChronologically(sorted)

	threshold, capped := policy.OvertimeThresholdMinutes()
	out := map[payroll.Category]int64{}
	var regular int64
	for _, b := range sorted {
		minutes := b.Minutes()
		switch {
		case holidays.Contains(b.Date):
			out[payroll.CategoryHoliday] += minutes
		case clock.IsWeekend(b.Date):
			out[payroll.CategoryWeekend] += minutes
		default:
			reg := minutes
			if capped {
				reg = max(0, min(minutes, threshold-regular))
			}
			regular += reg
			out[payroll.CategoryRegular] += reg
			out[payroll.CategoryOvertime] += minutes - reg
		}
	}
	return out
}

func scheduledRecords(shifts []schedule.Shift) []payroll.ScheduledRecord {
	records := make([]payroll.ScheduledRecord, 0, len(shifts))
	for _, s := range shifts {
		records = append(records, payroll.ScheduledRecord{
			ShiftID:    s.ID,
			ScheduleID: s.ScheduleID,
			Date:       s.Date,
			StartTime:  s.StartTime,
			EndTime:    s.EndTime,
			Minutes:    s.Minutes(),
		})
	}
	return records
}

var sixty = decimal.NewFromInt(60)

func compute(in calculationInput) payroll.Calculation {
	from, to := clock.MonthBounds(in.year, in.month)
	daily := workblock.GroupByDay(in.blocks)

	var worked int64
	for _, d := range daily {
		worked += d.Minutes
	}
	scheduled := schedule.TotalMinutes(in.shifts)

	minutes := categoryMinutes(in.blocks, in.holidays, in.policy)
	gross := decimal.Zero
	line := func(cat payroll.Category, multiplier decimal.Decimal) payroll.CategoryLine {
		amount := decimal.NewFromInt(minutes[cat]).Mul(in.rate).Mul(multiplier).Div(sixty)
		gross = gross.Add(amount)
		return payroll.CategoryLine{
			Minutes:    minutes[cat],
			Hours:      workblock.MinutesToHours(minutes[cat]),
			Multiplier: multiplier,
			Amount:     amount.Round(2),
		}
	}
	breakdown := payroll.Breakdown{
		Regular:  line(payroll.CategoryRegular, decimal.NewFromInt(1)),
		Overtime: line(payroll.CategoryOvertime, in.policy.OvertimeMultiplier),
		Weekend:  line(payroll.CategoryWeekend, in.policy.WeekendMultiplier),
		Holiday:  line(payroll.CategoryHoliday, in.policy.HolidayMultiplier),
	}

	hoursWorked := workblock.MinutesToHours(worked)
	scheduledHours := workblock.MinutesToHours(scheduled)
	return payroll.Calculation{
		EmployeeID:       in.employee.ID,
		EmployeeName:     in.employee.FullName,
		Year:             in.year,
		Month:            in.month,
		PeriodStart:      from,
		PeriodEnd:        to,
		WorkedMinutes:    worked,
		ScheduledMinutes: scheduled,
		HoursWorked:      hoursWorked,
		ScheduledHours:   scheduledHours,
		HoursDifference:  hoursWorked.Sub(scheduledHours),
		HourlyRate:       in.rate,
		GrossSalary:      gross.Round(2),
		Breakdown:        breakdown,
		RatePolicy:       in.policy,
		DailyRecords:     daily,
		ScheduledRecords: scheduledRecords(in.shifts),
	}
}
