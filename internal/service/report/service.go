package report

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/report"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/schedule"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/cache"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type ReportServiceImpl struct {
	employeeRepo employee.EmployeeRepository
	blockRepo    workblock.WorkBlockRepository
	shiftRepo    schedule.ShiftRepository
	payrollRepo  payroll.PayrollRepository
	cache        *cache.Cache
	now          func() time.Time
}

func NewReportService(
	employeeRepo employee.EmployeeRepository,
	blockRepo workblock.WorkBlockRepository,
	shiftRepo schedule.ShiftRepository,
	payrollRepo payroll.PayrollRepository,
	cache *cache.Cache,
) report.ReportService {
	return &ReportServiceImpl{
		employeeRepo: employeeRepo,
		blockRepo:    blockRepo,
		shiftRepo:    shiftRepo,
		payrollRepo:  payrollRepo,
		cache:        cache,
		now:          time.Now,
	}
}

// EmployeesStatus is computed live: work blocks change without touching
// payrolls, so it is never cached.
func (s *ReportServiceImpl) EmployeesStatus(ctx context.Context, req report.PeriodRequest) (report.EmployeesStatusReport, error) {
	if err := req.Validate(); err != nil {
		return report.EmployeesStatusReport{}, err
	}
	from, to := clock.MonthBounds(req.Year, req.Month)

	var (
		employees []employee.Employee
		blocks    []workblock.WorkBlock
		shifts    []schedule.Shift
		payrolls  []payroll.Payroll
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		employees, err = s.employeeRepo.ListActive(gctx)
		return err
	})
	g.Go(func() (err error) {
		blocks, err = s.blockRepo.ListBetween(gctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		shifts, err = s.shiftRepo.ListBetween(gctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		payrolls, err = s.payrollRepo.ListByPeriod(gctx, req.Year, req.Month)
		return err
	})
	if err := g.Wait(); err != nil {
		return report.EmployeesStatusReport{}, fmt.Errorf("failed to load period data: %w", err)
	}

	worked := map[string]int64{}
	for _, b := range blocks {
		worked[b.EmployeeID] += b.Minutes()
	}
	scheduled := map[string]int64{}
	for _, sh := range shifts {
		scheduled[sh.EmployeeID] += sh.Minutes()
	}
	byEmployee := make(map[string]payroll.Payroll, len(payrolls))
	for _, p := range payrolls {
		byEmployee[p.EmployeeID] = p
	}

	result := report.EmployeesStatusReport{
		Year:        req.Year,
		Month:       req.Month,
		GeneratedAt: s.now(),
		Employees:   []report.EmployeeStatus{},
	}
	// ListActive is ordered by name, so the rows are too.
	for _, e := range employees {
		minutes, ok := worked[e.ID]
		if !ok {
			continue
		}
		hoursWorked := workblock.MinutesToHours(minutes)
		scheduledHours := workblock.MinutesToHours(scheduled[e.ID])
		row := report.EmployeeStatus{
			EmployeeID:      e.ID,
			FullName:        e.FullName,
			Email:           e.Email,
			PositionName:    e.PositionName,
			HoursWorked:     hoursWorked,
			ScheduledHours:  scheduledHours,
			HoursDifference: hoursWorked.Sub(scheduledHours),
		}
		if p, ok := byEmployee[e.ID]; ok {
			id, status, gross := p.ID, string(p.Status), p.GrossSalary
			row.HasPayroll = true
			row.PayrollID = &id
			row.PayrollStatus = &status
			row.PayrollValidatedAt = p.ValidatedAt
			row.GrossSalary = &gross
			row.EmployeeAccepted = p.IsAccepted()
			result.WithPayroll++
		} else {
			result.WithoutPayroll++
		}
		result.Employees = append(result.Employees, row)
	}
	result.TotalEmployees = len(result.Employees)
	return result, nil
}

func (s *ReportServiceImpl) MonthlySummary(ctx context.Context, req report.PeriodRequest) (report.MonthlySummary, error) {
	if err := req.Validate(); err != nil {
		return report.MonthlySummary{}, err
	}

	key, err := s.cache.Key(ctx, "reports", "summary", fmt.Sprintf("%04d-%02d", req.Year, req.Month))
	if err != nil {
		return report.MonthlySummary{}, err
	}
	var summary report.MonthlySummary
	err = s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (interface{}, error) {
		return s.buildMonthlySummary(ctx, req.Year, req.Month)
	})
	if err != nil {
		return report.MonthlySummary{}, err
	}
	return summary, nil
}

func (s *ReportServiceImpl) buildMonthlySummary(ctx context.Context, year, month int) (report.MonthlySummary, error) {
	payrolls, err := s.payrollRepo.ListByPeriod(ctx, year, month)
	if err != nil {
		return report.MonthlySummary{}, fmt.Errorf("failed to list payrolls: %w", err)
	}

	summary := report.MonthlySummary{
		Year:                year,
		Month:               month,
		PayrollCount:        len(payrolls),
		TotalHoursWorked:    decimal.Zero,
		TotalScheduledHours: decimal.Zero,
		TotalGrossSalary:    decimal.Zero,
		Payrolls:            make([]payroll.PayrollResponse, 0, len(payrolls)),
	}
	for _, p := range payrolls {
		switch p.Status {
		case payroll.StatusDraft:
			summary.DraftCount++
		case payroll.StatusValidated:
			summary.ValidatedCount++
		}
		if p.IsAccepted() {
			summary.AcceptedCount++
		}
		summary.TotalHoursWorked = summary.TotalHoursWorked.Add(p.HoursWorked)
		summary.TotalScheduledHours = summary.TotalScheduledHours.Add(p.ScheduledHours)
		summary.TotalGrossSalary = summary.TotalGrossSalary.Add(p.GrossSalary)
		summary.Payrolls = append(summary.Payrolls, payroll.ToResponse(p))
	}
	return summary, nil
}

func (s *ReportServiceImpl) HistorySummary(ctx context.Context, req report.HistoryRequest) (report.HistorySummary, error) {
	if err := req.Validate(); err != nil {
		return report.HistorySummary{}, err
	}

	key, err := s.cache.Key(ctx, "reports", "history", strconv.Itoa(req.Months))
	if err != nil {
		return report.HistorySummary{}, err
	}
	var history report.HistorySummary
	err = s.cache.FetchJSON(ctx, key, &history, func(ctx context.Context) (interface{}, error) {
		totals, err := s.payrollRepo.PeriodTotals(ctx, req.Months)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate periods: %w", err)
		}
		out := report.HistorySummary{GeneratedAt: s.now(), Months: make([]report.HistoryMonth, 0, len(totals))}
		for _, t := range totals {
			out.Months = append(out.Months, report.HistoryMonth{
				Year:             t.Year,
				Month:            t.Month,
				MonthName:        time.Month(t.Month).String(),
				PayrollCount:     t.PayrollCount,
				ValidatedCount:   t.ValidatedCount,
				TotalHoursWorked: t.TotalHoursWorked,
				TotalGrossSalary: t.TotalGross,
			})
		}
		slog.Debug("History summary rebuilt", "months", len(out.Months))
		return out, nil
	})
	if err != nil {
		return report.HistorySummary{}, err
	}
	return history, nil
}
