package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/auth"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/schedule"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/apperr"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/cache"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/jwt"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

type PayrollServiceImpl struct {
	calculator   payroll.Calculator
	payrollRepo  payroll.PayrollRepository
	employeeRepo employee.EmployeeRepository
	blockRepo    workblock.WorkBlockRepository
	shiftRepo    schedule.ShiftRepository
	events       notification.Publisher
	reports      *cache.Cache
	previews     singleflight.Group
	now          func() time.Time
}

func NewPayrollService(
	calculator payroll.Calculator,
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	blockRepo workblock.WorkBlockRepository,
	shiftRepo schedule.ShiftRepository,
	events notification.Publisher,
	reports *cache.Cache,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		calculator:   calculator,
		payrollRepo:  payrollRepo,
		employeeRepo: employeeRepo,
		blockRepo:    blockRepo,
		shiftRepo:    shiftRepo,
		events:       events,
		reports:      reports,
		now:          time.Now,
	}
}

// ========== CALCULATION ==========

// Calculate collapses identical concurrent previews into one calculation.
// The shared run is detached from any one caller's cancellation.
func (s *PayrollServiceImpl) Calculate(ctx context.Context, req payroll.CalculateRequest) (payroll.CalculationResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.CalculationResponse{}, err
	}

	key := fmt.Sprintf("%s:%04d-%02d", req.EmployeeID, req.Year, req.Month)
	shared := context.WithoutCancel(ctx)
	ch := s.previews.DoChan(key, func() (interface{}, error) {
		return s.calculator.Calculate(shared, req.EmployeeID, req.Year, req.Month)
	})
	select {
	case <-ctx.Done():
		return payroll.CalculationResponse{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return payroll.CalculationResponse{}, res.Err
		}
		return payroll.ToCalculationResponse(res.Val.(payroll.Calculation)), nil
	}
}

// ========== GENERATION ==========

func (s *PayrollServiceImpl) Generate(ctx context.Context, req payroll.CalculateRequest) (payroll.PayrollDetailResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollDetailResponse{}, err
	}
	created, calc, err := s.generate(ctx, req.EmployeeID, req.Year, req.Month)
	if err != nil {
		return payroll.PayrollDetailResponse{}, err
	}
	return detail(created, calc.DailyRecords, calc.ScheduledRecords), nil
}

// GenerateBatch creates the period's drafts. Employees that already have one
// are skipped; domain failures are reported per employee and do not stop
// the batch.
func (s *PayrollServiceImpl) GenerateBatch(ctx context.Context, req payroll.GenerateBatchRequest) (payroll.GenerateBatchResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.GenerateBatchResponse{}, err
	}

	ids := req.EmployeeIDs
	if len(ids) == 0 {
		active, err := s.employeeRepo.ListActive(ctx)
		if err != nil {
			return payroll.GenerateBatchResponse{}, fmt.Errorf("failed to list active employees: %w", err)
		}
		for _, e := range active {
			ids = append(ids, e.ID)
		}
	}

	resp := payroll.GenerateBatchResponse{
		Generated: []payroll.PayrollResponse{},
		Skipped:   []string{},
		Errors:    []payroll.BatchError{},
	}
	for _, id := range ids {
		created, _, err := s.generate(ctx, id, req.Year, req.Month)
		switch {
		case err == nil:
			resp.Generated = append(resp.Generated, payroll.ToResponse(created))
		case errors.Is(err, payroll.ErrPayrollAlreadyExists):
			resp.Skipped = append(resp.Skipped, id)
		default:
			appErr, ok := apperr.As(err)
			if !ok {
				return payroll.GenerateBatchResponse{}, fmt.Errorf("generate payroll for %s: %w", id, err)
			}
			resp.Errors = append(resp.Errors, payroll.BatchError{EmployeeID: id, Code: appErr.Code, Message: appErr.Message})
		}
	}

	slog.Info("Payroll batch generated",
		"year", req.Year,
		"month", req.Month,
		"generated", len(resp.Generated),
		"skipped", len(resp.Skipped),
		"errors", len(resp.Errors),
	)
	return resp, nil
}

func (s *PayrollServiceImpl) generate(ctx context.Context, employeeID string, year, month int) (payroll.Payroll, payroll.Calculation, error) {
	_, err := s.payrollRepo.GetByEmployeePeriod(ctx, employeeID, year, month)
	if err == nil {
		return payroll.Payroll{}, payroll.Calculation{}, payroll.ErrPayrollAlreadyExists
	}
	if !errors.Is(err, payroll.ErrPayrollNotFound) {
		return payroll.Payroll{}, payroll.Calculation{}, err
	}

	calc, err := s.calculator.Calculate(ctx, employeeID, year, month)
	if err != nil {
		return payroll.Payroll{}, payroll.Calculation{}, err
	}

	p := payroll.Payroll{Status: payroll.StatusDraft}
	p.ApplyCalculation(calc)
	created, err := s.payrollRepo.Create(ctx, p)
	if err != nil {
		return payroll.Payroll{}, payroll.Calculation{}, err
	}
	s.invalidateReports(ctx)
	return created, calc, nil
}

// ========== PAYROLL RECORDS ==========

func (s *PayrollServiceImpl) List(ctx context.Context, filter payroll.PayrollFilter) (payroll.ListPayrollResponse, error) {
	if err := filter.Validate(); err != nil {
		return payroll.ListPayrollResponse{}, err
	}

	payrolls, total, err := s.payrollRepo.List(ctx, filter)
	if err != nil {
		return payroll.ListPayrollResponse{}, err
	}

	data := make([]payroll.PayrollResponse, 0, len(payrolls))
	for _, p := range payrolls {
		data = append(data, payroll.ToResponse(p))
	}
	return payroll.ListPayrollResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// Get returns the stored snapshot with the period's current records, which
// may have drifted from the snapshot while the payroll is a draft.
func (s *PayrollServiceImpl) Get(ctx context.Context, id string) (payroll.PayrollDetailResponse, error) {
	p, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.PayrollDetailResponse{}, err
	}
	return s.withLiveRecords(ctx, p)
}

func (s *PayrollServiceImpl) Recalculate(ctx context.Context, id string) (payroll.PayrollDetailResponse, error) {
	p, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.PayrollDetailResponse{}, err
	}
	if locked, err := p.Status.Locked(); err != nil {
		return payroll.PayrollDetailResponse{}, err
	} else if locked {
		return payroll.PayrollDetailResponse{}, payroll.ErrPayrollLocked
	}

	calc, err := s.calculator.Calculate(ctx, p.EmployeeID, p.Year, p.Month)
	if err != nil {
		return payroll.PayrollDetailResponse{}, err
	}
	p.ApplyCalculation(calc)

	// The update only matches a draft, so a Validate that won the race
	// surfaces here as ErrPayrollLocked.
	updated, err := s.payrollRepo.UpdateSnapshot(ctx, p)
	if err != nil {
		return payroll.PayrollDetailResponse{}, err
	}
	s.invalidateReports(ctx)
	return detail(updated, calc.DailyRecords, calc.ScheduledRecords), nil
}

func (s *PayrollServiceImpl) Validate(ctx context.Context, id string) (payroll.PayrollResponse, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}

	validated, err := s.payrollRepo.Validate(ctx, id, actor.UserID, s.now())
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	slog.Info("Payroll validated",
		"payroll_id", validated.ID,
		"employee_id", validated.EmployeeID,
		"year", validated.Year,
		"month", validated.Month,
		"gross_salary", validated.GrossSalary.StringFixed(2),
	)
	s.invalidateReports(ctx)
	s.notifyValidated(ctx, validated)

	return payroll.ToResponse(validated), nil
}

func (s *PayrollServiceImpl) UpdateNotes(ctx context.Context, req payroll.UpdateNotesRequest) (payroll.PayrollResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollResponse{}, err
	}
	updated, err := s.payrollRepo.UpdateNotes(ctx, req.ID, req.Notes)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	return payroll.ToResponse(updated), nil
}

func (s *PayrollServiceImpl) Delete(ctx context.Context, id string) error {
	if err := s.payrollRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateReports(ctx)
	return nil
}

func (s *PayrollServiceImpl) ListWorkBlocks(ctx context.Context, id string) ([]workblock.WorkBlockResponse, error) {
	p, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from, to := p.Period()
	blocks, err := s.blockRepo.ListByEmployeeBetween(ctx, p.EmployeeID, from, to)
	if err != nil {
		return nil, err
	}
	return workblock.ToResponses(blocks), nil
}

// ========== EMPLOYEE SELF-SERVICE ==========

func (s *PayrollServiceImpl) ListMine(ctx context.Context, filter payroll.PayrollFilter) (payroll.ListPayrollResponse, error) {
	own, err := ownEmployee(ctx)
	if err != nil {
		return payroll.ListPayrollResponse{}, err
	}
	filter.EmployeeID = &own
	return s.List(ctx, filter)
}

func (s *PayrollServiceImpl) GetMine(ctx context.Context, id string) (payroll.PayrollDetailResponse, error) {
	p, err := s.ownPayroll(ctx, id)
	if err != nil {
		return payroll.PayrollDetailResponse{}, err
	}
	return s.withLiveRecords(ctx, p)
}

// Accept records that the employee agrees with a validated payroll.
func (s *PayrollServiceImpl) Accept(ctx context.Context, id string) (payroll.PayrollResponse, error) {
	p, err := s.ownPayroll(ctx, id)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	accepted, err := s.payrollRepo.Accept(ctx, p.ID, p.EmployeeID, s.now())
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	slog.Info("Payroll accepted", "payroll_id", accepted.ID, "employee_id", accepted.EmployeeID)
	s.invalidateReports(ctx)
	return payroll.ToResponse(accepted), nil
}

// ========== HELPERS ==========

func ownEmployee(ctx context.Context) (string, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return "", err
	}
	own, ok := actor.Employee()
	if !ok {
		return "", auth.ErrEmployeeAccountNeeded
	}
	return own, nil
}

// ownPayroll hides other employees' payrolls behind not found.
func (s *PayrollServiceImpl) ownPayroll(ctx context.Context, id string) (payroll.Payroll, error) {
	own, err := ownEmployee(ctx)
	if err != nil {
		return payroll.Payroll{}, err
	}
	p, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.Payroll{}, err
	}
	if p.EmployeeID != own {
		return payroll.Payroll{}, payroll.ErrPayrollNotFound
	}
	return p, nil
}

func (s *PayrollServiceImpl) withLiveRecords(ctx context.Context, p payroll.Payroll) (payroll.PayrollDetailResponse, error) {
	from, to := p.Period()

	var (
		blocks []workblock.WorkBlock
		shifts []schedule.Shift
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		blocks, err = s.blockRepo.ListByEmployeeBetween(gctx, p.EmployeeID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		shifts, err = s.shiftRepo.ListByEmployeeBetween(gctx, p.EmployeeID, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return payroll.PayrollDetailResponse{}, err
	}
	return detail(p, workblock.GroupByDay(blocks), scheduledRecords(shifts)), nil
}

func detail(p payroll.Payroll, daily []workblock.DailyRecord, scheduled []payroll.ScheduledRecord) payroll.PayrollDetailResponse {
	return payroll.PayrollDetailResponse{
		PayrollResponse:  payroll.ToResponse(p),
		DailyRecords:     workblock.ToDailyRecordResponses(daily),
		ScheduledRecords: payroll.ToScheduledRecordResponses(scheduled),
	}
}

// invalidateReports drops cached summaries. A failure only delays fresh
// numbers until the cache TTL runs out.
func (s *PayrollServiceImpl) invalidateReports(ctx context.Context) {
	if err := s.reports.Bump(ctx); err != nil {
		slog.Warn("Failed to invalidate report cache", "error", err)
	}
}

func (s *PayrollServiceImpl) notifyValidated(ctx context.Context, p payroll.Payroll) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, notification.Event{
		Name:       notification.EventPayrollValidated,
		EmployeeID: p.EmployeeID,
		OccurredAt: s.now(),
		Data: map[string]interface{}{
			"payroll_id":   p.ID,
			"year":         p.Year,
			"month":        p.Month,
			"gross_salary": p.GrossSalary.StringFixed(2),
		},
	})
	if err != nil {
		slog.Warn("Failed to publish payroll validated event", "payroll_id", p.ID, "error", err)
	}
}
