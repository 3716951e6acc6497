package timeblock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/auth"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/database"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/jwt"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/validator"
)

// DayLockKey names the advisory lock serializing block writes for one
// employee and calendar date.
func DayLockKey(employeeID string, date time.Time) string {
	return "workblock:" + employeeID + ":" + clock.FormatDate(date)
}

// dayGuard holds what every block write needs: the day lock and the period's
// payroll state.
type dayGuard struct {
	tx          database.Transactor
	payrollRepo payroll.PayrollRepository
}

// lockDay takes the day lock and fails with ErrPayrollLocked when the
// period's payroll is validated. Must run inside a transaction.
func (g dayGuard) lockDay(ctx context.Context, employeeID string, date time.Time) error {
	if err := g.tx.AdvisoryLock(ctx, DayLockKey(employeeID, date)); err != nil {
		return err
	}
	p, err := g.payrollRepo.GetByEmployeePeriodForShare(ctx, employeeID, date.Year(), int(date.Month()))
	if errors.Is(err, payroll.ErrPayrollNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read payroll state: %w", err)
	}
	locked, err := p.Status.Locked()
	if err != nil {
		return err
	}
	if locked {
		return payroll.ErrPayrollLocked
	}
	return nil
}

type WorkBlockServiceImpl struct {
	dayGuard
	blockRepo    workblock.WorkBlockRepository
	employeeRepo employee.EmployeeRepository
	validator    *Validator
}

func NewWorkBlockService(
	tx database.Transactor,
	blockRepo workblock.WorkBlockRepository,
	employeeRepo employee.EmployeeRepository,
	payrollRepo payroll.PayrollRepository,
	validator *Validator,
) workblock.WorkBlockService {
	return &WorkBlockServiceImpl{
		dayGuard:     dayGuard{tx: tx, payrollRepo: payrollRepo},
		blockRepo:    blockRepo,
		employeeRepo: employeeRepo,
		validator:    validator,
	}
}

// targetEmployee decides whose block the caller is writing.
func targetEmployee(actor jwt.Actor, requested string) (string, error) {
	if actor.IsAdmin {
		if requested == "" {
			return "", validator.ValidationErrors{{Field: "employee_id", Message: "employee_id is required"}}
		}
		return requested, nil
	}
	own, ok := actor.Employee()
	if !ok {
		return "", auth.ErrEmployeeAccountNeeded
	}
	if requested != "" && requested != own {
		return "", auth.ErrAdminPrivilegeRequired
	}
	return own, nil
}

func (s *WorkBlockServiceImpl) CreateBlock(ctx context.Context, req workblock.CreateWorkBlockRequest) (workblock.WorkBlockResponse, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return workblock.WorkBlockResponse{}, err
	}
	employeeID, err := targetEmployee(actor, req.EmployeeID)
	if err != nil {
		return workblock.WorkBlockResponse{}, err
	}
	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return workblock.WorkBlockResponse{}, err
	}

	candidate := req.Candidate()
	candidate.EmployeeID = employeeID
	accepted, rejections := s.validator.Parse(candidate)
	if !emp.IsActive {
		rejections = append(rejections, workblock.Rejection{
			Code:    workblock.CodeInactiveEmployee,
			Field:   "employee_id",
			Message: "employee is inactive",
		})
	}
	rejections, err = completeRejections(ctx, s.validator, s.blockRepo, accepted, rejections, "")
	if err != nil {
		return workblock.WorkBlockResponse{}, err
	}
	if err := workblock.Reject(rejections); err != nil {
		return workblock.WorkBlockResponse{}, err
	}

	var created workblock.WorkBlock
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.lockDay(ctx, employeeID, accepted.Date); err != nil {
			return err
		}
		existing, err := s.blockRepo.ListByEmployeeDate(ctx, employeeID, accepted.Date)
		if err != nil {
			return fmt.Errorf("failed to load day blocks: %w", err)
		}
		if err := workblock.Reject(s.validator.Check(accepted, existing)); err != nil {
			return err
		}
		created, err = s.blockRepo.Create(ctx, accepted.Block(workblock.SourceManual))
		return err
	})
	if err != nil {
		return workblock.WorkBlockResponse{}, err
	}

	return workblock.ToResponse(created), nil
}

func (s *WorkBlockServiceImpl) GetBlock(ctx context.Context, id string) (workblock.WorkBlockResponse, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return workblock.WorkBlockResponse{}, err
	}
	b, err := s.blockRepo.GetByID(ctx, id)
	if err != nil {
		return workblock.WorkBlockResponse{}, err
	}
	if !actor.IsAdmin {
		if own, ok := actor.Employee(); !ok || own != b.EmployeeID {
			return workblock.WorkBlockResponse{}, workblock.ErrWorkBlockNotFound
		}
	}
	return workblock.ToResponse(b), nil
}

// UpdateBlock re-validates the edited block against the rest of its day.
// Both the old and the new day must belong to unlocked payrolls.
func (s *WorkBlockServiceImpl) UpdateBlock(ctx context.Context, req workblock.UpdateWorkBlockRequest) (workblock.WorkBlockResponse, error) {
	current, err := s.blockRepo.GetByID(ctx, req.ID)
	if err != nil {
		return workblock.WorkBlockResponse{}, err
	}

	accepted, rejections := s.validator.Parse(workblock.Candidate{
		EmployeeID: current.EmployeeID,
		Date:       req.Date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Format:     workblock.DateISO,
	})
	rejections, err = completeRejections(ctx, s.validator, s.blockRepo, accepted, rejections, current.ID)
	if err != nil {
		return workblock.WorkBlockResponse{}, err
	}
	if err := workblock.Reject(rejections); err != nil {
		return workblock.WorkBlockResponse{}, err
	}

	updated := accepted.Block(workblock.SourcePayrollEdit)
	updated.ID = current.ID
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// Lock in date order so two crossing edits cannot deadlock.
		days := []time.Time{current.Date, accepted.Date}
		sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
		for i, day := range days {
			if i > 0 && day.Equal(days[i-1]) {
				continue
			}
			if err := s.lockDay(ctx, current.EmployeeID, day); err != nil {
				return err
			}
		}

		existing, err := s.blockRepo.ListByEmployeeDate(ctx, current.EmployeeID, accepted.Date)
		if err != nil {
			return fmt.Errorf("failed to load day blocks: %w", err)
		}
		others := existing[:0:0]
		for _, b := range existing {
			if b.ID != current.ID {
				others = append(others, b)
			}
		}
		if err := workblock.Reject(s.validator.Check(accepted, others)); err != nil {
			return err
		}
		return s.blockRepo.Update(ctx, updated)
	})
	if err != nil {
		return workblock.WorkBlockResponse{}, err
	}

	saved, err := s.blockRepo.GetByID(ctx, current.ID)
	if err != nil {
		return workblock.WorkBlockResponse{}, err
	}
	return workblock.ToResponse(saved), nil
}

func (s *WorkBlockServiceImpl) DeleteBlock(ctx context.Context, id string) error {
	current, err := s.blockRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.lockDay(ctx, current.EmployeeID, current.Date); err != nil {
			return err
		}
		return s.blockRepo.Delete(ctx, id)
	})
}

func (s *WorkBlockServiceImpl) ListBlocks(ctx context.Context, filter workblock.WorkBlockFilter) (workblock.ListWorkBlockResponse, error) {
	if err := filter.Validate(); err != nil {
		return workblock.ListWorkBlockResponse{}, err
	}
	blocks, total, err := s.blockRepo.List(ctx, filter)
	if err != nil {
		return workblock.ListWorkBlockResponse{}, err
	}
	return workblock.ListWorkBlockResponse{
		Data:       workblock.ToResponses(blocks),
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *WorkBlockServiceImpl) ListMyBlocks(ctx context.Context, filter workblock.WorkBlockFilter) (workblock.ListWorkBlockResponse, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return workblock.ListWorkBlockResponse{}, err
	}
	own, ok := actor.Employee()
	if !ok {
		return workblock.ListWorkBlockResponse{}, auth.ErrEmployeeAccountNeeded
	}
	filter.EmployeeID = &own
	return s.ListBlocks(ctx, filter)
}

// completeRejections adds the overlap rejections to a candidate that already
// failed a field check, as long as its day and times parsed. The lookup runs
// outside any transaction because nothing is written. exceptID names the
// block being edited.
func completeRejections(ctx context.Context, v *Validator, repo workblock.WorkBlockRepository, a workblock.Accepted, rejections []workblock.Rejection, exceptID string) ([]workblock.Rejection, error) {
	if len(rejections) == 0 || a.EmployeeID == "" || hasCode(rejections, workblock.CodeInvalidFormat) {
		return rejections, nil
	}
	existing, err := repo.ListByEmployeeDate(ctx, a.EmployeeID, a.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to load day blocks: %w", err)
	}
	others := existing[:0:0]
	for _, b := range existing {
		if b.ID != exceptID {
			others = append(others, b)
		}
	}
	return append(rejections, v.Check(a, others)...), nil
}
