package employee

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/master/position"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/schedule"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/user"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/database"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/validator"
	"golang.org/x/crypto/bcrypt"
)

type EmployeeServiceImpl struct {
	db           database.Transactor
	employeeRepo employee.EmployeeRepository
	userRepo     user.UserRepository
	positionRepo position.PositionRepository
	shiftRepo    schedule.ShiftRepository
	now          func() time.Time
	loc          *time.Location
}

func NewEmployeeService(
	db database.Transactor,
	employeeRepo employee.EmployeeRepository,
	userRepo user.UserRepository,
	positionRepo position.PositionRepository,
	shiftRepo schedule.ShiftRepository,
	loc *time.Location,
) employee.EmployeeService {
	return &EmployeeServiceImpl{
		db:           db,
		employeeRepo: employeeRepo,
		userRepo:     userRepo,
		positionRepo: positionRepo,
		shiftRepo:    shiftRepo,
		now:          time.Now,
		loc:          loc,
	}
}

// GetEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) GetEmployee(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return employee.ToResponse(emp), nil
}

// CreateEmployee implements employee.EmployeeService. When a password is
// given the login account is created in the same transaction.
func (s *EmployeeServiceImpl) CreateEmployee(ctx context.Context, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	req.Email = validator.NormalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}
	email := req.Email

	if err := s.checkPosition(ctx, req.PositionID); err != nil {
		return employee.EmployeeResponse{}, err
	}

	var passwordHash string
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return employee.EmployeeResponse{}, fmt.Errorf("failed to hash password: %w", err)
		}
		passwordHash = string(hash)
	}

	var created employee.Employee
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.employeeRepo.Create(ctx, employee.Employee{
			FullName:   req.FullName,
			Email:      email,
			PositionID: req.PositionID,
			IsActive:   true,
		})
		if err != nil {
			return err
		}
		if passwordHash == "" {
			return nil
		}
		_, err = s.userRepo.Create(ctx, user.User{
			Email:        email,
			PasswordHash: passwordHash,
			IsAdmin:      req.IsAdmin,
			EmployeeID:   &created.ID,
		})
		return err
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, created.ID)
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to get created employee: %w", err)
	}
	return employee.ToResponse(emp), nil
}

// UpdateEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) UpdateEmployee(ctx context.Context, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
	if req.Email != nil {
		email := validator.NormalizeEmail(*req.Email)
		req.Email = &email
	}
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}
	if req.PositionID != nil && *req.PositionID != "" {
		if err := s.checkPosition(ctx, req.PositionID); err != nil {
			return employee.EmployeeResponse{}, err
		}
	}

	if err := s.employeeRepo.Update(ctx, req); err != nil {
		return employee.EmployeeResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.ID)
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to get updated employee: %w", err)
	}
	return employee.ToResponse(emp), nil
}

// ListEmployees implements employee.EmployeeService.
func (s *EmployeeServiceImpl) ListEmployees(ctx context.Context, filter employee.EmployeeFilter) (employee.ListEmployeeResponse, error) {
	if err := filter.Validate(); err != nil {
		return employee.ListEmployeeResponse{}, err
	}

	employees, total, err := s.employeeRepo.List(ctx, filter)
	if err != nil {
		return employee.ListEmployeeResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}

	responses := make([]employee.EmployeeResponse, 0, len(employees))
	for _, emp := range employees {
		responses = append(responses, employee.ToResponse(emp))
	}
	return employee.ListEmployeeResponse{
		Data:       responses,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// DeactivateEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) DeactivateEmployee(ctx context.Context, id string) (employee.DeactivateEmployeeResponse, error) {
	existing, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return employee.DeactivateEmployeeResponse{}, err
	}
	if !existing.IsActive {
		return employee.DeactivateEmployeeResponse{}, employee.ErrEmployeeAlreadyInactive
	}

	today := clock.Today(s.now(), s.loc)
	var removed int64
	err = s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.db.AdvisoryLock(ctx, schedule.EmployeeShiftsLockKey(id)); err != nil {
			return err
		}
		if err := s.employeeRepo.SetActive(ctx, id, false); err != nil {
			return err
		}
		var err error
		removed, err = s.shiftRepo.DeleteByEmployeeBetween(ctx, id, today, nil)
		return err
	})
	if err != nil {
		return employee.DeactivateEmployeeResponse{}, err
	}
	slog.Info("Shifts invalidated", "employee_id", id, "from", clock.FormatDate(today), "removed", removed)

	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return employee.DeactivateEmployeeResponse{}, fmt.Errorf("failed to get updated employee: %w", err)
	}
	return employee.DeactivateEmployeeResponse{
		Employee:      employee.ToResponse(emp),
		ShiftsRemoved: removed,
	}, nil
}

func (s *EmployeeServiceImpl) checkPosition(ctx context.Context, id *string) error {
	if id == nil {
		return nil
	}
	_, err := s.positionRepo.GetByID(ctx, *id)
	return err
}
