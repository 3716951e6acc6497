package memory

import (
	"context"
	"strings"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/employee"
	"github.com/google/uuid"
)

type employeeRepository struct {
	s *Store
}

func NewEmployeeRepository(s *Store) employee.EmployeeRepository {
	return &employeeRepository{s: s}
}

func (r *employeeRepository) withPosition(e employee.Employee) employee.Employee {
	e.PositionName = nil
	if e.PositionID != nil {
		if p, ok := r.s.t.positions[*e.PositionID]; ok {
			name := p.Name
			e.PositionName = &name
		}
	}
	return e
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.t.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return r.withPosition(e), nil
}

func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, e := range r.s.t.employees {
		if e.Email == email {
			return r.withPosition(e), nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (r *employeeRepository) emailTaken(email, exceptID string) bool {
	for _, e := range r.s.t.employees {
		if e.Email == email && e.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *employeeRepository) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	defer r.s.lockWrite(ctx)()
	if r.emailTaken(newEmployee.Email, "") {
		return employee.Employee{}, employee.ErrEmailExists
	}
	now := r.s.now()
	newEmployee.ID = uuid.NewString()
	newEmployee.CreatedAt = now
	newEmployee.UpdatedAt = now
	newEmployee.PositionName = nil
	r.s.t.employees[newEmployee.ID] = newEmployee
	return r.withPosition(newEmployee), nil
}

func (r *employeeRepository) Update(ctx context.Context, req employee.UpdateEmployeeRequest) error {
	defer r.s.lockWrite(ctx)()
	e, ok := r.s.t.employees[req.ID]
	if !ok {
		return employee.ErrEmployeeNotFound
	}
	if req.FullName != nil {
		e.FullName = *req.FullName
	}
	if req.Email != nil {
		if r.emailTaken(*req.Email, e.ID) {
			return employee.ErrEmailExists
		}
		e.Email = *req.Email
	}
	if req.PositionID != nil {
		id := *req.PositionID
		if id == "" {
			e.PositionID = nil
		} else {
			e.PositionID = &id
		}
	}
	e.UpdatedAt = r.s.now()
	r.s.t.employees[e.ID] = e
	return nil
}

func (r *employeeRepository) SetActive(ctx context.Context, id string, active bool) error {
	defer r.s.lockWrite(ctx)()
	e, ok := r.s.t.employees[id]
	if !ok {
		return employee.ErrEmployeeNotFound
	}
	e.IsActive = active
	e.UpdatedAt = r.s.now()
	r.s.t.employees[id] = e
	return nil
}

func (r *employeeRepository) List(ctx context.Context, filter employee.EmployeeFilter) ([]employee.Employee, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := sortedValues(r.s.t.employees, func(a, b employee.Employee) bool { return a.FullName < b.FullName })
	matched := make([]employee.Employee, 0, len(all))
	for _, e := range all {
		if filter.IsActive != nil && e.IsActive != *filter.IsActive {
			continue
		}
		if filter.Search != nil {
			q := strings.ToLower(*filter.Search)
			if !strings.Contains(strings.ToLower(e.FullName), q) && !strings.Contains(e.Email, q) {
				continue
			}
		}
		matched = append(matched, r.withPosition(e))
	}
	return paginate(matched, filter.Page, filter.Limit), int64(len(matched)), nil
}

func (r *employeeRepository) ListActive(ctx context.Context) ([]employee.Employee, error) {
	active := true
	list, _, err := r.List(ctx, employee.EmployeeFilter{IsActive: &active})
	return list, err
}
