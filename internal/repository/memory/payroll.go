package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/payroll"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type payrollRepository struct {
	s *Store
}

func NewPayrollRepository(s *Store) payroll.PayrollRepository {
	return &payrollRepository{s: s}
}

func (r *payrollRepository) joined(p payroll.Payroll) payroll.Payroll {
	p.EmployeeName = r.s.employeeName(p.EmployeeID)
	return p
}

func (r *payrollRepository) Create(ctx context.Context, p payroll.Payroll) (payroll.Payroll, error) {
	defer r.s.lockWrite(ctx)()
	for _, existing := range r.s.t.payrolls {
		if existing.EmployeeID == p.EmployeeID && existing.Year == p.Year && existing.Month == p.Month {
			return payroll.Payroll{}, payroll.ErrPayrollAlreadyExists
		}
	}
	now := r.s.now()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.EmployeeName = nil
	r.s.t.payrolls[p.ID] = p
	return r.joined(p), nil
}

func (r *payrollRepository) GetByID(ctx context.Context, id string) (payroll.Payroll, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.t.payrolls[id]
	if !ok {
		return payroll.Payroll{}, payroll.ErrPayrollNotFound
	}
	return r.joined(p), nil
}

func (r *payrollRepository) GetByEmployeePeriod(ctx context.Context, employeeID string, year, month int) (payroll.Payroll, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.t.payrolls {
		if p.EmployeeID == employeeID && p.Year == year && p.Month == month {
			return r.joined(p), nil
		}
	}
	return payroll.Payroll{}, payroll.ErrPayrollNotFound
}

// GetByEmployeePeriodForShare needs no row lock here; transactions are
// already serialized by the store.
func (r *payrollRepository) GetByEmployeePeriodForShare(ctx context.Context, employeeID string, year, month int) (payroll.Payroll, error) {
	return r.GetByEmployeePeriod(ctx, employeeID, year, month)
}

func byPeriodDesc(a, b payroll.Payroll) bool {
	if a.Year != b.Year {
		return a.Year > b.Year
	}
	if a.Month != b.Month {
		return a.Month > b.Month
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func (r *payrollRepository) List(ctx context.Context, filter payroll.PayrollFilter) ([]payroll.Payroll, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := make([]payroll.Payroll, 0)
	for _, p := range sortedValues(r.s.t.payrolls, byPeriodDesc) {
		if filter.Year != nil && p.Year != *filter.Year {
			continue
		}
		if filter.Month != nil && p.Month != *filter.Month {
			continue
		}
		if filter.Status != nil && string(p.Status) != *filter.Status {
			continue
		}
		if filter.EmployeeID != nil && p.EmployeeID != *filter.EmployeeID {
			continue
		}
		matched = append(matched, r.joined(p))
	}
	return paginate(matched, filter.Page, filter.Limit), int64(len(matched)), nil
}

func (r *payrollRepository) ListByPeriod(ctx context.Context, year, month int) ([]payroll.Payroll, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]payroll.Payroll, 0)
	for _, p := range r.s.t.payrolls {
		if p.Year == year && p.Month == month {
			out = append(out, r.joined(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return nameOf(out[i]) < nameOf(out[j])
	})
	return out, nil
}

func nameOf(p payroll.Payroll) string {
	if p.EmployeeName == nil {
		return ""
	}
	return *p.EmployeeName
}

func (r *payrollRepository) PeriodTotals(ctx context.Context, limit int) ([]payroll.PeriodTotal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	type period struct{ year, month int }
	totals := make(map[period]*payroll.PeriodTotal)
	for _, p := range r.s.t.payrolls {
		key := period{p.Year, p.Month}
		t, ok := totals[key]
		if !ok {
			t = &payroll.PeriodTotal{Year: p.Year, Month: p.Month, TotalHoursWorked: decimal.Zero, TotalGross: decimal.Zero}
			totals[key] = t
		}
		t.PayrollCount++
		if p.Status == payroll.StatusValidated {
			t.ValidatedCount++
		}
		t.TotalHoursWorked = t.TotalHoursWorked.Add(p.HoursWorked)
		t.TotalGross = t.TotalGross.Add(p.GrossSalary)
	}

	out := make([]payroll.PeriodTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *payrollRepository) UpdateSnapshot(ctx context.Context, p payroll.Payroll) (payroll.Payroll, error) {
	defer r.s.lockWrite(ctx)()
	existing, ok := r.s.t.payrolls[p.ID]
	if !ok {
		return payroll.Payroll{}, payroll.ErrPayrollNotFound
	}
	if existing.Status != payroll.StatusDraft {
		return payroll.Payroll{}, payroll.ErrPayrollLocked
	}
	existing.HoursWorked = p.HoursWorked
	existing.ScheduledHours = p.ScheduledHours
	existing.HoursDifference = p.HoursDifference
	existing.HourlyRate = p.HourlyRate
	existing.GrossSalary = p.GrossSalary
	existing.Breakdown = p.Breakdown
	existing.RatePolicy = p.RatePolicy
	existing.UpdatedAt = r.s.now()
	r.s.t.payrolls[p.ID] = existing
	return r.joined(existing), nil
}

func (r *payrollRepository) Validate(ctx context.Context, id, validatedBy string, at time.Time) (payroll.Payroll, error) {
	defer r.s.lockWrite(ctx)()
	p, ok := r.s.t.payrolls[id]
	if !ok {
		return payroll.Payroll{}, payroll.ErrPayrollNotFound
	}
	if p.Status != payroll.StatusDraft {
		return payroll.Payroll{}, payroll.ErrPayrollLocked
	}
	by := validatedBy
	when := at
	p.Status = payroll.StatusValidated
	p.ValidatedBy = &by
	p.ValidatedAt = &when
	p.UpdatedAt = r.s.now()
	r.s.t.payrolls[id] = p
	return r.joined(p), nil
}

func (r *payrollRepository) Accept(ctx context.Context, id, employeeID string, at time.Time) (payroll.Payroll, error) {
	defer r.s.lockWrite(ctx)()
	p, ok := r.s.t.payrolls[id]
	if !ok {
		return payroll.Payroll{}, payroll.ErrPayrollNotFound
	}
	if p.Status != payroll.StatusValidated {
		return payroll.Payroll{}, payroll.ErrPayrollNotValidated
	}
	if p.EmployeeValidatedAt != nil {
		return payroll.Payroll{}, payroll.ErrPayrollAlreadyAccepted
	}
	by := employeeID
	when := at
	p.EmployeeValidatedBy = &by
	p.EmployeeValidatedAt = &when
	p.UpdatedAt = r.s.now()
	r.s.t.payrolls[id] = p
	return r.joined(p), nil
}

func (r *payrollRepository) UpdateNotes(ctx context.Context, id string, notes *string) (payroll.Payroll, error) {
	defer r.s.lockWrite(ctx)()
	p, ok := r.s.t.payrolls[id]
	if !ok {
		return payroll.Payroll{}, payroll.ErrPayrollNotFound
	}
	p.Notes = notes
	p.UpdatedAt = r.s.now()
	r.s.t.payrolls[id] = p
	return r.joined(p), nil
}

func (r *payrollRepository) Delete(ctx context.Context, id string) error {
	defer r.s.lockWrite(ctx)()
	p, ok := r.s.t.payrolls[id]
	if !ok {
		return payroll.ErrPayrollNotFound
	}
	if p.Status != payroll.StatusDraft {
		return payroll.ErrPayrollLocked
	}
	delete(r.s.t.payrolls, id)
	return nil
}
