package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/absence"
	"github.com/google/uuid"
)

type absenceRepository struct {
	s *Store
}

func NewAbsenceRepository(s *Store) absence.AbsenceRepository {
	return &absenceRepository{s: s}
}

func (r *absenceRepository) joined(a absence.AbsencePeriod) absence.AbsencePeriod {
	a.EmployeeName = r.s.employeeName(a.EmployeeID)
	return a
}

func (r *absenceRepository) Create(ctx context.Context, a absence.AbsencePeriod) (absence.AbsencePeriod, error) {
	defer r.s.lockWrite(ctx)()
	now := r.s.now()
	a.ID = uuid.NewString()
	a.CreatedAt = now
	a.UpdatedAt = now
	a.EmployeeName = nil
	r.s.t.absences[a.ID] = a
	return r.joined(a), nil
}

func (r *absenceRepository) GetByID(ctx context.Context, id string) (absence.AbsencePeriod, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.t.absences[id]
	if !ok {
		return absence.AbsencePeriod{}, absence.ErrAbsenceNotFound
	}
	return r.joined(a), nil
}

func newestFirst(a, b absence.AbsencePeriod) bool {
	if !a.StartDate.Equal(b.StartDate) {
		return a.StartDate.After(b.StartDate)
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func (r *absenceRepository) List(ctx context.Context, filter absence.AbsenceFilter) ([]absence.AbsencePeriod, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := make([]absence.AbsencePeriod, 0)
	for _, a := range sortedValues(r.s.t.absences, newestFirst) {
		if filter.EmployeeID != nil && a.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && string(a.Status) != *filter.Status {
			continue
		}
		matched = append(matched, r.joined(a))
	}
	return paginate(matched, filter.Page, filter.Limit), int64(len(matched)), nil
}

func (r *absenceRepository) ListApproved(ctx context.Context, employeeID string) ([]absence.AbsencePeriod, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]absence.AbsencePeriod, 0)
	for _, a := range sortedValues(r.s.t.absences, func(a, b absence.AbsencePeriod) bool { return a.StartDate.Before(b.StartDate) }) {
		if a.EmployeeID == employeeID && a.Status == absence.StatusApproved {
			out = append(out, r.joined(a))
		}
	}
	return out, nil
}

func (r *absenceRepository) HasOverlapping(ctx context.Context, employeeID string, from, to time.Time) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.t.absences {
		if a.EmployeeID != employeeID || a.Status == absence.StatusRejected {
			continue
		}
		if !a.StartDate.After(to) && !from.After(a.EndDate) {
			return true, nil
		}
	}
	return false, nil
}

func (r *absenceRepository) Review(ctx context.Context, req absence.ReviewAbsenceRequest, status absence.AbsenceStatus, reviewedAt time.Time) (absence.AbsencePeriod, error) {
	defer r.s.lockWrite(ctx)()
	a, ok := r.s.t.absences[req.ID]
	if !ok {
		return absence.AbsencePeriod{}, absence.ErrAbsenceNotFound
	}
	if a.Status != absence.StatusRequested {
		return absence.AbsencePeriod{}, absence.ErrAbsenceAlreadyReviewed
	}
	reviewer := req.ReviewerID
	at := reviewedAt
	a.Status = status
	a.ReviewedBy = &reviewer
	a.ReviewedAt = &at
	a.ReviewNotes = req.ReviewNotes
	a.UpdatedAt = r.s.now()
	r.s.t.absences[a.ID] = a
	return r.joined(a), nil
}
