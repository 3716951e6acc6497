package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/schedule"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/google/uuid"
)

type scheduleRepository struct {
	s *Store
}

func NewScheduleRepository(s *Store) schedule.ScheduleRepository {
	return &scheduleRepository{s: s}
}

func (r *scheduleRepository) withCount(sc schedule.Schedule) schedule.Schedule {
	sc.ShiftCount = 0
	for _, sh := range r.s.t.shifts {
		if sh.ScheduleID == sc.ID {
			sc.ShiftCount++
		}
	}
	return sc
}

func (r *scheduleRepository) Create(ctx context.Context, sc schedule.Schedule) (schedule.Schedule, error) {
	defer r.s.lockWrite(ctx)()
	now := r.s.now()
	sc.ID = uuid.NewString()
	sc.CreatedAt = now
	sc.UpdatedAt = now
	sc.ShiftCount = 0
	r.s.t.schedules[sc.ID] = sc
	return sc, nil
}

func (r *scheduleRepository) GetByID(ctx context.Context, id string) (schedule.Schedule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sc, ok := r.s.t.schedules[id]
	if !ok {
		return schedule.Schedule{}, schedule.ErrScheduleNotFound
	}
	return r.withCount(sc), nil
}

func (r *scheduleRepository) List(ctx context.Context, filter schedule.ScheduleFilter) ([]schedule.Schedule, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := make([]schedule.Schedule, 0)
	all := sortedValues(r.s.t.schedules, func(a, b schedule.Schedule) bool { return a.StartDate.After(b.StartDate) })
	for _, sc := range all {
		if filter.Status != nil && string(sc.Status) != *filter.Status {
			continue
		}
		matched = append(matched, r.withCount(sc))
	}
	return paginate(matched, filter.Page, filter.Limit), int64(len(matched)), nil
}

func (r *scheduleRepository) Publish(ctx context.Context, id string, at time.Time) (schedule.Schedule, error) {
	defer r.s.lockWrite(ctx)()
	sc, ok := r.s.t.schedules[id]
	if !ok {
		return schedule.Schedule{}, schedule.ErrScheduleNotFound
	}
	if sc.Status != schedule.StatusDraft {
		return schedule.Schedule{}, schedule.ErrScheduleAlreadyPublished
	}
	published := at
	sc.Status = schedule.StatusPublished
	sc.PublishedAt = &published
	sc.UpdatedAt = r.s.now()
	r.s.t.schedules[id] = sc
	return r.withCount(sc), nil
}

func (r *scheduleRepository) Delete(ctx context.Context, id string) error {
	defer r.s.lockWrite(ctx)()
	if _, ok := r.s.t.schedules[id]; !ok {
		return schedule.ErrScheduleNotFound
	}
	for shiftID, sh := range r.s.t.shifts {
		if sh.ScheduleID == id {
			delete(r.s.t.shifts, shiftID)
		}
	}
	delete(r.s.t.schedules, id)
	return nil
}

// =============================================================================
// SHIFTS
// =============================================================================

type shiftRepository struct {
	s *Store
}

func NewShiftRepository(s *Store) schedule.ShiftRepository {
	return &shiftRepository{s: s}
}

func (r *shiftRepository) joined(sh schedule.Shift) schedule.Shift {
	sh.EmployeeName = r.s.employeeName(sh.EmployeeID)
	sh.ScheduleStatus = nil
	if sc, ok := r.s.t.schedules[sh.ScheduleID]; ok {
		status := sc.Status
		sh.ScheduleStatus = &status
	}
	return sh
}

func (r *shiftRepository) Create(ctx context.Context, sh schedule.Shift) (schedule.Shift, error) {
	defer r.s.lockWrite(ctx)()
	if _, ok := r.s.t.schedules[sh.ScheduleID]; !ok {
		return schedule.Shift{}, schedule.ErrScheduleNotFound
	}
	now := r.s.now()
	sh.ID = uuid.NewString()
	sh.CreatedAt = now
	sh.UpdatedAt = now
	sh.EmployeeName = nil
	sh.ScheduleStatus = nil
	r.s.t.shifts[sh.ID] = sh
	return r.joined(sh), nil
}

func (r *shiftRepository) GetByID(ctx context.Context, id string) (schedule.Shift, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sh, ok := r.s.t.shifts[id]
	if !ok {
		return schedule.Shift{}, schedule.ErrShiftNotFound
	}
	return r.joined(sh), nil
}

func (r *shiftRepository) Update(ctx context.Context, sh schedule.Shift) error {
	defer r.s.lockWrite(ctx)()
	existing, ok := r.s.t.shifts[sh.ID]
	if !ok {
		return schedule.ErrShiftNotFound
	}
	sh.CreatedAt = existing.CreatedAt
	sh.UpdatedAt = r.s.now()
	sh.EmployeeName = nil
	sh.ScheduleStatus = nil
	r.s.t.shifts[sh.ID] = sh
	return nil
}

func (r *shiftRepository) Delete(ctx context.Context, id string) error {
	defer r.s.lockWrite(ctx)()
	if _, ok := r.s.t.shifts[id]; !ok {
		return schedule.ErrShiftNotFound
	}
	delete(r.s.t.shifts, id)
	return nil
}

func chronological(a, b schedule.Shift) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.StartTime < b.StartTime
}

func (r *shiftRepository) collect(keep func(schedule.Shift) bool) []schedule.Shift {
	out := make([]schedule.Shift, 0)
	for _, sh := range sortedValues(r.s.t.shifts, chronological) {
		if keep(sh) {
			out = append(out, r.joined(sh))
		}
	}
	return out
}

func (r *shiftRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]schedule.Shift, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(sh schedule.Shift) bool { return sh.ScheduleID == scheduleID }), nil
}

func (r *shiftRepository) ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]schedule.Shift, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(sh schedule.Shift) bool {
		return sh.EmployeeID == employeeID && clock.Within(sh.Date, from, to)
	}), nil
}

func (r *shiftRepository) ListBetween(ctx context.Context, from, to time.Time) ([]schedule.Shift, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(sh schedule.Shift) bool { return clock.Within(sh.Date, from, to) }), nil
}

func (r *shiftRepository) DeleteByEmployeeBetween(ctx context.Context, employeeID string, from time.Time, to *time.Time) (int64, error) {
	defer r.s.lockWrite(ctx)()
	var removed int64
	for id, sh := range r.s.t.shifts {
		if sh.EmployeeID != employeeID || sh.Date.Before(from) {
			continue
		}
		if to != nil && sh.Date.After(*to) {
			continue
		}
		delete(r.s.t.shifts, id)
		removed++
	}
	return removed, nil
}
