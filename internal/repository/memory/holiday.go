package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/master/holiday"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/google/uuid"
)

type holidayRepository struct {
	s *Store
}

func NewHolidayRepository(s *Store) holiday.HolidayRepository {
	return &holidayRepository{s: s}
}

func (r *holidayRepository) Create(ctx context.Context, h holiday.Holiday) (holiday.Holiday, error) {
	defer r.s.lockWrite(ctx)()
	for _, existing := range r.s.t.holidays {
		if existing.Date.Equal(h.Date) {
			return holiday.Holiday{}, holiday.ErrHolidayDateExists
		}
	}
	h.ID = uuid.NewString()
	h.CreatedAt = r.s.now()
	r.s.t.holidays[h.ID] = h
	return h, nil
}

func (r *holidayRepository) GetByID(ctx context.Context, id string) (holiday.Holiday, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	h, ok := r.s.t.holidays[id]
	if !ok {
		return holiday.Holiday{}, holiday.ErrHolidayNotFound
	}
	return h, nil
}

func (r *holidayRepository) Delete(ctx context.Context, id string) error {
	defer r.s.lockWrite(ctx)()
	if _, ok := r.s.t.holidays[id]; !ok {
		return holiday.ErrHolidayNotFound
	}
	delete(r.s.t.holidays, id)
	return nil
}

func (r *holidayRepository) ListBetween(ctx context.Context, from, to time.Time) ([]holiday.Holiday, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := sortedValues(r.s.t.holidays, func(a, b holiday.Holiday) bool { return a.Date.Before(b.Date) })
	out := make([]holiday.Holiday, 0)
	for _, h := range all {
		if clock.Within(h.Date, from, to) {
			out = append(out, h)
		}
	}
	return out, nil
}
