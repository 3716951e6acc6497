package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/google/uuid"
)

type workBlockRepository struct {
	s *Store
}

func NewWorkBlockRepository(s *Store) workblock.WorkBlockRepository {
	return &workBlockRepository{s: s}
}

func (r *workBlockRepository) Create(ctx context.Context, b workblock.WorkBlock) (workblock.WorkBlock, error) {
	defer r.s.lockWrite(ctx)()
	// Same guard as the exclusion constraint in postgres.
	for _, existing := range r.s.t.blocks {
		if existing.EmployeeID == b.EmployeeID && existing.Date.Equal(b.Date) && existing.Overlaps(b) {
			return workblock.WorkBlock{}, workblock.ErrBlockOverlap
		}
	}
	now := r.s.now()
	b.ID = uuid.NewString()
	b.CreatedAt = now
	b.UpdatedAt = now
	r.s.t.blocks[b.ID] = b
	return b, nil
}

func (r *workBlockRepository) GetByID(ctx context.Context, id string) (workblock.WorkBlock, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.t.blocks[id]
	if !ok {
		return workblock.WorkBlock{}, workblock.ErrWorkBlockNotFound
	}
	return b, nil
}

func (r *workBlockRepository) Update(ctx context.Context, b workblock.WorkBlock) error {
	defer r.s.lockWrite(ctx)()
	existing, ok := r.s.t.blocks[b.ID]
	if !ok {
		return workblock.ErrWorkBlockNotFound
	}
	for _, other := range r.s.t.blocks {
		if other.ID != b.ID && other.EmployeeID == b.EmployeeID && other.Date.Equal(b.Date) && other.Overlaps(b) {
			return workblock.ErrBlockOverlap
		}
	}
	b.CreatedAt = existing.CreatedAt
	b.UpdatedAt = r.s.now()
	r.s.t.blocks[b.ID] = b
	return nil
}

func (r *workBlockRepository) Delete(ctx context.Context, id string) error {
	defer r.s.lockWrite(ctx)()
	if _, ok := r.s.t.blocks[id]; !ok {
		return workblock.ErrWorkBlockNotFound
	}
	delete(r.s.t.blocks, id)
	return nil
}

func (r *workBlockRepository) collect(keep func(workblock.WorkBlock) bool) []workblock.WorkBlock {
	out := make([]workblock.WorkBlock, 0)
	for _, b := range r.s.t.blocks {
		if keep(b) {
			out = append(out, b)
		}
	}
	workblock.SortChronologically(out)
	return out
}

func (r *workBlockRepository) ListByEmployeeDate(ctx context.Context, employeeID string, date time.Time) ([]workblock.WorkBlock, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(b workblock.WorkBlock) bool {
		return b.EmployeeID == employeeID && b.Date.Equal(date)
	}), nil
}

func (r *workBlockRepository) ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]workblock.WorkBlock, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(b workblock.WorkBlock) bool {
		return b.EmployeeID == employeeID && clock.Within(b.Date, from, to)
	}), nil
}

func (r *workBlockRepository) ListBetween(ctx context.Context, from, to time.Time) ([]workblock.WorkBlock, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(b workblock.WorkBlock) bool {
		return clock.Within(b.Date, from, to)
	}), nil
}

func (r *workBlockRepository) List(ctx context.Context, filter workblock.WorkBlockFilter) ([]workblock.WorkBlock, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := r.collect(func(b workblock.WorkBlock) bool {
		if filter.EmployeeID != nil && b.EmployeeID != *filter.EmployeeID {
			return false
		}
		if filter.From != nil && b.Date.Before(*filter.From) {
			return false
		}
		if filter.To != nil && b.Date.After(*filter.To) {
			return false
		}
		return true
	})
	return paginate(matched, filter.Page, filter.Limit), int64(len(matched)), nil
}
