package memory

import (
	"context"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/master/position"
	"github.com/google/uuid"
)

type positionRepository struct {
	s *Store
}

func NewPositionRepository(s *Store) position.PositionRepository {
	return &positionRepository{s: s}
}

func (r *positionRepository) nameTaken(name, exceptID string) bool {
	for _, p := range r.s.t.positions {
		if p.Name == name && p.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *positionRepository) Create(ctx context.Context, p position.Position) (position.Position, error) {
	defer r.s.lockWrite(ctx)()
	if r.nameTaken(p.Name, "") {
		return position.Position{}, position.ErrPositionNameExists
	}
	now := r.s.now()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.s.t.positions[p.ID] = p
	return p, nil
}

func (r *positionRepository) GetByID(ctx context.Context, id string) (position.Position, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.t.positions[id]
	if !ok {
		return position.Position{}, position.ErrPositionNotFound
	}
	return p, nil
}

func (r *positionRepository) List(ctx context.Context) ([]position.Position, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return sortedValues(r.s.t.positions, func(a, b position.Position) bool { return a.Name < b.Name }), nil
}

func (r *positionRepository) Update(ctx context.Context, p position.Position) error {
	defer r.s.lockWrite(ctx)()
	existing, ok := r.s.t.positions[p.ID]
	if !ok {
		return position.ErrPositionNotFound
	}
	if r.nameTaken(p.Name, p.ID) {
		return position.ErrPositionNameExists
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = r.s.now()
	r.s.t.positions[p.ID] = p
	return nil
}

func (r *positionRepository) Delete(ctx context.Context, id string) error {
	defer r.s.lockWrite(ctx)()
	if _, ok := r.s.t.positions[id]; !ok {
		return position.ErrPositionNotFound
	}
	for _, e := range r.s.t.employees {
		if e.PositionID != nil && *e.PositionID == id {
			return position.ErrPositionInUse
		}
	}
	delete(r.s.t.positions, id)
	return nil
}
