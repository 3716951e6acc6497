package memory

import (
	"context"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/user"
	"github.com/google/uuid"
)

type userRepository struct {
	s *Store
}

func NewUserRepository(s *Store) user.UserRepository {
	return &userRepository{s: s}
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.t.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (r *userRepository) GetByID(ctx context.Context, id string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.t.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, newUser user.User) (user.User, error) {
	defer r.s.lockWrite(ctx)()
	for _, u := range r.s.t.users {
		if u.Email == newUser.Email {
			return user.User{}, user.ErrUserEmailExists
		}
	}
	now := r.s.now()
	newUser.ID = uuid.NewString()
	newUser.CreatedAt = now
	newUser.UpdatedAt = now
	r.s.t.users[newUser.ID] = newUser
	return newUser, nil
}
