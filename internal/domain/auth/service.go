package auth

import (
	"context"
)

type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)

	// EnsureAdmin creates the bootstrap administrator when no user holds email.
	EnsureAdmin(ctx context.Context, email, password string) error
}
