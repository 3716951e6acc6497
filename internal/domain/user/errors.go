package user

import "github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/apperr"

var (
	ErrUserNotFound    = apperr.NotFound("USER_NOT_FOUND", "user not found")
	ErrUserEmailExists = apperr.Conflict("USER_EMAIL_EXISTS", "email already registered")
)
