package employee

import "github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/apperr"

var (
	ErrEmployeeNotFound        = apperr.NotFound("EMPLOYEE_NOT_FOUND", "employee not found")
	ErrEmailExists             = apperr.Conflict("EMPLOYEE_EMAIL_EXISTS", "email already registered")
	ErrEmployeeInactive        = apperr.State("EMPLOYEE_INACTIVE", "employee is inactive")
	ErrEmployeeAlreadyInactive = apperr.State("EMPLOYEE_ALREADY_INACTIVE", "employee is already inactive")
)
