package payroll

import "github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/apperr"

var (
	ErrPayrollNotFound        = apperr.NotFound("PAYROLL_NOT_FOUND", "payroll not found")
	ErrPayrollAlreadyExists   = apperr.Conflict("PAYROLL_ALREADY_EXISTS", "payroll already exists for this employee and period")
	ErrPayrollLocked          = apperr.Conflict("PAYROLL_LOCKED", "payroll is validated and can no longer change")
	ErrPayrollNotValidated    = apperr.State("PAYROLL_NOT_VALIDATED", "payroll must be validated before it can be accepted")
	ErrPayrollAlreadyAccepted = apperr.State("PAYROLL_ALREADY_ACCEPTED", "payroll has already been accepted")
	ErrInvalidPeriod          = apperr.Validation("INVALID_PERIOD", "invalid payroll period")
	ErrUnknownStatus          = apperr.State("UNKNOWN_PAYROLL_STATUS", "unknown payroll status")
)
