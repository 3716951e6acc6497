package holiday

import "github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/apperr"

var (
	ErrHolidayNotFound   = apperr.NotFound("HOLIDAY_NOT_FOUND", "holiday not found")
	ErrHolidayDateExists = apperr.Conflict("HOLIDAY_DATE_EXISTS", "a holiday already exists on this date")
)

var ErrInvalidYear = apperr.Validation("INVALID_YEAR", "year must be between 2000 and 9999")
