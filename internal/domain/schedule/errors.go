package schedule

import "github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/apperr"

var (
	ErrScheduleNotFound         = apperr.NotFound("SCHEDULE_NOT_FOUND", "schedule not found")
	ErrShiftNotFound            = apperr.NotFound("SHIFT_NOT_FOUND", "shift not found")
	ErrScheduleAlreadyPublished = apperr.State("SCHEDULE_ALREADY_PUBLISHED", "schedule is already published")
	ErrShiftOutsideSchedule     = apperr.Validation("SHIFT_OUTSIDE_SCHEDULE", "shift date is outside the schedule range")
	ErrInvalidShiftRange        = apperr.Validation("INVALID_SHIFT_RANGE", "shift start time must be before end time")
	ErrOnApprovedAbsence        = apperr.Conflict("ON_APPROVED_ABSENCE", "employee has an approved absence on this date")
	ErrShiftConflict            = apperr.Conflict("SHIFT_CONFLICT", "employee already has an overlapping shift on this date")
)
