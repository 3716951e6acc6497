package absence

import "github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/apperr"

var (
	ErrAbsenceNotFound        = apperr.NotFound("ABSENCE_NOT_FOUND", "absence request not found")
	ErrAbsenceAlreadyReviewed = apperr.State("ABSENCE_ALREADY_REVIEWED", "absence request has already been approved or rejected")
	ErrAbsenceOverlaps        = apperr.Conflict("ABSENCE_OVERLAPS", "an open or approved absence already covers part of this range")
)
