package absence

import (
	"context"
	"time"
)

type AbsenceRepository interface {
	Create(ctx context.Context, a AbsencePeriod) (AbsencePeriod, error)
	GetByID(ctx context.Context, id string) (AbsencePeriod, error)
	List(ctx context.Context, filter AbsenceFilter) ([]AbsencePeriod, int64, error)

	// ListApproved returns the approved periods of an employee.
	ListApproved(ctx context.Context, employeeID string) ([]AbsencePeriod, error)

	// HasOverlapping reports a requested or approved period of the employee
	// intersecting [from, to].
	HasOverlapping(ctx context.Context, employeeID string, from, to time.Time) (bool, error)

	// Review moves a requested period to status. It returns
	// ErrAbsenceAlreadyReviewed when the period is no longer requested.
	Review(ctx context.Context, req ReviewAbsenceRequest, status AbsenceStatus, reviewedAt time.Time) (AbsencePeriod, error)
}
