package absence

import (
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
)

type AbsenceStatus string

const (
	StatusRequested AbsenceStatus = "requested"
	StatusApproved  AbsenceStatus = "approved"
	StatusRejected  AbsenceStatus = "rejected"
)

func (s AbsenceStatus) IsValid() bool {
	switch s {
	case StatusRequested, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// AbsencePeriod is a span of days an employee is away. Only approved periods
// block shift assignment.
type AbsencePeriod struct {
	ID          string
	EmployeeID  string
	StartDate   time.Time
	EndDate     time.Time
	Status      AbsenceStatus
	Reason      string
	ReviewedBy  *string
	ReviewedAt  *time.Time
	ReviewNotes *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Joined fields
	EmployeeName *string
}

// Covers reports whether date falls inside the period, both ends inclusive.
func (a AbsencePeriod) Covers(date time.Time) bool {
	return clock.Within(clock.DateOf(date), a.StartDate, a.EndDate)
}
