package employee

import (
	"time"
)

// Employee is a staff member whose worked time is reconciled into payroll.
// Email is the identity reference used by time-clock imports and is stored
// normalized (trimmed, case folded).
type Employee struct {
	ID         string
	FullName   string
	Email      string
	PositionID *string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Joined fields
	PositionName *string
}
