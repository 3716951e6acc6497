package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypePayrollValidated  NotificationType = "payroll_validated"
	TypeShiftAssigned     NotificationType = "shift_assigned"
	TypeSchedulePublished NotificationType = "schedule_published"
	TypeAbsenceApproved   NotificationType = "absence_approved"
	TypeAbsenceRejected   NotificationType = "absence_rejected"
)

// Notification is addressed to an employee.
type Notification struct {
	ID          string
	RecipientID string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}

// EventName identifies an outbound domain event.
type EventName string

const (
	EventPayrollValidated                EventName = "PayrollValidated"
	EventShiftCreatedOnPublishedSchedule EventName = "ShiftCreatedOnPublishedSchedule"
	EventSchedulePublished               EventName = "SchedulePublished"
	EventAbsenceApproved                 EventName = "AbsenceApproved"
	EventAbsenceRejected                 EventName = "AbsenceRejected"
)

// Event is emitted by the core after a state change commits. Consumers turn
// it into notifications; the core never waits on them.
type Event struct {
	Name       EventName
	EmployeeID string
	OccurredAt time.Time
	Data       map[string]interface{}
}
