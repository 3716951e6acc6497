package schedule

import (
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/shopspring/decimal"
)

type ScheduleStatus string

const (
	StatusDraft     ScheduleStatus = "draft"
	StatusPublished ScheduleStatus = "published"
)

func (s ScheduleStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished:
		return true
	default:
		return false
	}
}

// Schedule is a planning window that owns shifts.
type Schedule struct {
	ID          string
	Name        string
	StartDate   time.Time
	EndDate     time.Time
	Status      ScheduleStatus
	CreatedBy   string
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Aggregates
	ShiftCount int
}

func (s Schedule) Contains(date time.Time) bool {
	return clock.Within(date, s.StartDate, s.EndDate)
}

// Shift is planned work for one employee on one date.
type Shift struct {
	ID         string
	ScheduleID string
	EmployeeID string
	Date       time.Time
	StartTime  clock.TimeOfDay
	EndTime    clock.TimeOfDay
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Joined fields
	EmployeeName   *string
	ScheduleStatus *ScheduleStatus
}

func (s Shift) Minutes() int64 {
	return int64(s.EndTime - s.StartTime)
}

func (s Shift) Hours() decimal.Decimal {
	return workblock.MinutesToHours(s.Minutes())
}

func (s Shift) Overlaps(o Shift) bool {
	return s.Date.Equal(o.Date) && workblock.Overlaps(s.StartTime, s.EndTime, o.StartTime, o.EndTime)
}

// TotalMinutes folds shift durations.
func TotalMinutes(shifts []Shift) int64 {
	var total int64
	for _, s := range shifts {
		total += s.Minutes()
	}
	return total
}

// EmployeeShiftsLockKey names the advisory lock serializing shift writes and
// absence approvals of one employee.
func EmployeeShiftsLockKey(employeeID string) string {
	return "employee-shifts:" + employeeID
}
