package schedule

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type ScheduleService interface {
	// Schedules
	CreateSchedule(ctx context.Context, req CreateScheduleRequest) (ScheduleResponse, error)
	GetSchedule(ctx context.Context, id string) (ScheduleResponse, error)
	ListSchedules(ctx context.Context, filter ScheduleFilter) (ListScheduleResponse, error)
	PublishSchedule(ctx context.Context, id string) (ScheduleResponse, error)
	DeleteSchedule(ctx context.Context, id string) error

	// Shifts
	CreateShift(ctx context.Context, req CreateShiftRequest) (ShiftResponse, error)
	UpdateShift(ctx context.Context, req UpdateShiftRequest) (ShiftResponse, error)
	DeleteShift(ctx context.Context, id string) error
	ListScheduleShifts(ctx context.Context, scheduleID string) ([]ShiftResponse, error)
	ListEmployeeShifts(ctx context.Context, employeeID string, filter ShiftFilter) ([]ShiftResponse, error)
	ListMyShifts(ctx context.Context, filter ShiftFilter) ([]ShiftResponse, error)

	// ScheduledHours sums the hours of every shift of the employee in
	// [from, to], whatever the schedule status.
	ScheduledHours(ctx context.Context, employeeID string, from, to time.Time) (decimal.Decimal, []Shift, error)
}
