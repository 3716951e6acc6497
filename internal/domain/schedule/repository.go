package schedule

import (
	"context"
	"time"
)

type ScheduleRepository interface {
	Create(ctx context.Context, s Schedule) (Schedule, error)
	GetByID(ctx context.Context, id string) (Schedule, error)
	List(ctx context.Context, filter ScheduleFilter) ([]Schedule, int64, error)

	// Publish moves a draft schedule to published. It returns
	// ErrScheduleAlreadyPublished when the schedule is not a draft.
	Publish(ctx context.Context, id string, at time.Time) (Schedule, error)

	// Delete removes the schedule together with its shifts.
	Delete(ctx context.Context, id string) error
}

type ShiftRepository interface {
	Create(ctx context.Context, s Shift) (Shift, error)
	GetByID(ctx context.Context, id string) (Shift, error)
	Update(ctx context.Context, s Shift) error
	Delete(ctx context.Context, id string) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]Shift, error)

	// ListByEmployeeBetween returns shifts of every schedule, draft or
	// published, with from <= date <= to in chronological order.
	ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]Shift, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]Shift, error)

	// DeleteByEmployeeBetween removes shifts with from <= date <= to. A nil to
	// leaves the range open ended.
	DeleteByEmployeeBetween(ctx context.Context, employeeID string, from time.Time, to *time.Time) (int64, error)
}
