package workblock

import (
	"context"
	"time"
)

type WorkBlockRepository interface {
	Create(ctx context.Context, b WorkBlock) (WorkBlock, error)
	GetByID(ctx context.Context, id string) (WorkBlock, error)
	Update(ctx context.Context, b WorkBlock) error
	Delete(ctx context.Context, id string) error

	// ListByEmployeeDate returns the day's blocks ordered by start time.
	ListByEmployeeDate(ctx context.Context, employeeID string, date time.Time) ([]WorkBlock, error)

	// ListByEmployeeBetween returns blocks with from <= date <= to in
	// chronological order.
	ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]WorkBlock, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]WorkBlock, error)
	List(ctx context.Context, filter WorkBlockFilter) ([]WorkBlock, int64, error)
}
