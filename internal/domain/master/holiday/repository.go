package holiday

import (
	"context"
	"time"
)

type HolidayRepository interface {
	Create(ctx context.Context, h Holiday) (Holiday, error)
	GetByID(ctx context.Context, id string) (Holiday, error)
	Delete(ctx context.Context, id string) error

	// ListBetween returns holidays with from <= date <= to, ordered by date.
	ListBetween(ctx context.Context, from, to time.Time) ([]Holiday, error)
}
