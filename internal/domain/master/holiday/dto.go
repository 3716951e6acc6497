package holiday

import (
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/validator"
)

type CreateHolidayRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Name string `json:"name" validate:"required,max=150"`
	Type string `json:"type" validate:"required,oneof=national local special_event"`
}

func (r *CreateHolidayRequest) Validate() error {
	return validator.Struct(r).OrNil()
}

type HolidayFilter struct {
	Year *int `json:"year,omitempty"`
}

type HolidayResponse struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

func ToResponse(h Holiday) HolidayResponse {
	return HolidayResponse{
		ID:        h.ID,
		Date:      clock.FormatDate(h.Date),
		Name:      h.Name,
		Type:      string(h.Type),
		CreatedAt: h.CreatedAt,
	}
}

// Set indexes holidays by calendar date for classification.
type Set map[string]Holiday

func NewSet(holidays []Holiday) Set {
	s := make(Set, len(holidays))
	for _, h := range holidays {
		s[clock.FormatDate(h.Date)] = h
	}
	return s
}

func (s Set) Contains(date time.Time) bool {
	_, ok := s[clock.FormatDate(date)]
	return ok
}
