package absence

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/validator"
)

const MinReasonLength = 10

type CreateAbsenceRequest struct {
	EmployeeID string `json:"-"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Reason     string `json:"reason"`
}

// Validate checks the request and returns the parsed range.
func (r *CreateAbsenceRequest) Validate() (time.Time, time.Time, error) {
	var errs validator.ValidationErrors

	start, err := clock.ParseDate(r.StartDate)
	if err != nil {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date must be in YYYY-MM-DD format"})
	}
	end, err := clock.ParseDate(r.EndDate)
	if err != nil {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be in YYYY-MM-DD format"})
	}
	if len(errs) == 0 && end.Before(start) {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must not be before start_date"})
	}
	if len([]rune(strings.TrimSpace(r.Reason))) < MinReasonLength {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "reason must be at least 10 characters"})
	}

	if len(errs) > 0 {
		return time.Time{}, time.Time{}, errs
	}
	return start, end, nil
}

type ReviewAbsenceRequest struct {
	ID          string  `json:"-"`
	ReviewerID  string  `json:"-"`
	ReviewNotes *string `json:"review_notes,omitempty"`
}

type AbsenceFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Status     *string `json:"status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *AbsenceFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Status != nil && !AbsenceStatus(*f.Status).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: requested, approved, rejected",
		})
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	return errs.OrNil()
}

type AbsenceResponse struct {
	ID            string     `json:"id"`
	EmployeeID    string     `json:"employee_id"`
	EmployeeName  *string    `json:"employee_name,omitempty"`
	StartDate     string     `json:"start_date"`
	EndDate       string     `json:"end_date"`
	Status        string     `json:"status"`
	Reason        string     `json:"reason"`
	ReviewedBy    *string    `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	ReviewNotes   *string    `json:"review_notes,omitempty"`
	ShiftsRemoved *int64     `json:"shifts_removed,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func ToResponse(a AbsencePeriod) AbsenceResponse {
	return AbsenceResponse{
		ID:           a.ID,
		EmployeeID:   a.EmployeeID,
		EmployeeName: a.EmployeeName,
		StartDate:    clock.FormatDate(a.StartDate),
		EndDate:      clock.FormatDate(a.EndDate),
		Status:       string(a.Status),
		Reason:       a.Reason,
		ReviewedBy:   a.ReviewedBy,
		ReviewedAt:   a.ReviewedAt,
		ReviewNotes:  a.ReviewNotes,
		CreatedAt:    a.CreatedAt,
	}
}

type ListAbsenceResponse struct {
	Data       []AbsenceResponse `json:"data"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
}
