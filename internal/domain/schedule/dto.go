package schedule

import (
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== SCHEDULE DTOs ==========

type CreateScheduleRequest struct {
	Name      string `json:"name" validate:"required,max=150"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// Validate checks the request and returns the parsed range.
func (r *CreateScheduleRequest) Validate() (time.Time, time.Time, error) {
	if errs := validator.Struct(r); len(errs) > 0 {
		return time.Time{}, time.Time{}, errs
	}
	start, _ := clock.ParseDate(r.StartDate)
	end, _ := clock.ParseDate(r.EndDate)
	if end.Before(start) {
		return time.Time{}, time.Time{}, validator.ValidationErrors{{Field: "end_date", Message: "end_date must not be before start_date"}}
	}
	return start, end, nil
}

type ScheduleFilter struct {
	Status *string `json:"status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *ScheduleFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Status != nil && !ScheduleStatus(*f.Status).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: draft, published",
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

type ScheduleResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	Status      string     `json:"status"`
	CreatedBy   string     `json:"created_by"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	ShiftCount  int        `json:"shift_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func ToScheduleResponse(s Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID:          s.ID,
		Name:        s.Name,
		StartDate:   clock.FormatDate(s.StartDate),
		EndDate:     clock.FormatDate(s.EndDate),
		Status:      string(s.Status),
		CreatedBy:   s.CreatedBy,
		PublishedAt: s.PublishedAt,
		ShiftCount:  s.ShiftCount,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

type ListScheduleResponse struct {
	Data       []ScheduleResponse `json:"data"`
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
}

// ========== SHIFT DTOs ==========

type CreateShiftRequest struct {
	ScheduleID string `json:"schedule_id"`
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

// ParsedShift is a shift request after field validation.
type ParsedShift struct {
	Date      time.Time
	StartTime clock.TimeOfDay
	EndTime   clock.TimeOfDay
}

func (r *CreateShiftRequest) Validate() (ParsedShift, error) {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ScheduleID) {
		errs = append(errs, validator.ValidationError{Field: "schedule_id", Message: "schedule_id is required"})
	}
	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	parsed, errs := parseShiftFields(r.Date, r.StartTime, r.EndTime, errs)
	if len(errs) > 0 {
		return ParsedShift{}, errs
	}
	return parsed, nil
}

type UpdateShiftRequest struct {
	ID        string `json:"-"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (r *UpdateShiftRequest) Validate() (ParsedShift, error) {
	parsed, errs := parseShiftFields(r.Date, r.StartTime, r.EndTime, nil)
	if len(errs) > 0 {
		return ParsedShift{}, errs
	}
	return parsed, nil
}

func parseShiftFields(date, start, end string, errs validator.ValidationErrors) (ParsedShift, validator.ValidationErrors) {
	var p ParsedShift
	var err error
	if p.Date, err = clock.ParseDate(date); err != nil {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be in YYYY-MM-DD format"})
	}
	if p.StartTime, err = clock.ParseTimeOfDay(start); err != nil {
		errs = append(errs, validator.ValidationError{Field: "start_time", Message: "start_time must be in HH:MM format"})
	}
	if p.EndTime, err = clock.ParseEndOfDay(end); err != nil {
		errs = append(errs, validator.ValidationError{Field: "end_time", Message: "end_time must be in HH:MM format"})
	}
	return p, errs
}

type ShiftFilter struct {
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
}

// Range resolves the filter, defaulting to the current month of today.
func (f ShiftFilter) Range(today time.Time) (time.Time, time.Time, error) {
	from, to := clock.MonthBounds(today.Year(), int(today.Month()))
	var errs validator.ValidationErrors
	if f.StartDate != nil {
		d, err := clock.ParseDate(*f.StartDate)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date must be in YYYY-MM-DD format"})
		}
		from = d
	}
	if f.EndDate != nil {
		d, err := clock.ParseDate(*f.EndDate)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be in YYYY-MM-DD format"})
		}
		to = d
	}
	if len(errs) == 0 && to.Before(from) {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must not be before start_date"})
	}
	if len(errs) > 0 {
		return time.Time{}, time.Time{}, errs
	}
	return from, to, nil
}

type ShiftResponse struct {
	ID             string          `json:"id"`
	ScheduleID     string          `json:"schedule_id"`
	ScheduleStatus *string         `json:"schedule_status,omitempty"`
	EmployeeID     string          `json:"employee_id"`
	EmployeeName   *string         `json:"employee_name,omitempty"`
	Date           string          `json:"date"`
	StartTime      clock.TimeOfDay `json:"start_time"`
	EndTime        clock.TimeOfDay `json:"end_time"`
	Hours          decimal.Decimal `json:"hours"`
}

func ToShiftResponse(s Shift) ShiftResponse {
	resp := ShiftResponse{
		ID:           s.ID,
		ScheduleID:   s.ScheduleID,
		EmployeeID:   s.EmployeeID,
		EmployeeName: s.EmployeeName,
		Date:         clock.FormatDate(s.Date),
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
		Hours:        s.Hours(),
	}
	if s.ScheduleStatus != nil {
		status := string(*s.ScheduleStatus)
		resp.ScheduleStatus = &status
	}
	return resp
}

func ToShiftResponses(shifts []Shift) []ShiftResponse {
	out := make([]ShiftResponse, 0, len(shifts))
	for _, s := range shifts {
		out = append(out, ToShiftResponse(s))
	}
	return out
}
