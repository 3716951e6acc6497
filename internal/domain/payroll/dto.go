package payroll

import (
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/master/position"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== REQUEST DTOs ==========

type CalculateRequest struct {
	EmployeeID string `json:"employee_id"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
}

func (r *CalculateRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	errs = validatePeriod(r.Year, r.Month, errs)

	return errs.OrNil()
}

type GenerateBatchRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`

	// EmployeeIDs limits the batch; empty means every active employee.
	EmployeeIDs []string `json:"employee_ids,omitempty"`
}

func (r *GenerateBatchRequest) Validate() error {
	return validatePeriod(r.Year, r.Month, nil).OrNil()
}

func validatePeriod(year, month int, errs validator.ValidationErrors) validator.ValidationErrors {
	if month < 1 || month > 12 {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "month must be between 1 and 12"})
	}
	if !clock.ValidPeriod(year, 1) {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "year must be between 2000 and 9999"})
	}
	return errs
}

type UpdateNotesRequest struct {
	ID    string  `json:"-"`
	Notes *string `json:"notes"`
}

func (r *UpdateNotesRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Notes != nil && len(*r.Notes) > 2000 {
		errs = append(errs, validator.ValidationError{Field: "notes", Message: "notes must not exceed 2000 characters"})
	}
	return errs.OrNil()
}

type PayrollFilter struct {
	Year       *int    `json:"year,omitempty"`
	Month      *int    `json:"month,omitempty"`
	Status     *string `json:"status,omitempty"`
	EmployeeID *string `json:"employee_id,omitempty"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
}

func (f *PayrollFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Month != nil && (*f.Month < 1 || *f.Month > 12) {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "month must be between 1 and 12"})
	}
	if f.Status != nil && !PayrollStatus(*f.Status).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "status must be one of: draft, validated"})
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must not exceed 100"})
	}

	return errs.OrNil()
}

// ========== RESPONSE DTOs ==========

type ScheduledRecordResponse struct {
	ShiftID    string          `json:"shift_id"`
	ScheduleID string          `json:"schedule_id"`
	Date       string          `json:"date"`
	StartTime  clock.TimeOfDay `json:"start_time"`
	EndTime    clock.TimeOfDay `json:"end_time"`
	Hours      decimal.Decimal `json:"hours"`
}

func ToScheduledRecordResponses(records []ScheduledRecord) []ScheduledRecordResponse {
	out := make([]ScheduledRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, ScheduledRecordResponse{
			ShiftID:    r.ShiftID,
			ScheduleID: r.ScheduleID,
			Date:       clock.FormatDate(r.Date),
			StartTime:  r.StartTime,
			EndTime:    r.EndTime,
			Hours:      workblock.MinutesToHours(r.Minutes),
		})
	}
	return out
}

type CalculationResponse struct {
	EmployeeID       string                          `json:"employee_id"`
	EmployeeName     string                          `json:"employee_name"`
	Year             int                             `json:"year"`
	Month            int                             `json:"month"`
	PeriodStart      string                          `json:"period_start"`
	PeriodEnd        string                          `json:"period_end"`
	HoursWorked      decimal.Decimal                 `json:"hours_worked"`
	ScheduledHours   decimal.Decimal                 `json:"scheduled_hours"`
	HoursDifference  decimal.Decimal                 `json:"hours_difference"`
	HourlyRate       decimal.Decimal                 `json:"hourly_rate"`
	GrossSalary      decimal.Decimal                 `json:"gross_salary"`
	Breakdown        Breakdown                       `json:"breakdown"`
	RatePolicy       position.RatePolicy             `json:"rate_policy"`
	DailyRecords     []workblock.DailyRecordResponse `json:"daily_records"`
	ScheduledRecords []ScheduledRecordResponse       `json:"scheduled_records"`
}

func ToCalculationResponse(c Calculation) CalculationResponse {
	return CalculationResponse{
		EmployeeID:       c.EmployeeID,
		EmployeeName:     c.EmployeeName,
		Year:             c.Year,
		Month:            c.Month,
		PeriodStart:      clock.FormatDate(c.PeriodStart),
		PeriodEnd:        clock.FormatDate(c.PeriodEnd),
		HoursWorked:      c.HoursWorked,
		ScheduledHours:   c.ScheduledHours,
		HoursDifference:  c.HoursDifference,
		HourlyRate:       c.HourlyRate,
		GrossSalary:      c.GrossSalary,
		Breakdown:        c.Breakdown,
		RatePolicy:       c.RatePolicy,
		DailyRecords:     workblock.ToDailyRecordResponses(c.DailyRecords),
		ScheduledRecords: ToScheduledRecordResponses(c.ScheduledRecords),
	}
}

type PayrollResponse struct {
	ID                  string              `json:"id"`
	EmployeeID          string              `json:"employee_id"`
	EmployeeName        *string             `json:"employee_name,omitempty"`
	Year                int                 `json:"year"`
	Month               int                 `json:"month"`
	Status              string              `json:"status"`
	HoursWorked         decimal.Decimal     `json:"hours_worked"`
	ScheduledHours      decimal.Decimal     `json:"scheduled_hours"`
	HoursDifference     decimal.Decimal     `json:"hours_difference"`
	HourlyRate          decimal.Decimal     `json:"hourly_rate"`
	GrossSalary         decimal.Decimal     `json:"gross_salary"`
	Breakdown           Breakdown           `json:"breakdown"`
	RatePolicy          position.RatePolicy `json:"rate_policy"`
	Notes               *string             `json:"notes,omitempty"`
	ValidatedAt         *time.Time          `json:"validated_at,omitempty"`
	ValidatedBy         *string             `json:"validated_by,omitempty"`
	EmployeeValidatedAt *time.Time          `json:"employee_validated_at,omitempty"`
	EmployeeValidatedBy *string             `json:"employee_validated_by,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

func ToResponse(p Payroll) PayrollResponse {
	return PayrollResponse{
		ID:                  p.ID,
		EmployeeID:          p.EmployeeID,
		EmployeeName:        p.EmployeeName,
		Year:                p.Year,
		Month:               p.Month,
		Status:              string(p.Status),
		HoursWorked:         p.HoursWorked,
		ScheduledHours:      p.ScheduledHours,
		HoursDifference:     p.HoursDifference,
		HourlyRate:          p.HourlyRate,
		GrossSalary:         p.GrossSalary,
		Breakdown:           p.Breakdown,
		RatePolicy:          p.RatePolicy,
		Notes:               p.Notes,
		ValidatedAt:         p.ValidatedAt,
		ValidatedBy:         p.ValidatedBy,
		EmployeeValidatedAt: p.EmployeeValidatedAt,
		EmployeeValidatedBy: p.EmployeeValidatedBy,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

// PayrollDetailResponse pairs the stored snapshot with the live daily and
// scheduled records of its period.
type PayrollDetailResponse struct {
	PayrollResponse
	DailyRecords     []workblock.DailyRecordResponse `json:"daily_records"`
	ScheduledRecords []ScheduledRecordResponse       `json:"scheduled_records"`
}

type ListPayrollResponse struct {
	Data       []PayrollResponse `json:"data"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
}

type BatchError struct {
	EmployeeID string `json:"employee_id"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

type GenerateBatchResponse struct {
	Generated []PayrollResponse `json:"generated"`
	Skipped   []string          `json:"skipped"`
	Errors    []BatchError      `json:"errors"`
}
