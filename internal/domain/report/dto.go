package report

import (
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// PERIOD REQUEST
// ========================================

type PeriodRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (r *PeriodRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Month < 1 || r.Month > 12 {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}
	if r.Year < 2000 || r.Year > 9999 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year must be between 2000 and 9999",
		})
	}

	return errs.OrNil()
}

// ========================================
// EMPLOYEES STATUS
// ========================================

// EmployeeStatus is one row of the monthly reconciliation board.
type EmployeeStatus struct {
	EmployeeID         string           `json:"employee_id"`
	FullName           string           `json:"full_name"`
	Email              string           `json:"email"`
	PositionName       *string          `json:"position_name,omitempty"`
	HoursWorked        decimal.Decimal  `json:"hours_worked"`
	ScheduledHours     decimal.Decimal  `json:"scheduled_hours"`
	HoursDifference    decimal.Decimal  `json:"hours_difference"`
	HasPayroll         bool             `json:"has_payroll"`
	PayrollID          *string          `json:"payroll_id,omitempty"`
	PayrollStatus      *string          `json:"payroll_status,omitempty"`
	PayrollValidatedAt *time.Time       `json:"payroll_validated_at,omitempty"`
	GrossSalary        *decimal.Decimal `json:"gross_salary,omitempty"`
	EmployeeAccepted   bool             `json:"employee_accepted"`
}

// EmployeesStatusReport lists active employees with worked time in the
// period, ordered by name.
type EmployeesStatusReport struct {
	Year           int              `json:"year"`
	Month          int              `json:"month"`
	GeneratedAt    time.Time        `json:"generated_at"`
	Employees      []EmployeeStatus `json:"employees"`
	TotalEmployees int              `json:"total_employees"`
	WithPayroll    int              `json:"with_payroll"`
	WithoutPayroll int              `json:"without_payroll"`
}

// ========================================
// MONTHLY SUMMARY
// ========================================

type MonthlySummary struct {
	Year                int                       `json:"year"`
	Month               int                       `json:"month"`
	PayrollCount        int                       `json:"payroll_count"`
	DraftCount          int                       `json:"draft_count"`
	ValidatedCount      int                       `json:"validated_count"`
	AcceptedCount       int                       `json:"accepted_count"`
	TotalHoursWorked    decimal.Decimal           `json:"total_hours_worked"`
	TotalScheduledHours decimal.Decimal           `json:"total_scheduled_hours"`
	TotalGrossSalary    decimal.Decimal           `json:"total_gross_salary"`
	Payrolls            []payroll.PayrollResponse `json:"payrolls"`
}

// ========================================
// HISTORICAL SUMMARY
// ========================================

type HistoryRequest struct {
	Months int `json:"months"`
}

func (r *HistoryRequest) Validate() error {
	if r.Months == 0 {
		r.Months = 12
	}
	if r.Months < 1 || r.Months > 36 {
		return validator.ValidationErrors{{Field: "months", Message: "months must be between 1 and 36"}}
	}
	return nil
}

type HistoryMonth struct {
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	MonthName        string          `json:"month_name"`
	PayrollCount     int             `json:"payroll_count"`
	ValidatedCount   int             `json:"validated_count"`
	TotalHoursWorked decimal.Decimal `json:"total_hours_worked"`
	TotalGrossSalary decimal.Decimal `json:"total_gross_salary"`
}

type HistorySummary struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Months      []HistoryMonth `json:"months"`
}
