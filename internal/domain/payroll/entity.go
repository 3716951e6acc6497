package payroll

import (
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/master/position"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/shopspring/decimal"
)

// PayrollStatus only ever moves forward: draft, then validated.
type PayrollStatus string

const (
	StatusDraft     PayrollStatus = "draft"
	StatusValidated PayrollStatus = "validated"
)

func (s PayrollStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusValidated:
		return true
	default:
		return false
	}
}

// Locked reports whether the payroll's snapshot and inputs are frozen.
func (s PayrollStatus) Locked() (bool, error) {
	switch s {
	case StatusDraft:
		return false, nil
	case StatusValidated:
		return true, nil
	default:
		return false, ErrUnknownStatus
	}
}

type Category string

const (
	CategoryRegular  Category = "regular"
	CategoryOvertime Category = "overtime"
	CategoryWeekend  Category = "weekend"
	CategoryHoliday  Category = "holiday"
)

// CategoryLine is the pay of one category. Amount is rounded for display;
// the gross salary is rounded once from the unrounded sum.
type CategoryLine struct {
	Minutes    int64           `json:"minutes"`
	Hours      decimal.Decimal `json:"hours"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Amount     decimal.Decimal `json:"amount"`
}

type Breakdown struct {
	Regular  CategoryLine `json:"regular"`
	Overtime CategoryLine `json:"overtime"`
	Weekend  CategoryLine `json:"weekend"`
	Holiday  CategoryLine `json:"holiday"`
}

// ScheduledRecord is one planned shift counted into scheduled hours.
type ScheduledRecord struct {
	ShiftID    string
	ScheduleID string
	Date       time.Time
	StartTime  clock.TimeOfDay
	EndTime    clock.TimeOfDay
	Minutes    int64
}

// Calculation is the result of reconciling one employee's period. It is a
// pure function of blocks, shifts, holidays and the rate policy.
type Calculation struct {
	EmployeeID       string
	EmployeeName     string
	Year             int
	Month            int
	PeriodStart      time.Time
	PeriodEnd        time.Time
	WorkedMinutes    int64
	ScheduledMinutes int64
	HoursWorked      decimal.Decimal
	ScheduledHours   decimal.Decimal
	HoursDifference  decimal.Decimal
	HourlyRate       decimal.Decimal
	GrossSalary      decimal.Decimal
	Breakdown        Breakdown
	RatePolicy       position.RatePolicy
	DailyRecords     []workblock.DailyRecord
	ScheduledRecords []ScheduledRecord
}

type Payroll struct {
	ID                  string
	EmployeeID          string
	Year                int
	Month               int
	Status              PayrollStatus
	HoursWorked         decimal.Decimal
	ScheduledHours      decimal.Decimal
	HoursDifference     decimal.Decimal
	HourlyRate          decimal.Decimal
	GrossSalary         decimal.Decimal
	Breakdown           Breakdown
	RatePolicy          position.RatePolicy
	Notes               *string
	ValidatedAt         *time.Time
	ValidatedBy         *string
	EmployeeValidatedAt *time.Time
	EmployeeValidatedBy *string
	CreatedAt           time.Time
	UpdatedAt           time.Time

	// Joined fields
	EmployeeName *string
}

// ApplyCalculation overwrites the snapshot fields from c.
func (p *Payroll) ApplyCalculation(c Calculation) {
	p.EmployeeID = c.EmployeeID
	p.Year = c.Year
	p.Month = c.Month
	p.HoursWorked = c.HoursWorked
	p.ScheduledHours = c.ScheduledHours
	p.HoursDifference = c.HoursDifference
	p.HourlyRate = c.HourlyRate
	p.GrossSalary = c.GrossSalary
	p.Breakdown = c.Breakdown
	p.RatePolicy = c.RatePolicy
}

func (p Payroll) IsAccepted() bool {
	return p.EmployeeValidatedAt != nil
}

// Period returns the first and last day the payroll covers.
func (p Payroll) Period() (time.Time, time.Time) {
	return clock.MonthBounds(p.Year, p.Month)
}

// PeriodTotal aggregates the payrolls of one period.
type PeriodTotal struct {
	Year             int
	Month            int
	PayrollCount     int
	ValidatedCount   int
	TotalHoursWorked decimal.Decimal
	TotalGross       decimal.Decimal
}
