package position

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ContractType string

const (
	ContractHourly   ContractType = "hourly"
	ContractPartTime ContractType = "part_time"
	ContractFullTime ContractType = "full_time"
)

func (c ContractType) IsValid() bool {
	switch c {
	case ContractHourly, ContractPartTime, ContractFullTime:
		return true
	default:
		return false
	}
}

// Salaried reports whether pay derives from base salary over standard hours.
func (c ContractType) Salaried() (bool, error) {
	switch c {
	case ContractHourly:
		return false, nil
	case ContractPartTime, ContractFullTime:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidContractType, string(c))
	}
}

var (
	DefaultOvertimeMultiplier = decimal.NewFromFloat(1.5)
	DefaultWeekendMultiplier  = decimal.NewFromInt(1)
	DefaultHolidayMultiplier  = decimal.NewFromInt(1)
)

// RatePolicy decides how worked minutes turn into pay. It is copied into
// every payroll at generation time.
type RatePolicy struct {
	ContractType           ContractType     `json:"contract_type"`
	HourlyRate             *decimal.Decimal `json:"hourly_rate,omitempty"`
	BaseSalary             *decimal.Decimal `json:"base_salary,omitempty"`
	StandardHoursPerPeriod *decimal.Decimal `json:"standard_hours_per_period,omitempty"`
	OvertimeMultiplier     decimal.Decimal  `json:"overtime_multiplier"`
	WeekendMultiplier      decimal.Decimal  `json:"weekend_multiplier"`
	HolidayMultiplier      decimal.Decimal  `json:"holiday_multiplier"`
}

// WithDefaults fills unset multipliers.
func (p RatePolicy) WithDefaults() RatePolicy {
	if p.OvertimeMultiplier.IsZero() {
		p.OvertimeMultiplier = DefaultOvertimeMultiplier
	}
	if p.WeekendMultiplier.IsZero() {
		p.WeekendMultiplier = DefaultWeekendMultiplier
	}
	if p.HolidayMultiplier.IsZero() {
		p.HolidayMultiplier = DefaultHolidayMultiplier
	}
	return p
}

// Validate checks the multipliers and that the fields required by the
// contract type are present and positive.
func (p RatePolicy) Validate() error {
	one := decimal.NewFromInt(1)
	for _, m := range []decimal.Decimal{p.OvertimeMultiplier, p.WeekendMultiplier, p.HolidayMultiplier} {
		if m.LessThan(one) {
			return ErrInvalidMultiplier
		}
	}
	_, err := p.EffectiveHourlyRate()
	return err
}

// EffectiveHourlyRate is the hourly rate for hourly contracts and
// base_salary / standard_hours_per_period (4 dp) for salaried ones.
func (p RatePolicy) EffectiveHourlyRate() (decimal.Decimal, error) {
	salaried, err := p.ContractType.Salaried()
	if err != nil {
		return decimal.Zero, err
	}
	if !salaried {
		if !positive(p.HourlyRate) {
			return decimal.Zero, ErrNoRatePolicyConfigured
		}
		return *p.HourlyRate, nil
	}
	if !positive(p.BaseSalary) || !positive(p.StandardHoursPerPeriod) {
		return decimal.Zero, ErrNoRatePolicyConfigured
	}
	return p.BaseSalary.Div(*p.StandardHoursPerPeriod).Round(4), nil
}

// OvertimeThresholdMinutes returns the regular minutes allowed per period
// before overtime starts. ok is false when the policy has no threshold.
func (p RatePolicy) OvertimeThresholdMinutes() (minutes int64, ok bool) {
	if !positive(p.StandardHoursPerPeriod) {
		return 0, false
	}
	return p.StandardHoursPerPeriod.Mul(decimal.NewFromInt(60)).Ceil().IntPart(), true
}

func positive(d *decimal.Decimal) bool {
	return d != nil && d.IsPositive()
}

type Position struct {
	ID          string
	Name        string
	Description *string
	RatePolicy  RatePolicy
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
