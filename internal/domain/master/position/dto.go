package position

import (
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type RatePolicyRequest struct {
	ContractType           string           `json:"contract_type"`
	HourlyRate             *decimal.Decimal `json:"hourly_rate,omitempty"`
	BaseSalary             *decimal.Decimal `json:"base_salary,omitempty"`
	StandardHoursPerPeriod *decimal.Decimal `json:"standard_hours_per_period,omitempty"`
	OvertimeMultiplier     *decimal.Decimal `json:"overtime_multiplier,omitempty"`
	WeekendMultiplier      *decimal.Decimal `json:"weekend_multiplier,omitempty"`
	HolidayMultiplier      *decimal.Decimal `json:"holiday_multiplier,omitempty"`
}

// Policy builds the rate policy with default multipliers for absent ones.
func (r RatePolicyRequest) Policy() RatePolicy {
	p := RatePolicy{
		ContractType:           ContractType(r.ContractType),
		HourlyRate:             r.HourlyRate,
		BaseSalary:             r.BaseSalary,
		StandardHoursPerPeriod: r.StandardHoursPerPeriod,
	}
	if r.OvertimeMultiplier != nil {
		p.OvertimeMultiplier = *r.OvertimeMultiplier
	}
	if r.WeekendMultiplier != nil {
		p.WeekendMultiplier = *r.WeekendMultiplier
	}
	if r.HolidayMultiplier != nil {
		p.HolidayMultiplier = *r.HolidayMultiplier
	}
	return p.WithDefaults()
}

func (r RatePolicyRequest) validate(errs validator.ValidationErrors) validator.ValidationErrors {
	contract := ContractType(r.ContractType)
	if !contract.IsValid() {
		return append(errs, validator.ValidationError{
			Field:   "contract_type",
			Message: "contract_type must be one of: hourly, part_time, full_time",
		})
	}

	one := decimal.NewFromInt(1)
	multipliers := []struct {
		field string
		value *decimal.Decimal
	}{
		{"overtime_multiplier", r.OvertimeMultiplier},
		{"weekend_multiplier", r.WeekendMultiplier},
		{"holiday_multiplier", r.HolidayMultiplier},
	}
	for _, m := range multipliers {
		if m.value != nil && m.value.LessThan(one) {
			errs = append(errs, validator.ValidationError{Field: m.field, Message: m.field + " must be at least 1.0"})
		}
	}

	salaried, _ := contract.Salaried()
	if salaried {
		if !positive(r.BaseSalary) {
			errs = append(errs, validator.ValidationError{Field: "base_salary", Message: "base_salary is required for salaried contracts"})
		}
		if !positive(r.StandardHoursPerPeriod) {
			errs = append(errs, validator.ValidationError{Field: "standard_hours_per_period", Message: "standard_hours_per_period is required for salaried contracts"})
		}
	} else if !positive(r.HourlyRate) {
		errs = append(errs, validator.ValidationError{Field: "hourly_rate", Message: "hourly_rate is required for hourly contracts"})
	}
	if r.StandardHoursPerPeriod != nil && !r.StandardHoursPerPeriod.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "standard_hours_per_period", Message: "standard_hours_per_period must be positive"})
	}
	return errs
}

type CreatePositionRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	RatePolicyRequest
}

func (r *CreatePositionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	} else if len(r.Name) > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name must not exceed 100 characters",
		})
	}
	errs = r.RatePolicyRequest.validate(errs)

	return errs.OrNil()
}

// UpdatePositionRequest replaces the whole rate policy; payrolls already
// generated keep the policy they were generated with.
type UpdatePositionRequest struct {
	ID          string  `json:"-"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	RatePolicyRequest
}

func (r *UpdatePositionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}
	errs = r.RatePolicyRequest.validate(errs)

	return errs.OrNil()
}

type PositionResponse struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	Description         *string          `json:"description,omitempty"`
	RatePolicy          RatePolicy       `json:"rate_policy"`
	EffectiveHourlyRate *decimal.Decimal `json:"effective_hourly_rate,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

func ToResponse(p Position) PositionResponse {
	resp := PositionResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		RatePolicy:  p.RatePolicy,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if rate, err := p.RatePolicy.EffectiveHourlyRate(); err == nil {
		resp.EffectiveHourlyRate = &rate
	}
	return resp
}
