package employee

import (
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/validator"
)

type CreateEmployeeRequest struct {
	FullName   string  `json:"full_name" validate:"required,max=255"`
	Email      string  `json:"email" validate:"required,email"`
	PositionID *string `json:"position_id,omitempty"`

	// Password, when set, opens a login account for the employee.
	Password *string `json:"password,omitempty" validate:"omitempty,min=8"`
	IsAdmin  bool    `json:"is_admin"`
}

func (r *CreateEmployeeRequest) Validate() error {
	return validator.Struct(r).OrNil()
}

type UpdateEmployeeRequest struct {
	ID         string  `json:"-"`
	FullName   *string `json:"full_name,omitempty" validate:"omitempty,min=1,max=255"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	PositionID *string `json:"position_id,omitempty"`
}

func (r *UpdateEmployeeRequest) Validate() error {
	return validator.Struct(r).OrNil()
}

type EmployeeFilter struct {
	Search   *string `json:"search,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *EmployeeFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
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

type EmployeeResponse struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PositionID   *string   `json:"position_id,omitempty"`
	PositionName *string   `json:"position_name,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func ToResponse(e Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:           e.ID,
		FullName:     e.FullName,
		Email:        e.Email,
		PositionID:   e.PositionID,
		PositionName: e.PositionName,
		IsActive:     e.IsActive,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

type ListEmployeeResponse struct {
	Data       []EmployeeResponse `json:"data"`
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
}

type DeactivateEmployeeResponse struct {
	Employee      EmployeeResponse `json:"employee"`
	ShiftsRemoved int64            `json:"shifts_removed"`
}
