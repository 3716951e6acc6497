package payroll

import (
	"context"
	"time"
)

// PayrollRepository persists payroll snapshots. Every state transition is a
// single conditional update on status.
type PayrollRepository interface {
	Create(ctx context.Context, p Payroll) (Payroll, error)
	GetByID(ctx context.Context, id string) (Payroll, error)
	GetByEmployeePeriod(ctx context.Context, employeeID string, year, month int) (Payroll, error)

	// GetByEmployeePeriodForShare also holds a shared row lock until the
	// surrounding transaction ends, so a concurrent Validate waits for it.
	GetByEmployeePeriodForShare(ctx context.Context, employeeID string, year, month int) (Payroll, error)
	List(ctx context.Context, filter PayrollFilter) ([]Payroll, int64, error)
	ListByPeriod(ctx context.Context, year, month int) ([]Payroll, error)

	// PeriodTotals aggregates the limit most recent periods, newest first.
	PeriodTotals(ctx context.Context, limit int) ([]PeriodTotal, error)

	// UpdateSnapshot overwrites the calculated fields of a draft.
	// ErrPayrollLocked when the payroll is no longer a draft.
	UpdateSnapshot(ctx context.Context, p Payroll) (Payroll, error)

	// Validate moves a draft to validated. ErrPayrollLocked otherwise.
	Validate(ctx context.Context, id, validatedBy string, at time.Time) (Payroll, error)

	// Accept records the employee's acceptance of a validated payroll that
	// was not accepted yet. ErrPayrollAlreadyAccepted otherwise.
	Accept(ctx context.Context, id, employeeID string, at time.Time) (Payroll, error)
	UpdateNotes(ctx context.Context, id string, notes *string) (Payroll, error)

	// Delete removes a draft. ErrPayrollLocked when validated.
	Delete(ctx context.Context, id string) error
}
