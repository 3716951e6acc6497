package payroll

import (
	"context"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
)

// Calculator reconciles worked and scheduled time for one period.
type Calculator interface {
	Calculate(ctx context.Context, employeeID string, year, month int) (Calculation, error)
}

type PayrollService interface {
	// Calculate previews a payroll without persisting it.
	Calculate(ctx context.Context, req CalculateRequest) (CalculationResponse, error)
	Generate(ctx context.Context, req CalculateRequest) (PayrollDetailResponse, error)
	GenerateBatch(ctx context.Context, req GenerateBatchRequest) (GenerateBatchResponse, error)
	List(ctx context.Context, filter PayrollFilter) (ListPayrollResponse, error)
	Get(ctx context.Context, id string) (PayrollDetailResponse, error)
	Recalculate(ctx context.Context, id string) (PayrollDetailResponse, error)
	Validate(ctx context.Context, id string) (PayrollResponse, error)
	UpdateNotes(ctx context.Context, req UpdateNotesRequest) (PayrollResponse, error)
	Delete(ctx context.Context, id string) error
	ListWorkBlocks(ctx context.Context, id string) ([]workblock.WorkBlockResponse, error)

	// Employee self-service, restricted to the caller's own payrolls.
	ListMine(ctx context.Context, filter PayrollFilter) (ListPayrollResponse, error)
	GetMine(ctx context.Context, id string) (PayrollDetailResponse, error)
	Accept(ctx context.Context, id string) (PayrollResponse, error)
}
