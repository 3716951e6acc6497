package absence

import "context"

type AbsenceService interface {
	// RequestAbsence files a period for the authenticated employee.
	RequestAbsence(ctx context.Context, req CreateAbsenceRequest) (AbsenceResponse, error)
	GetAbsence(ctx context.Context, id string) (AbsenceResponse, error)
	ListAbsences(ctx context.Context, filter AbsenceFilter) (ListAbsenceResponse, error)
	ListMyAbsences(ctx context.Context, filter AbsenceFilter) (ListAbsenceResponse, error)

	// ApproveAbsence also removes the employee's shifts inside the period.
	ApproveAbsence(ctx context.Context, req ReviewAbsenceRequest) (AbsenceResponse, error)
	RejectAbsence(ctx context.Context, req ReviewAbsenceRequest) (AbsenceResponse, error)
}
