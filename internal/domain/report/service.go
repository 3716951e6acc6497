package report

import "context"

type ReportService interface {
	EmployeesStatus(ctx context.Context, req PeriodRequest) (EmployeesStatusReport, error)
	MonthlySummary(ctx context.Context, req PeriodRequest) (MonthlySummary, error)

	// HistorySummary returns the req.Months most recent periods that have
	// payrolls, newest first.
	HistorySummary(ctx context.Context, req HistoryRequest) (HistorySummary, error)
}
