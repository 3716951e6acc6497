package http

import (
	"net/http"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/report"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/handler/http/response"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type ReportHandler interface {
	EmployeesStatus(w http.ResponseWriter, r *http.Request)
	MonthlySummary(w http.ResponseWriter, r *http.Request)
	HistorySummary(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
}

func NewReportHandler(reportService report.ReportService) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
	}
}

func periodFromPath(r *http.Request) (report.PeriodRequest, error) {
	var errs validator.ValidationErrors
	req := report.PeriodRequest{
		Year:  pathInt(chi.URLParam(r, "year"), "year", &errs),
		Month: pathInt(chi.URLParam(r, "month"), "month", &errs),
	}
	return req, errs.OrNil()
}

// EmployeesStatus handles GET /reports/employees-status/{year}/{month}
func (h *reportHandlerImpl) EmployeesStatus(w http.ResponseWriter, r *http.Request) {
	req, err := periodFromPath(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.reportService.EmployeesStatus(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// MonthlySummary handles GET /reports/summary/{year}/{month}
func (h *reportHandlerImpl) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	req, err := periodFromPath(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.reportService.MonthlySummary(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// HistorySummary handles GET /reports/summary/history?months=
func (h *reportHandlerImpl) HistorySummary(w http.ResponseWriter, r *http.Request) {
	req := report.HistoryRequest{Months: getIntQueryParam(r, "months", 0)}

	result, err := h.reportService.HistorySummary(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
