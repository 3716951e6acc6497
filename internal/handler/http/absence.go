package http

import (
	"net/http"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/absence"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AbsenceHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)

	// Self-service
	Request(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)
}

type absenceHandlerImpl struct {
	absenceService absence.AbsenceService
}

func NewAbsenceHandler(absenceService absence.AbsenceService) AbsenceHandler {
	return &absenceHandlerImpl{absenceService: absenceService}
}

func absenceFilter(r *http.Request) absence.AbsenceFilter {
	return absence.AbsenceFilter{
		EmployeeID: optionalQuery(r, "employee_id"),
		Status:     optionalQuery(r, "status"),
		Page:       getIntQueryParam(r, "page", 1),
		Limit:      getIntQueryParam(r, "limit", 20),
	}
}

func (h *absenceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.absenceService.ListAbsences(r.Context(), absenceFilter(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Data, response.NewMeta(result.Page, result.Limit, result.TotalCount))
}

// Get is shared by both surfaces; the service limits employees to their own.
func (h *absenceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.absenceService.GetAbsence(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *absenceHandlerImpl) review(w http.ResponseWriter, r *http.Request) (absence.ReviewAbsenceRequest, bool) {
	var req absence.ReviewAbsenceRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return req, false
	}
	req.ID = chi.URLParam(r, "id")
	return req, true
}

func (h *absenceHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	req, ok := h.review(w, r)
	if !ok {
		return
	}

	result, err := h.absenceService.ApproveAbsence(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Absence approved", result)
}

func (h *absenceHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	req, ok := h.review(w, r)
	if !ok {
		return
	}

	result, err := h.absenceService.RejectAbsence(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Absence rejected", result)
}

func (h *absenceHandlerImpl) Request(w http.ResponseWriter, r *http.Request) {
	var req absence.CreateAbsenceRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.absenceService.RequestAbsence(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Absence requested", result)
}

func (h *absenceHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	result, err := h.absenceService.ListMyAbsences(r.Context(), absenceFilter(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Data, response.NewMeta(result.Page, result.Limit, result.TotalCount))
}
