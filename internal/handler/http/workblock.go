package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/handler/http/response"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/jwt"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/service/timeblock"
	"github.com/go-chi/chi/v5"
)

type WorkBlockHandler interface {
	Import(w http.ResponseWriter, r *http.Request)
	ImportCSV(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)

	// Self-service
	CreateMine(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)
}

type workBlockHandlerImpl struct {
	blockService  workblock.WorkBlockService
	importService workblock.ImportService
}

func NewWorkBlockHandler(blockService workblock.WorkBlockService, importService workblock.ImportService) WorkBlockHandler {
	return &workBlockHandlerImpl{
		blockService:  blockService,
		importService: importService,
	}
}

func (h *workBlockHandlerImpl) Import(w http.ResponseWriter, r *http.Request) {
	var req workblock.ImportRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.importService.Import(r.Context(), req.Rows)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Import finished", result)
}

func (h *workBlockHandlerImpl) ImportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, timeblock.MaxImportSize+(1<<20))
	if err := r.ParseMultipartForm(timeblock.MaxImportSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.HandleError(w, workblock.ErrImportTooLarge)
			return
		}
		slog.Error("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			response.BadRequest(w, "CSV file is required", nil)
			return
		}
		slog.Error("Failed to get file from form", "error", err)
		response.BadRequest(w, "Invalid file upload", nil)
		return
	}
	defer file.Close()

	result, err := h.importService.ImportCSV(r.Context(), fileHeader.Filename, file)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Import finished", result)
}

func (h *workBlockHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req workblock.CreateWorkBlockRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	h.create(w, r, req)
}

func (h *workBlockHandlerImpl) CreateMine(w http.ResponseWriter, r *http.Request) {
	var req workblock.CreateWorkBlockRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	actor, err := jwt.ActorFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	req.EmployeeID, _ = actor.Employee()
	h.create(w, r, req)
}

func (h *workBlockHandlerImpl) create(w http.ResponseWriter, r *http.Request, req workblock.CreateWorkBlockRequest) {
	block, err := h.blockService.CreateBlock(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Work block created", block)
}

func blockFilter(r *http.Request) workblock.WorkBlockFilter {
	return workblock.WorkBlockFilter{
		EmployeeID: optionalQuery(r, "employee_id"),
		StartDate:  optionalQuery(r, "start_date"),
		EndDate:    optionalQuery(r, "end_date"),
		Page:       getIntQueryParam(r, "page", 1),
		Limit:      getIntQueryParam(r, "limit", 20),
	}
}

func (h *workBlockHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.blockService.ListBlocks(r.Context(), blockFilter(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Data, response.NewMeta(result.Page, result.Limit, result.TotalCount))
}

func (h *workBlockHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	result, err := h.blockService.ListMyBlocks(r.Context(), blockFilter(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Data, response.NewMeta(result.Page, result.Limit, result.TotalCount))
}

func (h *workBlockHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req workblock.UpdateWorkBlockRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	block, err := h.blockService.UpdateBlock(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Work block updated", block)
}

func (h *workBlockHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.blockService.DeleteBlock(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Work block deleted", nil)
}
