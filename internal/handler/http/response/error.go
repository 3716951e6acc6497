package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/auth"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/apperr"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Auth errors are not classified
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
		return
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
		return
	case errors.Is(err, auth.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")
		return
	case errors.Is(err, auth.ErrEmployeeAccountNeeded):
		Forbidden(w, "An employee account is required")
		return
	}

	appErr, ok := apperr.As(err)
	if !ok {
		InternalServerError(w, "An unexpected error occurred")
		return
	}

	var details map[string]string
	var rejected *workblock.RejectedError
	if errors.As(err, &rejected) {
		details = RejectionDetails(rejected.Rejections)
	}

	writeJSON(w, StatusFor(appErr.Kind), Response{
		Success: false,
		Error: &ErrorDetail{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindState:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// RejectionDetails keys each rejection by field, falling back to its code.
func RejectionDetails(rejections []workblock.Rejection) map[string]string {
	details := make(map[string]string, len(rejections))
	for _, r := range rejections {
		key := r.Field
		if key == "" {
			key = string(r.Code)
		}
		if prev, ok := details[key]; ok {
			details[key] = prev + "; " + r.Message
			continue
		}
		details[key] = r.Message
	}
	return details
}
