package workblock

import (
	"strings"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/apperr"
)

var (
	ErrWorkBlockNotFound = apperr.NotFound("WORK_BLOCK_NOT_FOUND", "work block not found")
	ErrBlockInvalid      = apperr.Validation("WORK_BLOCK_INVALID", "work block rejected")
	ErrBlockOverlap      = apperr.Conflict("WORK_BLOCK_OVERLAP", "work block overlaps an existing block")
	ErrEmptyImport       = apperr.Validation("EMPTY_IMPORT", "import contains no rows")
	ErrInvalidCSV        = apperr.Validation("INVALID_CSV", "file is not a valid time clock export")
	ErrImportTooLarge    = apperr.Validation("IMPORT_TOO_LARGE", "import file is too large")
)

type RejectionCode string

const (
	CodeInvalidFormat    RejectionCode = "InvalidFormat"
	CodeInvalidRange     RejectionCode = "InvalidRange"
	CodeOverlap          RejectionCode = "Overlap"
	CodeFutureDate       RejectionCode = "FutureDate"
	CodeUnknownEmployee  RejectionCode = "UnknownEmployee"
	CodeInactiveEmployee RejectionCode = "InactiveEmployee"
	CodePayrollLocked    RejectionCode = "PayrollLocked"
)

// Rejection is one reason a block was refused. A block may collect several.
type Rejection struct {
	Code    RejectionCode `json:"code"`
	Field   string        `json:"field,omitempty"`
	Message string        `json:"message"`
}

// RejectedError carries every rejection of a single block.
type RejectedError struct {
	Rejections []Rejection
}

func (e *RejectedError) Error() string {
	msgs := make([]string, 0, len(e.Rejections))
	for _, r := range e.Rejections {
		msgs = append(msgs, string(r.Code)+": "+r.Message)
	}
	return "work block rejected: " + strings.Join(msgs, "; ")
}

// Unwrap classifies the rejection: overlap is a conflict, the rest are
// validation failures.
func (e *RejectedError) Unwrap() error {
	if e.Has(CodeOverlap) {
		return ErrBlockOverlap
	}
	return ErrBlockInvalid
}

func (e *RejectedError) Has(code RejectionCode) bool {
	for _, r := range e.Rejections {
		if r.Code == code {
			return true
		}
	}
	return false
}

// Reject returns nil for an empty list.
func Reject(rejections []Rejection) error {
	if len(rejections) == 0 {
		return nil
	}
	return &RejectedError{Rejections: rejections}
}
