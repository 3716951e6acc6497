package workblock

import (
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateWorkBlockRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`       // YYYY-MM-DD
	StartTime  string `json:"start_time"` // HH:MM
	EndTime    string `json:"end_time"`   // HH:MM
}

func (r *CreateWorkBlockRequest) Candidate() Candidate {
	return Candidate{
		EmployeeID: r.EmployeeID,
		Date:       r.Date,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		Format:     DateISO,
	}
}

type UpdateWorkBlockRequest struct {
	ID        string `json:"-"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type WorkBlockFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Parsed by Validate
	From *time.Time `json:"-"`
	To   *time.Time `json:"-"`
}

func (f *WorkBlockFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.StartDate != nil {
		d, err := clock.ParseDate(*f.StartDate)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date must be in YYYY-MM-DD format"})
		} else {
			f.From = &d
		}
	}
	if f.EndDate != nil {
		d, err := clock.ParseDate(*f.EndDate)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be in YYYY-MM-DD format"})
		} else {
			f.To = &d
		}
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must not be before start_date"})
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 500 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must not exceed 500"})
	}

	return errs.OrNil()
}

type WorkBlockResponse struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employee_id"`
	Date       string          `json:"date"`
	StartTime  clock.TimeOfDay `json:"start_time"`
	EndTime    clock.TimeOfDay `json:"end_time"`
	Hours      decimal.Decimal `json:"hours"`
	Source     string          `json:"source"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func ToResponse(b WorkBlock) WorkBlockResponse {
	return WorkBlockResponse{
		ID:         b.ID,
		EmployeeID: b.EmployeeID,
		Date:       clock.FormatDate(b.Date),
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
		Hours:      b.Hours(),
		Source:     string(b.Source),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func ToResponses(blocks []WorkBlock) []WorkBlockResponse {
	out := make([]WorkBlockResponse, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, ToResponse(b))
	}
	return out
}

type ListWorkBlockResponse struct {
	Data       []WorkBlockResponse `json:"data"`
	TotalCount int64               `json:"total_count"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
}

type DailyRecordResponse struct {
	Date   string              `json:"date"`
	Hours  decimal.Decimal     `json:"hours"`
	Blocks []WorkBlockResponse `json:"blocks"`
}

func ToDailyRecordResponses(records []DailyRecord) []DailyRecordResponse {
	out := make([]DailyRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, DailyRecordResponse{
			Date:   clock.FormatDate(r.Date),
			Hours:  r.Hours(),
			Blocks: ToResponses(r.Blocks),
		})
	}
	return out
}

// ========== IMPORT DTOs ==========

// ImportRow is the time clock export row. Field names are part of the
// external contract.
type ImportRow struct {
	Date    string `json:"date"`    // D/M/YYYY
	Entrada string `json:"entrada"` // H:MM
	Salida  string `json:"salida"`  // H:MM
	Mail    string `json:"mail"`
}

type ImportRequest struct {
	Rows []ImportRow `json:"rows"`
}

type RowError struct {
	RowIndex int         `json:"row_index"`
	RawData  ImportRow   `json:"raw_data"`
	Errors   []Rejection `json:"errors"`
}

type ImportResult struct {
	Imported     int        `json:"imported"`
	Skipped      int        `json:"skipped"`
	Errors       []RowError `json:"errors"`
	ArchivedFile *string    `json:"archived_file,omitempty"`
}
