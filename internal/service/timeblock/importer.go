package timeblock

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/database"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/validator"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/service/file"
)

// MaxImportSize bounds an uploaded time clock export.
const MaxImportSize = 10 << 20

type rowOutcome int

const (
	rowRejected rowOutcome = iota
	rowImported
	rowSkipped
)

// identity is a resolved mail reference, cached for the batch.
type identity struct {
	employeeID string
	rejection  *workblock.Rejection
}

// batch tracks state shared by the rows of one import.
type batch struct {
	identities map[string]identity
	created    map[string]bool
}

type ImporterImpl struct {
	dayGuard
	blockRepo    workblock.WorkBlockRepository
	employeeRepo employee.EmployeeRepository
	validator    *Validator
	files        file.FileService
}

// NewImportService builds the bulk pipeline. files may be nil, in which case
// CSV uploads are not archived.
func NewImportService(
	tx database.Transactor,
	blockRepo workblock.WorkBlockRepository,
	employeeRepo employee.EmployeeRepository,
	payrollRepo payroll.PayrollRepository,
	validator *Validator,
	files file.FileService,
) workblock.ImportService {
	return &ImporterImpl{
		dayGuard:     dayGuard{tx: tx, payrollRepo: payrollRepo},
		blockRepo:    blockRepo,
		employeeRepo: employeeRepo,
		validator:    validator,
		files:        files,
	}
}

// Import processes rows in order, each in its own transaction. A failed row
// never undoes the rows before it.
func (s *ImporterImpl) Import(ctx context.Context, rows []workblock.ImportRow) (workblock.ImportResult, error) {
	result := workblock.ImportResult{Errors: []workblock.RowError{}}
	if len(rows) == 0 {
		return result, workblock.ErrEmptyImport
	}

	b := &batch{
		identities: make(map[string]identity),
		created:    make(map[string]bool),
	}
	for i, row := range rows {
		outcome, rejections, err := s.importRow(ctx, b, row)
		if err != nil {
			return result, fmt.Errorf("import row %d: %w", i, err)
		}
		switch outcome {
		case rowImported:
			result.Imported++
		case rowSkipped:
			result.Skipped++
		case rowRejected:
			result.Errors = append(result.Errors, workblock.RowError{
				RowIndex: i,
				RawData:  row,
				Errors:   rejections,
			})
		}
	}

	slog.Info("import finished",
		"rows", len(rows),
		"imported", result.Imported,
		"skipped", result.Skipped,
		"rejected", len(result.Errors),
	)
	return result, nil
}

func (s *ImporterImpl) importRow(ctx context.Context, b *batch, row workblock.ImportRow) (rowOutcome, []workblock.Rejection, error) {
	var rejections []workblock.Rejection

	id, err := s.resolve(ctx, b, row.Mail)
	if err != nil {
		return rowRejected, nil, err
	}
	if id.rejection != nil {
		rejections = append(rejections, *id.rejection)
	}

	accepted, parsed := s.validator.Parse(workblock.Candidate{
		EmployeeID: id.employeeID,
		Date:       row.Date,
		StartTime:  row.Entrada,
		EndTime:    row.Salida,
		Format:     workblock.DateDMY,
	})
	rejections = append(rejections, parsed...)
	if len(rejections) > 0 {
		rejections, err = completeRejections(ctx, s.validator, s.blockRepo, accepted, rejections, "")
		if err != nil {
			return rowRejected, nil, err
		}
		return rowRejected, rejections, nil
	}

	outcome := rowRejected
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.lockDay(ctx, accepted.EmployeeID, accepted.Date); err != nil {
			if errors.Is(err, payroll.ErrPayrollLocked) {
				rejections = append(rejections, workblock.Rejection{
					Code:    workblock.CodePayrollLocked,
					Field:   "date",
					Message: "the payroll for this period is validated",
				})
				return nil
			}
			return err
		}

		existing, err := s.blockRepo.ListByEmployeeDate(ctx, accepted.EmployeeID, accepted.Date)
		if err != nil {
			return fmt.Errorf("failed to load day blocks: %w", err)
		}

		// Re-importing the same export must not fail on rows stored by an
		// earlier run. Duplicates within this batch are still overlaps.
		candidate := accepted.Block(workblock.SourceImport)
		for _, existingBlock := range existing {
			if !b.created[existingBlock.ID] && existingBlock.SameInterval(candidate) {
				outcome = rowSkipped
				return nil
			}
		}

		if overlaps := s.validator.Check(accepted, existing); len(overlaps) > 0 {
			rejections = append(rejections, overlaps...)
			return nil
		}

		created, err := s.blockRepo.Create(ctx, candidate)
		if errors.Is(err, workblock.ErrBlockOverlap) {
			rejections = append(rejections, workblock.Rejection{
				Code:    workblock.CodeOverlap,
				Message: "block overlaps an existing block",
			})
			return nil
		}
		if err != nil {
			return err
		}
		b.created[created.ID] = true
		outcome = rowImported
		return nil
	})
	if err != nil {
		return rowRejected, nil, err
	}
	return outcome, rejections, nil
}

// resolve maps a mail reference to an employee, once per distinct address.
func (s *ImporterImpl) resolve(ctx context.Context, b *batch, mail string) (identity, error) {
	email := validator.NormalizeEmail(mail)
	if cached, ok := b.identities[email]; ok {
		return cached, nil
	}

	var id identity
	if email == "" {
		id.rejection = &workblock.Rejection{Code: workblock.CodeUnknownEmployee, Field: "mail", Message: "mail is required"}
		b.identities[email] = id
		return id, nil
	}

	emp, err := s.employeeRepo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, employee.ErrEmployeeNotFound):
		id.rejection = &workblock.Rejection{
			Code:    workblock.CodeUnknownEmployee,
			Field:   "mail",
			Message: fmt.Sprintf("no employee with email %q", email),
		}
	case err != nil:
		return identity{}, fmt.Errorf("failed to resolve employee: %w", err)
	case !emp.IsActive:
		id.employeeID = emp.ID
		id.rejection = &workblock.Rejection{
			Code:    workblock.CodeInactiveEmployee,
			Field:   "mail",
			Message: fmt.Sprintf("employee %q is inactive", email),
		}
	default:
		id.employeeID = emp.ID
	}

	b.identities[email] = id
	return id, nil
}

// ImportCSV reads the whole upload so it can be archived verbatim and then
// parsed. A file that cannot be parsed is not archived.
func (s *ImporterImpl) ImportCSV(ctx context.Context, filename string, r io.Reader) (workblock.ImportResult, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxImportSize+1))
	if err != nil {
		return workblock.ImportResult{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(raw) > MaxImportSize {
		return workblock.ImportResult{}, workblock.ErrImportTooLarge
	}

	rows, err := ParseCSV(raw)
	if err != nil {
		return workblock.ImportResult{}, err
	}

	var archived *string
	if s.files != nil {
		path, err := s.files.ArchiveImport(ctx, bytes.NewReader(raw), filename)
		if err != nil {
			return workblock.ImportResult{}, err
		}
		archived = &path
	}

	result, err := s.Import(ctx, rows)
	result.ArchivedFile = archived
	return result, err
}
