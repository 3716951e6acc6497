package timeblock

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/auth"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/apperr"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/jwt"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/storage"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/repository/memory"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/service/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	blocks    workblock.WorkBlockService
	importer  workblock.ImportService
	empRepo   employee.EmployeeRepository
	blockRepo workblock.WorkBlockRepository
	payRepo   payroll.PayrollRepository
	storage   *storage.LocalStorage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	tx := memory.NewTransactor(store)
	empRepo := memory.NewEmployeeRepository(store)
	blockRepo := memory.NewWorkBlockRepository(store)
	payRepo := memory.NewPayrollRepository(store)
	v := NewValidator(fixedNow, time.UTC)

	local, err := storage.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	return &fixture{
		blocks:    NewWorkBlockService(tx, blockRepo, empRepo, payRepo, v),
		importer:  NewImportService(tx, blockRepo, empRepo, payRepo, v, file.NewFileService(local)),
		empRepo:   empRepo,
		blockRepo: blockRepo,
		payRepo:   payRepo,
		storage:   local,
	}
}

func (f *fixture) addEmployee(t *testing.T, name, email string, active bool) employee.Employee {
	t.Helper()
	e, err := f.empRepo.Create(context.Background(), employee.Employee{FullName: name, Email: email, IsActive: active})
	require.NoError(t, err)
	return e
}

func adminCtx() context.Context {
	return jwt.ContextWithActor(context.Background(), jwt.Actor{UserID: "admin-user", IsAdmin: true})
}

func employeeCtx(employeeID string) context.Context {
	return jwt.ContextWithActor(context.Background(), jwt.Actor{UserID: "user-" + employeeID, EmployeeID: &employeeID})
}

func (f *fixture) dayBlocks(t *testing.T, employeeID, date string) []workblock.WorkBlock {
	t.Helper()
	d, err := clock.ParseDate(date)
	require.NoError(t, err)
	blocks, err := f.blockRepo.ListByEmployeeDate(context.Background(), employeeID, d)
	require.NoError(t, err)
	return blocks
}

// ========== DIRECT ENTRY ==========

func TestCreateBlock_Success(t *testing.T) {
	f := newFixture(t)
	maria := f.addEmployee(t, "Maria", "maria@x.com", true)

	resp, err := f.blocks.CreateBlock(adminCtx(), workblock.CreateWorkBlockRequest{
		EmployeeID: maria.ID, Date: "2026-02-02", StartTime: "09:00", EndTime: "17:00",
	})

	require.NoError(t, err)
	assert.Equal(t, "2026-02-02", resp.Date)
	assert.Equal(t, "8", resp.Hours.String())
	assert.Equal(t, string(workblock.SourceManual), resp.Source)
}

func TestCreateBlock_ExactDuplicateIsConflict(t *testing.T) {
	f := newFixture(t)
	maria := f.addEmployee(t, "Maria", "maria@x.com", true)
	req := workblock.CreateWorkBlockRequest{EmployeeID: maria.ID, Date: "2026-02-02", StartTime: "09:00", EndTime: "17:00"}

	_, err := f.blocks.CreateBlock(adminCtx(), req)
	require.NoError(t, err)
	_, err = f.blocks.CreateBlock(adminCtx(), req)

	require.Error(t, err)
	assert.ErrorIs(t, err, workblock.ErrBlockOverlap)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Len(t, f.dayBlocks(t, maria.ID, "2026-02-02"), 1)
}

func TestCreateBlock_ConcurrentOverlapsOneWins(t *testing.T) {
	f := newFixture(t)
	maria := f.addEmployee(t, "Maria", "maria@x.com", true)
	starts := []string{"09:00", "09:30", "10:00", "10:15", "10:30", "11:00", "11:30", "11:45"}

	errs := make([]error, len(starts))
	var wg sync.WaitGroup
	for i, start := range starts {
		wg.Add(1)
		go func(i int, start string) {
			defer wg.Done()
			_, errs[i] = f.blocks.CreateBlock(adminCtx(), workblock.CreateWorkBlockRequest{
				EmployeeID: maria.ID, Date: "2026-02-02", StartTime: start, EndTime: "12:00",
			})
		}(i, start)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperr.IsKind(err, apperr.KindConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.dayBlocks(t, maria.ID, "2026-02-02"), 1)
}

func TestCreateBlock_ConcurrentDisjointAllLand(t *testing.T) {
	f := newFixture(t)
	maria := f.addEmployee(t, "Maria", "maria@x.com", true)
	slots := [][2]string{{"06:00", "07:00"}, {"07:00", "08:00"}, {"08:00", "09:00"}, {"09:00", "10:00"}, {"10:00", "11:00"}}

	var wg sync.WaitGroup
	for _, slot := range slots {
		wg.Add(1)
		go func(start, end string) {
			defer wg.Done()
			_, err := f.blocks.CreateBlock(adminCtx(), workblock.CreateWorkBlockRequest{
				EmployeeID: maria.ID, Date: "2026-02-02", StartTime: start, EndTime: end,
			})
			assert.NoError(t, err)
		}(slot[0], slot[1])
	}
	wg.Wait()

	assert.Len(t, f.dayBlocks(t, maria.ID, "2026-02-02"), len(slots))
}

func TestCreateBlock_InvalidIsValidationError(t *testing.T) {
	f := newFixture(t)
	maria := f.addEmployee(t, "Maria", "maria@x.com", true)

	_, err := f.blocks.CreateBlock(adminCtx(), workblock.CreateWorkBlockRequest{
		EmployeeID: maria.ID, Date: "2026-02-02", StartTime: "17:00", EndTime: "09:00",
	})

	var rejected *workblock.RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.True(t, rejected.Has(workblock.CodeInvalidRange))
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestCreateBlock_ReportsFieldAndOverlapRejectionsTogether(t *testing.T) {
	f := newFixture(t)
	maria := f.addEmployee(t, "Maria", "maria@x.com", true)
	_, err := f.blocks.CreateBlock(adminCtx(), workblock.CreateWorkBlockRequest{
		EmployeeID: maria.ID, Date: "2026-02-02", StartTime: "09:00", EndTime: "13:00",
	})
	require.NoError(t, err)

	_, err = f.blocks.CreateBlock(adminCtx(), workblock.CreateWorkBlockRequest{
		EmployeeID: maria.ID, Date: "2026-02-02", StartTime: "12:00", EndTime: "11:00",
	})

	var rejected *workblock.RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, []workblock.RejectionCode{workblock.CodeInvalidRange, workblock.CodeOverlap}, codes(rejected.Rejections))
	assert.ErrorIs(t, err, workblock.ErrBlockOverlap)

	require.NoError(t, f.empRepo.SetActive(context.Background(), maria.ID, false))
	_, err = f.blocks.CreateBlock(adminCtx(), workblock.CreateWorkBlockRequest{
		EmployeeID: maria.ID, Date: "2026-02-02", StartTime: "10:00", EndTime: "11:00",
	})
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, []workblock.RejectionCode{workblock.CodeInactiveEmployee, workblock.CodeOverlap}, codes(rejected.Rejections))
}

func TestCreateBlock_InactiveEmployee(t *testing.T) {
	f := newFixture(t)
	gone := f.addEmployee(t, "Gone", "gone@x.com", false)

	_, err := f.blocks.CreateBlock(adminCtx(), workblock.CreateWorkBlockRequest{
		EmployeeID: gone.ID, Date: "2026-02-02", StartTime: "09:00", EndTime: "17:00",
	})

	var rejected *workblock.RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.True(t, rejected.Has(workblock.CodeInactiveEmployee))
}

func TestCreateBlock_EmployeeWritesOwnBlocksOnly(t *testing.T) {
	f := newFixture(t)
	maria := f.addEmployee(t, "Maria", "maria@x.com", true)
	juan := f.addEmployee(t, "Juan", "juan@x.com", true)

	resp, err := f.blocks.CreateBlock(employeeCtx(maria.ID), workblock.CreateWorkBlockRequest{
		Date: "2026-02-02", StartTime: "09:00", EndTime: "13:00",
	})
	require.NoError(t, err)
	assert.Equal(t, maria.ID, resp.EmployeeID)

	_, err = f.blocks.CreateBlock(employeeCtx(maria.ID), workblock.CreateWorkBlockRequest{
		EmployeeID: juan.ID, Date: "2026-02-02", StartTime: "09:00", EndTime: "13:00",
	})
	assert.ErrorIs(t, err, auth.ErrAdminPrivilegeRequired)
}

func TestCreateBlock_ValidatedPayrollLocksPeriod(t *testing.T) {
	f := newFixture(t)
	maria := f.addEmployee(t, "Maria", "maria@x.com", true)
	_, err := f.payRepo.Create(context.Background(), payroll.Payroll{EmployeeID: maria.ID, Year: 2026, Month: 2, Status: payroll.StatusValidated})
	require.NoError(t, err)

	_, err = f.blocks.CreateBlock(adminCtx(), workblock.CreateWorkBlockRequest{
		EmployeeID: maria.ID, Date: "2026-02-02", StartTime: "09:00", EndTime: "17:00",
	})
	assert.ErrorIs(t, err, payroll.ErrPayrollLocked)

	_, err = f.blocks.CreateBlock(adminCtx(), workblock.CreateWorkBlockRequest{
		EmployeeID: maria.ID, Date: "2026-03-02", StartTime: "09:00", EndTime: "17:00",
	})
	assert.NoError(t, err)
}

func TestUpdateBlock_RevalidatesAgainstOtherBlocks(t *testing.T) {
	f := newFixture(t)
	maria := f.addEmployee(t, "Maria", "maria@x.com", true)
	first, err := f.blocks.CreateBlock(adminCtx(), workblock.CreateWorkBlockRequest{EmployeeID: maria.ID, Date: "2026-02-02", StartTime: "08:00", EndTime: "12:00"})
	require.NoError(t, err)
	_, err = f.blocks.CreateBlock(adminCtx(), workblock.CreateWorkBlockRequest{EmployeeID: maria.ID, Date: "2026-02-02", StartTime: "13:00", EndTime: "17:00"})
	require.NoError(t, err)

	// Extending the block onto itself is fine.
	updated, err := f.blocks.UpdateBlock(adminCtx(), workblock.UpdateWorkBlockRequest{ID: first.ID, Date: "2026-02-02", StartTime: "07:30", EndTime: "13:00"})
	require.NoError(t, err)
	assert.Equal(t, "07:30", updated.StartTime.String())
	assert.Equal(t, string(workblock.SourcePayrollEdit), updated.Source)

	_, err = f.blocks.UpdateBlock(adminCtx(), workblock.UpdateWorkBlockRequest{ID: first.ID, Date: "2026-02-02", StartTime: "07:30", EndTime: "14:00"})
	assert.ErrorIs(t, err, workblock.ErrBlockOverlap)
}

func TestDeleteBlock_RefusedWhenPayrollValidated(t *testing.T) {
	f := newFixture(t)
	maria := f.addEmployee(t, "Maria", "maria@x.com", true)
	created, err := f.blocks.CreateBlock(adminCtx(), workblock.CreateWorkBlockRequest{EmployeeID: maria.ID, Date: "2026-02-02", StartTime: "08:00", EndTime: "12:00"})
	require.NoError(t, err)

	p, err := f.payRepo.Create(context.Background(), payroll.Payroll{EmployeeID: maria.ID, Year: 2026, Month: 2, Status: payroll.StatusDraft})
	require.NoError(t, err)
	require.NoError(t, f.blocks.DeleteBlock(adminCtx(), created.ID))

	again, err := f.blocks.CreateBlock(adminCtx(), workblock.CreateWorkBlockRequest{EmployeeID: maria.ID, Date: "2026-02-02", StartTime: "08:00", EndTime: "12:00"})
	require.NoError(t, err)
	_, err = f.payRepo.Validate(context.Background(), p.ID, "admin-user", fixedNow())
	require.NoError(t, err)

	assert.ErrorIs(t, f.blocks.DeleteBlock(adminCtx(), again.ID), payroll.ErrPayrollLocked)
	assert.Len(t, f.dayBlocks(t, maria.ID, "2026-02-02"), 1)
}

func TestListMyBlocks_ScopedToCaller(t *testing.T) {
	f := newFixture(t)
	maria := f.addEmployee(t, "Maria", "maria@x.com", true)
	juan := f.addEmployee(t, "Juan", "juan@x.com", true)
	for _, id := range []string{maria.ID, juan.ID} {
		_, err := f.blocks.CreateBlock(adminCtx(), workblock.CreateWorkBlockRequest{EmployeeID: id, Date: "2026-02-02", StartTime: "08:00", EndTime: "12:00"})
		require.NoError(t, err)
	}

	list, err := f.blocks.ListMyBlocks(employeeCtx(juan.ID), workblock.WorkBlockFilter{})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, juan.ID, list.Data[0].EmployeeID)
	assert.EqualValues(t, 1, list.TotalCount)

	_, err = f.blocks.GetBlock(employeeCtx(juan.ID), list.Data[0].ID)
	assert.NoError(t, err)
	all, err := f.blocks.ListBlocks(adminCtx(), workblock.WorkBlockFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.TotalCount)
}

// ========== IMPORT ==========

func TestImport_IntraBatchOverlap(t *testing.T) {
	f := newFixture(t)
	maria := f.addEmployee(t, "Maria", "maria@x.com", true)

	result, err := f.importer.Import(adminCtx(), []workblock.ImportRow{
		{Date: "5/2/2026", Entrada: "16:00", Salida: "21:15", Mail: "maria@x.com"},
		{Date: "5/2/2026", Entrada: "17:00", Salida: "20:00", Mail: "maria@x.com"},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 0, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].RowIndex)
	assert.Equal(t, "17:00", result.Errors[0].RawData.Entrada)
	assert.Equal(t, []workblock.RejectionCode{workblock.CodeOverlap}, codes(result.Errors[0].Errors))

	blocks := f.dayBlocks(t, maria.ID, "2026-02-05")
	require.Len(t, blocks, 1)
	assert.Equal(t, "16:00", blocks[0].StartTime.String())
	assert.Equal(t, workblock.SourceImport, blocks[0].Source)
}

func TestImport_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.addEmployee(t, "Maria", "maria@x.com", true)
	f.addEmployee(t, "Juan", "juan@x.com", true)
	rows := []workblock.ImportRow{
		{Date: "2/2/2026", Entrada: "8:00", Salida: "12:00", Mail: "maria@x.com"},
		{Date: "2/2/2026", Entrada: "13:00", Salida: "17:00", Mail: "Maria@X.com "},
		{Date: "3/2/2026", Entrada: "9:00", Salida: "17:00", Mail: "juan@x.com"},
	}

	first, err := f.importer.Import(adminCtx(), rows)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Imported)
	assert.Empty(t, first.Errors)

	second, err := f.importer.Import(adminCtx(), rows)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Imported)
	assert.Equal(t, 3, second.Skipped)
	assert.Empty(t, second.Errors)
}

func TestImport_DuplicateRowInSameBatchIsOverlap(t *testing.T) {
	f := newFixture(t)
	f.addEmployee(t, "Maria", "maria@x.com", true)
	row := workblock.ImportRow{Date: "2/2/2026", Entrada: "8:00", Salida: "12:00", Mail: "maria@x.com"}

	result, err := f.importer.Import(adminCtx(), []workblock.ImportRow{row, row})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, []workblock.RejectionCode{workblock.CodeOverlap}, codes(result.Errors[0].Errors))
}

func TestImport_RowErrors(t *testing.T) {
	f := newFixture(t)
	maria := f.addEmployee(t, "Maria", "maria@x.com", true)
	f.addEmployee(t, "Gone", "gone@x.com", false)
	_, err := f.payRepo.Create(context.Background(), payroll.Payroll{EmployeeID: maria.ID, Year: 2026, Month: 1, Status: payroll.StatusValidated})
	require.NoError(t, err)

	result, err := f.importer.Import(adminCtx(), []workblock.ImportRow{
		{Date: "2/2/2026", Entrada: "8:00", Salida: "12:00", Mail: "nobody@x.com"},
		{Date: "2/2/2026", Entrada: "8:00", Salida: "12:00", Mail: "gone@x.com"},
		{Date: "2026-02-02", Entrada: "8h", Salida: "12:00", Mail: "nobody@x.com"},
		{Date: "15/1/2026", Entrada: "8:00", Salida: "12:00", Mail: "maria@x.com"},
		{Date: "1/4/2026", Entrada: "8:00", Salida: "12:00", Mail: "maria@x.com"},
		{Date: "2/2/2026", Entrada: "8:00", Salida: "12:00", Mail: "maria@x.com"},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Errors, 5)

	byRow := map[int][]workblock.RejectionCode{}
	for _, e := range result.Errors {
		byRow[e.RowIndex] = codes(e.Errors)
	}
	assert.Equal(t, []workblock.RejectionCode{workblock.CodeUnknownEmployee}, byRow[0])
	assert.Equal(t, []workblock.RejectionCode{workblock.CodeInactiveEmployee}, byRow[1])
	assert.Equal(t, []workblock.RejectionCode{
		workblock.CodeUnknownEmployee, workblock.CodeInvalidFormat, workblock.CodeInvalidFormat,
	}, byRow[2])
	assert.Equal(t, []workblock.RejectionCode{workblock.CodePayrollLocked}, byRow[3])
	assert.Equal(t, []workblock.RejectionCode{workblock.CodeFutureDate}, byRow[4])
}

func TestImport_InvalidRangeRowAlsoReportsOverlap(t *testing.T) {
	f := newFixture(t)
	f.addEmployee(t, "Maria", "maria@x.com", true)

	result, err := f.importer.Import(adminCtx(), []workblock.ImportRow{
		{Date: "2/2/2026", Entrada: "16:00", Salida: "21:15", Mail: "maria@x.com"},
		{Date: "2/2/2026", Entrada: "20:00", Salida: "19:00", Mail: "maria@x.com"},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].RowIndex)
	assert.Equal(t, []workblock.RejectionCode{workblock.CodeInvalidRange, workblock.CodeOverlap}, codes(result.Errors[0].Errors))
}

func TestImport_EmptyBatch(t *testing.T) {
	f := newFixture(t)
	_, err := f.importer.Import(adminCtx(), nil)
	assert.ErrorIs(t, err, workblock.ErrEmptyImport)
}

func TestImportCSV_ArchivesAndImports(t *testing.T) {
	f := newFixture(t)
	f.addEmployee(t, "Maria", "maria@x.com", true)
	csvData := "mail;date;entrada;salida\nmaria@x.com;5/2/2026;16:00;21:15\nmaria@x.com;5/2/2026;17:00;20:00\n"

	result, err := f.importer.ImportCSV(adminCtx(), "clock.csv", strings.NewReader(csvData))

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Errors, 1)
	require.NotNil(t, result.ArchivedFile)
	ok, err := f.storage.Exists(context.Background(), *result.ArchivedFile)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestImportCSV_RejectsMissingColumns(t *testing.T) {
	f := newFixture(t)
	_, err := f.importer.ImportCSV(adminCtx(), "clock.csv", strings.NewReader("date,entrada,mail\n5/2/2026,16:00,maria@x.com\n"))
	assert.ErrorIs(t, err, workblock.ErrInvalidCSV)
}
