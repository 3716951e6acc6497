package postgresql_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/database"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TEST_DATABASE_URL and skips the test when it is unset.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, postgresql.Migrate(ctx, db))
	return db
}

func tod(t *testing.T, s string) clock.TimeOfDay {
	t.Helper()
	v, err := clock.ParseTimeOfDay(s)
	require.NoError(t, err)
	return v
}

func TestWorkBlockRepository_OverlapConstraint(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	emp, err := postgresql.NewEmployeeRepository(db).Create(ctx, employee.Employee{
		FullName: "Repo Test",
		Email:    uuid.NewString() + "@cafe.test",
		IsActive: true,
	})
	require.NoError(t, err)

	repo := postgresql.NewWorkBlockRepository(db)
	day := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)

	first, err := repo.Create(ctx, workblock.WorkBlock{
		EmployeeID: emp.ID, Date: day,
		StartTime: tod(t, "09:00"), EndTime: tod(t, "13:00"),
		Source: workblock.SourceManual,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	_, err = repo.Create(ctx, workblock.WorkBlock{
		EmployeeID: emp.ID, Date: day,
		StartTime: tod(t, "12:00"), EndTime: tod(t, "14:00"),
		Source: workblock.SourceManual,
	})
	assert.ErrorIs(t, err, workblock.ErrBlockOverlap)

	// Touching intervals are allowed.
	_, err = repo.Create(ctx, workblock.WorkBlock{
		EmployeeID: emp.ID, Date: day,
		StartTime: tod(t, "13:00"), EndTime: tod(t, "15:00"),
		Source: workblock.SourceImport,
	})
	require.NoError(t, err)

	blocks, err := repo.ListByEmployeeDate(ctx, emp.ID, day)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, tod(t, "09:00"), blocks[0].StartTime)
	assert.Equal(t, workblock.SourceImport, blocks[1].Source)

	require.NoError(t, repo.Delete(ctx, first.ID))
	_, err = repo.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, workblock.ErrWorkBlockNotFound)
}
