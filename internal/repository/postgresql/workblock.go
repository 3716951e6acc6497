package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type workBlockRepositoryImpl struct {
	db *database.DB
}

func NewWorkBlockRepository(db *database.DB) workblock.WorkBlockRepository {
	return &workBlockRepositoryImpl{db: db}
}

const workBlockColumns = `id, employee_id, date, start_minute, end_minute, source, created_at, updated_at`

// overlapConstraint backs the no-overlap rule per employee and day.
const overlapConstraint = "work_blocks_no_overlap"

func scanWorkBlock(row pgx.Row) (workblock.WorkBlock, error) {
	var b workblock.WorkBlock
	var start, end int
	var source string
	err := row.Scan(&b.ID, &b.EmployeeID, &b.Date, &start, &end, &source, &b.CreatedAt, &b.UpdatedAt)
	b.StartTime = clock.TimeOfDay(start)
	b.EndTime = clock.TimeOfDay(end)
	b.Source = workblock.Source(source)
	return b, err
}

func (r *workBlockRepositoryImpl) collect(rows pgx.Rows) ([]workblock.WorkBlock, error) {
	defer rows.Close()
	out := make([]workblock.WorkBlock, 0)
	for rows.Next() {
		b, err := scanWorkBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work block: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return out, nil
}

func (r *workBlockRepositoryImpl) Create(ctx context.Context, b workblock.WorkBlock) (workblock.WorkBlock, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO work_blocks (employee_id, date, start_minute, end_minute, source)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + workBlockColumns

	created, err := scanWorkBlock(q.QueryRow(ctx, query, b.EmployeeID, b.Date, int(b.StartTime), int(b.EndTime), string(b.Source)))
	if err != nil {
		if isExclusionViolation(err, overlapConstraint) {
			return workblock.WorkBlock{}, workblock.ErrBlockOverlap
		}
		return workblock.WorkBlock{}, fmt.Errorf("failed to create work block: %w", err)
	}
	return created, nil
}

func (r *workBlockRepositoryImpl) GetByID(ctx context.Context, id string) (workblock.WorkBlock, error) {
	q := GetQuerier(ctx, r.db)

	b, err := scanWorkBlock(q.QueryRow(ctx, `SELECT `+workBlockColumns+` FROM work_blocks WHERE id = $1`, id))
	if err != nil {
		if isNotFound(err) {
			return workblock.WorkBlock{}, workblock.ErrWorkBlockNotFound
		}
		return workblock.WorkBlock{}, fmt.Errorf("failed to get work block: %w", err)
	}
	return b, nil
}

func (r *workBlockRepositoryImpl) Update(ctx context.Context, b workblock.WorkBlock) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE work_blocks
		SET date = $1, start_minute = $2, end_minute = $3, source = $4, updated_at = NOW()
		WHERE id = $5
	`
	commandTag, err := q.Exec(ctx, query, b.Date, int(b.StartTime), int(b.EndTime), string(b.Source), b.ID)
	if err != nil {
		if isExclusionViolation(err, overlapConstraint) {
			return workblock.ErrBlockOverlap
		}
		if isNotFound(err) {
			return workblock.ErrWorkBlockNotFound
		}
		return fmt.Errorf("failed to update work block: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return workblock.ErrWorkBlockNotFound
	}
	return nil
}

func (r *workBlockRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM work_blocks WHERE id = $1`, id)
	if err != nil {
		if isNotFound(err) {
			return workblock.ErrWorkBlockNotFound
		}
		return fmt.Errorf("failed to delete work block: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return workblock.ErrWorkBlockNotFound
	}
	return nil
}

func (r *workBlockRepositoryImpl) ListByEmployeeDate(ctx context.Context, employeeID string, date time.Time) ([]workblock.WorkBlock, error) {
	return r.ListByEmployeeBetween(ctx, employeeID, date, date)
}

func (r *workBlockRepositoryImpl) ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]workblock.WorkBlock, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + workBlockColumns + `
		FROM work_blocks
		WHERE employee_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date ASC, start_minute ASC
	`
	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list work blocks: %w", err)
	}
	return r.collect(rows)
}

func (r *workBlockRepositoryImpl) ListBetween(ctx context.Context, from, to time.Time) ([]workblock.WorkBlock, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + workBlockColumns + `
		FROM work_blocks
		WHERE date BETWEEN $1 AND $2
		ORDER BY date ASC, start_minute ASC
	`
	rows, err := q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list work blocks: %w", err)
	}
	return r.collect(rows)
}

func (r *workBlockRepositoryImpl) List(ctx context.Context, filter workblock.WorkBlockFilter) ([]workblock.WorkBlock, int64, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", argIdx))
		args = append(args, *filter.From)
		argIdx++
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", argIdx))
		args = append(args, *filter.To)
		argIdx++
	}
	whereClause := strings.Join(conditions, " AND ")

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM work_blocks WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count work blocks: %w", err)
	}

	query := "SELECT " + workBlockColumns + " FROM work_blocks WHERE " + whereClause + " ORDER BY date ASC, start_minute ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
		args = append(args, filter.Limit, (max(filter.Page, 1)-1)*filter.Limit)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list work blocks: %w", err)
	}
	list, err := r.collect(rows)
	return list, total, err
}
