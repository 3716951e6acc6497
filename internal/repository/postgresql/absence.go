package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/absence"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type absenceRepositoryImpl struct {
	db *database.DB
}

func NewAbsenceRepository(db *database.DB) absence.AbsenceRepository {
	return &absenceRepositoryImpl{db: db}
}

const absenceSelect = `
	SELECT a.id, a.employee_id, a.start_date, a.end_date, a.status, a.reason,
		a.reviewed_by, a.reviewed_at, a.review_notes, a.created_at, a.updated_at, e.full_name
	FROM absence_periods a
	JOIN employees e ON e.id = a.employee_id
`

func scanAbsence(row pgx.Row) (absence.AbsencePeriod, error) {
	var a absence.AbsencePeriod
	var status string
	err := row.Scan(
		&a.ID,
		&a.EmployeeID,
		&a.StartDate,
		&a.EndDate,
		&status,
		&a.Reason,
		&a.ReviewedBy,
		&a.ReviewedAt,
		&a.ReviewNotes,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.EmployeeName,
	)
	a.Status = absence.AbsenceStatus(status)
	return a, err
}

func (r *absenceRepositoryImpl) collect(rows pgx.Rows) ([]absence.AbsencePeriod, error) {
	defer rows.Close()
	out := make([]absence.AbsencePeriod, 0)
	for rows.Next() {
		a, err := scanAbsence(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan absence: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return out, nil
}

func (r *absenceRepositoryImpl) Create(ctx context.Context, a absence.AbsencePeriod) (absence.AbsencePeriod, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO absence_periods (employee_id, start_date, end_date, status, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	status := a.Status
	if status == "" {
		status = absence.StatusRequested
	}

	var id string
	if err := q.QueryRow(ctx, query, a.EmployeeID, a.StartDate, a.EndDate, string(status), a.Reason).Scan(&id); err != nil {
		return absence.AbsencePeriod{}, fmt.Errorf("failed to create absence: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *absenceRepositoryImpl) GetByID(ctx context.Context, id string) (absence.AbsencePeriod, error) {
	q := GetQuerier(ctx, r.db)

	a, err := scanAbsence(q.QueryRow(ctx, absenceSelect+" WHERE a.id = $1", id))
	if err != nil {
		if isNotFound(err) {
			return absence.AbsencePeriod{}, absence.ErrAbsenceNotFound
		}
		return absence.AbsencePeriod{}, fmt.Errorf("failed to get absence: %w", err)
	}
	return a, nil
}

func (r *absenceRepositoryImpl) List(ctx context.Context, filter absence.AbsenceFilter) ([]absence.AbsencePeriod, int64, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("a.employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	whereClause := strings.Join(conditions, " AND ")

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM absence_periods a WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count absences: %w", err)
	}

	query := absenceSelect + " WHERE " + whereClause + " ORDER BY a.created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
		args = append(args, filter.Limit, (max(filter.Page, 1)-1)*filter.Limit)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list absences: %w", err)
	}
	list, err := r.collect(rows)
	return list, total, err
}

func (r *absenceRepositoryImpl) ListApproved(ctx context.Context, employeeID string) ([]absence.AbsencePeriod, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, absenceSelect+" WHERE a.employee_id = $1 AND a.status = 'approved' ORDER BY a.start_date ASC", employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved absences: %w", err)
	}
	return r.collect(rows)
}

func (r *absenceRepositoryImpl) HasOverlapping(ctx context.Context, employeeID string, from, to time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM absence_periods
			WHERE employee_id = $1
				AND status IN ('requested', 'approved')
				AND start_date <= $3 AND end_date >= $2
		)
	`
	var exists bool
	if err := q.QueryRow(ctx, query, employeeID, from, to).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check overlapping absences: %w", err)
	}
	return exists, nil
}

// Review is a conditional update so two reviewers cannot both win.
func (r *absenceRepositoryImpl) Review(ctx context.Context, req absence.ReviewAbsenceRequest, status absence.AbsenceStatus, reviewedAt time.Time) (absence.AbsencePeriod, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE absence_periods
		SET status = $1, reviewed_by = $2, reviewed_at = $3, review_notes = $4, updated_at = NOW()
		WHERE id = $5 AND status = 'requested'
	`
	commandTag, err := q.Exec(ctx, query, string(status), req.ReviewerID, reviewedAt, req.ReviewNotes, req.ID)
	if err != nil {
		if isNotFound(err) {
			return absence.AbsencePeriod{}, absence.ErrAbsenceNotFound
		}
		return absence.AbsencePeriod{}, fmt.Errorf("failed to review absence: %w", err)
	}

	a, err := r.GetByID(ctx, req.ID)
	if err != nil {
		return absence.AbsencePeriod{}, err
	}
	if commandTag.RowsAffected() == 0 {
		return absence.AbsencePeriod{}, absence.ErrAbsenceAlreadyReviewed
	}
	return a, nil
}
