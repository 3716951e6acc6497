package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/schedule"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type scheduleRepositoryImpl struct {
	db *database.DB
}

func NewScheduleRepository(db *database.DB) schedule.ScheduleRepository {
	return &scheduleRepositoryImpl{db: db}
}

const scheduleSelect = `
	SELECT s.id, s.name, s.start_date, s.end_date, s.status, s.created_by, s.published_at,
		s.created_at, s.updated_at,
		(SELECT COUNT(*) FROM shifts sh WHERE sh.schedule_id = s.id) AS shift_count
	FROM schedules s
`

func scanSchedule(row pgx.Row) (schedule.Schedule, error) {
	var sc schedule.Schedule
	var status string
	err := row.Scan(
		&sc.ID, &sc.Name, &sc.StartDate, &sc.EndDate, &status, &sc.CreatedBy, &sc.PublishedAt,
		&sc.CreatedAt, &sc.UpdatedAt, &sc.ShiftCount,
	)
	sc.Status = schedule.ScheduleStatus(status)
	return sc, err
}

func (r *scheduleRepositoryImpl) Create(ctx context.Context, sc schedule.Schedule) (schedule.Schedule, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO schedules (name, start_date, end_date, status, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := q.QueryRow(ctx, query, sc.Name, sc.StartDate, sc.EndDate, string(sc.Status), sc.CreatedBy).
		Scan(&sc.ID, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return schedule.Schedule{}, fmt.Errorf("failed to create schedule: %w", err)
	}
	sc.ShiftCount = 0
	return sc, nil
}

func (r *scheduleRepositoryImpl) GetByID(ctx context.Context, id string) (schedule.Schedule, error) {
	q := GetQuerier(ctx, r.db)

	sc, err := scanSchedule(q.QueryRow(ctx, scheduleSelect+" WHERE s.id = $1", id))
	if err != nil {
		if isNotFound(err) {
			return schedule.Schedule{}, schedule.ErrScheduleNotFound
		}
		return schedule.Schedule{}, fmt.Errorf("failed to get schedule: %w", err)
	}
	return sc, nil
}

func (r *scheduleRepositoryImpl) List(ctx context.Context, filter schedule.ScheduleFilter) ([]schedule.Schedule, int64, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM schedules s"+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count schedules: %w", err)
	}

	query := scheduleSelect + whereClause + " ORDER BY s.start_date DESC, s.created_at ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
		args = append(args, filter.Limit, (max(filter.Page, 1)-1)*filter.Limit)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	list := make([]schedule.Schedule, 0)
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan schedule: %w", err)
		}
		list = append(list, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}
	return list, total, nil
}

func (r *scheduleRepositoryImpl) Publish(ctx context.Context, id string, at time.Time) (schedule.Schedule, error) {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `
		UPDATE schedules
		SET status = 'published', published_at = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'draft'
	`, at, id)
	if err != nil {
		if isNotFound(err) {
			return schedule.Schedule{}, schedule.ErrScheduleNotFound
		}
		return schedule.Schedule{}, fmt.Errorf("failed to publish schedule: %w", err)
	}

	sc, err := r.GetByID(ctx, id)
	if err != nil {
		return schedule.Schedule{}, err
	}
	if commandTag.RowsAffected() == 0 {
		return schedule.Schedule{}, schedule.ErrScheduleAlreadyPublished
	}
	return sc, nil
}

// Delete relies on ON DELETE CASCADE for the shifts.
func (r *scheduleRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		if isNotFound(err) {
			return schedule.ErrScheduleNotFound
		}
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return schedule.ErrScheduleNotFound
	}
	return nil
}

// =============================================================================
// SHIFTS
// =============================================================================

type shiftRepositoryImpl struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) schedule.ShiftRepository {
	return &shiftRepositoryImpl{db: db}
}

const shiftSelect = `
	SELECT sh.id, sh.schedule_id, sh.employee_id, sh.date, sh.start_minute, sh.end_minute,
		sh.created_at, sh.updated_at, e.full_name, s.status
	FROM shifts sh
	JOIN employees e ON e.id = sh.employee_id
	JOIN schedules s ON s.id = sh.schedule_id
`

const shiftOrder = " ORDER BY sh.date ASC, sh.start_minute ASC"

func scanShift(row pgx.Row) (schedule.Shift, error) {
	var sh schedule.Shift
	var start, end int
	var name, status string
	err := row.Scan(
		&sh.ID, &sh.ScheduleID, &sh.EmployeeID, &sh.Date, &start, &end,
		&sh.CreatedAt, &sh.UpdatedAt, &name, &status,
	)
	if err != nil {
		return schedule.Shift{}, err
	}
	sh.StartTime = clock.TimeOfDay(start)
	sh.EndTime = clock.TimeOfDay(end)
	scheduleStatus := schedule.ScheduleStatus(status)
	sh.EmployeeName = &name
	sh.ScheduleStatus = &scheduleStatus
	return sh, nil
}

func (r *shiftRepositoryImpl) list(ctx context.Context, where string, args ...interface{}) ([]schedule.Shift, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, shiftSelect+" WHERE "+where+shiftOrder, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	defer rows.Close()

	out := make([]schedule.Shift, 0)
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		out = append(out, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return out, nil
}

func (r *shiftRepositoryImpl) Create(ctx context.Context, sh schedule.Shift) (schedule.Shift, error) {
	q := GetQuerier(ctx, r.db)

	var id string
	err := q.QueryRow(ctx, `
		INSERT INTO shifts (schedule_id, employee_id, date, start_minute, end_minute)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, sh.ScheduleID, sh.EmployeeID, sh.Date, int(sh.StartTime), int(sh.EndTime)).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err, "shifts_schedule_id_fkey") || isNotFound(err) {
			return schedule.Shift{}, schedule.ErrScheduleNotFound
		}
		return schedule.Shift{}, fmt.Errorf("failed to create shift: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *shiftRepositoryImpl) GetByID(ctx context.Context, id string) (schedule.Shift, error) {
	q := GetQuerier(ctx, r.db)

	sh, err := scanShift(q.QueryRow(ctx, shiftSelect+" WHERE sh.id = $1", id))
	if err != nil {
		if isNotFound(err) {
			return schedule.Shift{}, schedule.ErrShiftNotFound
		}
		return schedule.Shift{}, fmt.Errorf("failed to get shift: %w", err)
	}
	return sh, nil
}

func (r *shiftRepositoryImpl) Update(ctx context.Context, sh schedule.Shift) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `
		UPDATE shifts
		SET employee_id = $1, date = $2, start_minute = $3, end_minute = $4, updated_at = NOW()
		WHERE id = $5
	`, sh.EmployeeID, sh.Date, int(sh.StartTime), int(sh.EndTime), sh.ID)
	if err != nil {
		if isNotFound(err) {
			return schedule.ErrShiftNotFound
		}
		return fmt.Errorf("failed to update shift: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return schedule.ErrShiftNotFound
	}
	return nil
}

func (r *shiftRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	if err != nil {
		if isNotFound(err) {
			return schedule.ErrShiftNotFound
		}
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return schedule.ErrShiftNotFound
	}
	return nil
}

func (r *shiftRepositoryImpl) ListBySchedule(ctx context.Context, scheduleID string) ([]schedule.Shift, error) {
	return r.list(ctx, "sh.schedule_id = $1", scheduleID)
}

func (r *shiftRepositoryImpl) ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]schedule.Shift, error) {
	return r.list(ctx, "sh.employee_id = $1 AND sh.date BETWEEN $2 AND $3", employeeID, from, to)
}

func (r *shiftRepositoryImpl) ListBetween(ctx context.Context, from, to time.Time) ([]schedule.Shift, error) {
	return r.list(ctx, "sh.date BETWEEN $1 AND $2", from, to)
}

func (r *shiftRepositoryImpl) DeleteByEmployeeBetween(ctx context.Context, employeeID string, from time.Time, to *time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	// A NULL upper bound leaves the range open.
	commandTag, err := q.Exec(ctx, `
		DELETE FROM shifts
		WHERE employee_id = $1 AND date >= $2 AND ($3::date IS NULL OR date <= $3::date)
	`, employeeID, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to delete shifts: %w", err)
	}
	return commandTag.RowsAffected(), nil
}
