package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

const payrollSelect = `
	SELECT p.id, p.employee_id, p.year, p.month, p.status,
		p.hours_worked, p.scheduled_hours, p.hours_difference, p.hourly_rate, p.gross_salary,
		p.breakdown, p.rate_policy, p.notes,
		p.validated_at, p.validated_by, p.employee_validated_at, p.employee_validated_by,
		p.created_at, p.updated_at, e.full_name
	FROM payrolls p
	JOIN employees e ON e.id = p.employee_id
`

func scanPayroll(row pgx.Row) (payroll.Payroll, error) {
	var p payroll.Payroll
	var status string
	var breakdown, ratePolicy []byte
	var name string
	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.Year, &p.Month, &status,
		&p.HoursWorked, &p.ScheduledHours, &p.HoursDifference, &p.HourlyRate, &p.GrossSalary,
		&breakdown, &ratePolicy, &p.Notes,
		&p.ValidatedAt, &p.ValidatedBy, &p.EmployeeValidatedAt, &p.EmployeeValidatedBy,
		&p.CreatedAt, &p.UpdatedAt, &name,
	)
	if err != nil {
		return payroll.Payroll{}, err
	}
	p.Status = payroll.PayrollStatus(status)
	p.EmployeeName = &name
	if err := json.Unmarshal(breakdown, &p.Breakdown); err != nil {
		return payroll.Payroll{}, fmt.Errorf("failed to decode breakdown: %w", err)
	}
	if err := json.Unmarshal(ratePolicy, &p.RatePolicy); err != nil {
		return payroll.Payroll{}, fmt.Errorf("failed to decode rate policy: %w", err)
	}
	return p, nil
}

func encodeSnapshot(p payroll.Payroll) ([]byte, []byte, error) {
	breakdown, err := json.Marshal(p.Breakdown)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode breakdown: %w", err)
	}
	ratePolicy, err := json.Marshal(p.RatePolicy)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode rate policy: %w", err)
	}
	return breakdown, ratePolicy, nil
}

func (r *payrollRepository) getOne(ctx context.Context, where string, args ...interface{}) (payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	p, err := scanPayroll(q.QueryRow(ctx, payrollSelect+" WHERE "+where, args...))
	if err != nil {
		if isNotFound(err) {
			return payroll.Payroll{}, payroll.ErrPayrollNotFound
		}
		return payroll.Payroll{}, fmt.Errorf("failed to get payroll: %w", err)
	}
	return p, nil
}

func (r *payrollRepository) Create(ctx context.Context, p payroll.Payroll) (payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	breakdown, ratePolicy, err := encodeSnapshot(p)
	if err != nil {
		return payroll.Payroll{}, err
	}

	var id string
	err = q.QueryRow(ctx, `
		INSERT INTO payrolls (
			employee_id, year, month, status,
			hours_worked, scheduled_hours, hours_difference, hourly_rate, gross_salary,
			breakdown, rate_policy, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`,
		p.EmployeeID, p.Year, p.Month, string(p.Status),
		p.HoursWorked, p.ScheduledHours, p.HoursDifference, p.HourlyRate, p.GrossSalary,
		breakdown, ratePolicy, p.Notes,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err, "payrolls_employee_period_key") {
			return payroll.Payroll{}, payroll.ErrPayrollAlreadyExists
		}
		return payroll.Payroll{}, fmt.Errorf("failed to create payroll: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *payrollRepository) GetByID(ctx context.Context, id string) (payroll.Payroll, error) {
	return r.getOne(ctx, "p.id = $1", id)
}

func (r *payrollRepository) GetByEmployeePeriod(ctx context.Context, employeeID string, year, month int) (payroll.Payroll, error) {
	return r.getOne(ctx, "p.employee_id = $1 AND p.year = $2 AND p.month = $3", employeeID, year, month)
}

func (r *payrollRepository) GetByEmployeePeriodForShare(ctx context.Context, employeeID string, year, month int) (payroll.Payroll, error) {
	return r.getOne(ctx, "p.employee_id = $1 AND p.year = $2 AND p.month = $3 FOR SHARE OF p", employeeID, year, month)
}

func (r *payrollRepository) List(ctx context.Context, filter payroll.PayrollFilter) ([]payroll.Payroll, int64, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	if filter.Year != nil {
		conditions = append(conditions, fmt.Sprintf("p.year = $%d", argIdx))
		args = append(args, *filter.Year)
		argIdx++
	}
	if filter.Month != nil {
		conditions = append(conditions, fmt.Sprintf("p.month = $%d", argIdx))
		args = append(args, *filter.Month)
		argIdx++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("p.employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM payrolls p"+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payrolls: %w", err)
	}

	query := payrollSelect + whereClause + " ORDER BY p.year DESC, p.month DESC, p.created_at ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
		args = append(args, filter.Limit, (max(filter.Page, 1)-1)*filter.Limit)
	}

	list, err := r.collect(ctx, query, args...)
	return list, total, err
}

func (r *payrollRepository) ListByPeriod(ctx context.Context, year, month int) ([]payroll.Payroll, error) {
	return r.collect(ctx, payrollSelect+" WHERE p.year = $1 AND p.month = $2 ORDER BY e.full_name ASC", year, month)
}

func (r *payrollRepository) collect(ctx context.Context, query string, args ...interface{}) ([]payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payrolls: %w", err)
	}
	defer rows.Close()

	out := make([]payroll.Payroll, 0)
	for rows.Next() {
		p, err := scanPayroll(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return out, nil
}

func (r *payrollRepository) PeriodTotals(ctx context.Context, limit int) ([]payroll.PeriodTotal, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT year, month, COUNT(*),
			COUNT(*) FILTER (WHERE status = 'validated'),
			COALESCE(SUM(hours_worked), 0), COALESCE(SUM(gross_salary), 0)
		FROM payrolls
		GROUP BY year, month
		ORDER BY year DESC, month DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate payrolls: %w", err)
	}
	defer rows.Close()

	out := make([]payroll.PeriodTotal, 0)
	for rows.Next() {
		var t payroll.PeriodTotal
		var hours, gross decimal.Decimal
		if err := rows.Scan(&t.Year, &t.Month, &t.PayrollCount, &t.ValidatedCount, &hours, &gross); err != nil {
			return nil, fmt.Errorf("failed to scan period total: %w", err)
		}
		t.TotalHoursWorked = hours
		t.TotalGross = gross
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return out, nil
}

// lockedOrMissing resolves a conditional update that touched no row.
func (r *payrollRepository) lockedOrMissing(ctx context.Context, id string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return payroll.ErrPayrollLocked
}

func (r *payrollRepository) UpdateSnapshot(ctx context.Context, p payroll.Payroll) (payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	breakdown, ratePolicy, err := encodeSnapshot(p)
	if err != nil {
		return payroll.Payroll{}, err
	}

	commandTag, err := q.Exec(ctx, `
		UPDATE payrolls
		SET hours_worked = $1, scheduled_hours = $2, hours_difference = $3, hourly_rate = $4,
			gross_salary = $5, breakdown = $6, rate_policy = $7, updated_at = NOW()
		WHERE id = $8 AND status = 'draft'
	`,
		p.HoursWorked, p.ScheduledHours, p.HoursDifference, p.HourlyRate,
		p.GrossSalary, breakdown, ratePolicy, p.ID,
	)
	if err != nil {
		if isNotFound(err) {
			return payroll.Payroll{}, payroll.ErrPayrollNotFound
		}
		return payroll.Payroll{}, fmt.Errorf("failed to update payroll: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return payroll.Payroll{}, r.lockedOrMissing(ctx, p.ID)
	}
	return r.GetByID(ctx, p.ID)
}

func (r *payrollRepository) Validate(ctx context.Context, id, validatedBy string, at time.Time) (payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `
		UPDATE payrolls
		SET status = 'validated', validated_by = $1, validated_at = $2, updated_at = NOW()
		WHERE id = $3 AND status = 'draft'
	`, validatedBy, at, id)
	if err != nil {
		if isNotFound(err) {
			return payroll.Payroll{}, payroll.ErrPayrollNotFound
		}
		return payroll.Payroll{}, fmt.Errorf("failed to validate payroll: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return payroll.Payroll{}, r.lockedOrMissing(ctx, id)
	}
	return r.GetByID(ctx, id)
}

func (r *payrollRepository) Accept(ctx context.Context, id, employeeID string, at time.Time) (payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `
		UPDATE payrolls
		SET employee_validated_by = $1, employee_validated_at = $2, updated_at = NOW()
		WHERE id = $3 AND status = 'validated' AND employee_validated_at IS NULL
	`, employeeID, at, id)
	if err != nil {
		if isNotFound(err) {
			return payroll.Payroll{}, payroll.ErrPayrollNotFound
		}
		return payroll.Payroll{}, fmt.Errorf("failed to accept payroll: %w", err)
	}

	p, err := r.GetByID(ctx, id)
	if err != nil {
		return payroll.Payroll{}, err
	}
	if commandTag.RowsAffected() == 0 {
		if p.Status != payroll.StatusValidated {
			return payroll.Payroll{}, payroll.ErrPayrollNotValidated
		}
		return payroll.Payroll{}, payroll.ErrPayrollAlreadyAccepted
	}
	return p, nil
}

func (r *payrollRepository) UpdateNotes(ctx context.Context, id string, notes *string) (payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `UPDATE payrolls SET notes = $1, updated_at = NOW() WHERE id = $2`, notes, id)
	if err != nil {
		if isNotFound(err) {
			return payroll.Payroll{}, payroll.ErrPayrollNotFound
		}
		return payroll.Payroll{}, fmt.Errorf("failed to update payroll notes: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return payroll.Payroll{}, payroll.ErrPayrollNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *payrollRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM payrolls WHERE id = $1 AND status = 'draft'`, id)
	if err != nil {
		if isNotFound(err) {
			return payroll.ErrPayrollNotFound
		}
		return fmt.Errorf("failed to delete payroll: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return r.lockedOrMissing(ctx, id)
	}
	return nil
}
