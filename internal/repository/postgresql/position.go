package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/master/position"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type positionRepositoryImpl struct {
	db *database.DB
}

func NewPositionRepository(db *database.DB) position.PositionRepository {
	return &positionRepositoryImpl{db: db}
}

const positionColumns = `
	id, name, description, contract_type, hourly_rate, base_salary,
	standard_hours_per_period, overtime_multiplier, weekend_multiplier,
	holiday_multiplier, created_at, updated_at
`

func scanPosition(row pgx.Row) (position.Position, error) {
	var p position.Position
	var contractType string
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&contractType,
		&p.RatePolicy.HourlyRate,
		&p.RatePolicy.BaseSalary,
		&p.RatePolicy.StandardHoursPerPeriod,
		&p.RatePolicy.OvertimeMultiplier,
		&p.RatePolicy.WeekendMultiplier,
		&p.RatePolicy.HolidayMultiplier,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	p.RatePolicy.ContractType = position.ContractType(contractType)
	return p, err
}

// Create implements position.PositionRepository.
func (r *positionRepositoryImpl) Create(ctx context.Context, p position.Position) (position.Position, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO positions (
			name, description, contract_type, hourly_rate, base_salary,
			standard_hours_per_period, overtime_multiplier, weekend_multiplier, holiday_multiplier
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + positionColumns

	rp := p.RatePolicy
	result, err := scanPosition(q.QueryRow(ctx, query,
		p.Name,
		p.Description,
		string(rp.ContractType),
		rp.HourlyRate,
		rp.BaseSalary,
		rp.StandardHoursPerPeriod,
		rp.OvertimeMultiplier,
		rp.WeekendMultiplier,
		rp.HolidayMultiplier,
	))
	if err != nil {
		if isUniqueViolation(err, "positions_name_key") {
			return position.Position{}, position.ErrPositionNameExists
		}
		return position.Position{}, fmt.Errorf("failed to create position: %w", err)
	}
	return result, nil
}

// GetByID implements position.PositionRepository.
func (r *positionRepositoryImpl) GetByID(ctx context.Context, id string) (position.Position, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + positionColumns + ` FROM positions WHERE id = $1`

	result, err := scanPosition(q.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFound(err) {
			return position.Position{}, position.ErrPositionNotFound
		}
		return position.Position{}, fmt.Errorf("failed to get position: %w", err)
	}
	return result, nil
}

// List implements position.PositionRepository.
func (r *positionRepositoryImpl) List(ctx context.Context) ([]position.Position, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + positionColumns + ` FROM positions ORDER BY name ASC`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}
	defer rows.Close()

	positions := make([]position.Position, 0)
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return positions, nil
}

// Update implements position.PositionRepository.
func (r *positionRepositoryImpl) Update(ctx context.Context, p position.Position) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE positions
		SET name = $1, description = $2, contract_type = $3, hourly_rate = $4,
			base_salary = $5, standard_hours_per_period = $6, overtime_multiplier = $7,
			weekend_multiplier = $8, holiday_multiplier = $9, updated_at = NOW()
		WHERE id = $10
	`

	rp := p.RatePolicy
	commandTag, err := q.Exec(ctx, query,
		p.Name,
		p.Description,
		string(rp.ContractType),
		rp.HourlyRate,
		rp.BaseSalary,
		rp.StandardHoursPerPeriod,
		rp.OvertimeMultiplier,
		rp.WeekendMultiplier,
		rp.HolidayMultiplier,
		p.ID,
	)
	if err != nil {
		if isUniqueViolation(err, "positions_name_key") {
			return position.ErrPositionNameExists
		}
		if isNotFound(err) {
			return position.ErrPositionNotFound
		}
		return fmt.Errorf("failed to update position: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return position.ErrPositionNotFound
	}
	return nil
}

// Delete implements position.PositionRepository. Positions still assigned to
// an employee are kept.
func (r *positionRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM positions WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err, "") {
			return position.ErrPositionInUse
		}
		if isNotFound(err) {
			return position.ErrPositionNotFound
		}
		return fmt.Errorf("failed to delete position: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return position.ErrPositionNotFound
	}
	return nil
}
