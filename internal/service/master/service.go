package master

import (
	"context"
	"log/slog"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/master/holiday"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/master/position"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
)

type MasterService interface {
	// Position operations
	CreatePosition(ctx context.Context, req position.CreatePositionRequest) (position.PositionResponse, error)
	GetPosition(ctx context.Context, id string) (position.PositionResponse, error)
	ListPositions(ctx context.Context) ([]position.PositionResponse, error)
	UpdatePosition(ctx context.Context, req position.UpdatePositionRequest) (position.PositionResponse, error)
	DeletePosition(ctx context.Context, id string) error

	// Holiday operations
	CreateHoliday(ctx context.Context, req holiday.CreateHolidayRequest) (holiday.HolidayResponse, error)
	ListHolidays(ctx context.Context, filter holiday.HolidayFilter) ([]holiday.HolidayResponse, error)
	DeleteHoliday(ctx context.Context, id string) error
}

type masterServiceImpl struct {
	positionRepo position.PositionRepository
	holidayRepo  holiday.HolidayRepository
}

func NewMasterService(
	positionRepo position.PositionRepository,
	holidayRepo holiday.HolidayRepository,
) MasterService {
	return &masterServiceImpl{
		positionRepo: positionRepo,
		holidayRepo:  holidayRepo,
	}
}

// ==================== POSITION OPERATIONS ====================

func (s *masterServiceImpl) CreatePosition(ctx context.Context, req position.CreatePositionRequest) (position.PositionResponse, error) {
	if err := req.Validate(); err != nil {
		return position.PositionResponse{}, err
	}

	created, err := s.positionRepo.Create(ctx, position.Position{
		Name:        req.Name,
		Description: req.Description,
		RatePolicy:  req.Policy(),
	})
	if err != nil {
		return position.PositionResponse{}, err
	}
	return position.ToResponse(created), nil
}

func (s *masterServiceImpl) GetPosition(ctx context.Context, id string) (position.PositionResponse, error) {
	p, err := s.positionRepo.GetByID(ctx, id)
	if err != nil {
		return position.PositionResponse{}, err
	}
	return position.ToResponse(p), nil
}

func (s *masterServiceImpl) ListPositions(ctx context.Context) ([]position.PositionResponse, error) {
	positions, err := s.positionRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]position.PositionResponse, 0, len(positions))
	for _, p := range positions {
		responses = append(responses, position.ToResponse(p))
	}
	return responses, nil
}

// UpdatePosition replaces name, description and rate policy. Payrolls
// already generated keep their own copy of the old policy.
func (s *masterServiceImpl) UpdatePosition(ctx context.Context, req position.UpdatePositionRequest) (position.PositionResponse, error) {
	if err := req.Validate(); err != nil {
		return position.PositionResponse{}, err
	}

	current, err := s.positionRepo.GetByID(ctx, req.ID)
	if err != nil {
		return position.PositionResponse{}, err
	}
	current.Name = req.Name
	current.Description = req.Description
	current.RatePolicy = req.Policy()

	if err := s.positionRepo.Update(ctx, current); err != nil {
		return position.PositionResponse{}, err
	}
	slog.Info("Position rate policy updated", "position_id", current.ID, "contract_type", current.RatePolicy.ContractType)

	updated, err := s.positionRepo.GetByID(ctx, req.ID)
	if err != nil {
		return position.PositionResponse{}, err
	}
	return position.ToResponse(updated), nil
}

func (s *masterServiceImpl) DeletePosition(ctx context.Context, id string) error {
	return s.positionRepo.Delete(ctx, id)
}

// ==================== HOLIDAY OPERATIONS ====================

func (s *masterServiceImpl) CreateHoliday(ctx context.Context, req holiday.CreateHolidayRequest) (holiday.HolidayResponse, error) {
	if err := req.Validate(); err != nil {
		return holiday.HolidayResponse{}, err
	}
	date, err := clock.ParseDate(req.Date)
	if err != nil {
		return holiday.HolidayResponse{}, err
	}

	created, err := s.holidayRepo.Create(ctx, holiday.Holiday{
		Date: date,
		Name: req.Name,
		Type: holiday.HolidayType(req.Type),
	})
	if err != nil {
		return holiday.HolidayResponse{}, err
	}
	return holiday.ToResponse(created), nil
}

// ListHolidays returns the holidays of filter.Year, or of every year between
// 2000 and 9999 when no year is given.
func (s *masterServiceImpl) ListHolidays(ctx context.Context, filter holiday.HolidayFilter) ([]holiday.HolidayResponse, error) {
	from, _ := clock.MonthBounds(2000, 1)
	_, to := clock.MonthBounds(9999, 12)
	if filter.Year != nil {
		if !clock.ValidPeriod(*filter.Year, 1) {
			return nil, holiday.ErrInvalidYear
		}
		from, _ = clock.MonthBounds(*filter.Year, 1)
		_, to = clock.MonthBounds(*filter.Year, 12)
	}

	holidays, err := s.holidayRepo.ListBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	responses := make([]holiday.HolidayResponse, 0, len(holidays))
	for _, h := range holidays {
		responses = append(responses, holiday.ToResponse(h))
	}
	return responses, nil
}

func (s *masterServiceImpl) DeleteHoliday(ctx context.Context, id string) error {
	return s.holidayRepo.Delete(ctx, id)
}
