package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/absence"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/auth"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/schedule"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/database"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/jwt"
	"github.com/shopspring/decimal"
)

type scheduleServiceImpl struct {
	tx           database.Transactor
	scheduleRepo schedule.ScheduleRepository
	shiftRepo    schedule.ShiftRepository
	employeeRepo employee.EmployeeRepository
	absenceRepo  absence.AbsenceRepository
	events       notification.Publisher
	now          func() time.Time
	loc          *time.Location
}

func NewScheduleService(
	tx database.Transactor,
	scheduleRepo schedule.ScheduleRepository,
	shiftRepo schedule.ShiftRepository,
	employeeRepo employee.EmployeeRepository,
	absenceRepo absence.AbsenceRepository,
	events notification.Publisher,
	loc *time.Location,
) schedule.ScheduleService {
	return &scheduleServiceImpl{
		tx:           tx,
		scheduleRepo: scheduleRepo,
		shiftRepo:    shiftRepo,
		employeeRepo: employeeRepo,
		absenceRepo:  absenceRepo,
		events:       events,
		now:          time.Now,
		loc:          loc,
	}
}

// ========== SCHEDULES ==========

func (s *scheduleServiceImpl) CreateSchedule(ctx context.Context, req schedule.CreateScheduleRequest) (schedule.ScheduleResponse, error) {
	start, end, err := req.Validate()
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}

	created, err := s.scheduleRepo.Create(ctx, schedule.Schedule{
		Name:      req.Name,
		StartDate: start,
		EndDate:   end,
		Status:    schedule.StatusDraft,
		CreatedBy: actor.UserID,
	})
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}
	return schedule.ToScheduleResponse(created), nil
}

func (s *scheduleServiceImpl) GetSchedule(ctx context.Context, id string) (schedule.ScheduleResponse, error) {
	sc, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}
	return schedule.ToScheduleResponse(sc), nil
}

func (s *scheduleServiceImpl) ListSchedules(ctx context.Context, filter schedule.ScheduleFilter) (schedule.ListScheduleResponse, error) {
	if err := filter.Validate(); err != nil {
		return schedule.ListScheduleResponse{}, err
	}
	list, total, err := s.scheduleRepo.List(ctx, filter)
	if err != nil {
		return schedule.ListScheduleResponse{}, err
	}
	data := make([]schedule.ScheduleResponse, 0, len(list))
	for _, sc := range list {
		data = append(data, schedule.ToScheduleResponse(sc))
	}
	return schedule.ListScheduleResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *scheduleServiceImpl) PublishSchedule(ctx context.Context, id string) (schedule.ScheduleResponse, error) {
	published, err := s.scheduleRepo.Publish(ctx, id, s.now())
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}

	shifts, err := s.shiftRepo.ListBySchedule(ctx, id)
	if err != nil {
		slog.Warn("Failed to load shifts of published schedule", "schedule_id", id, "error", err)
	} else {
		s.notifySchedulePublished(ctx, published, shifts)
	}

	return schedule.ToScheduleResponse(published), nil
}

// DeleteSchedule removes the schedule with all of its shifts.
func (s *scheduleServiceImpl) DeleteSchedule(ctx context.Context, id string) error {
	return s.scheduleRepo.Delete(ctx, id)
}

// ========== SHIFTS ==========

func (s *scheduleServiceImpl) CreateShift(ctx context.Context, req schedule.CreateShiftRequest) (schedule.ShiftResponse, error) {
	parsed, err := req.Validate()
	if err != nil {
		return schedule.ShiftResponse{}, err
	}
	if parsed.StartTime >= parsed.EndTime {
		return schedule.ShiftResponse{}, schedule.ErrInvalidShiftRange
	}

	sc, err := s.scheduleRepo.GetByID(ctx, req.ScheduleID)
	if err != nil {
		return schedule.ShiftResponse{}, err
	}
	if !sc.Contains(parsed.Date) {
		return schedule.ShiftResponse{}, schedule.ErrShiftOutsideSchedule
	}
	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return schedule.ShiftResponse{}, err
	}
	if !emp.IsActive {
		return schedule.ShiftResponse{}, employee.ErrEmployeeInactive
	}

	shift := schedule.Shift{
		ScheduleID: sc.ID,
		EmployeeID: emp.ID,
		Date:       parsed.Date,
		StartTime:  parsed.StartTime,
		EndTime:    parsed.EndTime,
	}
	var created schedule.Shift
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkPlacement(ctx, shift); err != nil {
			return err
		}
		created, err = s.shiftRepo.Create(ctx, shift)
		return err
	})
	if err != nil {
		return schedule.ShiftResponse{}, err
	}

	if sc.Status == schedule.StatusPublished {
		s.notifyShiftAssigned(ctx, sc, created)
	}
	return schedule.ToShiftResponse(created), nil
}

// checkPlacement holds the employee's shift lock, so an absence approval
// cannot slip in between the check and the write.
func (s *scheduleServiceImpl) checkPlacement(ctx context.Context, shift schedule.Shift) error {
	if err := s.tx.AdvisoryLock(ctx, schedule.EmployeeShiftsLockKey(shift.EmployeeID)); err != nil {
		return err
	}

	approved, err := s.absenceRepo.ListApproved(ctx, shift.EmployeeID)
	if err != nil {
		return fmt.Errorf("failed to load absences: %w", err)
	}
	for _, a := range approved {
		if a.Covers(shift.Date) {
			return schedule.ErrOnApprovedAbsence
		}
	}

	sameDay, err := s.shiftRepo.ListByEmployeeBetween(ctx, shift.EmployeeID, shift.Date, shift.Date)
	if err != nil {
		return fmt.Errorf("failed to load shifts: %w", err)
	}
	for _, other := range sameDay {
		if other.ID != shift.ID && other.Overlaps(shift) {
			return schedule.ErrShiftConflict
		}
	}
	return nil
}

func (s *scheduleServiceImpl) UpdateShift(ctx context.Context, req schedule.UpdateShiftRequest) (schedule.ShiftResponse, error) {
	parsed, err := req.Validate()
	if err != nil {
		return schedule.ShiftResponse{}, err
	}
	if parsed.StartTime >= parsed.EndTime {
		return schedule.ShiftResponse{}, schedule.ErrInvalidShiftRange
	}

	current, err := s.shiftRepo.GetByID(ctx, req.ID)
	if err != nil {
		return schedule.ShiftResponse{}, err
	}
	sc, err := s.scheduleRepo.GetByID(ctx, current.ScheduleID)
	if err != nil {
		return schedule.ShiftResponse{}, err
	}
	if !sc.Contains(parsed.Date) {
		return schedule.ShiftResponse{}, schedule.ErrShiftOutsideSchedule
	}

	updated := current
	updated.Date = parsed.Date
	updated.StartTime = parsed.StartTime
	updated.EndTime = parsed.EndTime
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkPlacement(ctx, updated); err != nil {
			return err
		}
		return s.shiftRepo.Update(ctx, updated)
	})
	if err != nil {
		return schedule.ShiftResponse{}, err
	}

	saved, err := s.shiftRepo.GetByID(ctx, req.ID)
	if err != nil {
		return schedule.ShiftResponse{}, err
	}
	return schedule.ToShiftResponse(saved), nil
}

func (s *scheduleServiceImpl) DeleteShift(ctx context.Context, id string) error {
	return s.shiftRepo.Delete(ctx, id)
}

func (s *scheduleServiceImpl) ListScheduleShifts(ctx context.Context, scheduleID string) ([]schedule.ShiftResponse, error) {
	if _, err := s.scheduleRepo.GetByID(ctx, scheduleID); err != nil {
		return nil, err
	}
	shifts, err := s.shiftRepo.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	return schedule.ToShiftResponses(shifts), nil
}

func (s *scheduleServiceImpl) ListEmployeeShifts(ctx context.Context, employeeID string, filter schedule.ShiftFilter) ([]schedule.ShiftResponse, error) {
	from, to, err := filter.Range(clock.Today(s.now(), s.loc))
	if err != nil {
		return nil, err
	}
	if _, err := s.employeeRepo.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}
	shifts, err := s.shiftRepo.ListByEmployeeBetween(ctx, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	return schedule.ToShiftResponses(shifts), nil
}

func (s *scheduleServiceImpl) ListMyShifts(ctx context.Context, filter schedule.ShiftFilter) ([]schedule.ShiftResponse, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	own, ok := actor.Employee()
	if !ok {
		return nil, auth.ErrEmployeeAccountNeeded
	}
	return s.ListEmployeeShifts(ctx, own, filter)
}

func (s *scheduleServiceImpl) ScheduledHours(ctx context.Context, employeeID string, from, to time.Time) (decimal.Decimal, []schedule.Shift, error) {
	shifts, err := s.shiftRepo.ListByEmployeeBetween(ctx, employeeID, from, to)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("failed to load shifts: %w", err)
	}
	return workblock.MinutesToHours(schedule.TotalMinutes(shifts)), shifts, nil
}

// ========== EVENTS ==========

// notifyShiftAssigned tells the employee about a shift added after publication.
func (s *scheduleServiceImpl) notifyShiftAssigned(ctx context.Context, sc schedule.Schedule, shift schedule.Shift) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, notification.Event{
		Name:       notification.EventShiftCreatedOnPublishedSchedule,
		EmployeeID: shift.EmployeeID,
		OccurredAt: s.now(),
		Data: map[string]interface{}{
			"shift_id":      shift.ID,
			"schedule_id":   sc.ID,
			"schedule_name": sc.Name,
			"date":          clock.FormatDate(shift.Date),
			"start_time":    shift.StartTime.String(),
			"end_time":      shift.EndTime.String(),
		},
	})
	if err != nil {
		slog.Warn("Failed to publish shift event", "shift_id", shift.ID, "error", err)
	}
}

// notifySchedulePublished sends one event per employee with shifts in sc.
func (s *scheduleServiceImpl) notifySchedulePublished(ctx context.Context, sc schedule.Schedule, shifts []schedule.Shift) {
	if s.events == nil {
		return
	}
	counts := make(map[string]int)
	var order []string
	for _, sh := range shifts {
		if counts[sh.EmployeeID] == 0 {
			order = append(order, sh.EmployeeID)
		}
		counts[sh.EmployeeID]++
	}
	for _, employeeID := range order {
		err := s.events.Publish(ctx, notification.Event{
			Name:       notification.EventSchedulePublished,
			EmployeeID: employeeID,
			OccurredAt: s.now(),
			Data: map[string]interface{}{
				"schedule_id":   sc.ID,
				"schedule_name": sc.Name,
				"start_date":    clock.FormatDate(sc.StartDate),
				"end_date":      clock.FormatDate(sc.EndDate),
				"shift_count":   counts[employeeID],
			},
		})
		if err != nil {
			slog.Warn("Failed to publish schedule event", "schedule_id", sc.ID, "employee_id", employeeID, "error", err)
		}
	}
}
