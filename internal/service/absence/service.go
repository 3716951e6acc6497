package absence

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/absence"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/auth"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/schedule"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/database"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/jwt"
)

type AbsenceServiceImpl struct {
	tx           database.Transactor
	absenceRepo  absence.AbsenceRepository
	shiftRepo    schedule.ShiftRepository
	employeeRepo employee.EmployeeRepository
	events       notification.Publisher
	now          func() time.Time
}

func NewAbsenceService(
	tx database.Transactor,
	absenceRepo absence.AbsenceRepository,
	shiftRepo schedule.ShiftRepository,
	employeeRepo employee.EmployeeRepository,
	events notification.Publisher,
) absence.AbsenceService {
	return &AbsenceServiceImpl{
		tx:           tx,
		absenceRepo:  absenceRepo,
		shiftRepo:    shiftRepo,
		employeeRepo: employeeRepo,
		events:       events,
		now:          time.Now,
	}
}

func (s *AbsenceServiceImpl) RequestAbsence(ctx context.Context, req absence.CreateAbsenceRequest) (absence.AbsenceResponse, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return absence.AbsenceResponse{}, err
	}
	own, ok := actor.Employee()
	if !ok {
		return absence.AbsenceResponse{}, auth.ErrEmployeeAccountNeeded
	}
	req.EmployeeID = own

	start, end, err := req.Validate()
	if err != nil {
		return absence.AbsenceResponse{}, err
	}
	emp, err := s.employeeRepo.GetByID(ctx, own)
	if err != nil {
		return absence.AbsenceResponse{}, err
	}
	if !emp.IsActive {
		return absence.AbsenceResponse{}, employee.ErrEmployeeInactive
	}

	overlapping, err := s.absenceRepo.HasOverlapping(ctx, own, start, end)
	if err != nil {
		return absence.AbsenceResponse{}, err
	}
	if overlapping {
		return absence.AbsenceResponse{}, absence.ErrAbsenceOverlaps
	}

	created, err := s.absenceRepo.Create(ctx, absence.AbsencePeriod{
		EmployeeID: own,
		StartDate:  start,
		EndDate:    end,
		Status:     absence.StatusRequested,
		Reason:     req.Reason,
	})
	if err != nil {
		return absence.AbsenceResponse{}, err
	}
	return absence.ToResponse(created), nil
}

func (s *AbsenceServiceImpl) GetAbsence(ctx context.Context, id string) (absence.AbsenceResponse, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return absence.AbsenceResponse{}, err
	}
	a, err := s.absenceRepo.GetByID(ctx, id)
	if err != nil {
		return absence.AbsenceResponse{}, err
	}
	if !actor.IsAdmin {
		if own, ok := actor.Employee(); !ok || own != a.EmployeeID {
			return absence.AbsenceResponse{}, absence.ErrAbsenceNotFound
		}
	}
	return absence.ToResponse(a), nil
}

func (s *AbsenceServiceImpl) ListAbsences(ctx context.Context, filter absence.AbsenceFilter) (absence.ListAbsenceResponse, error) {
	if err := filter.Validate(); err != nil {
		return absence.ListAbsenceResponse{}, err
	}
	list, total, err := s.absenceRepo.List(ctx, filter)
	if err != nil {
		return absence.ListAbsenceResponse{}, err
	}
	data := make([]absence.AbsenceResponse, 0, len(list))
	for _, a := range list {
		data = append(data, absence.ToResponse(a))
	}
	return absence.ListAbsenceResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *AbsenceServiceImpl) ListMyAbsences(ctx context.Context, filter absence.AbsenceFilter) (absence.ListAbsenceResponse, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return absence.ListAbsenceResponse{}, err
	}
	own, ok := actor.Employee()
	if !ok {
		return absence.ListAbsenceResponse{}, auth.ErrEmployeeAccountNeeded
	}
	filter.EmployeeID = &own
	return s.ListAbsences(ctx, filter)
}

// ApproveAbsence reviews the period and drops the employee's shifts inside
// it in one transaction, under the same lock shift creation takes.
func (s *AbsenceServiceImpl) ApproveAbsence(ctx context.Context, req absence.ReviewAbsenceRequest) (absence.AbsenceResponse, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return absence.AbsenceResponse{}, err
	}
	req.ReviewerID = actor.UserID

	current, err := s.absenceRepo.GetByID(ctx, req.ID)
	if err != nil {
		return absence.AbsenceResponse{}, err
	}

	var (
		approved absence.AbsencePeriod
		removed  int64
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.tx.AdvisoryLock(ctx, schedule.EmployeeShiftsLockKey(current.EmployeeID)); err != nil {
			return err
		}
		var err error
		approved, err = s.absenceRepo.Review(ctx, req, absence.StatusApproved, s.now())
		if err != nil {
			return err
		}
		end := approved.EndDate
		removed, err = s.shiftRepo.DeleteByEmployeeBetween(ctx, approved.EmployeeID, approved.StartDate, &end)
		return err
	})
	if err != nil {
		return absence.AbsenceResponse{}, err
	}

	if removed > 0 {
		slog.Info("Shifts invalidated by approved absence", "absence_id", approved.ID, "employee_id", approved.EmployeeID, "removed", removed)
	}
	s.notifyReviewed(ctx, approved, notification.EventAbsenceApproved, removed)

	resp := absence.ToResponse(approved)
	resp.ShiftsRemoved = &removed
	return resp, nil
}

func (s *AbsenceServiceImpl) RejectAbsence(ctx context.Context, req absence.ReviewAbsenceRequest) (absence.AbsenceResponse, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return absence.AbsenceResponse{}, err
	}
	req.ReviewerID = actor.UserID

	rejected, err := s.absenceRepo.Review(ctx, req, absence.StatusRejected, s.now())
	if err != nil {
		return absence.AbsenceResponse{}, err
	}
	s.notifyReviewed(ctx, rejected, notification.EventAbsenceRejected, 0)
	return absence.ToResponse(rejected), nil
}

func (s *AbsenceServiceImpl) notifyReviewed(ctx context.Context, a absence.AbsencePeriod, name notification.EventName, shiftsRemoved int64) {
	if s.events == nil {
		return
	}
	data := map[string]interface{}{
		"absence_id": a.ID,
		"start_date": clock.FormatDate(a.StartDate),
		"end_date":   clock.FormatDate(a.EndDate),
	}
	if a.ReviewNotes != nil {
		data["review_notes"] = *a.ReviewNotes
	}
	if name == notification.EventAbsenceApproved {
		data["shifts_removed"] = shiftsRemoved
	}
	err := s.events.Publish(ctx, notification.Event{
		Name:       name,
		EmployeeID: a.EmployeeID,
		OccurredAt: s.now(),
		Data:       data,
	})
	if err != nil {
		slog.Warn("Failed to publish absence event", "absence_id", a.ID, "error", err)
	}
}
