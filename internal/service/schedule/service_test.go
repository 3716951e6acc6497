package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/absence"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/schedule"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/jwt"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/validator"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []notification.Event
}

func (r *recorder) Publish(ctx context.Context, e notification.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) names() []notification.EventName {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notification.EventName, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Name)
	}
	return out
}

type fixture struct {
	svc         schedule.ScheduleService
	events      *recorder
	empRepo     employee.EmployeeRepository
	absenceRepo absence.AbsenceRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	events := &recorder{}
	empRepo := memory.NewEmployeeRepository(store)
	absenceRepo := memory.NewAbsenceRepository(store)
	svc := NewScheduleService(
		memory.NewTransactor(store),
		memory.NewScheduleRepository(store),
		memory.NewShiftRepository(store),
		empRepo,
		absenceRepo,
		events,
		time.UTC,
	)
	impl := svc.(*scheduleServiceImpl)
	impl.now = func() time.Time { return time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC) }
	return &fixture{svc: svc, events: events, empRepo: empRepo, absenceRepo: absenceRepo}
}

func (f *fixture) addEmployee(t *testing.T, name string, active bool) employee.Employee {
	t.Helper()
	e, err := f.empRepo.Create(context.Background(), employee.Employee{FullName: name, Email: name + "@x.com", IsActive: active})
	require.NoError(t, err)
	return e
}

func (f *fixture) addSchedule(t *testing.T, start, end string) schedule.ScheduleResponse {
	t.Helper()
	sc, err := f.svc.CreateSchedule(adminCtx(), schedule.CreateScheduleRequest{Name: "February", StartDate: start, EndDate: end})
	require.NoError(t, err)
	return sc
}

func (f *fixture) approvedAbsence(t *testing.T, employeeID, start, end string) {
	t.Helper()
	s, _ := clock.ParseDate(start)
	e, _ := clock.ParseDate(end)
	ctx := context.Background()
	a, err := f.absenceRepo.Create(ctx, absence.AbsencePeriod{EmployeeID: employeeID, StartDate: s, EndDate: e, Status: absence.StatusRequested, Reason: "family matters"})
	require.NoError(t, err)
	_, err = f.absenceRepo.Review(ctx, absence.ReviewAbsenceRequest{ID: a.ID, ReviewerID: "admin-user"}, absence.StatusApproved, time.Now())
	require.NoError(t, err)
}

func adminCtx() context.Context {
	return jwt.ContextWithActor(context.Background(), jwt.Actor{UserID: "admin-user", IsAdmin: true})
}

func shiftReq(scheduleID, employeeID, date, start, end string) schedule.CreateShiftRequest {
	return schedule.CreateShiftRequest{ScheduleID: scheduleID, EmployeeID: employeeID, Date: date, StartTime: start, EndTime: end}
}

func TestCreateShift_OnApprovedAbsence(t *testing.T) {
	f := newFixture(t)
	ana := f.addEmployee(t, "ana", true)
	sc := f.addSchedule(t, "2026-02-01", "2026-02-28")
	f.approvedAbsence(t, ana.ID, "2026-02-01", "2026-02-10")

	for _, date := range []string{"2026-02-01", "2026-02-05", "2026-02-10"} {
		_, err := f.svc.CreateShift(adminCtx(), shiftReq(sc.ID, ana.ID, date, "09:00", "17:00"))
		assert.ErrorIs(t, err, schedule.ErrOnApprovedAbsence, date)
	}

	created, err := f.svc.CreateShift(adminCtx(), shiftReq(sc.ID, ana.ID, "2026-02-11", "09:00", "17:00"))
	require.NoError(t, err)
	assert.Equal(t, "8", created.Hours.String())
}

func TestCreateShift_RequestedAbsenceDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	ana := f.addEmployee(t, "ana", true)
	sc := f.addSchedule(t, "2026-02-01", "2026-02-28")
	s, _ := clock.ParseDate("2026-02-01")
	e, _ := clock.ParseDate("2026-02-10")
	_, err := f.absenceRepo.Create(context.Background(), absence.AbsencePeriod{EmployeeID: ana.ID, StartDate: s, EndDate: e, Status: absence.StatusRequested, Reason: "family matters"})
	require.NoError(t, err)

	_, err = f.svc.CreateShift(adminCtx(), shiftReq(sc.ID, ana.ID, "2026-02-05", "09:00", "17:00"))
	assert.NoError(t, err)
}

func TestCreateShift_Rules(t *testing.T) {
	f := newFixture(t)
	ana := f.addEmployee(t, "ana", true)
	gone := f.addEmployee(t, "gone", false)
	sc := f.addSchedule(t, "2026-02-01", "2026-02-28")
	_, err := f.svc.CreateShift(adminCtx(), shiftReq(sc.ID, ana.ID, "2026-02-02", "09:00", "13:00"))
	require.NoError(t, err)

	_, err = f.svc.CreateShift(adminCtx(), shiftReq(sc.ID, ana.ID, "2026-02-02", "12:00", "16:00"))
	assert.ErrorIs(t, err, schedule.ErrShiftConflict)

	_, err = f.svc.CreateShift(adminCtx(), shiftReq(sc.ID, ana.ID, "2026-02-02", "13:00", "16:00"))
	assert.NoError(t, err)

	_, err = f.svc.CreateShift(adminCtx(), shiftReq(sc.ID, ana.ID, "2026-03-02", "09:00", "13:00"))
	assert.ErrorIs(t, err, schedule.ErrShiftOutsideSchedule)

	_, err = f.svc.CreateShift(adminCtx(), shiftReq(sc.ID, ana.ID, "2026-02-03", "13:00", "09:00"))
	assert.ErrorIs(t, err, schedule.ErrInvalidShiftRange)

	_, err = f.svc.CreateShift(adminCtx(), shiftReq(sc.ID, gone.ID, "2026-02-03", "09:00", "13:00"))
	assert.ErrorIs(t, err, employee.ErrEmployeeInactive)

	_, err = f.svc.CreateShift(adminCtx(), shiftReq(sc.ID, ana.ID, "3/2/2026", "9", "13:00"))
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "date")
	assert.Contains(t, verrs.ToMap(), "start_time")
}

func TestScheduledHours_IncludesDraftAndPublished(t *testing.T) {
	f := newFixture(t)
	ana := f.addEmployee(t, "ana", true)
	draft := f.addSchedule(t, "2026-02-01", "2026-02-14")
	published := f.addSchedule(t, "2026-02-15", "2026-02-28")

	_, err := f.svc.CreateShift(adminCtx(), shiftReq(draft.ID, ana.ID, "2026-02-02", "09:00", "17:00"))
	require.NoError(t, err)
	_, err = f.svc.PublishSchedule(adminCtx(), published.ID)
	require.NoError(t, err)
	_, err = f.svc.CreateShift(adminCtx(), shiftReq(published.ID, ana.ID, "2026-02-16", "09:00", "12:30"))
	require.NoError(t, err)

	from, to := clock.MonthBounds(2026, 2)
	hours, shifts, err := f.svc.ScheduledHours(context.Background(), ana.ID, from, to)

	require.NoError(t, err)
	assert.Len(t, shifts, 2)
	assert.Equal(t, "11.5", hours.String())
}

func TestPublishSchedule_EmitsEventsOnce(t *testing.T) {
	f := newFixture(t)
	ana := f.addEmployee(t, "ana", true)
	ben := f.addEmployee(t, "ben", true)
	sc := f.addSchedule(t, "2026-02-01", "2026-02-28")
	for _, req := range []schedule.CreateShiftRequest{
		shiftReq(sc.ID, ana.ID, "2026-02-02", "09:00", "10:00"),
		shiftReq(sc.ID, ana.ID, "2026-02-03", "09:00", "10:00"),
		shiftReq(sc.ID, ben.ID, "2026-02-02", "09:00", "10:00"),
	} {
		_, err := f.svc.CreateShift(adminCtx(), req)
		require.NoError(t, err)
	}
	assert.Empty(t, f.events.names(), "draft schedules stay quiet")

	published, err := f.svc.PublishSchedule(adminCtx(), sc.ID)
	require.NoError(t, err)
	assert.Equal(t, string(schedule.StatusPublished), published.Status)
	assert.NotNil(t, published.PublishedAt)
	assert.Equal(t, []notification.EventName{notification.EventSchedulePublished, notification.EventSchedulePublished}, f.events.names())

	_, err = f.svc.PublishSchedule(adminCtx(), sc.ID)
	assert.ErrorIs(t, err, schedule.ErrScheduleAlreadyPublished)

	_, err = f.svc.CreateShift(adminCtx(), shiftReq(sc.ID, ben.ID, "2026-02-20", "09:00", "10:00"))
	require.NoError(t, err)
	names := f.events.names()
	assert.Equal(t, notification.EventShiftCreatedOnPublishedSchedule, names[len(names)-1])
}

func TestListMyShifts_DefaultsToCurrentMonth(t *testing.T) {
	f := newFixture(t)
	ana := f.addEmployee(t, "ana", true)
	feb := f.addSchedule(t, "2026-02-01", "2026-03-31")
	_, err := f.svc.CreateShift(adminCtx(), shiftReq(feb.ID, ana.ID, "2026-02-10", "09:00", "17:00"))
	require.NoError(t, err)
	_, err = f.svc.CreateShift(adminCtx(), shiftReq(feb.ID, ana.ID, "2026-03-10", "09:00", "17:00"))
	require.NoError(t, err)

	ctx := jwt.ContextWithActor(context.Background(), jwt.Actor{UserID: "u-ana", EmployeeID: &ana.ID})
	mine, err := f.svc.ListMyShifts(ctx, schedule.ShiftFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "2026-02-10", mine[0].Date)

	start, end := "2026-03-01", "2026-03-31"
	march, err := f.svc.ListMyShifts(ctx, schedule.ShiftFilter{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	require.Len(t, march, 1)
	assert.Equal(t, "2026-03-10", march[0].Date)
}

func TestDeleteSchedule_RemovesShifts(t *testing.T) {
	f := newFixture(t)
	ana := f.addEmployee(t, "ana", true)
	sc := f.addSchedule(t, "2026-02-01", "2026-02-28")
	_, err := f.svc.CreateShift(adminCtx(), shiftReq(sc.ID, ana.ID, "2026-02-10", "09:00", "17:00"))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteSchedule(adminCtx(), sc.ID))

	from, to := clock.MonthBounds(2026, 2)
	hours, _, err := f.svc.ScheduledHours(context.Background(), ana.ID, from, to)
	require.NoError(t, err)
	assert.True(t, hours.IsZero())
	_, err = f.svc.GetSchedule(adminCtx(), sc.ID)
	assert.ErrorIs(t, err, schedule.ErrScheduleNotFound)
}
