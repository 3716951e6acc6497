package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/queue"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/sse"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mailbox struct {
	mu       sync.Mutex
	payloads []queue.EmailPayload
}

func (m *mailbox) EnqueueEmail(ctx context.Context, p queue.EmailPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, p)
	return nil
}

type fixture struct {
	svc  notification.Service
	repo notification.Repository
	hub  *sse.Hub
	mail *mailbox
	emp  employee.Employee
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	empRepo := memory.NewEmployeeRepository(store)
	emp, err := empRepo.Create(context.Background(), employee.Employee{FullName: "Ana", Email: "ana@cafe.com", IsActive: true})
	require.NoError(t, err)

	repo := memory.NewNotificationRepository(store)
	hub := sse.NewHub()
	mail := &mailbox{}
	svc := NewNotificationService(repo, hub, empRepo, mail, Config{FlushInterval: time.Hour, WorkerCount: 1})
	t.Cleanup(svc.Stop)
	return &fixture{svc: svc, repo: repo, hub: hub, mail: mail, emp: emp}
}

func payrollEvent(employeeID string) notification.Event {
	return notification.Event{
		Name:       notification.EventPayrollValidated,
		EmployeeID: employeeID,
		OccurredAt: time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC),
		Data: map[string]interface{}{
			"payroll_id":   "p-1",
			"year":         2026,
			"month":        3,
			"gross_salary": "8000.00",
		},
	}
}

func TestRender(t *testing.T) {
	req, err := render(payrollEvent("emp-1"))
	require.NoError(t, err)
	assert.Equal(t, notification.TypePayrollValidated, req.Type)
	assert.Equal(t, "emp-1", req.RecipientID)
	assert.Equal(t, "Your payroll for March 2026 has been validated. Gross salary: 8000.00.", req.Message)

	req, err = render(notification.Event{
		Name:       notification.EventAbsenceRejected,
		EmployeeID: "emp-1",
		Data:       map[string]interface{}{"start_date": "2026-02-09", "end_date": "2026-02-10", "review_notes": "peak week"},
	})
	require.NoError(t, err)
	assert.Equal(t, notification.TypeAbsenceRejected, req.Type)
	assert.Equal(t, "Your absence from 2026-02-09 to 2026-02-10 was rejected. Notes: peak week", req.Message)

	_, err = render(notification.Event{Name: "Something", EmployeeID: "emp-1"})
	assert.ErrorIs(t, err, notification.ErrUnknownEvent)
}

func TestPublish_PersistsStreamsAndMails(t *testing.T) {
	f := newFixture(t)
	stream, cancel := f.svc.Subscribe(context.Background(), f.emp.ID)
	defer cancel()

	require.NoError(t, f.svc.Publish(context.Background(), payrollEvent(f.emp.ID)))
	f.svc.Stop()

	list, err := f.svc.GetNotifications(context.Background(), f.emp.ID, 1, 20, false)
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, "Payroll validated", list.Notifications[0].Title)
	assert.Equal(t, 1, list.UnreadCount)

	select {
	case ev := <-stream:
		assert.Equal(t, "notification", ev.Event)
		assert.Equal(t, list.Notifications[0].ID, ev.Data.ID)
	case <-time.After(time.Second):
		t.Fatal("no event on stream")
	}

	require.Len(t, f.mail.payloads, 1)
	assert.Equal(t, "ana@cafe.com", f.mail.payloads[0].To)
	assert.Equal(t, "Ana", f.mail.payloads[0].RecipientName)
	assert.Equal(t, list.Notifications[0].ID, f.mail.payloads[0].NotificationID)
}

func TestPublish_RejectsUnknownEvents(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Publish(context.Background(), notification.Event{Name: "Nope", EmployeeID: f.emp.ID})
	assert.ErrorIs(t, err, notification.ErrUnknownEvent)
}

func TestPublish_FullQueueWritesDirectly(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewNotificationRepository(store)
	svc := &NotificationServiceImpl{
		repo:   repo,
		hub:    sse.NewHub(),
		now:    time.Now,
		queue:  make(chan notification.CreateNotificationRequest),
		stopCh: make(chan struct{}),
	}

	require.NoError(t, svc.Publish(context.Background(), payrollEvent("emp-1")))
	count, err := repo.GetUnreadCount(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInbox(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, f.svc.Publish(ctx, payrollEvent(f.emp.ID)))
	}
	f.svc.Stop()

	list, err := f.svc.GetNotifications(ctx, f.emp.ID, 1, 20, false)
	require.NoError(t, err)
	require.Len(t, list.Notifications, 3)

	require.NoError(t, f.svc.MarkAsRead(ctx, f.emp.ID, notification.MarkAsReadRequest{NotificationIDs: []string{list.Notifications[0].ID}}))
	unread, err := f.svc.GetUnreadCount(ctx, f.emp.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	assert.Error(t, f.svc.MarkAsRead(ctx, f.emp.ID, notification.MarkAsReadRequest{}))

	// Another recipient can neither read nor delete.
	require.NoError(t, f.svc.MarkAllAsRead(ctx, "someone-else"))
	unread, _ = f.svc.GetUnreadCount(ctx, f.emp.ID)
	assert.Equal(t, 2, unread)
	assert.ErrorIs(t, f.svc.Delete(ctx, "someone-else", list.Notifications[1].ID), notification.ErrNotificationNotFound)

	require.NoError(t, f.svc.Delete(ctx, f.emp.ID, list.Notifications[1].ID))
	require.NoError(t, f.svc.MarkAllAsRead(ctx, f.emp.ID))

	list, err = f.svc.GetNotifications(ctx, f.emp.ID, 1, 20, true)
	require.NoError(t, err)
	assert.Empty(t, list.Notifications)
	assert.Equal(t, 0, list.UnreadCount)
}
