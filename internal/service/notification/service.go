package notification

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/queue"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/sse"
	"github.com/google/uuid"
)

// Config holds notification service configuration
type Config struct {
	BatchSize     int           // default: 100
	FlushInterval time.Duration // default: 5 seconds
	WorkerCount   int           // default: 2
	QueueSize     int           // default: 1000
}

// Mailer hands a persisted notification to the email queue.
type Mailer interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error
}

type NotificationServiceImpl struct {
	repo         notification.Repository
	hub          *sse.Hub
	employeeRepo employee.EmployeeRepository
	mailer       Mailer
	config       Config
	now          func() time.Time

	queue    chan notification.CreateNotificationRequest
	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewNotificationService starts the background writers. mailer may be nil.
func NewNotificationService(repo notification.Repository, hub *sse.Hub, employeeRepo employee.EmployeeRepository, mailer Mailer, cfg Config) notification.Service {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1000
	}

	s := &NotificationServiceImpl{
		repo:         repo,
		hub:          hub,
		employeeRepo: employeeRepo,
		mailer:       mailer,
		config:       cfg,
		now:          time.Now,
		queue:        make(chan notification.CreateNotificationRequest, cfg.QueueSize),
		stopCh:       make(chan struct{}),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	slog.Info("Notification service started",
		"workers", cfg.WorkerCount, "batch_size", cfg.BatchSize, "flush_interval", cfg.FlushInterval)

	return s
}

// ========== WORKERS ==========

func (s *NotificationServiceImpl) worker(id int) {
	defer s.wg.Done()

	batch := make([]notification.CreateNotificationRequest, 0, s.config.BatchSize)
	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		s.persist(ctx, id, batch)
		batch = batch[:0]
	}

	for {
		select {
		case req := <-s.queue:
			batch = append(batch, req)
			if len(batch) >= s.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.stopCh:
			// Drain what is still queued before exiting.
			for {
				select {
				case req := <-s.queue:
					batch = append(batch, req)
					if len(batch) >= s.config.BatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

func (s *NotificationServiceImpl) newNotification(req notification.CreateNotificationRequest) *notification.Notification {
	return &notification.Notification{
		ID:          uuid.New().String(),
		RecipientID: req.RecipientID,
		Type:        req.Type,
		Title:       req.Title,
		Message:     req.Message,
		Data:        req.Data,
		CreatedAt:   s.now(),
	}
}

func (s *NotificationServiceImpl) persist(ctx context.Context, workerID int, batch []notification.CreateNotificationRequest) {
	notifications := make([]*notification.Notification, len(batch))
	for i, req := range batch {
		notifications[i] = s.newNotification(req)
	}

	if err := s.repo.CreateBatch(ctx, notifications); err != nil {
		slog.Error("Failed to insert notification batch", "worker", workerID, "count", len(notifications), "error", err)
		return
	}
	slog.Debug("Notifications inserted", "worker", workerID, "count", len(notifications))

	for _, n := range notifications {
		s.deliver(ctx, n)
	}
}

// deliver pushes a stored notification to open streams and the email queue.
func (s *NotificationServiceImpl) deliver(ctx context.Context, n *notification.Notification) {
	s.hub.Publish(n.RecipientID, sse.Event{
		RecipientID: n.RecipientID,
		Event:       "notification",
		Data:        toResponse(n),
	})

	if s.mailer == nil || s.employeeRepo == nil {
		return
	}
	emp, err := s.employeeRepo.GetByID(ctx, n.RecipientID)
	if err != nil {
		slog.Warn("Skipping notification email", "notification_id", n.ID, "error", err)
		return
	}
	err = s.mailer.EnqueueEmail(ctx, queue.EmailPayload{
		NotificationID: n.ID,
		To:             emp.Email,
		RecipientName:  emp.FullName,
		Title:          n.Title,
		Message:        n.Message,
	})
	if err != nil {
		slog.Warn("Failed to enqueue notification email", "notification_id", n.ID, "error", err)
	}
}

// ========== PUBLISHING ==========

// Publish renders the event and queues it. It only blocks when the queue is
// full, in which case the notification is written directly.
func (s *NotificationServiceImpl) Publish(ctx context.Context, event notification.Event) error {
	req, err := render(event)
	if err != nil {
		return err
	}
	if req.RecipientID == "" {
		return errors.New("notification event without employee")
	}

	select {
	case s.queue <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return s.directInsert(ctx, req)
	}
}

func (s *NotificationServiceImpl) directInsert(ctx context.Context, req notification.CreateNotificationRequest) error {
	n := s.newNotification(req)
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.deliver(ctx, n)
	return nil
}

// ========== INBOX ==========

func toResponse(n *notification.Notification) notification.NotificationResponse {
	return notification.NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

func (s *NotificationServiceImpl) GetNotifications(ctx context.Context, recipientID string, page, pageSize int, unreadOnly bool) (*notification.NotificationListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	notifications, total, err := s.repo.GetByRecipient(ctx, recipientID, page, pageSize, unreadOnly)
	if err != nil {
		return nil, err
	}
	unreadCount, err := s.repo.GetUnreadCount(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	responses := make([]notification.NotificationResponse, len(notifications))
	for i, n := range notifications {
		responses[i] = toResponse(n)
	}

	return &notification.NotificationListResponse{
		Notifications: responses,
		Total:         total,
		UnreadCount:   unreadCount,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

func (s *NotificationServiceImpl) GetUnreadCount(ctx context.Context, recipientID string) (int, error) {
	return s.repo.GetUnreadCount(ctx, recipientID)
}

func (s *NotificationServiceImpl) MarkAsRead(ctx context.Context, recipientID string, req notification.MarkAsReadRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return s.repo.MarkAsRead(ctx, req.NotificationIDs, recipientID)
}

func (s *NotificationServiceImpl) MarkAllAsRead(ctx context.Context, recipientID string) error {
	return s.repo.MarkAllAsRead(ctx, recipientID)
}

func (s *NotificationServiceImpl) Delete(ctx context.Context, recipientID string, notificationID string) error {
	return s.repo.Delete(ctx, notificationID, recipientID)
}

// ========== STREAMING ==========

// Subscribe opens an SSE stream for recipientID. The stream closes when ctx
// ends or the returned func is called.
func (s *NotificationServiceImpl) Subscribe(ctx context.Context, recipientID string) (<-chan notification.SSEEvent, func()) {
	ch, cleanup := s.hub.Subscribe(recipientID)

	out := make(chan notification.SSEEvent, 10)

	go func() {
		defer close(out)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				resp, ok := event.Data.(notification.NotificationResponse)
				if !ok {
					continue
				}
				select {
				case out <- notification.SSEEvent{Event: event.Event, Data: resp}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cleanup
}

// Stop flushes pending notifications and waits for the workers.
func (s *NotificationServiceImpl) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
		slog.Info("Notification service stopped")
	})
}
