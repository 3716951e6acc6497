package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/notification"
	"github.com/google/uuid"
)

type notificationRepository struct {
	s *Store
}

func NewNotificationRepository(s *Store) notification.Repository {
	return &notificationRepository{s: s}
}

func (r *notificationRepository) insert(n *notification.Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.s.now()
	}
	r.s.t.notifications[n.ID] = *n
}

func (r *notificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	defer r.s.lockWrite(ctx)()
	r.insert(n)
	return nil
}

func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []*notification.Notification) error {
	defer r.s.lockWrite(ctx)()
	for _, n := range notifications {
		r.insert(n)
	}
	return nil
}

func (r *notificationRepository) GetByRecipient(ctx context.Context, recipientID string, page, pageSize int, unreadOnly bool) ([]*notification.Notification, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := sortedValues(r.s.t.notifications, func(a, b notification.Notification) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
	matched := make([]*notification.Notification, 0)
	for i := range all {
		n := all[i]
		if n.RecipientID != recipientID || (unreadOnly && n.IsRead) {
			continue
		}
		matched = append(matched, &n)
	}
	return paginate(matched, page, pageSize), len(matched), nil
}

func (r *notificationRepository) GetUnreadCount(ctx context.Context, recipientID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	count := 0
	for _, n := range r.s.t.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *notificationRepository) markRead(n notification.Notification, at time.Time) {
	n.IsRead = true
	n.ReadAt = &at
	r.s.t.notifications[n.ID] = n
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, ids []string, recipientID string) error {
	defer r.s.lockWrite(ctx)()
	now := r.s.now()
	for _, id := range ids {
		n, ok := r.s.t.notifications[id]
		if ok && n.RecipientID == recipientID && !n.IsRead {
			r.markRead(n, now)
		}
	}
	return nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, recipientID string) error {
	defer r.s.lockWrite(ctx)()
	now := r.s.now()
	for _, n := range r.s.t.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			r.markRead(n, now)
		}
	}
	return nil
}

func (r *notificationRepository) Delete(ctx context.Context, id string, recipientID string) error {
	defer r.s.lockWrite(ctx)()
	n, ok := r.s.t.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return notification.ErrNotificationNotFound
	}
	delete(r.s.t.notifications, id)
	return nil
}

func (r *notificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	defer r.s.lockWrite(ctx)()
	var removed int64
	for id, n := range r.s.t.notifications {
		if n.IsRead && n.CreatedAt.Before(cutoff) {
			delete(r.s.t.notifications, id)
			removed++
		}
	}
	return removed, nil
}
