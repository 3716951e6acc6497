package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/notification"
)

// NotificationJobs purges read notifications past the retention window.
type NotificationJobs struct {
	repo       notification.Repository
	retainDays int
	now        func() time.Time
}

func NewNotificationJobs(repo notification.Repository, retainDays int) *NotificationJobs {
	if retainDays <= 0 {
		retainDays = 90
	}
	return &NotificationJobs{repo: repo, retainDays: retainDays, now: time.Now}
}

func (j *NotificationJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("purge_read_notifications", 6*time.Hour, j.PurgeReadNotifications)
}

func (j *NotificationJobs) PurgeReadNotifications(ctx context.Context) error {
	cutoff := j.now().AddDate(0, 0, -j.retainDays)
	removed, err := j.repo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge read notifications: %w", err)
	}
	if removed > 0 {
		slog.Info("Cron: Purged read notifications", "removed", removed, "cutoff", cutoff.Format(time.DateOnly))
	}
	return nil
}
