package cron

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurgeReadNotifications(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewNotificationRepository(memory.NewStore())
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	old := now.AddDate(0, 0, -100)
	require.NoError(t, repo.CreateBatch(ctx, []*notification.Notification{
		{ID: "old-read", RecipientID: "ana", Title: "a", CreatedAt: old},
		{ID: "old-unread", RecipientID: "ana", Title: "b", CreatedAt: old},
		{ID: "new-read", RecipientID: "ana", Title: "c", CreatedAt: now.AddDate(0, 0, -10)},
	}))
	require.NoError(t, repo.MarkAsRead(ctx, []string{"old-read", "new-read"}, "ana"))

	jobs := NewNotificationJobs(repo, 90)
	jobs.now = func() time.Time { return now }

	scheduler := NewScheduler(time.Minute)
	jobs.RegisterJobs(scheduler)
	scheduler.RunOnce(ctx)

	left, total, err := repo.GetByRecipient(ctx, "ana", 1, 10, false)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	ids := []string{left[0].ID, left[1].ID}
	assert.ElementsMatch(t, []string{"old-unread", "new-read"}, ids)
}

func TestScheduler_StartStop(t *testing.T) {
	runs := make(chan struct{}, 4)
	s := NewScheduler(0)
	s.AddJob("tick", time.Hour, func(ctx context.Context) error {
		runs <- struct{}{}
		return nil
	})

	s.Start(context.Background())
	select {
	case <-runs:
	case <-time.After(time.Second):
		t.Fatal("job did not run on start")
	}
	s.Stop()
	s.Stop()
}
