// Package queue carries outbound notification work through asynq so it
// survives restarts of the API process.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	QueueDefault = "default"

	TaskTypeNotificationEmail = "notification:email"
)

type EmailPayload struct {
	NotificationID string `json:"notification_id"`
	To             string `json:"to"`
	RecipientName  string `json:"recipient_name"`
	Title          string `json:"title"`
	Message        string `json:"message"`
}

func NewEmailTask(payload EmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotificationEmail, data, asynq.MaxRetry(5), asynq.Queue(QueueDefault)), nil
}

// Sender delivers one email.
type Sender interface {
	SendNotification(to, recipientName, title, message string) error
}

// HandleEmailTask returns the handler for TaskTypeNotificationEmail. A
// malformed payload is dropped; send failures are retried by asynq.
func HandleEmailTask(sender Sender) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload EmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode email payload: %v: %w", err, asynq.SkipRetry)
		}
		if payload.To == "" {
			return fmt.Errorf("email payload without recipient: %w", asynq.SkipRetry)
		}
		return sender.SendNotification(payload.To, payload.RecipientName, payload.Title, payload.Message)
	}
}

// Client enqueues tasks. A nil Client drops them.
type Client struct {
	client *asynq.Client
}

func NewClient(opt asynq.RedisConnOpt) *Client {
	return &Client{client: asynq.NewClient(opt)}
}

func (c *Client) EnqueueEmail(ctx context.Context, payload EmailPayload) error {
	if c == nil || c.client == nil {
		return nil
	}
	task, err := NewEmailTask(payload)
	if err != nil {
		return err
	}
	opts := []asynq.Option{}
	if payload.NotificationID != "" {
		// One email per notification even if the enqueue is repeated.
		opts = append(opts, asynq.TaskID("email:"+payload.NotificationID))
	}
	if _, err := c.client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
