package notification

import (
	"errors"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/apperr"
)

// Notification domain errors
var (
	ErrNotificationNotFound = apperr.NotFound("NOTIFICATION_NOT_FOUND", "notification not found")
	ErrUnknownEvent         = errors.New("unknown event")
)
