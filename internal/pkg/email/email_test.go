package email

import (
	"testing"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendNotification_SkipsWithoutSMTP(t *testing.T) {
	svc, err := NewEmailService(config.SMTPConfig{})
	require.NoError(t, err)

	assert.NoError(t, svc.SendNotification("ana@cafe.com", "Ana", "Payroll validated", "Your payroll for March 2026 has been validated."))
}
