package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestNew_WritesJSONWithAppAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{App: "cafeteria-payroll", Version: "v1", Env: "test", Level: "info"})

	log.Debug("Hidden")
	log.Info("Payroll validated", "payroll_id", "p-1")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "cafeteria-payroll", entry["app"])
	assert.Equal(t, "p-1", entry["payroll_id"])
}
