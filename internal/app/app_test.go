package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/app"
	appHTTP "github.com/cmlabs-hris/cafeteria-payroll/internal/handler/http"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/jwt"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type server struct {
	t      *testing.T
	router http.Handler
}

func newServer(t *testing.T) *server {
	t.Helper()
	jwtService := jwt.NewJWTService("test-secret", time.Hour)
	a := app.New(app.Deps{
		Repos: app.MemoryRepositories(memory.NewStore()),
		JWT:   jwtService,
	})
	t.Cleanup(a.Notifications.Stop)

	require.NoError(t, a.Auth.EnsureAdmin(context.Background(), "admin@cafe.com", "admin-secret"))

	router := appHTTP.NewRouter(appHTTP.RouterOptions{
		AllowedOrigins:  []string{"*"},
		LoginRateLimit:  100,
		ImportRateLimit: 100,
	}, jwtService, a.Handlers)
	return &server{t: t, router: router}
}

func (s *server) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func (s *server) login(email, password string) string {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, code)
	var token struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &token))
	require.NotEmpty(s.t, token.AccessToken)
	return token.AccessToken
}

func dataID(t *testing.T, env envelope) string {
	t.Helper()
	var obj struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &obj))
	require.NotEmpty(t, obj.ID)
	return obj.ID
}

func TestRouter_AuthBoundaries(t *testing.T) {
	s := newServer(t)

	code, env := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "admin@cafe.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)

	code, _ = s.do(http.MethodGet, "/api/v1/positions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	admin := s.login("admin@cafe.com", "admin-secret")
	code, _ = s.do(http.MethodGet, "/api/v1/positions", admin, nil)
	assert.Equal(t, http.StatusOK, code)

	// The bootstrap admin has no employee record.
	code, _ = s.do(http.MethodGet, "/api/v1/me/notifications", admin, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodGet, "/api/v1/me/notifications/stream", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRouter_ValidationAndNotFound(t *testing.T) {
	s := newServer(t)
	admin := s.login("admin@cafe.com", "admin-secret")

	code, env := s.do(http.MethodPost, "/api/v1/positions", admin, map[string]string{})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "name")

	code, env = s.do(http.MethodGet, "/api/v1/reports/summary/abc/3", admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Error.Details, "year")

	code, env = s.do(http.MethodGet, "/api/v1/schedules/00000000-0000-0000-0000-000000000000", admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "SCHEDULE_NOT_FOUND", env.Error.Code)
}

func TestRouter_EmployeeSelfServiceFlow(t *testing.T) {
	s := newServer(t)
	admin := s.login("admin@cafe.com", "admin-secret")

	code, env := s.do(http.MethodPost, "/api/v1/positions", admin, map[string]interface{}{
		"name":          "Cook",
		"contract_type": "hourly",
		"hourly_rate":   "12.50",
	})
	require.Equal(t, http.StatusCreated, code)
	positionID := dataID(t, env)

	code, env = s.do(http.MethodPost, "/api/v1/employees", admin, map[string]interface{}{
		"full_name":   "Ana Lopez",
		"email":       "ana@cafe.com",
		"position_id": positionID,
		"password":    "ana-password",
	})
	require.Equal(t, http.StatusCreated, code)
	employeeID := dataID(t, env)

	ana := s.login("ana@cafe.com", "ana-password")

	code, _ = s.do(http.MethodGet, "/api/v1/positions", ana, nil)
	assert.Equal(t, http.StatusForbidden, code)

	day := time.Now().UTC().AddDate(0, 0, -1)
	block := map[string]string{"date": day.Format("2006-01-02"), "start_time": "09:00", "end_time": "13:00"}

	code, _ = s.do(http.MethodPost, "/api/v1/me/time-blocks", ana, block)
	require.Equal(t, http.StatusCreated, code)

	overlapping := map[string]string{"date": day.Format("2006-01-02"), "start_time": "12:00", "end_time": "14:00"}
	code, env = s.do(http.MethodPost, "/api/v1/me/time-blocks", ana, overlapping)
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "WORK_BLOCK_OVERLAP", env.Error.Code)
	assert.NotEmpty(t, env.Error.Details)

	code, env = s.do(http.MethodGet, "/api/v1/me/time-blocks", ana, nil)
	require.Equal(t, http.StatusOK, code)
	var blocks []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &blocks))
	assert.Len(t, blocks, 1)

	path := fmt.Sprintf("/api/v1/payrolls/calculate?employee_id=%s&year=%d&month=%d", employeeID, day.Year(), int(day.Month()))
	code, env = s.do(http.MethodGet, path, admin, nil)
	require.Equal(t, http.StatusOK, code)
	var calc struct {
		EmployeeID string `json:"employee_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &calc))
	assert.Equal(t, employeeID, calc.EmployeeID)

	code, env = s.do(http.MethodGet, "/api/v1/me/notifications/unread-count", ana, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"unread_count":0}`, string(env.Data))
}
