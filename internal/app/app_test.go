package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"taskManager/internal/app"
	"taskManager/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) http.Handler {
	t.Helper()
	for _, k := range []string{"DATABASE_URL", "JWT_SECRET", "JWT_EXPIRE", "REDIS_ADDR", "PORT", "REPOSITORY_TYPE", "EMAIL_HOST"} {
		t.Setenv(k, "")
	}

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
repository:
  type: inmemory
auth:
  jwt_secret: test-secret
  bcrypt_cost: 4
server:
  rate_limit_rpm: 1000
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	a, err := app.New(cfg).Init(context.Background())
	require.NoError(t, err)
	t.Cleanup(a.Shutdown)
	return a.Handler()
}

type client struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func (c *client) do(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Header().Get("Content-Type") == "application/json" {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func register(t *testing.T, h http.Handler, name, role string) *client {
	c := &client{t: t, handler: h}
	w, body := c.do(http.MethodPost, "/auth/register", map[string]string{
		"name": name, "email": name + "@example.com", "password": "secret1", "role": role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	c.token = body["token"].(string)
	return c
}

// TestApp_EndToEnd тестирует путь регистрация -> задачи -> админка через роутер
func TestApp_EndToEnd(t *testing.T) {
	h := newTestApp(t)
	admin := register(t, h, "boss", "admin")
	ann := register(t, h, "ann", "")

	w, body := ann.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := body["user"].(map[string]any)
	annID := int64(me["id"].(float64))
	assert.Equal(t, "user", me["role"])

	w, body = ann.do(http.MethodPost, "/tasks", map[string]any{
		"title": "Buy milk", "due_date": "2030-01-01", "category": "home",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	taskID := int64(body["task"].(map[string]any)["id"].(float64))

	w, body = admin.do(http.MethodPost, "/tasks", map[string]any{
		"title": "Admin only", "due_date": "2030-01-01", "category": "ops",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	adminTaskID := int64(body["task"].(map[string]any)["id"].(float64))

	w, body = ann.do(http.MethodGet, "/tasks?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["tasks"], 1)
	assert.Equal(t, float64(1), body["pagination"].(map[string]any)["totalTasks"])

	w, _ = ann.do(http.MethodGet, fmt.Sprintf("/tasks/%d", adminTaskID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = ann.do(http.MethodPut, fmt.Sprintf("/tasks/%d", taskID), map[string]any{"priority": "high"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "high", body["task"].(map[string]any)["priority"])

	w, body = ann.do(http.MethodPatch, fmt.Sprintf("/tasks/%d/complete", taskID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", body["task"].(map[string]any)["status"])

	w, _ = ann.do(http.MethodGet, "/admin/dashboard", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = admin.do(http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["dashboard"].(map[string]any)["totalTasks"])

	w, body = admin.do(http.MethodGet, "/admin/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["users"], 2)

	w, _ = admin.do(http.MethodDelete, fmt.Sprintf("/tasks/%d", taskID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = admin.do(http.MethodGet, "/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["tasks"], 1)
	assert.NotZero(t, annID)
}

func TestApp_Unauthenticated(t *testing.T) {
	h := newTestApp(t)
	anon := &client{t: t, handler: h}

	w, body := anon.do(http.MethodGet, "/tasks", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "missing_token", body["reason"])

	anon.token = "broken"
	w, body = anon.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_token", body["reason"])

	w, body = anon.do(http.MethodPost, "/auth/login", map[string]string{"email": "ghost@example.com", "password": "whatever"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", body["error"])
}

func TestApp_HealthAndMetrics(t *testing.T) {
	h := newTestApp(t)
	anon := &client{t: t, handler: h}

	w, body := anon.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "taskmanager_http_requests_total")
}
