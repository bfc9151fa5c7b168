package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shineal/internal/auth"
	"shineal/internal/config"
	"shineal/internal/coordinator"
	apperrors "shineal/internal/errors"
	"shineal/internal/handler"
	"shineal/internal/logging"
	"shineal/internal/metrics"
	"shineal/internal/service"
	"shineal/internal/store"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	logger := logging.Discard()

	coord := coordinator.New(store.NewMemory(), logger, coordinator.WithMetrics(m))
	tokens := auth.NewJWTService(testSecret)
	svc := service.NewAccountService(coord, auth.NewPasswordHasher(), tokens, logger)

	return New(Deps{
		Config:      &config.Config{AppEnv: "test", CORSOrigins: []string{"*"}},
		Logger:      logger,
		Tokens:      tokens,
		Gatherer:    reg,
		AuthHandler: handler.NewAuthHandler(svc),
		UserHandler: handler.NewUserHandler(svc),
	})
}

func do(t *testing.T, e *echo.Echo, method, path, body, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var payload map[string]any
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func signup(t *testing.T, e *echo.Echo, name, email string) (id, token string) {
	t.Helper()
	body := `{"fullName":"` + name + `","email":"` + email + `","password":"password123"}`
	rec, payload := do(t, e, http.MethodPost, "/api/signup", body, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := payload["user"].(map[string]any)
	return user["id"].(string), payload["token"].(string)
}

func TestSignupAndLogin(t *testing.T) {
	e := newTestServer(t)

	rec, payload := do(t, e, http.MethodPost, "/api/signup", `{"fullName":"Jane Doe","email":"Jane@Example.com","password":"password123"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, "Account created successfully", payload["message"])
	assert.NotEmpty(t, payload["token"])
	user := payload["user"].(map[string]any)
	assert.Equal(t, "jane@example.com", user["email"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, rec.Body.String(), "$2a$")

	rec, payload = do(t, e, http.MethodPost, "/api/login", `{"email":"jane@example.com","password":"password123","remember":true}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Login successful", payload["message"])
	assert.NotEmpty(t, payload["token"])
}

func TestSignupErrors(t *testing.T) {
	e := newTestServer(t)
	signup(t, e, "Jane", "jane@example.com")

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"missing fields", `{"email":"a@b.co"}`, http.StatusBadRequest, "Please provide all required fields"},
		{"malformed json", `{"email":`, http.StatusBadRequest, "Invalid request body"},
		{"bad email", `{"fullName":"Jo","email":"nope","password":"password123"}`, http.StatusBadRequest, "Please provide a valid email address"},
		{"short password", `{"fullName":"Jo","email":"jo@b.co","password":"short"}`, http.StatusBadRequest, "Password must be at least 8 characters long"},
		{"duplicate", `{"fullName":"Jane","email":"JANE@example.com","password":"password123"}`, http.StatusConflict, "Email address already registered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, payload := do(t, e, http.MethodPost, "/api/signup", tt.body, "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, false, payload["success"])
			assert.Equal(t, tt.message, payload["message"])
		})
	}
}

func TestLoginFailuresShareMessage(t *testing.T) {
	e := newTestServer(t)
	signup(t, e, "Jane", "jane@example.com")

	recUnknown, unknown := do(t, e, http.MethodPost, "/api/login", `{"email":"nobody@example.com","password":"password123"}`, "")
	recWrong, wrong := do(t, e, http.MethodPost, "/api/login", `{"email":"jane@example.com","password":"password999"}`, "")

	assert.Equal(t, http.StatusUnauthorized, recUnknown.Code)
	assert.Equal(t, recUnknown.Code, recWrong.Code)
	assert.Equal(t, "Invalid email or password", unknown["message"])
	assert.Equal(t, unknown, wrong)

	rec, payload := do(t, e, http.MethodPost, "/api/login", `{"email":"jane@example.com"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please provide email and password", payload["message"])
}

func TestBearerAuth(t *testing.T) {
	e := newTestServer(t)
	id, token := signup(t, e, "Jane", "jane@example.com")

	rec, payload := do(t, e, http.MethodGet, "/api/user/"+id, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Access token required", payload["message"])

	rec, payload = do(t, e, http.MethodGet, "/api/user/"+id, "", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", payload["message"])

	forged, _, err := auth.NewJWTService("another-secret-another-secret-!!").Issue(id, "jane@example.com", false)
	require.NoError(t, err)
	rec, payload = do(t, e, http.MethodGet, "/api/user/"+id, "", forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", payload["message"])

	rec, payload = do(t, e, http.MethodGet, "/api/user/"+id, "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	user := payload["user"].(map[string]any)
	assert.Equal(t, id, user["id"])
	assert.Contains(t, user, "createdAt")
	assert.NotContains(t, user, "password")
}

func TestGetUserNotFound(t *testing.T) {
	e := newTestServer(t)
	_, token := signup(t, e, "Jane", "jane@example.com")

	rec, payload := do(t, e, http.MethodGet, "/api/user/missing", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", payload["message"])
}

func TestUpdateUser(t *testing.T) {
	e := newTestServer(t)
	id, token := signup(t, e, "Jane", "jane@example.com")
	otherID, _ := signup(t, e, "Joe", "joe@example.com")

	rec, payload := do(t, e, http.MethodPut, "/api/user/"+otherID, `{"fullName":"Hijacked"}`, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You can only modify your own account", payload["message"])

	rec, payload = do(t, e, http.MethodPut, "/api/user/"+id, `{"fullName":"J"}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Full name must be at least 2 characters", payload["message"])

	rec, payload = do(t, e, http.MethodPut, "/api/user/"+id, `{"fullName":"Jane Updated"}`, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Profile updated successfully", payload["message"])

	_, payload = do(t, e, http.MethodGet, "/api/user/"+id, "", token)
	assert.Equal(t, "Jane Updated", payload["user"].(map[string]any)["fullName"])
}

func TestChangePassword(t *testing.T) {
	e := newTestServer(t)
	_, token := signup(t, e, "Jane", "jane@example.com")

	rec, payload := do(t, e, http.MethodPost, "/api/change-password", `{"currentPassword":"wrong-password","newPassword":"new-password-1"}`, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Current password is incorrect", payload["message"])

	rec, payload = do(t, e, http.MethodPost, "/api/change-password", `{"currentPassword":"password123"}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please provide current and new password", payload["message"])

	rec, payload = do(t, e, http.MethodPost, "/api/change-password", `{"currentPassword":"password123","newPassword":"new-password-1"}`, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password changed successfully", payload["message"])

	rec, _ = do(t, e, http.MethodPost, "/api/login", `{"email":"jane@example.com","password":"new-password-1"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, e, http.MethodPost, "/api/login", `{"email":"jane@example.com","password":"password123"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownEndpoint(t *testing.T) {
	e := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"unknown root path", http.MethodGet, "/nothing"},
		{"unknown path under api", http.MethodGet, "/api/nothing-here"},
		{"wrong method on public route", http.MethodGet, "/api/signup"},
		{"wrong method on secured route", http.MethodDelete, "/api/user/123"},
		{"wrong method on change-password", http.MethodGet, "/api/change-password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, payload := do(t, e, tt.method, tt.path, "", "")
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, false, payload["success"])
			assert.Equal(t, "Endpoint not found", payload["message"])
		})
	}
}

func TestErrorHandler(t *testing.T) {
	e := newTestServer(t)
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("dial tcp 10.0.0.1:443: connection refused")
	})
	e.GET("/busy", func(c echo.Context) error {
		return apperrors.ErrBusy
	})
	e.GET("/panic", func(c echo.Context) error {
		panic("unexpected")
	})

	rec, payload := do(t, e, http.MethodGet, "/boom", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "An unexpected error occurred", payload["message"])
	assert.NotContains(t, rec.Body.String(), "10.0.0.1")

	rec, payload = do(t, e, http.MethodGet, "/busy", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Service is busy. Please try again.", payload["message"])

	rec, payload = do(t, e, http.MethodGet, "/panic", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "An unexpected error occurred", payload["message"])
}

func TestOperationalEndpoints(t *testing.T) {
	e := newTestServer(t)
	signup(t, e, "Jane", "jane@example.com")

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `accounts_coordinator_transactions_total{outcome="committed"} 1`)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCustomValidator(t *testing.T) {
	e := newTestServer(t)
	type payload struct {
		Name string `validate:"required"`
	}

	assert.Error(t, e.Validator.Validate(&payload{}))
	assert.NoError(t, e.Validator.Validate(&payload{Name: "x"}))
}
