package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/common/validation"
	"notification-dispatcher/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) SendNotification(ctx context.Context, req models.SendRequest) (*models.DispatchResult, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*models.DispatchResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) GetUINotifications(ctx context.Context, userID string) ([]models.UINotification, error) {
	args := m.Called(ctx, userID)
	if r := args.Get(0); r != nil {
		return r.([]models.UINotification), args.Error(1)
	}
	return nil, args.Error(1)
}

func createTestHandler(t *testing.T, svc Service, checks ...Check) http.Handler {
	t.Helper()
	decoder, err := validation.NewSendRequestValidator([]string{"happy-birthday", "monthly-payslip", "leave-balance-reminder"})
	require.NoError(t, err)
	return NewHandler(svc, decoder, logger.NewTestLogger(t), checks...).Routes()
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// ==========================
// POST /notifications/send
// ==========================

func TestSendNotification_Accepted(t *testing.T) {
	svc := new(MockService)
	want := models.SendRequest{UserID: "user-4", CompanyID: "company-a", Type: models.HappyBirthday}
	svc.On("SendNotification", mock.Anything, want).Return(&models.DispatchResult{}, nil)

	rec := doRequest(createTestHandler(t, svc), http.MethodPost, "/notifications/send",
		`{"userId":"user-4","companyId":"company-a","type":"happy-birthday"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]interface{}{"message": "Notification sent successfully."}, decodeBody(t, rec))
	svc.AssertExpectations(t)
}

func TestSendNotification_Errors(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		serviceErr  error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:       "invalid type",
			body:       `{"userId":"user-4","companyId":"company-a","type":"anniversary"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "empty user id",
			body:       `{"userId":"","companyId":"company-a","type":"happy-birthday"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "malformed body",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:        "unknown user",
			body:        `{"userId":"user-99","companyId":"company-a","type":"happy-birthday"}`,
			serviceErr:  errors.NewNotFoundError("User", "user-99"),
			wantStatus:  http.StatusNotFound,
			wantCode:    "NOT_FOUND",
			wantMessage: "User not found",
		},
		{
			name:        "internal failure hides cause",
			body:        `{"userId":"user-4","companyId":"company-a","type":"happy-birthday"}`,
			serviceErr:  errors.NewInternalError("company lookup failed", stderrors.New("dial tcp: refused")),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "INTERNAL_ERROR",
			wantMessage: "Failed to process notification request",
		},
		{
			name:        "foreign error is internal",
			body:        `{"userId":"user-4","companyId":"company-a","type":"happy-birthday"}`,
			serviceErr:  stderrors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "INTERNAL_ERROR",
			wantMessage: "Failed to process notification request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.serviceErr != nil {
				svc.On("SendNotification", mock.Anything, mock.Anything).Return(nil, tt.serviceErr)
			}

			rec := doRequest(createTestHandler(t, svc), http.MethodPost, "/notifications/send", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tt.wantCode, body["code"])
			assert.EqualValues(t, tt.wantStatus, body["statusCode"])
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, body["message"])
			}
			if tt.wantStatus == http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "refused")
			}
			if tt.serviceErr == nil {
				svc.AssertNotCalled(t, "SendNotification", mock.Anything, mock.Anything)
			}
		})
	}
}

// ==========================
// GET /notifications/ui/{userId}
// ==========================

func TestGetUINotifications(t *testing.T) {
	created := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	svc := new(MockService)
	svc.On("GetUINotifications", mock.Anything, "user-2").Return([]models.UINotification{
		{ID: "n-2", UserID: "user-2", Content: "Hi Jane!", CreatedAt: created.Add(time.Minute)},
		{ID: "n-1", UserID: "user-2", Content: "Happy Birthday Jane", CreatedAt: created},
	}, nil)

	rec := doRequest(createTestHandler(t, svc), http.MethodGet, "/notifications/ui/user-2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data  []models.UINotification `json:"data"`
		Count int                     `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "n-2", resp.Data[0].ID)
	assert.False(t, resp.Data[0].Read)
}

func TestGetUINotifications_Empty(t *testing.T) {
	svc := new(MockService)
	svc.On("GetUINotifications", mock.Anything, "user-3").Return([]models.UINotification{}, nil)

	rec := doRequest(createTestHandler(t, svc), http.MethodGet, "/notifications/ui/user-3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[],"count":0}`, rec.Body.String())
}

func TestGetUINotifications_Errors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"unknown user", errors.NewNotFoundError("User", "user-99"), http.StatusNotFound, "User not found"},
		{"inbox failure", errors.NewInternalError("failed to retrieve notifications", stderrors.New("timeout")), http.StatusInternalServerError, "Failed to retrieve notifications"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("GetUINotifications", mock.Anything, "user-99").Return(nil, tt.err)

			rec := doRequest(createTestHandler(t, svc), http.MethodGet, "/notifications/ui/user-99", "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMessage, decodeBody(t, rec)["message"])
		})
	}
}

// ==========================
// Probes
// ==========================

func TestHealth(t *testing.T) {
	rec := doRequest(createTestHandler(t, new(MockService)), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReady(t *testing.T) {
	ok := Check{Name: "redis", Ping: func(context.Context) error { return nil }}
	down := Check{Name: "postgres", Ping: func(context.Context) error { return stderrors.New("connection refused") }}

	rec := doRequest(createTestHandler(t, new(MockService), ok), http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"redis":"ok"}`, rec.Body.String())

	rec = doRequest(createTestHandler(t, new(MockService), ok, down), http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"redis":"ok","postgres":"connection refused"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	rec := doRequest(createTestHandler(t, new(MockService)), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
