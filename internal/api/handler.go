// Package api exposes the dispatcher over HTTP.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 64 << 10

// Service is the dispatcher surface the handlers call.
type Service interface {
	SendNotification(ctx context.Context, req models.SendRequest) (*models.DispatchResult, error)
	GetUINotifications(ctx context.Context, userID string) ([]models.UINotification, error)
}

// RequestDecoder validates and decodes a send request body.
type RequestDecoder interface {
	Decode(body []byte) (models.SendRequest, error)
}

// Check is a named readiness probe.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type Handler struct {
	service Service
	decoder RequestDecoder
	checks  []Check
	logger  logger.Logger
}

func NewHandler(service Service, decoder RequestDecoder, log logger.Logger, checks ...Check) *Handler {
	return &Handler{
		service: service,
		decoder: decoder,
		checks:  checks,
		logger:  log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// Routes builds the router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Get("/ready", h.ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/notifications", func(r chi.Router) {
		r.Post("/send", h.sendNotification)
		r.Get("/ui/{userId}", h.getUINotifications)
	})

	return r
}

type messageResponse struct {
	Message string `json:"message"`
}

type uiNotificationsResponse struct {
	Data  []models.UINotification `json:"data"`
	Count int                     `json:"count"`
}

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

func (h *Handler) sendNotification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, errors.NewValidationFailedError("request body could not be read"), "")
		return
	}

	req, err := h.decoder.Decode(body)
	if err != nil {
		h.writeError(w, err, "Failed to process notification request")
		return
	}

	if _, err := h.service.SendNotification(r.Context(), req); err != nil {
		h.logger.Error("failed to send notification", map[string]interface{}{
			"error":     err.Error(),
			"requestId": middleware.GetReqID(r.Context()),
		})
		h.writeError(w, err, "Failed to process notification request")
		return
	}

	writeJSON(w, http.StatusAccepted, messageResponse{Message: "Notification sent successfully."})
}

func (h *Handler) getUINotifications(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	list, err := h.service.GetUINotifications(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get ui notifications", map[string]interface{}{
			"userId":    userID,
			"error":     err.Error(),
			"requestId": middleware.GetReqID(r.Context()),
		})
		h.writeError(w, err, "Failed to retrieve notifications")
		return
	}

	writeJSON(w, http.StatusOK, uiNotificationsResponse{Data: list, Count: len(list)})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{}
	code := http.StatusOK
	for _, c := range h.checks {
		if err := c.Ping(r.Context()); err != nil {
			h.logger.Warn("readiness check failed", map[string]interface{}{"check": c.Name, "error": err.Error()})
			status[c.Name] = err.Error()
			code = http.StatusServiceUnavailable
			continue
		}
		status[c.Name] = "ok"
	}
	writeJSON(w, code, status)
}

// writeError maps the error taxonomy onto status codes. Internal failures
// are reported with fallback instead of the underlying message.
func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	stdErr := errors.Normalize(err)

	status := http.StatusInternalServerError
	switch stdErr.Code {
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeValidationFailed:
		status = http.StatusBadRequest
	}

	resp := errorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Code:       string(stdErr.Code),
		Message:    stdErr.Message,
		Details:    stdErr.Details,
	}
	if status == http.StatusInternalServerError {
		resp.Message = fallback
		resp.Details = ""
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
