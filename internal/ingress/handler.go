// Package ingress feeds notification requests from a stream into the dispatcher.
package ingress

import (
	"context"

	"notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/common/metrics"
	"notification-dispatcher/internal/models"
)

type Dispatcher interface {
	SendNotification(ctx context.Context, req models.SendRequest) (*models.DispatchResult, error)
}

// RequestDecoder validates and decodes a message value.
type RequestDecoder interface {
	Decode(body []byte) (models.SendRequest, error)
}

// MessageHandler dispatches one message. It returns an error only when the
// message should stay uncommitted.
type MessageHandler struct {
	decoder    RequestDecoder
	dispatcher Dispatcher
	logger     logger.Logger
}

func NewMessageHandler(decoder RequestDecoder, dispatcher Dispatcher, log logger.Logger) *MessageHandler {
	return &MessageHandler{
		decoder:    decoder,
		dispatcher: dispatcher,
		logger:     log.WithFields(map[string]interface{}{"component": "ingress"}),
	}
}

func (h *MessageHandler) Handle(ctx context.Context, key, value []byte) error {
	req, err := h.decoder.Decode(value)
	if err != nil {
		metrics.IngressMessages.WithLabelValues("rejected").Inc()
		h.logger.Warn("discarding invalid notification message", map[string]interface{}{
			"key":   string(key),
			"error": err.Error(),
		})
		return nil
	}

	if _, err := h.dispatcher.SendNotification(ctx, req); err != nil {
		if errors.CodeOf(err) == errors.ErrCodeInternal {
			metrics.IngressMessages.WithLabelValues("failed").Inc()
			return err
		}
		metrics.IngressMessages.WithLabelValues("rejected").Inc()
		h.logger.Warn("discarding notification message", map[string]interface{}{
			"key":       string(key),
			"userId":    req.UserID,
			"companyId": req.CompanyID,
			"type":      string(req.Type),
			"error":     err.Error(),
		})
		return nil
	}

	metrics.IngressMessages.WithLabelValues("dispatched").Inc()
	return nil
}
