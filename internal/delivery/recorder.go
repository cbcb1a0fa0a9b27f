// Package delivery keeps an audit log of channel delivery attempts.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"notification-dispatcher/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
)

// Attempt is one channel task outcome.
type Attempt struct {
	ID         string                  `json:"id"`
	UserID     string                  `json:"userId"`
	CompanyID  string                  `json:"companyId"`
	Type       models.NotificationType `json:"type"`
	Channel    models.ChannelType      `json:"channel"`
	Status     string                  `json:"status"`
	Error      string                  `json:"error,omitempty"`
	DurationMs int64                   `json:"durationMs"`
	Timestamp  time.Time               `json:"@timestamp"`
}

// Recorder stores delivery attempts.
type Recorder interface {
	Record(ctx context.Context, attempt Attempt) error
}

// NopRecorder discards attempts.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Attempt) error { return nil }

// ElasticRecorder indexes attempts as documents.
type ElasticRecorder struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticRecorder(client *elasticsearch.Client, index string) *ElasticRecorder {
	return &ElasticRecorder{client: client, index: index}
}

func (r *ElasticRecorder) Record(ctx context.Context, attempt Attempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.Timestamp.IsZero() {
		attempt.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("encode delivery attempt: %w", err)
	}

	res, err := r.client.Index(
		r.index,
		bytes.NewReader(body),
		r.client.Index.WithContext(ctx),
		r.client.Index.WithDocumentID(attempt.ID),
	)
	if err != nil {
		return fmt.Errorf("index delivery attempt: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index delivery attempt: %s", res.Status())
	}
	return nil
}
