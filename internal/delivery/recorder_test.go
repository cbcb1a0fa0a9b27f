package delivery

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"notification-dispatcher/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestES(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func TestElasticRecorder_Record(t *testing.T) {
	var (
		gotPath string
		gotDoc  Attempt
	)
	client := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotDoc)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	at := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	err := NewElasticRecorder(client, "notification-deliveries").Record(context.Background(), Attempt{
		ID:         "attempt-1",
		UserID:     "user-4",
		CompanyID:  "company-a",
		Type:       models.HappyBirthday,
		Channel:    models.ChannelEmail,
		Status:     models.DeliverySent,
		DurationMs: 12,
		Timestamp:  at,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotPath, "/notification-deliveries/_doc/attempt-1"), gotPath)
	assert.Equal(t, "user-4", gotDoc.UserID)
	assert.Equal(t, models.ChannelEmail, gotDoc.Channel)
	assert.True(t, at.Equal(gotDoc.Timestamp))
}

func TestElasticRecorder_Record_AssignsID(t *testing.T) {
	var gotPath string
	client := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	})

	err := NewElasticRecorder(client, "idx").Record(context.Background(), Attempt{Status: models.DeliverySkipped})
	require.NoError(t, err)
	assert.Regexp(t, `^/idx/_doc/[0-9a-f-]{36}$`, gotPath)
}

func TestElasticRecorder_Record_ServerError(t *testing.T) {
	client := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	})

	err := NewElasticRecorder(client, "idx").Record(context.Background(), Attempt{ID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestNopRecorder(t *testing.T) {
	assert.NoError(t, NopRecorder{}.Record(context.Background(), Attempt{}))
}
