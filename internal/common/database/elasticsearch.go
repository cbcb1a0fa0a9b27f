// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"notification-dispatcher/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// deliveryMapping is the index layout for delivery attempt documents.
const deliveryMapping = `{
  "mappings": {
    "properties": {
      "id":         {"type": "keyword"},
      "userId":     {"type": "keyword"},
      "companyId":  {"type": "keyword"},
      "type":       {"type": "keyword"},
      "channel":    {"type": "keyword"},
      "status":     {"type": "keyword"},
      "error":      {"type": "text"},
      "durationMs": {"type": "long"},
      "@timestamp": {"type": "date"}
    }
  }
}`

// ElasticsearchClient holds the client used for the delivery log.
type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

// NewElasticsearch builds a client that retries throttled and gateway errors.
func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     cfg.Addresses,
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
		MaxRetries:    3,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &ElasticsearchClient{Client: es}, nil
}

func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

// EnsureDeliveryIndex creates index with the delivery mapping unless it exists.
func (c *ElasticsearchClient) EnsureDeliveryIndex(ctx context.Context, index string) error {
	res, err := c.Client.Indices.Exists([]string{index}, c.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = c.Client.Indices.Create(index,
		c.Client.Indices.Create.WithContext(ctx),
		c.Client.Indices.Create.WithBody(strings.NewReader(deliveryMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()

	// another replica may have created it between the two calls
	if res.IsError() && res.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("create index %s: %s", index, res.Status())
	}
	return nil
}
