// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"notification-dispatcher/internal/common/config"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Client wraps the Zeebe gRPC client with a connection check and retry on startup.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

// ClientConfig holds configuration for the Camunda/Zeebe client.
type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RetryConfig            *RetryConfig
}

// RetryConfig defines retry behavior for transient connection failures.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   10 * time.Second,
}

// ConfigFrom builds a plaintext client configuration from the camunda section.
func ConfigFrom(cfg config.CamundaConfig) *ClientConfig {
	timeout := config.GetDuration(cfg.RequestTimeout)
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retry := *DefaultRetryConfig
	if cfg.MaxRetries > 0 {
		retry.MaxRetries = cfg.MaxRetries
	}
	return &ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      timeout,
		RetryConfig:            &retry,
	}
}

// NewClientWithConfig creates a client and waits for the broker topology to answer.
func NewClientWithConfig(ctx context.Context, cfg *ClientConfig) (*Client, error) {
	if cfg.RetryConfig == nil {
		cfg.RetryConfig = DefaultRetryConfig
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.GatewayAddress,
		UsePlaintextConnection: cfg.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{client: zeebeClient, config: cfg}
	if err := c.waitForTopology(ctx); err != nil {
		_ = zeebeClient.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) waitForTopology(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt <= c.config.RetryConfig.MaxRetries; attempt++ {
		lastErr = c.HealthCheck(ctx)
		if lastErr == nil {
			return nil
		}
		if !isRetryableZeebeError(lastErr) || attempt == c.config.RetryConfig.MaxRetries {
			break
		}

		select {
		case <-time.After(backoff(c.config.RetryConfig, attempt)):
		case <-ctx.Done():
			return fmt.Errorf("connecting to Zeebe at %s cancelled: %w", c.config.GatewayAddress, ctx.Err())
		}
	}
	return fmt.Errorf("failed to connect to Zeebe broker at %s: %w", c.config.GatewayAddress, lastErr)
}

func backoff(cfg *RetryConfig, attempt int) time.Duration {
	delay := cfg.BaseDelay * time.Duration(1<<attempt)
	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}

// isRetryableZeebeError checks if the error is transient and should be retried.
func isRetryableZeebeError(err error) bool {
	msg := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// GetClient returns the raw Zeebe client for job workers.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck asks the gateway for its topology.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}
