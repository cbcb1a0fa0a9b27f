package ingress

import (
	"context"
	stderrors "errors"
	"io"
	"time"

	"notification-dispatcher/internal/common/config"
	"notification-dispatcher/internal/common/logger"

	"github.com/segmentio/kafka-go"
)

// Handler processes one message value.
type Handler func(ctx context.Context, key, value []byte) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer reads notification requests from a consumer group. A message is
// committed once its handler returns nil.
type KafkaConsumer struct {
	reader     messageReader
	logger     logger.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewKafkaConsumer(cfg config.KafkaConfig, log logger.Logger) *KafkaConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:               cfg.Brokers,
		GroupID:               cfg.GroupID,
		Topic:                 cfg.Topic,
		StartOffset:           startOffset(cfg.StartOffset),
		WatchPartitionChanges: true,

		MinBytes:          1,
		MaxBytes:          1e6,
		SessionTimeout:    10 * time.Second,
		RebalanceTimeout:  15 * time.Second,
		HeartbeatInterval: 3 * time.Second,
	})

	return newKafkaConsumer(r, log.WithFields(map[string]interface{}{
		"component": "kafka.consumer",
		"topic":     cfg.Topic,
		"group":     cfg.GroupID,
	}))
}

// startOffset maps kafka.start_offset to the reader setting. It only matters
// for a group with no committed offset.
func startOffset(name string) int64 {
	if name == config.KafkaOffsetLast {
		return kafka.LastOffset
	}
	return kafka.FirstOffset
}

func newKafkaConsumer(r messageReader, log logger.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		reader:     r,
		logger:     log,
		minBackoff: 200 * time.Millisecond,
		maxBackoff: 5 * time.Second,
	}
}

// Consume runs until ctx is cancelled.
func (c *KafkaConsumer) Consume(ctx context.Context, h Handler) error {
	c.logger.Info("consumer started", nil)

	backoff := c.minBackoff
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopped", nil)
				return ctx.Err()
			}
			if stderrors.Is(err, io.EOF) {
				c.logger.Debug("fetch EOF; retry", map[string]interface{}{"backoff": backoff.String()})
			} else {
				c.logger.Warn("fetch failed; retry", map[string]interface{}{"error": err.Error(), "backoff": backoff.String()})
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > c.maxBackoff {
				backoff = c.maxBackoff
			}
			continue
		}
		backoff = c.minBackoff

		if err := h(ctx, msg.Key, msg.Value); err != nil {
			c.logger.Error("handler error; message left uncommitted", map[string]interface{}{
				"partition": msg.Partition,
				"offset":    msg.Offset,
				"error":     err.Error(),
			})
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("commit failed", map[string]interface{}{"offset": msg.Offset, "error": err.Error()})
		}
	}
}

func (c *KafkaConsumer) Close() error { return c.reader.Close() }
