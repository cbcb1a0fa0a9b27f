package database

import (
	"context"
	"fmt"
	"time"

	"notification-dispatcher/internal/common/config"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoClient wraps the Mongo client and the configured database.
type MongoClient struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// NewMongo connects and pings, retrying a few times while the server comes up.
func NewMongo(ctx context.Context, cfg config.MongoConfig) (*MongoClient, error) {
	const attempts = 3

	var lastErr error
	for i := 0; i < attempts; i++ {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.URI).
				SetConnectTimeout(10 * time.Second).
				SetMaxPoolSize(50).
				SetRetryWrites(true).
				SetRetryReads(true),
		)
		if err == nil {
			if err = client.Ping(ctx, nil); err == nil {
				return &MongoClient{Client: client, Database: client.Database(cfg.Database)}, nil
			}
			_ = client.Disconnect(ctx)
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}

	return nil, fmt.Errorf("failed to connect to mongo: %w", lastErr)
}

// Ping tests the Mongo connection
func (c *MongoClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	return nil
}

// Close disconnects the client
func (c *MongoClient) Close(ctx context.Context) error {
	if c.Client != nil {
		return c.Client.Disconnect(ctx)
	}
	return nil
}
