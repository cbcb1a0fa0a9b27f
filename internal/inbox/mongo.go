package inbox

import (
	"context"
	"fmt"

	"notification-dispatcher/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// NotificationsCollection holds UI notifications.
const NotificationsCollection = "ui_notifications"

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(NotificationsCollection)}
}

// EnsureIndexes creates the (userId, createdAt desc) index used by ListByUser.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create inbox index: %w", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, n models.UINotification) error {
	if _, err := s.coll.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("insert ui notification: %w", err)
	}
	return nil
}

func (s *MongoStore) ListByUser(ctx context.Context, userID string) ([]models.UINotification, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find ui notifications: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.UINotification{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode ui notifications: %w", err)
	}
	return out, nil
}
