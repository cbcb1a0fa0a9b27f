package templates

import (
	"context"
	"fmt"
	"time"

	"notification-dispatcher/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// TemplatesCollection is the Mongo collection holding templates.
const TemplatesCollection = "notification_templates"

// templateDocument stores defaults with a null companyId.
type templateDocument struct {
	Type      string    `bson:"type"`
	Channel   string    `bson:"channel"`
	CompanyID *string   `bson:"companyId"`
	Subject   string    `bson:"subject,omitempty"`
	Content   string    `bson:"content"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(TemplatesCollection)}
}

// EnsureIndexes creates the unique (type, channel, companyId) index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "type", Value: 1},
			{Key: "channel", Value: 1},
			{Key: "companyId", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("type_channel_company_unique"),
	})
	if err != nil {
		return fmt.Errorf("create template index: %w", err)
	}
	return nil
}

func (s *MongoStore) FindCandidates(ctx context.Context, notificationType models.NotificationType, channel models.ChannelType, companyID string) ([]models.TemplateRecord, error) {
	filter := bson.M{
		"type":      string(notificationType),
		"channel":   string(channel),
		"companyId": bson.M{"$in": companyFilterValues(companyID)},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "companyId", Value: -1}}).
		SetLimit(2)

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find templates: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []templateDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}

	out := make([]models.TemplateRecord, 0, len(docs))
	for _, doc := range docs {
		rec := models.TemplateRecord{
			Type:     models.NotificationType(doc.Type),
			Channel:  models.ChannelType(doc.Channel),
			Template: models.Template{Subject: doc.Subject, Content: doc.Content},
		}
		if doc.CompanyID != nil {
			rec.CompanyID = *doc.CompanyID
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *MongoStore) Upsert(ctx context.Context, record models.TemplateRecord) error {
	filter := bson.M{
		"type":      string(record.Type),
		"channel":   string(record.Channel),
		"companyId": companyValue(record.CompanyID),
	}
	update := bson.M{
		"$set": bson.M{
			"subject":   record.Subject,
			"content":   record.Content,
			"updatedAt": time.Now().UTC(),
		},
	}

	if _, err := s.coll.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true)); err != nil {
		return fmt.Errorf("upsert template %s/%s/%s: %w", record.Type, record.Channel, record.CompanyID, err)
	}
	return nil
}

func companyValue(companyID string) interface{} {
	if companyID == "" {
		return nil
	}
	return companyID
}

func companyFilterValues(companyID string) bson.A {
	if companyID == "" {
		return bson.A{nil}
	}
	return bson.A{companyID, nil}
}
