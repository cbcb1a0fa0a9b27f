//go:build integration

package directory

import (
	"context"
	"os"
	"testing"
	"time"

	"notification-dispatcher/internal/common/config"
	"notification-dispatcher/internal/common/database"
	"notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func createTestMongoDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("Skipping Mongo test: set MONGO_URI")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mc, err := database.NewMongo(ctx, config.MongoConfig{URI: uri, Database: "directory_it_" + uuid.NewString()[:8]})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = mc.Database.Drop(context.Background())
		_ = mc.Close(context.Background())
	})
	return mc.Database
}

func TestMongo_Lookups(t *testing.T) {
	db := createTestMongoDatabase(t)
	ctx := context.Background()
	dob := time.Date(1990, time.March, 15, 0, 0, 0, 0, time.UTC)

	_, err := db.Collection("companies").InsertOne(ctx, bson.M{
		"_id": "company-a", "name": "Acme", "subscribeChannels": []string{"email", "ui"},
	})
	require.NoError(t, err)
	_, err = db.Collection("users").InsertOne(ctx, bson.M{
		"_id": "user-1", "firstName": "Jane", "lastName": "Doe", "email": "jane@example.com",
		"companyId": "company-a", "subscribeChannels": []string{"ui"},
		"dateOfBirth": dob, "salary": 5000.0, "leaveBalance": 12.5,
	})
	require.NoError(t, err)

	dir := NewMongo(db)

	user, err := dir.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Jane", user.FirstName)
	assert.Equal(t, []models.ChannelType{models.ChannelUI}, user.SubscribeChannels)
	require.NotNil(t, user.DateOfBirth)
	assert.True(t, dob.Equal(*user.DateOfBirth))
	assert.Equal(t, 12.5, user.LeaveBalance)

	company, err := dir.GetCompany(ctx, "company-a")
	require.NoError(t, err)
	assert.Equal(t, []models.ChannelType{models.ChannelEmail, models.ChannelUI}, company.SubscribeChannels)

	_, err = dir.GetUser(ctx, "user-9")
	assert.True(t, errors.IsNotFound(err))
	_, err = dir.GetCompany(ctx, "company-z")
	assert.True(t, errors.IsNotFound(err))
}
