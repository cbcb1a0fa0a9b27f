//go:build integration

package inbox

import (
	"context"
	"os"
	"testing"
	"time"

	"notification-dispatcher/internal/common/config"
	"notification-dispatcher/internal/common/database"
	"notification-dispatcher/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestMongoInbox(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("Skipping Mongo test: set MONGO_URI")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mc, err := database.NewMongo(ctx, config.MongoConfig{URI: uri, Database: "inbox_it_" + uuid.NewString()[:8]})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = mc.Database.Drop(context.Background())
		_ = mc.Close(context.Background())
	})

	store := NewMongoStore(mc.Database)
	require.NoError(t, store.EnsureIndexes(ctx))
	return store
}

func TestMongoStore_ListByUser(t *testing.T) {
	store := createTestMongoInbox(t)
	ctx := context.Background()
	base := time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)

	for i, n := range []models.UINotification{
		{ID: uuid.NewString(), UserID: "user-1", Content: "older"},
		{ID: uuid.NewString(), UserID: "user-1", Content: "newer"},
		{ID: uuid.NewString(), UserID: "user-2", Content: "other user"},
	} {
		n.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Create(ctx, n))
	}

	list, err := store.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Content)
	assert.Equal(t, "older", list[1].Content)
	assert.False(t, list[0].Read)

	empty, err := store.ListByUser(ctx, "user-9")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
