package templates

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	commonerrors "notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

// countingStore wraps a Store and counts FindCandidates calls.
type countingStore struct {
	Store
	finds atomic.Int32
	err   error
}

func (s *countingStore) FindCandidates(ctx context.Context, t models.NotificationType, ch models.ChannelType, companyID string) ([]models.TemplateRecord, error) {
	s.finds.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.Store.FindCandidates(ctx, t, ch, companyID)
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) (*models.Template, bool, error) {
	return nil, false, errors.New("cache unavailable")
}

func (failingCache) Set(context.Context, string, *models.Template, time.Duration) error {
	return errors.New("cache unavailable")
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func createSeededStore(t *testing.T) *countingStore {
	t.Helper()
	mem := NewMemoryStore()
	require.NoError(t, Seed(context.Background(), mem, DefaultSeed()))
	return &countingStore{Store: mem}
}

func createTestResolver(t *testing.T, store Store, cache Cache) *Resolver {
	return NewResolver(store, cache, time.Hour, logger.NewTestLogger(t))
}

// ==========================
// Selection
// ==========================

func TestResolver_Resolve_Selection(t *testing.T) {
	tests := []struct {
		name        string
		nType       models.NotificationType
		channel     models.ChannelType
		companyID   string
		wantNil     bool
		wantSubject string
		wantContent string
	}{
		{
			name:        "company override wins",
			nType:       models.HappyBirthday,
			channel:     models.ChannelEmail,
			companyID:   "company-b",
			wantSubject: "Important: {{firstName}}, Your Birthday is Coming Up!",
		},
		{
			name:        "default when company has no override",
			nType:       models.HappyBirthday,
			channel:     models.ChannelEmail,
			companyID:   "company-a",
			wantSubject: "Happy Birthday {{firstName}}",
			wantContent: "{{companyName}} is wishing you a happy birthday",
		},
		{
			name:        "default with no subject",
			nType:       models.HappyBirthday,
			channel:     models.ChannelUI,
			companyID:   "company-b",
			wantContent: "Happy Birthday {{firstName}}",
		},
		{
			name:      "absent when neither exists",
			nType:     models.LeaveBalanceReminder,
			channel:   models.ChannelEmail,
			companyID: "company-a",
			wantNil:   true,
		},
		{
			name:        "empty company resolves the default",
			nType:       models.LeaveBalanceReminder,
			channel:     models.ChannelUI,
			companyID:   "",
			wantContent: "Hi {{firstName}}! You have {{leaveBalance}} leave days remaining.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := createTestResolver(t, createSeededStore(t), nil)

			tmpl, err := resolver.Resolve(context.Background(), tt.nType, tt.channel, tt.companyID)
			require.NoError(t, err)

			if tt.wantNil {
				assert.Nil(t, tmpl)
				return
			}
			require.NotNil(t, tmpl)
			assert.Equal(t, tt.wantSubject, tmpl.Subject)
			if tt.wantContent != "" {
				assert.Equal(t, tt.wantContent, tmpl.Content)
			}
		})
	}
}

func TestSelectTemplate_OrderIndependent(t *testing.T) {
	def := models.TemplateRecord{Type: models.HappyBirthday, Channel: models.ChannelEmail, Template: models.Template{Content: "default"}}
	own := models.TemplateRecord{Type: models.HappyBirthday, Channel: models.ChannelEmail, CompanyID: "c1", Template: models.Template{Content: "own"}}

	assert.Equal(t, "own", selectTemplate([]models.TemplateRecord{def, own}, "c1").Content)
	assert.Equal(t, "own", selectTemplate([]models.TemplateRecord{own, def}, "c1").Content)
	assert.Equal(t, "default", selectTemplate([]models.TemplateRecord{def}, "c1").Content)
	assert.Nil(t, selectTemplate(nil, "c1"))
}

// ==========================
// Caching
// ==========================

func TestResolver_Resolve_CachesSelection(t *testing.T) {
	mr, client := setupRedis(t)
	store := createSeededStore(t)
	resolver := createTestResolver(t, store, NewRedisCache(client))
	ctx := context.Background()

	first, err := resolver.Resolve(ctx, models.HappyBirthday, models.ChannelEmail, "company-b")
	require.NoError(t, err)
	second, err := resolver.Resolve(ctx, models.HappyBirthday, models.ChannelEmail, "company-b")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), store.finds.Load())

	key := "template:happy-birthday:email:company-b"
	assert.True(t, mr.Exists(key))
	assert.InDelta(t, time.Hour.Seconds(), mr.TTL(key).Seconds(), 1)
}

func TestResolver_Resolve_NegativeCaching(t *testing.T) {
	mr, client := setupRedis(t)
	store := createSeededStore(t)
	resolver := createTestResolver(t, store, NewRedisCache(client))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tmpl, err := resolver.Resolve(ctx, models.MonthlyPayslip, models.ChannelUI, "company-a")
		require.NoError(t, err)
		assert.Nil(t, tmpl)
	}

	assert.Equal(t, int32(1), store.finds.Load())
	val, err := mr.Get("template:monthly-payslip:ui:company-a")
	require.NoError(t, err)
	assert.Equal(t, "null", val)
}

func TestResolver_Resolve_CacheHitSkipsStore(t *testing.T) {
	mr, client := setupRedis(t)
	require.NoError(t, mr.Set("template:happy-birthday:ui:company-a", `{"content":"cached {{firstName}}"}`))

	store := &countingStore{Store: NewMemoryStore(), err: errors.New("must not be called")}
	resolver := createTestResolver(t, store, NewRedisCache(client))

	tmpl, err := resolver.Resolve(context.Background(), models.HappyBirthday, models.ChannelUI, "company-a")
	require.NoError(t, err)
	require.NotNil(t, tmpl)
	assert.Equal(t, "cached {{firstName}}", tmpl.Content)
	assert.Equal(t, int32(0), store.finds.Load())
}

func TestResolver_Resolve_CacheFailureFallsBackToStore(t *testing.T) {
	store := createSeededStore(t)
	resolver := createTestResolver(t, store, failingCache{})

	tmpl, err := resolver.Resolve(context.Background(), models.HappyBirthday, models.ChannelUI, "company-a")
	require.NoError(t, err)
	require.NotNil(t, tmpl)
	assert.Equal(t, "Happy Birthday {{firstName}}", tmpl.Content)
	assert.Equal(t, int32(1), store.finds.Load())
}

func TestResolver_Resolve_StoreFailure(t *testing.T) {
	store := &countingStore{Store: NewMemoryStore(), err: errors.New("connection reset")}
	resolver := createTestResolver(t, store, nil)

	tmpl, err := resolver.Resolve(context.Background(), models.HappyBirthday, models.ChannelUI, "company-a")
	require.Error(t, err)
	assert.Nil(t, tmpl)
	assert.Equal(t, commonerrors.ErrCodeTemplateStoreFailed, commonerrors.CodeOf(err))
}

func TestResolver_Resolve_ConcurrentCallersAgree(t *testing.T) {
	_, client := setupRedis(t)
	resolver := createTestResolver(t, createSeededStore(t), NewRedisCache(client))

	var wg sync.WaitGroup
	results := make([]*models.Template, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tmpl, err := resolver.Resolve(context.Background(), models.HappyBirthday, models.ChannelEmail, "company-b")
			assert.NoError(t, err)
			results[i] = tmpl
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, results[0].Subject, r.Subject)
	}
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "template:happy-birthday:email:company-a",
		CacheKey(models.HappyBirthday, models.ChannelEmail, "company-a"))
	assert.Equal(t, "template:leave-balance-reminder:ui:",
		CacheKey(models.LeaveBalanceReminder, models.ChannelUI, ""))
}
