package templates

import (
	"context"
	"errors"
	"testing"

	commonerrors "notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type requirement struct {
	t        models.NotificationType
	channels []models.ChannelType
}

func (r requirement) Type() models.NotificationType         { return r.t }
func (r requirement) DefaultChannels() []models.ChannelType { return r.channels }

type failingStore struct{ MemoryStore }

func (*failingStore) Upsert(context.Context, models.TemplateRecord) error {
	return errors.New("disk full")
}

func TestSeed_Idempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, Seed(ctx, store, DefaultSeed()))
	require.NoError(t, Seed(ctx, store, DefaultSeed()))

	assert.Equal(t, len(DefaultSeed()), store.Len())
}

func TestSeed_UpsertReplacesContent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	rec := models.TemplateRecord{Type: models.HappyBirthday, Channel: models.ChannelUI, Template: models.Template{Content: "v1"}}

	require.NoError(t, Seed(ctx, store, []models.TemplateRecord{rec}))
	rec.Content = "v2"
	require.NoError(t, Seed(ctx, store, []models.TemplateRecord{rec}))

	records, err := store.FindCandidates(ctx, models.HappyBirthday, models.ChannelUI, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "v2", records[0].Content)
}

func TestSeed_StoreFailure(t *testing.T) {
	err := Seed(context.Background(), &failingStore{}, DefaultSeed())
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeTemplateStoreFailed, commonerrors.CodeOf(err))
}

func TestDefaultSeed_UniqueTriples(t *testing.T) {
	seen := map[string]bool{}
	for _, rec := range DefaultSeed() {
		key := CacheKey(rec.Type, rec.Channel, rec.CompanyID)
		assert.False(t, seen[key], "duplicate seed record %s", key)
		seen[key] = true
		assert.NotEmpty(t, rec.Content)
	}
	assert.Len(t, seen, 5)
}

func TestMissingDefaults(t *testing.T) {
	reqs := []requirement{
		{models.HappyBirthday, []models.ChannelType{models.ChannelEmail, models.ChannelUI}},
		{models.MonthlyPayslip, []models.ChannelType{models.ChannelEmail, models.ChannelSMS}},
		{models.LeaveBalanceReminder, []models.ChannelType{models.ChannelUI}},
	}

	missing := MissingDefaults(reqs, DefaultSeed())
	assert.Equal(t, []MissingDefault{{models.MonthlyPayslip, models.ChannelSMS}}, missing)

	overridesOnly := []models.TemplateRecord{
		{Type: models.LeaveBalanceReminder, Channel: models.ChannelUI, CompanyID: "company-a"},
	}
	assert.Equal(t,
		[]MissingDefault{{models.LeaveBalanceReminder, models.ChannelUI}},
		MissingDefaults(reqs[2:], overridesOnly))
}
