// Package templates resolves notification templates with company overrides,
// a read-through cache and seeding of the built-in defaults.
package templates

import (
	"context"
	"fmt"
	"time"

	"notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/common/metrics"
	"notification-dispatcher/internal/models"
)

// DefaultTTL is how long a resolved selection, absent included, stays cached.
const DefaultTTL = time.Hour

// Store holds template records, unique per (type, channel, companyId).
type Store interface {
	// FindCandidates returns at most two records: the company's and the default.
	FindCandidates(ctx context.Context, notificationType models.NotificationType, channel models.ChannelType, companyID string) ([]models.TemplateRecord, error)
	// Upsert inserts or replaces the record for its triple.
	Upsert(ctx context.Context, record models.TemplateRecord) error
}

// Cache stores resolved selections. A nil template with found=true is a cached absence.
type Cache interface {
	Get(ctx context.Context, key string) (tmpl *models.Template, found bool, err error)
	Set(ctx context.Context, key string, tmpl *models.Template, ttl time.Duration) error
}

// CacheKey builds the cache key for a selection.
func CacheKey(notificationType models.NotificationType, channel models.ChannelType, companyID string) string {
	return fmt.Sprintf("template:%s:%s:%s", notificationType, channel, companyID)
}

type Resolver struct {
	store  Store
	cache  Cache
	ttl    time.Duration
	logger logger.Logger
}

// NewResolver builds a resolver. A nil cache disables caching; ttl <= 0 uses DefaultTTL.
func NewResolver(store Store, cache Cache, ttl time.Duration, log logger.Logger) *Resolver {
	if cache == nil {
		cache = NopCache{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Resolver{
		store:  store,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "template-resolver"}),
	}
}

// Resolve returns the company's template for (type, channel), falling back to the
// system default. A nil template with a nil error means none exists.
func (r *Resolver) Resolve(ctx context.Context, notificationType models.NotificationType, channel models.ChannelType, companyID string) (*models.Template, error) {
	key := CacheKey(notificationType, channel, companyID)

	tmpl, found, err := r.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.TemplateCacheLookups.WithLabelValues("error").Inc()
		r.logger.Warn("template cache read failed, falling back to store", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	case found:
		metrics.TemplateCacheLookups.WithLabelValues("hit").Inc()
		return tmpl, nil
	default:
		metrics.TemplateCacheLookups.WithLabelValues("miss").Inc()
	}

	candidates, err := r.store.FindCandidates(ctx, notificationType, channel, companyID)
	if err != nil {
		return nil, errors.NewTemplateStoreFailedError("find", err)
	}

	selected := selectTemplate(candidates, companyID)

	if err := r.cache.Set(ctx, key, selected, r.ttl); err != nil {
		r.logger.Warn("template cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	return selected, nil
}

// selectTemplate prefers the company's record over the default.
func selectTemplate(candidates []models.TemplateRecord, companyID string) *models.Template {
	var fallback *models.Template
	for i := range candidates {
		rec := candidates[i]
		if rec.CompanyID == companyID {
			tmpl := rec.Template
			return &tmpl
		}
		if rec.IsDefault() && fallback == nil {
			tmpl := rec.Template
			fallback = &tmpl
		}
	}
	return fallback
}

// NopCache never holds anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*models.Template, bool, error) {
	return nil, false, nil
}

func (NopCache) Set(context.Context, string, *models.Template, time.Duration) error {
	return nil
}
