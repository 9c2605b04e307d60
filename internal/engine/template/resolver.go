// internal/engine/template/resolver.go
package template

import (
	"context"

	"notification-engine/internal/common/logger"
	"notification-engine/internal/models"
)

// Reader is the store surface the resolver needs. Interface for mocking.
type Reader interface {
	Get(ctx context.Context, tenantID, code string, channel models.Channel, language string) (*models.NotificationTemplate, error)
}

// Resolver finds the most specific active template for a send, falling
// back tenant to global and requested language to English.
type Resolver struct {
	store  Reader
	cache  *Cache
	logger logger.Logger
}

// NewResolver wires a resolver. cache may be nil, in which case every
// resolution goes to the store.
func NewResolver(store Reader, cache *Cache, log logger.Logger) *Resolver {
	return &Resolver{store: store, cache: cache, logger: log}
}

// Resolve walks the fallback chain and returns the first active template,
// or nil when no stored template matches. Store failures are logged and
// treated as misses so sends can proceed on compiled-in defaults.
func (r *Resolver) Resolve(ctx context.Context, tenantID, code string, channel models.Channel, language string) *models.NotificationTemplate {
	if language == "" {
		language = models.DefaultLanguage
	}

	if r.cache != nil {
		if tmpl := r.cache.Get(ctx, tenantID, code, channel, language); tmpl != nil {
			return tmpl
		}
	}

	type lookup struct {
		tenantID string
		language string
	}
	chain := []lookup{
		{tenantID, language},
		{tenantID, models.DefaultLanguage},
		{models.GlobalTenantID, language},
		{models.GlobalTenantID, models.DefaultLanguage},
	}

	seen := make(map[lookup]bool, len(chain))
	for _, l := range chain {
		if seen[l] {
			continue
		}
		seen[l] = true

		tmpl, err := r.store.Get(ctx, l.tenantID, code, channel, l.language)
		if err != nil {
			r.logger.Warn("template lookup failed", map[string]interface{}{
				"tenantId": l.tenantID,
				"code":     code,
				"channel":  string(channel),
				"language": l.language,
				"error":    err.Error(),
			})
			continue
		}
		if tmpl == nil {
			continue
		}

		if r.cache != nil {
			r.cache.Set(ctx, tenantID, code, channel, language, tmpl)
		}
		return tmpl
	}

	return nil
}
