// internal/engine/template/cache.go
package template

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"notification-engine/internal/common/logger"
	"notification-engine/internal/models"
)

// Cache keeps resolved templates in Redis so the fallback chain does not
// hit Postgres on every send. Every cache failure degrades to a miss.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCache(client *redis.Client, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, logger: log}
}

func cacheKey(tenantID, code string, channel models.Channel, language string) string {
	return "notif:tmpl:" + tenantID + ":" + code + ":" + string(channel) + ":" + language
}

func (c *Cache) Get(ctx context.Context, tenantID, code string, channel models.Channel, language string) *models.NotificationTemplate {
	data, err := c.client.Get(ctx, cacheKey(tenantID, code, channel, language)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("template cache read failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil
	}

	var tmpl models.NotificationTemplate
	if err := json.Unmarshal(data, &tmpl); err != nil {
		c.logger.Warn("template cache entry corrupt", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	return &tmpl
}

func (c *Cache) Set(ctx context.Context, tenantID, code string, channel models.Channel, language string, tmpl *models.NotificationTemplate) {
	data, err := json.Marshal(tmpl)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(tenantID, code, channel, language), data, c.ttl).Err(); err != nil {
		c.logger.Warn("template cache write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// InvalidateTenant removes cached templates for one tenant. Called after
// template edits so stale content stops being served before the TTL runs
// out. Returns the number of keys removed.
func (c *Cache) InvalidateTenant(ctx context.Context, tenantID string) int {
	var removed int
	iter := c.client.Scan(ctx, 0, "notif:tmpl:"+tenantID+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err == nil {
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("template cache scan failed", map[string]interface{}{
			"tenantId": tenantID,
			"error":    err.Error(),
		})
	}
	return removed
}
