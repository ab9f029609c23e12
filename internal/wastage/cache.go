// internal/wastage/cache.go
package wastage

import (
	"context"
	"encoding/json"
	"time"

	"wastewise/internal/common/logger"
	"wastewise/internal/models"

	"github.com/redis/go-redis/v9"
)

const historyKeyPrefix = "wastage:history:"

// Cache is a best-effort Redis layer over the per-user history list.
// Failures degrade to the database; they never fail the request.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCache(client *redis.Client, ttl time.Duration, log logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: log.Named("wastage-cache"),
	}
}

// GetHistory returns the cached history and whether it was present.
func (c *Cache) GetHistory(ctx context.Context, userID string) ([]models.WasteRecord, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	val, err := c.client.Get(ctx, historyKey(userID)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("History cache read failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return nil, false
	}

	var records []models.WasteRecord
	if err := json.Unmarshal([]byte(val), &records); err != nil {
		c.logger.Warn("History cache entry corrupt, dropping", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		c.client.Del(ctx, historyKey(userID))
		return nil, false
	}

	return records, true
}

// SetHistory caches the history list with the configured TTL.
func (c *Cache) SetHistory(ctx context.Context, userID string, records []models.WasteRecord) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(records)
	if err != nil {
		c.logger.Warn("History cache marshal failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return
	}

	if err := c.client.Set(ctx, historyKey(userID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("History cache write failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
	}
}

// InvalidateHistory drops the cached list after any write to the
// user's records.
func (c *Cache) InvalidateHistory(ctx context.Context, userID string) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Del(ctx, historyKey(userID)).Err(); err != nil {
		c.logger.Warn("History cache invalidation failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
	}
}

func historyKey(userID string) string {
	return historyKeyPrefix + userID
}
