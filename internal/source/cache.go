package source

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/packsight/packsight/internal/models"
)

const catalogCacheKey = "packsight:catalog"

// CachedCatalogSource is a Redis read-through cache over a CatalogSource.
// Cache trouble is never fatal: misses, unreadable entries and Redis errors
// all fall through to the wrapped source, and a failed write-back only logs.
type CachedCatalogSource struct {
	inner  CatalogSource
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

func NewCachedCatalogSource(inner CatalogSource, client *redis.Client, ttl time.Duration, logger *log.Logger) *CachedCatalogSource {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = log.Default()
	}
	return &CachedCatalogSource{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (c *CachedCatalogSource) Catalog(ctx context.Context) ([]models.CatalogRecord, error) {
	cached, err := c.client.Get(ctx, catalogCacheKey).Bytes()
	switch {
	case err == nil:
		var records []models.CatalogRecord
		if jsonErr := json.Unmarshal(cached, &records); jsonErr == nil {
			return records, nil
		}
		c.logger.Printf("catalog cache: dropping undecodable entry")
		if delErr := c.client.Del(ctx, catalogCacheKey).Err(); delErr != nil {
			c.logger.Printf("catalog cache: drop failed: %v", delErr)
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Printf("catalog cache: read failed, loading from source: %v", err)
	}

	records, err := c.inner.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal(records); jsonErr == nil {
		if setErr := c.client.Set(ctx, catalogCacheKey, payload, c.ttl).Err(); setErr != nil {
			c.logger.Printf("catalog cache: write-back failed: %v", setErr)
		}
	}
	return records, nil
}
