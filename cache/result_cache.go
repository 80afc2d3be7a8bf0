// Package cache caches processed-output locations in Redis so resubmitting
// the same job skips recomputation. Cache misses and Redis outages degrade
// to recomputing; they are never errors for the caller.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"audiofx/logger"
	"audiofx/model"
)

const opTimeout = 5 * time.Second

// ResultCache maps (file, operation, parameters) to previously produced
// output paths. A nil *ResultCache is a valid no-op cache.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultCache wraps a Redis client. Entries expire after ttl.
func NewResultCache(client *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{client: client, ttl: ttl}
}

func effectKey(fileName, effect string, intensity int) string {
	return fmt.Sprintf("fx:%s:%s:%d", fileName, effect, intensity)
}

func separationKey(fileName string) string {
	return fmt.Sprintf("sep:%s", fileName)
}

// GetEffectResult returns the cached output path for an effect job, if any.
func (c *ResultCache) GetEffectResult(fileName, effect string, intensity int) (string, bool) {
	if c == nil || c.client == nil {
		return "", false
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	val, err := c.client.Get(ctx, effectKey(fileName, effect, intensity)).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("effect cache lookup failed",
				logger.String("file", fileName), logger.ErrorField(err))
		}
		return "", false
	}
	return val, true
}

// PutEffectResult records the output path for an effect job.
func (c *ResultCache) PutEffectResult(fileName, effect string, intensity int, outputPath string) {
	if c == nil || c.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := c.client.Set(ctx, effectKey(fileName, effect, intensity), outputPath, c.ttl).Err(); err != nil {
		logger.Warn("effect cache store failed",
			logger.String("file", fileName), logger.ErrorField(err))
	}
}

// GetSeparationResult returns the cached separation outputs for a file.
func (c *ResultCache) GetSeparationResult(fileName string) (*model.SeparationResult, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, separationKey(fileName)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("separation cache lookup failed",
				logger.String("file", fileName), logger.ErrorField(err))
		}
		return nil, false
	}
	var result model.SeparationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		logger.Warn("separation cache entry corrupt",
			logger.String("file", fileName), logger.ErrorField(err))
		return nil, false
	}
	return &result, true
}

// PutSeparationResult records the separation outputs for a file.
func (c *ResultCache) PutSeparationResult(fileName string, result *model.SeparationResult) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := c.client.Set(ctx, separationKey(fileName), raw, c.ttl).Err(); err != nil {
		logger.Warn("separation cache store failed",
			logger.String("file", fileName), logger.ErrorField(err))
	}
}
