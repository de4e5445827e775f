// internal/service/order/infrastructure/redis_cache.go
package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"ordercore/internal/pkg/logger"
	"ordercore/internal/pkg/redis"
	"ordercore/internal/service/order/domain"
)

// RedisResultCache 是 port.ResultCache 的 Redis 实现。
// 缓存只是性能优化：所有故障都被降级处理——读失败当作未命中，
// 写 / 删失败吞掉并记录，绝不让缓存问题影响请求结果。
type RedisResultCache struct {
	client *redis.Client
}

// NewRedisResultCache 创建幂等结果缓存适配器。
func NewRedisResultCache(client *redis.Client) *RedisResultCache {
	return &RedisResultCache{client: client}
}

// Get 查询缓存，任何错误都视为未命中。
func (c *RedisResultCache) Get(ctx context.Context, key string) (domain.OrderResult, bool) {
	data, err := c.client.GetClient().Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Cache get failed, treating as miss")
		}
		return domain.OrderResult{}, false
	}

	var result domain.OrderResult
	if err := json.Unmarshal(data, &result); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Cache payload corrupted, treating as miss")
		return domain.OrderResult{}, false
	}
	return result, true
}

// Put 写入缓存，失败只记录。
func (c *RedisResultCache) Put(ctx context.Context, key string, result domain.OrderResult, ttl time.Duration) {
	data, err := json.Marshal(result)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Cache put failed to marshal result")
		return
	}
	if err := c.client.GetClient().Set(ctx, key, data, ttl).Err(); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Cache put failed")
	}
}

// Evict 删除单个键，失败只记录。
func (c *RedisResultCache) Evict(ctx context.Context, key string) {
	if err := c.client.GetClient().Del(ctx, key).Err(); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Cache eviction failed")
	}
}

// EvictPattern 按模式批量删除，使用 SCAN 避免阻塞 Redis，尽力而为。
func (c *RedisResultCache) EvictPattern(ctx context.Context, pattern string) {
	rdb := c.client.GetClient()
	iter := rdb.Scan(ctx, 0, pattern, 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 100 {
			if err := rdb.Del(ctx, keys...).Err(); err != nil {
				logger.Ctx(ctx).Warn().Err(err).Str("pattern", pattern).Msg("Cache pattern eviction failed")
				return
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("pattern", pattern).Msg("Cache pattern scan failed")
		return
	}
	if len(keys) > 0 {
		if err := rdb.Del(ctx, keys...).Err(); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("pattern", pattern).Msg("Cache pattern eviction failed")
		}
	}
}
