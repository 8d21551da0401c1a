package viewcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	keyPrefix       = "cav:"
	detailKeyPrefix = keyPrefix + "auc:"
	listKeyPrefix   = keyPrefix + "list:"

	scanBatch = 200
)

// Cache memoizes composed views in Redis. It is an optimization only:
// any Redis fault degrades to calling the producer directly.
type Cache struct {
	rdc *redis.Client
	sf  singleflight.Group
}

func New(rdc *redis.Client) *Cache {
	return &Cache{rdc: rdc}
}

// DetailKey builds the cache key for one composed auction view.
func DetailKey(auctionID string) string {
	return detailKeyPrefix + auctionID
}

// ListKey derives a deterministic key from the full set of list query
// parameters so distinct filter/sort/page combinations never collide.
func ListKey(status string, featured *bool, sellerID, sortKey, sortDir string, limit, offset int) string {
	f := "any"
	if featured != nil {
		f = fmt.Sprintf("%t", *featured)
	}
	return fmt.Sprintf("%s%s:%s:%s:%s:%s:%d:%d",
		listKeyPrefix, status, f, sellerID, sortKey, sortDir, limit, offset)
}

// GetOrCompute returns the cached value under key if present and
// unexpired, otherwise invokes produce, stores the result for ttl, and
// returns it. Concurrent misses for the same key are collapsed into a
// single produce call.
func GetOrCompute[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, produce func(context.Context) (T, error)) (T, error) {
	return GetOrComputeTTL(ctx, c, key, ttl, func(ctx context.Context) (T, time.Duration, error) {
		v, err := produce(ctx)
		return v, ttl, err
	})
}

// GetOrComputeTTL is GetOrCompute with a producer that also picks the
// entry's TTL, for values whose freshness window depends on their own
// content (a view approaching its live/ended transition). A produced
// TTL of zero or above maxTTL falls back to maxTTL.
func GetOrComputeTTL[T any](ctx context.Context, c *Cache, key string, maxTTL time.Duration, produce func(context.Context) (T, time.Duration, error)) (T, error) {
	var zero T

	raw, err := c.rdc.Get(ctx, key).Bytes()
	if err == nil {
		var out T
		if err := json.Unmarshal(raw, &out); err == nil {
			return out, nil
		}
		// Unreadable entry: drop it and recompute.
		_ = c.rdc.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) {
		zap.L().Warn("cache_degraded", zap.String("key", key), zap.Error(err))
		out, _, perr := produce(ctx)
		return out, perr
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		out, ttl, err := produce(ctx)
		if err != nil {
			return zero, err
		}
		if ttl <= 0 || ttl > maxTTL {
			ttl = maxTTL
		}
		data, err := json.Marshal(out)
		if err != nil {
			zap.L().Warn("cache_marshal_failed", zap.String("key", key), zap.Error(err))
			return out, nil
		}
		if err := c.rdc.Set(ctx, key, data, ttl).Err(); err != nil {
			zap.L().Warn("cache_store_failed", zap.String("key", key), zap.Error(err))
		}
		return out, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// InvalidateAuction synchronously drops the detail entry for one
// auction together with every list entry, so a read issued after a
// mutation returns can never observe the pre-write value.
func (c *Cache) InvalidateAuction(ctx context.Context, auctionID string) error {
	if err := c.rdc.Del(ctx, DetailKey(auctionID)).Err(); err != nil {
		zap.L().Warn("cache_invalidate_detail_failed",
			zap.String("auction_id", auctionID), zap.Error(err))
		return err
	}
	return c.invalidatePattern(ctx, listKeyPrefix+"*")
}

// invalidatePattern deletes every key matching the glob pattern in
// SCAN batches.
func (c *Cache) invalidatePattern(ctx context.Context, pattern string) error {
	if !strings.HasPrefix(pattern, keyPrefix) {
		return fmt.Errorf("refusing to invalidate foreign pattern %q", pattern)
	}
	var cursor uint64
	for {
		keys, next, err := c.rdc.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			zap.L().Warn("cache_invalidate_scan_failed",
				zap.String("pattern", pattern), zap.Error(err))
			return err
		}
		if len(keys) > 0 {
			if err := c.rdc.Del(ctx, keys...).Err(); err != nil {
				zap.L().Warn("cache_invalidate_del_failed",
					zap.String("pattern", pattern), zap.Error(err))
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
