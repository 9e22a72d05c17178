package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant-service/models"
	aws_pkg "restaurant-service/pkg/aws"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	MenuListCachePrefix = "menu:v:"
	MenuVersionKey      = "menu:version"
	DefaultMenuTTL      = 10 * time.Minute
)

// MenuCache caches menu listings under a version number that is bumped on
// every catalog write, so stale pages simply stop being read.
type MenuCache struct {
	redis   *redis.Client
	ttl     time.Duration
	metrics *aws_pkg.MetricsClient
	logger  *zap.Logger
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func NewMenuCache(client *redis.Client, ttl time.Duration, metrics *aws_pkg.MetricsClient, logger *zap.Logger) *MenuCache {
	if ttl <= 0 {
		ttl = DefaultMenuTTL
	}
	return &MenuCache{redis: client, ttl: ttl, metrics: metrics, logger: logger}
}

// GetMenuList returns a cached page for filter, if any.
func (mc *MenuCache) GetMenuList(ctx context.Context, filter models.MenuItemFilter) (*models.MenuItemPage, bool) {
	if mc == nil || mc.redis == nil {
		return nil, false
	}
	version, err := mc.version(ctx)
	if err != nil {
		return nil, false
	}

	data, err := mc.redis.Get(ctx, ListKey(version, filter)).Bytes()
	if err != nil {
		mc.record(aws_pkg.MetricCacheMisses)
		return nil, false
	}
	mc.record(aws_pkg.MetricCacheHits)

	var page models.MenuItemPage
	if err := json.Unmarshal(data, &page); err != nil {
		mc.logger.Warn("Failed to unmarshal cached menu list", zap.Error(err))
		return nil, false
	}
	return &page, true
}

// SetMenuList stores page under the current version.
func (mc *MenuCache) SetMenuList(ctx context.Context, filter models.MenuItemFilter, page *models.MenuItemPage) {
	if mc == nil || mc.redis == nil {
		return
	}
	version, err := mc.version(ctx)
	if err != nil {
		return
	}

	data, err := json.Marshal(page)
	if err != nil {
		mc.logger.Warn("Failed to marshal menu list for cache", zap.Error(err))
		return
	}
	if err := mc.redis.Set(ctx, ListKey(version, filter), data, mc.ttl).Err(); err != nil {
		mc.logger.Warn("Failed to cache menu list", zap.Error(err))
	}
}

// Invalidate bumps the version so every cached page is skipped.
func (mc *MenuCache) Invalidate(ctx context.Context) error {
	if mc == nil || mc.redis == nil {
		return nil
	}
	v, err := mc.redis.Incr(ctx, MenuVersionKey).Result()
	if err != nil {
		return fmt.Errorf("failed to invalidate menu cache: %w", err)
	}
	mc.logger.Info("Menu cache invalidated", zap.Int64("new_version", v))
	return nil
}

func (mc *MenuCache) record(metric string) {
	if !mc.metrics.IsEnabled() {
		return
	}
	go func() {
		_ = mc.metrics.RecordCount(context.Background(), metric, map[string]string{"Cache": "menu"})
	}()
}

func (mc *MenuCache) version(ctx context.Context) (int64, error) {
	v, err := mc.redis.Get(ctx, MenuVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := mc.redis.SetNX(ctx, MenuVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	return v, err
}

// ListKey builds the cache key for one filtered page. Category matches
// exactly in the database so it keeps its case; search does not.
func ListKey(version int64, f models.MenuItemFilter) string {
	return fmt.Sprintf("%s%d:c=%s:s=%s:o=%s:p=%d:l=%d",
		MenuListCachePrefix, version,
		f.Category, strings.ToLower(f.Search), f.Ordering, f.Page, f.Limit)
}
