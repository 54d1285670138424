package api

import (
	"context"
	"strconv"
	"time"

	"github.com/penwyp/go-kiln-monitor/internal/core/cache"
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/util"
)

type freshKey struct{}

// Fresh marks ctx so that CachedClient skips the cache lookup and refetches.
// The fresh result still replaces the cached one.
func Fresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, freshKey{}, true)
}

func isFresh(ctx context.Context) bool {
	v, _ := ctx.Value(freshKey{}).(bool)
	return v
}

// CachedClient wraps another Service with a TTL cache. Mutations go
// straight through and invalidate the keys they affect.
type CachedClient struct {
	next         Service
	cache        *cache.MemoryCache[any]
	staleOnError bool
}

// NewCachedClient caches reads from next for ttl. With staleOnError a
// network failure falls back to the last cached value.
func NewCachedClient(next Service, ttl time.Duration, staleOnError bool) *CachedClient {
	return &CachedClient{
		next:         next,
		cache:        cache.NewMemoryCache[any](ttl),
		staleOnError: staleOnError,
	}
}

// ClearCache drops cached data. Old values stay available as a network
// fallback until the next successful fetch.
func (c *CachedClient) ClearCache() {
	c.cache.Clear()
}

func (c *CachedClient) Stats() cache.Stats {
	return c.cache.Stats()
}

func cached[T any](ctx context.Context, c *CachedClient, key string, fetch func(context.Context) (T, error)) (T, error) {
	if !isFresh(ctx) {
		if v, ok := c.cache.Get(key); ok {
			if typed, ok := v.(T); ok {
				util.LogDebug("api cache hit", util.F("key", key))
				return typed, nil
			}
		}
	}

	v, err := fetch(ctx)
	if err != nil {
		if c.staleOnError && IsKind(err, KindNetwork) {
			if stale, storedAt, ok := c.cache.GetStale(key); ok {
				if typed, ok := stale.(T); ok {
					util.LogWarn("api unreachable, serving cached data",
						util.F("key", key), util.F("age", time.Since(storedAt).String()))
					return typed, nil
				}
			}
		}
		return v, err
	}

	c.cache.Set(key, v)
	if c.cache.PendingClear() {
		c.cache.CommitClear()
	}
	return v, nil
}

func (c *CachedClient) Overview(ctx context.Context) (*model.Overview, error) {
	return cached(ctx, c, "overview", c.next.Overview)
}

func (c *CachedClient) KilnHealth(ctx context.Context, tr model.TimeRange) (*model.KilnHealth, error) {
	return cached(ctx, c, "kiln_health?"+tr.String(), func(ctx context.Context) (*model.KilnHealth, error) {
		return c.next.KilnHealth(ctx, tr)
	})
}

func (c *CachedClient) EnergyCockpit(ctx context.Context, tr model.TimeRange) (*model.EnergyCockpit, error) {
	return cached(ctx, c, "energy_cockpit?"+tr.String(), func(ctx context.Context) (*model.EnergyCockpit, error) {
		return c.next.EnergyCockpit(ctx, tr)
	})
}

func (c *CachedClient) PredictiveQuality(ctx context.Context, tr model.TimeRange) (*model.PredictiveQuality, error) {
	return cached(ctx, c, "predictive_quality?"+tr.String(), func(ctx context.Context) (*model.PredictiveQuality, error) {
		return c.next.PredictiveQuality(ctx, tr)
	})
}

func (c *CachedClient) VarianceAnalysis(ctx context.Context) ([]model.VarianceRow, error) {
	return cached(ctx, c, "variance_analysis", c.next.VarianceAnalysis)
}

func (c *CachedClient) ProcessFlow(ctx context.Context) ([]model.ProcessNode, error) {
	return cached(ctx, c, "process_flow", c.next.ProcessFlow)
}

func (c *CachedClient) AgentActions(ctx context.Context) ([]model.AgentAction, error) {
	return cached(ctx, c, "agent/actions", c.next.AgentActions)
}

func (c *CachedClient) Recommendations(ctx context.Context) ([]model.Recommendation, error) {
	return cached(ctx, c, "agent/recommendations", c.next.Recommendations)
}

func (c *CachedClient) ApproveRecommendation(ctx context.Context, id int) (model.ActionResult, error) {
	res, err := c.next.ApproveRecommendation(ctx, id)
	c.invalidateAgent(id)
	return res, err
}

func (c *CachedClient) RejectRecommendation(ctx context.Context, id int) (model.ActionResult, error) {
	res, err := c.next.RejectRecommendation(ctx, id)
	c.invalidateAgent(id)
	return res, err
}

func (c *CachedClient) invalidateAgent(id int) {
	n := c.cache.DeletePrefix("agent/") + c.cache.DeletePrefix("overview")
	util.LogDebug("api cache invalidated", util.F("recommendation", strconv.Itoa(id)), util.F("keys", n))
}

func (c *CachedClient) Settings(ctx context.Context) (*model.Settings, error) {
	return cached(ctx, c, "settings", c.next.Settings)
}

func (c *CachedClient) UpdateSettings(ctx context.Context, patch model.SettingsPatch) (*model.Settings, error) {
	s, err := c.next.UpdateSettings(ctx, patch)
	if err != nil {
		c.cache.DeletePrefix("settings")
		return nil, err
	}
	c.cache.Set("settings", s)
	return s, nil
}
