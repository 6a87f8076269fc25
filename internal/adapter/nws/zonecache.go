package nws

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/storm-alert-engine/internal/domain"
	"github.com/couchcryptid/storm-alert-engine/internal/observability"
)

// ZoneResolver maps a coordinate to an NWS forecast zone identifier.
type ZoneResolver interface {
	ResolveZone(ctx context.Context, p domain.Point) (string, error)
}

// CachedZoneResolver wraps a ZoneResolver with a Redis cache. Forecast zones
// are static geography, so entries stay valid for days; the TTL only bounds
// staleness after NWS redraws zone boundaries. Cache failures degrade to the
// inner resolver rather than failing the lookup.
type CachedZoneResolver struct {
	inner   ZoneResolver
	rdb     *redis.Client
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewCachedZoneResolver creates a cache decorator around a zone resolver.
func NewCachedZoneResolver(inner ZoneResolver, rdb *redis.Client, ttl time.Duration, metrics *observability.Metrics) *CachedZoneResolver {
	return &CachedZoneResolver{
		inner:   inner,
		rdb:     rdb,
		ttl:     ttl,
		metrics: metrics,
	}
}

func (c *CachedZoneResolver) ResolveZone(ctx context.Context, p domain.Point) (string, error) {
	key := zoneCacheKey(p)

	zone, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		c.metrics.ZoneCache.WithLabelValues("hit").Inc()
		return zone, nil
	case err == redis.Nil:
		c.metrics.ZoneCache.WithLabelValues("miss").Inc()
	default:
		c.metrics.ZoneCache.WithLabelValues("error").Inc()
	}

	zone, err = c.inner.ResolveZone(ctx, p)
	if err != nil {
		return "", err
	}

	// Best effort; a failed write just means another API call next sweep.
	c.rdb.Set(ctx, key, zone, c.ttl)

	return zone, nil
}

// zoneCacheKey rounds to four decimal places (~11m), matching the precision
// the client sends to the /points endpoint.
func zoneCacheKey(p domain.Point) string {
	return fmt.Sprintf("nws:zone:%.4f,%.4f", p.Lat, p.Lon)
}
