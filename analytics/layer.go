package analytics

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/vitalops/wellgate/cache"
	"github.com/vitalops/wellgate/observe"
)

// ComputeFunc produces the analysis result on a cache miss.
type ComputeFunc func(ctx context.Context) (any, error)

// Config configures the analytics cache layer.
type Config struct {
	// LookupCacheSize bounds the raw-lookup cache.
	// Default: 1000
	LookupCacheSize int

	// AggregateCacheSize bounds the aggregate cache. Aggregates are
	// few and expensive, so the budget is deliberately smaller.
	// Default: 200
	AggregateCacheSize int

	// LookupPolicy sets TTLs for raw lookups.
	// Default: cache.DefaultLookupPolicy
	LookupPolicy *cache.Policy

	// AggregatePolicy sets TTLs for aggregates.
	// Default: cache.DefaultAggregatePolicy
	AggregatePolicy *cache.Policy

	// Keyer generates cache keys. Default: cache.DefaultKeyer.
	Keyer cache.Keyer

	// Logger receives hit/miss/invalidation events. Default: silent.
	Logger observe.Logger
}

// Layer is a compute-through caching layer for per-user analyses. All
// methods are safe for concurrent use.
type Layer struct {
	lookups    *cache.BoundedCache[any]
	aggregates *cache.BoundedCache[any]

	lookupPolicy    cache.Policy
	aggregatePolicy cache.Policy

	keyer  cache.Keyer
	logger observe.Logger

	lookupGroup    singleflight.Group
	aggregateGroup singleflight.Group

	hits     atomic.Int64
	misses   atomic.Int64
	computes atomic.Int64
}

// New creates an analytics cache layer.
func New(cfg Config) (*Layer, error) {
	if cfg.LookupCacheSize == 0 {
		cfg.LookupCacheSize = 1000
	}
	if cfg.AggregateCacheSize == 0 {
		cfg.AggregateCacheSize = 200
	}

	lookups, err := cache.NewBoundedCache[any](cfg.LookupCacheSize)
	if err != nil {
		return nil, err
	}
	aggregates, err := cache.NewBoundedCache[any](cfg.AggregateCacheSize)
	if err != nil {
		return nil, err
	}

	l := &Layer{
		lookups:         lookups,
		aggregates:      aggregates,
		lookupPolicy:    cache.DefaultLookupPolicy(),
		aggregatePolicy: cache.DefaultAggregatePolicy(),
		keyer:           cache.NewDefaultKeyer(),
		logger:          cfg.Logger,
	}
	if cfg.LookupPolicy != nil {
		l.lookupPolicy = *cfg.LookupPolicy
	}
	if cfg.AggregatePolicy != nil {
		l.aggregatePolicy = *cfg.AggregatePolicy
	}
	if cfg.Keyer != nil {
		l.keyer = cfg.Keyer
	}
	if l.logger == nil {
		l.logger = observe.NopLogger()
	}

	return l, nil
}

// Get returns the cached result of a raw lookup, computing and caching
// it on a miss. The bool reports whether the result came from the
// cache.
func (l *Layer) Get(ctx context.Context, actorID, analysis string, args any, compute ComputeFunc) (any, bool, error) {
	return l.get(ctx, l.lookups, &l.lookupGroup, l.lookupPolicy, actorID, analysis, args, compute)
}

// GetAggregate is Get against the aggregate cache, whose entries stay
// valid longer and evict later.
func (l *Layer) GetAggregate(ctx context.Context, actorID, analysis string, args any, compute ComputeFunc) (any, bool, error) {
	return l.get(ctx, l.aggregates, &l.aggregateGroup, l.aggregatePolicy, actorID, analysis, args, compute)
}

func (l *Layer) get(ctx context.Context, store *cache.BoundedCache[any], group *singleflight.Group, policy cache.Policy, actorID, analysis string, args any, compute ComputeFunc) (any, bool, error) {
	key, err := l.keyer.Key(actorID, analysis, args)
	if err != nil {
		return nil, false, err
	}

	if !policy.ShouldCache() {
		value, err := compute(ctx)
		if err != nil {
			return nil, false, err
		}
		return value, false, nil
	}

	if value, ok := store.Get(ctx, key); ok {
		l.hits.Add(1)
		return value, true, nil
	}
	l.misses.Add(1)

	// Concurrent misses for the same key compute once; the waiters get
	// the shared result. Errors propagate to every waiter and nothing
	// is cached for them.
	value, err, _ := group.Do(key, func() (any, error) {
		if value, ok := store.Get(ctx, key); ok {
			return value, nil
		}

		l.computes.Add(1)
		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		if putErr := store.Put(ctx, key, value, policy.EffectiveTTL(0)); putErr != nil {
			l.logger.Warn(ctx, "failed to cache analysis result",
				observe.Field{Key: "key", Value: key},
				observe.Field{Key: "error", Value: putErr.Error()},
			)
		}
		return value, nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, false, nil
}

// InvalidateForEntity drops every cached analysis whose key references
// the entity, across both caches, and returns how many entries were
// removed. Idempotent.
func (l *Layer) InvalidateForEntity(entityID string) int {
	removed := l.lookups.InvalidateEntity(entityID)
	removed += l.aggregates.InvalidateEntity(entityID)

	if removed > 0 {
		l.logger.Debug(context.Background(), "invalidated cached analyses",
			observe.Field{Key: "entity_id", Value: entityID},
			observe.Field{Key: "removed", Value: removed},
		)
	}
	return removed
}

// LookupCache exposes the lookup cache for occupancy health checks.
func (l *Layer) LookupCache() *cache.BoundedCache[any] {
	return l.lookups
}

// AggregateCache exposes the aggregate cache for occupancy health
// checks.
func (l *Layer) AggregateCache() *cache.BoundedCache[any] {
	return l.aggregates
}

// LayerStats is a point-in-time snapshot of layer counters.
type LayerStats struct {
	Hits         int64
	Misses       int64
	Computes     int64
	LookupLen    int
	AggregateLen int
}

// Stats returns current hit/miss counters and cache sizes.
func (l *Layer) Stats() LayerStats {
	return LayerStats{
		Hits:         l.hits.Load(),
		Misses:       l.misses.Load(),
		Computes:     l.computes.Load(),
		LookupLen:    l.lookups.Len(),
		AggregateLen: l.aggregates.Len(),
	}
}
