package cache

import "time"

// Policy configures TTL behavior for one cache instance. Cheap lookups
// and expensive aggregates get separate policies so they do not compete
// for the same eviction budget.
type Policy struct {
	// DefaultTTL is the TTL to use when none is specified.
	// If zero, caching is disabled by default.
	DefaultTTL time.Duration

	// MaxTTL is the maximum allowed TTL. Override TTLs are clamped to
	// this. If zero, no maximum is enforced.
	MaxTTL time.Duration
}

// DefaultLookupPolicy returns the policy for raw lookups.
// DefaultTTL: 5 minutes, MaxTTL: 1 hour
func DefaultLookupPolicy() Policy {
	return Policy{
		DefaultTTL: 5 * time.Minute,
		MaxTTL:     1 * time.Hour,
	}
}

// DefaultAggregatePolicy returns the policy for expensive multi-step
// analyses, which stay valid longer than raw lookups.
// DefaultTTL: 30 minutes, MaxTTL: 6 hours
func DefaultAggregatePolicy() Policy {
	return Policy{
		DefaultTTL: 30 * time.Minute,
		MaxTTL:     6 * time.Hour,
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.DefaultTTL > 0
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}

	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}

	return ttl
}
