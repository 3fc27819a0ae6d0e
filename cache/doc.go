// Package cache provides bounded in-memory caching for analytical
// query results.
//
// The BoundedCache combines least-recently-used eviction with per-entry
// TTL expiry so memory use stays capped at MaxSize entries while stale
// values are purged on access. Key derivation (deterministic SHA-256
// keys from actor, analysis, and arguments) and TTL policies
// (default/max clamping) live alongside it.
package cache
