// Package analytics bounds the cost of repeated per-user analytical
// queries with compute-through caching.
//
// A Layer owns two independently sized caches: one for cheap raw
// lookups and one for expensive multi-step aggregates, each with its
// own TTL policy. Get and GetAggregate consult the cache first and
// compute on a miss; concurrent misses for the same key are collapsed
// into a single computation. Computation errors are returned to every
// waiter and never cached.
//
// Write paths call InvalidateForEntity so a user can never read a
// stale cached analysis of data they just changed.
package analytics
