// Package health reports the availability of protected dependencies
// and the occupancy of bounded caches.
//
// A Checker is anything that can report its own health. The gateway
// registers one checker per dependency; the analytics layer can expose
// its caches through an OccupancyChecker so operators see how close a
// cache is to evicting.
//
// # Aggregating
//
//	agg := health.NewAggregator()
//	agg.Register("wearable", gw.Checker("wearable"))
//	agg.Register("lookup-cache", health.NewOccupancyChecker("lookup-cache", cache, health.OccupancyCheckerConfig{}))
//
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// # HTTP probes
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//
// registers /healthz (liveness), /readyz (readiness) and /health
// (detailed JSON).
package health
