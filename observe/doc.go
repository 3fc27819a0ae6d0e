// Package observe provides the telemetry surface for the integration
// gateway: structured JSON logging, OpenTelemetry metrics for
// dependency calls, and optional tracing.
//
// An Observer bundles the three concerns behind one configuration so a
// host application enables exactly what it needs:
//
//	obs, err := observe.NewObserver(ctx, observe.Config{
//	    ServiceName: "wellness-api",
//	    Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
//	    Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
//	})
//
// Field keys that look like credentials or raw user payloads are
// redacted before a log line is written.
package observe
