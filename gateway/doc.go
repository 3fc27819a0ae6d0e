// Package gateway routes calls to unreliable wellness-data
// dependencies through per-dependency circuit breakers, timeouts and
// declared fallback payloads.
//
// Each dependency is declared once at construction with its breaker
// thresholds, call timeout and the degraded payload to serve when the
// dependency is unavailable. Invoke never surfaces a dependency
// failure to the caller: a failed or refused call comes back as a
// fallback CallResult with the cause in ErrorDetail. The only Invoke
// error is an unknown dependency name, which is a programming bug at
// the call site.
//
//	gw, err := gateway.New(gateway.Config{
//	    Dependencies: []gateway.DependencyConfig{{
//	        Name:             "wearable",
//	        FailureThreshold: 5,
//	        ResetTimeout:     30 * time.Second,
//	        CallTimeout:      2 * time.Second,
//	        Fallback:         map[string]any{"samples": []any{}},
//	    }},
//	})
//
//	result, err := gw.Invoke(ctx, "wearable", "fetch-samples", req,
//	    func(ctx context.Context, payload any) (any, error) {
//	        return client.FetchSamples(ctx, payload)
//	    })
package gateway
