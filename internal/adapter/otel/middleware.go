package otel

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPMiddleware returns a chi-compatible middleware that creates server
// spans for MCP requests. Paths in skip (e.g. health checks) are not traced.
func HTTPMiddleware(serviceName string, skip ...string) func(http.Handler) http.Handler {
	ignored := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		ignored[p] = struct{}{}
	}
	filter := func(r *http.Request) bool {
		_, skipped := ignored[r.URL.Path]
		return !skipped
	}
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName, otelhttp.WithFilter(filter))
	}
}
