// Package middleware provides production-grade HTTP middleware for
// Weft servers.
//
// This package includes:
//   - OpenTelemetry distributed tracing middleware
//   - Prometheus metrics middleware
//   - Structured request logging
//
// # OpenTelemetry Middleware
//
// The OpenTelemetry middleware traces every request, recording method,
// path, and response status, and injects the span context into the
// request context so data loaders and cache stores inherit it.
//
//	r := chi.NewRouter()
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	))
//
// # Prometheus Metrics
//
// The Prometheus middleware collects request metrics:
//   - weft_http_requests_total: Requests by method and status
//   - weft_http_request_duration_seconds: Request duration histogram
//   - weft_http_requests_inflight: In-flight request gauge
//   - weft_http_response_bytes: Response size histogram
//
//	r.Use(middleware.Prometheus())
//	r.Handle("/metrics", promhttp.Handler())
//
// # Request Logging
//
// The Logger middleware writes one slog record per request with
// method, path, status, size, and duration:
//
//	r.Use(middleware.Logger(slog.Default()))
//
// All three middlewares preserve http.Flusher on the response writer,
// so progressive delivery keeps working behind them.
package middleware
