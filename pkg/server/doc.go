// Package server is the HTTP front over the render pipeline.
//
// Each registered Page binds a path to a parsed template, a data
// loader, and a cache freshness window. Requests flow cache-first:
//
//   - fresh hit: the cached document is served as-is
//   - miss: the page streams progressively (shell, then suspense
//     fragments as they resolve) and the assembled document is cached
//     when no fragment failed and the client stayed connected
//   - stale hit: the page re-renders into a buffer; a failed
//     regeneration serves the prior markup instead
//
// Operational endpoints: POST /__weft/revalidate marks a cached path
// stale, GET /metrics exposes Prometheus metrics, GET /healthz is a
// liveness check, and GET /__weft/reload upgrades to the live-reload
// websocket in development.
package server
