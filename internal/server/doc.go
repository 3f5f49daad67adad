// Package server provides the MCP server context and the HTTP surface of
// netatmo-mcp.
//
// # Key Components
//
// ServerContext carries the Netatmo client, settings, logger, metrics and
// audit logger that tool handlers need. Shutdown cancels its context.
//
// HTTPServer serves:
//   - /mcp: the MCP streamable HTTP transport
//   - /netatmo/auth: redirect to the Netatmo consent page with a fresh state
//   - /netatmo/callback: authorization code exchange and token storage
//   - /health, /healthz, /readyz, /healthz/detailed: health and probes
//
// The /netatmo/* routes are rate limited per client IP. CORS is enabled when
// allowed origins are configured. Every request is logged with an anonymized
// client hash and recorded in the HTTP metrics.
//
// MetricsServer exposes Prometheus metrics on a dedicated port.
package server
