// Package instrumentation provides OpenTelemetry instrumentation for the
// netatmo-mcp server.
//
// This package enables observability through:
//   - OpenTelemetry metrics for HTTP requests, OAuth operations, and Netatmo API calls
//   - Distributed tracing for tool invocations and outbound API calls
//   - Prometheus metrics export via /metrics endpoint on dedicated port
//   - OTLP export support
//   - Audit logging of tool invocations and OAuth callbacks
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, normalized path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Netatmo API Metrics:
//   - netatmo_api_calls_total: Counter of API calls by operation and status
//   - netatmo_api_call_duration_seconds: Histogram of API call durations
//
// OAuth Metrics:
//   - oauth_auth_total: Counter of authorization code exchanges by result
//   - oauth_token_refresh_total: Counter of token refresh attempts by result
//
// Token Store Metrics:
//   - token_store_operations_total: Counter of loads and saves by backend and status
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Spans are created for:
//   - MCP tool invocations (tool.<name>)
//   - Netatmo API and token endpoint calls (netatmo.<operation>)
//   - Outbound HTTP requests via otelhttp
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: netatmo-mcp)
//   - AUDIT_LOGGING_INCLUDE_ARGUMENTS: Log tool argument values (default: false)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordNetatmoAPICall(ctx, instrumentation.OperationStations, "success", time.Since(start))
//	recorder.RecordToolInvocation(ctx, "get_temperatures", "success", time.Since(start))
package instrumentation
