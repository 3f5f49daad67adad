package instrumentation

import "strings"

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.
//
// # Warning
//
// High cardinality in metrics can cause:
// - Increased memory usage in Prometheus/metrics backends
// - Slower query performance
// - Higher storage costs
//
// Always use these helpers when recording metrics with request-derived values.

// PathOther is the label used for request paths outside the known routes.
const PathOther = "other"

// knownPaths are the routes served by the HTTP transport.
var knownPaths = map[string]bool{
	"/health":           true,
	"/healthz":          true,
	"/readyz":           true,
	"/healthz/detailed": true,
	"/mcp":              true,
	"/netatmo/auth":     true,
	"/netatmo/callback": true,
}

// NormalizePath maps a request path to a bounded set of metric label values.
//
// Example:
//
//	NormalizePath("/netatmo/callback")  // "/netatmo/callback"
//	NormalizePath("/mcp/")              // "/mcp"
//	NormalizePath("/wp-login.php")      // "other"
func NormalizePath(path string) string {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	if knownPaths[path] {
		return path
	}
	return PathOther
}

// NormalizeModuleName folds a module name for use as a metric label.
// Module names are matched case-insensitively, so labels follow suit.
func NormalizeModuleName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "unknown"
	}
	return name
}
