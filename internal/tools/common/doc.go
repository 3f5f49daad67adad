// Package common provides shared utilities for MCP tool implementations:
// the instrumented handler wrapper used at registration time and helpers
// for reading tool arguments.
package common
