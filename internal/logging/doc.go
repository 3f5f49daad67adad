// Package logging provides structured logging utilities for the netatmo-mcp server.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - Client address anonymization
//   - Consistent attribute naming across the codebase
//   - Logger adapter interface for packages that only need leveled logging
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "netatmo.getmeasure")
//	logger.Info("fetching measurements",
//	    logging.Module("Outdoor"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("refreshed tokens",
//	    "access_token", logging.SanitizeToken(token))
//
// # Security Considerations
//
//   - OAuth tokens are never logged directly
//   - Client addresses are hashed to allow correlation without storing IPs
package logging
