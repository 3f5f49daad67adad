// Package cmd implements the command-line interface for netatmo-mcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server (streamable-http or stdio transport)
//   - auth-url: Print the Netatmo authorization URL for headless setups
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
