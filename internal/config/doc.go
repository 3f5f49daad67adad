// Package config holds the static Netatmo settings for the netatmo-mcp server.
//
// Settings are resolved in the usual order: explicit command-line flags first,
// then environment variables, then built-in defaults. An optional .env file
// can be loaded before environment lookups with LoadEnvFile.
//
// # Environment Variables
//
//   - NETATMO_CLIENT_ID: OAuth client ID of the Netatmo app
//   - NETATMO_CLIENT_SECRET: OAuth client secret of the Netatmo app
//   - NETATMO_REDIRECT_URI: OAuth redirect URI (default: http://localhost:5000/netatmo/callback)
//   - NETATMO_TOKEN_FILE: Token persistence path (default: netatmo-tokens.json)
//   - NETATMO_TOKEN_STORE: Token store backend, "file" or "sqlite" (default: file)
//   - MCP_BASE_URL: Public base URL used in authentication guidance
//
// Settings are immutable once loaded; callers pass them by value.
package config
