package cmd

import (
	"bytes"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/netatmo-mcp/internal/config"
	"github.com/teemow/netatmo-mcp/internal/server"
)

var serveEnvVars = []string{
	config.EnvClientID, config.EnvClientSecret, config.EnvRedirectURI,
	config.EnvTokenFilePath, config.EnvTokenStoreType, config.EnvPublicBaseURL,
	envCORSAllowedOrigins, envMetricsEnabled, envMetricsAddr, envLogFormat, envTrustProxy,
}

// clearServeEnv unsets every variable the serve command reads; t.Setenv restores them.
func clearServeEnv(t *testing.T) {
	t.Helper()
	for _, key := range serveEnvVars {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func parseServeFlags(t *testing.T, args ...string) (*cobra.Command, *serveConfig) {
	t.Helper()
	cfg := &serveConfig{}
	cmd := &cobra.Command{Use: "serve"}
	addServeFlags(cmd, cfg)
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd, cfg
}

func TestResolveServeConfig_Defaults(t *testing.T) {
	clearServeEnv(t)
	t.Setenv(config.EnvClientID, "env-id")
	t.Setenv(config.EnvClientSecret, "env-secret")

	cmd, cfg := parseServeFlags(t, "--env-file", "")
	require.NoError(t, resolveServeConfig(cmd, cfg))

	assert.Equal(t, "env-id", cfg.Settings.ClientID)
	assert.Equal(t, "env-secret", cfg.Settings.ClientSecret)
	assert.Equal(t, config.DefaultRedirectURI, cfg.Settings.RedirectURI)
	assert.Equal(t, config.DefaultTokenFilePath, cfg.Settings.TokenFilePath)
	assert.Equal(t, config.DefaultTokenStoreType, cfg.Settings.TokenStoreType)
	assert.Equal(t, TransportStreamableHTTP, cfg.Transport)
	assert.Equal(t, server.DefaultHTTPAddr, cfg.HTTP.Addr)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, defaultMetricsAddr, cfg.Metrics.Addr)
	assert.Nil(t, cfg.HTTP.AllowedOrigins)
}

func TestResolveServeConfig_FlagsOverrideEnv(t *testing.T) {
	clearServeEnv(t)
	t.Setenv(config.EnvClientID, "env-id")
	t.Setenv(config.EnvClientSecret, "env-secret")
	t.Setenv(config.EnvTokenStoreType, config.TokenStoreTypeFile)
	t.Setenv(envMetricsEnabled, "true")
	t.Setenv(envCORSAllowedOrigins, "http://env.test")

	cmd, cfg := parseServeFlags(t,
		"--env-file", "",
		"--netatmo-client-id", "flag-id",
		"--token-store", config.TokenStoreTypeSQLite,
		"--metrics-enabled=false",
		"--cors-allowed-origins", "http://a.test, http://b.test",
		"--transport", TransportStdio,
	)
	require.NoError(t, resolveServeConfig(cmd, cfg))

	assert.Equal(t, "flag-id", cfg.Settings.ClientID)
	assert.Equal(t, "env-secret", cfg.Settings.ClientSecret)
	assert.Equal(t, config.TokenStoreTypeSQLite, cfg.Settings.TokenStoreType)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, TransportStdio, cfg.Transport)
}

func TestResolveServeConfig_EnvFallbacks(t *testing.T) {
	clearServeEnv(t)
	t.Setenv(config.EnvClientID, "id")
	t.Setenv(config.EnvClientSecret, "secret")
	t.Setenv(envMetricsEnabled, "false")
	t.Setenv(envMetricsAddr, ":9191")
	t.Setenv(envCORSAllowedOrigins, "http://env.test")
	t.Setenv(envTrustProxy, "true")
	t.Setenv(envLogFormat, "json")

	cmd, cfg := parseServeFlags(t, "--env-file", "")
	require.NoError(t, resolveServeConfig(cmd, cfg))

	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9191", cfg.Metrics.Addr)
	assert.Equal(t, []string{"http://env.test"}, cfg.HTTP.AllowedOrigins)
	assert.True(t, cfg.HTTP.TrustProxy)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestResolveServeConfig_EnvFile(t *testing.T) {
	clearServeEnv(t)

	envFile := filepath.Join(t.TempDir(), "netatmo.env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"NETATMO_CLIENT_ID=file-id\nNETATMO_CLIENT_SECRET=file-secret\nNETATMO_TOKEN_FILE=/var/lib/netatmo/tokens.json\n"), 0o600))

	cmd, cfg := parseServeFlags(t, "--env-file", envFile)
	require.NoError(t, resolveServeConfig(cmd, cfg))

	assert.Equal(t, "file-id", cfg.Settings.ClientID)
	assert.Equal(t, "file-secret", cfg.Settings.ClientSecret)
	assert.Equal(t, "/var/lib/netatmo/tokens.json", cfg.Settings.TokenFilePath)
}

func TestResolveServeConfig_Errors(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		args        []string
		errContains string
	}{
		{
			name:        "missing credentials",
			errContains: "netatmo client ID is required",
		},
		{
			name:        "unknown transport",
			env:         map[string]string{config.EnvClientID: "id", config.EnvClientSecret: "secret"},
			args:        []string{"--transport", "sse"},
			errContains: "unsupported transport type: sse",
		},
		{
			name:        "invalid metrics env",
			env:         map[string]string{config.EnvClientID: "id", config.EnvClientSecret: "secret", envMetricsEnabled: "maybe"},
			errContains: "invalid METRICS_ENABLED value",
		},
		{
			name:        "explicit env file missing",
			args:        []string{"--env-file", filepath.Join(os.TempDir(), "does-not-exist", "netatmo.env")},
			errContains: "failed to stat env file",
		},
		{
			name:        "invalid token store",
			env:         map[string]string{config.EnvClientID: "id", config.EnvClientSecret: "secret"},
			args:        []string{"--token-store", "redis"},
			errContains: `invalid token store type "redis"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearServeEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			args := tt.args
			if !containsFlag(args, "--env-file") {
				args = append([]string{"--env-file", ""}, args...)
			}

			cmd, cfg := parseServeFlags(t, args...)
			err := resolveServeConfig(cmd, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func containsFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

func TestAuthURLCmd(t *testing.T) {
	clearServeEnv(t)

	cmd := newAuthURLCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--env-file", "", "--netatmo-client-id", "my-app"})
	require.NoError(t, cmd.Execute())

	u, err := url.Parse(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "my-app", u.Query().Get("client_id"))
	assert.Equal(t, config.DefaultRedirectURI, u.Query().Get("redirect_uri"))
	assert.Equal(t, "code", u.Query().Get("response_type"))
	assert.Regexp(t, `^[0-9a-f]{32}$`, u.Query().Get("state"))
}

func TestAuthURLCmd_RequiresClientID(t *testing.T) {
	clearServeEnv(t)

	cmd := newAuthURLCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--env-file", ""})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.EnvClientID)
}

func TestParseCommaSeparatedList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty string", input: "", expected: nil},
		{name: "single value", input: "http://localhost:5173", expected: []string{"http://localhost:5173"}},
		{
			name:     "values with spaces around comma",
			input:    "http://a.test, http://b.test",
			expected: []string{"http://a.test", "http://b.test"},
		},
		{
			name:     "trailing and consecutive commas",
			input:    ",http://a.test,,http://b.test,",
			expected: []string{"http://a.test", "http://b.test"},
		},
		{name: "only commas and spaces", input: ",  , , ", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseCommaSeparatedList(tt.input))
		})
	}
}
