package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/netatmo-mcp/internal/config"
	"github.com/teemow/netatmo-mcp/internal/instrumentation"
	"github.com/teemow/netatmo-mcp/internal/logging"
	"github.com/teemow/netatmo-mcp/internal/netatmo"
	"github.com/teemow/netatmo-mcp/internal/server"
	"github.com/teemow/netatmo-mcp/internal/tokenstore"
	"github.com/teemow/netatmo-mcp/internal/tools/random_tools"
	"github.com/teemow/netatmo-mcp/internal/tools/weather_tools"
)

// Transports accepted by --transport.
const (
	TransportStreamableHTTP = "streamable-http"
	TransportStdio          = "stdio"
)

const (
	defaultEnvFile         = ".env"
	defaultMetricsAddr     = ":9090"
	httpShutdownTimeout    = 30 * time.Second
	metricsShutdownTimeout = 10 * time.Second

	envCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"
	envMetricsEnabled     = "METRICS_ENABLED"
	envMetricsAddr        = "METRICS_ADDR"
	envLogFormat          = "LOG_FORMAT"
	envTrustProxy         = "TRUST_PROXY"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

// serveConfig collects everything the serve command is configured with.
type serveConfig struct {
	Settings    config.Settings
	EnvFile     string
	Transport   string
	HTTP        server.HTTPConfig
	CORSOrigins string
	Debug       bool
	LogFormat   string
	Metrics     MetricsConfig
}

func newServeCmd() *cobra.Command {
	cfg := &serveConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server with the Netatmo weather tools.

Supports multiple transport types:
  - streamable-http: Streamable HTTP transport on /mcp (default)
  - stdio: Standard input/output

Netatmo Configuration:
  --netatmo-client-id and --netatmo-client-secret flags
  OR NETATMO_CLIENT_ID and NETATMO_CLIENT_SECRET env vars (required)

  Variables can also be placed in a .env file (see --env-file).

Authentication:
  With the HTTP transport, visit <base-url>/netatmo/auth once to connect your
  Netatmo account. Tokens are stored in --token-file and refreshed automatically.
  With stdio, use the auth-url command and run the HTTP transport for the callback.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := resolveServeConfig(cmd, cfg); err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	addServeFlags(cmd, cfg)
	return cmd
}

func addServeFlags(cmd *cobra.Command, cfg *serveConfig) {
	addSettingsFlags(cmd, &cfg.Settings, &cfg.EnvFile)

	cmd.Flags().StringVar(&cfg.Settings.TokenFilePath, "token-file", "", "Path where Netatmo tokens are stored (the database file for --token-store=sqlite). Can also use NETATMO_TOKEN_FILE env var. Default: "+config.DefaultTokenFilePath)
	cmd.Flags().StringVar(&cfg.Settings.TokenStoreType, "token-store", "", "Token store backend: file or sqlite. Can also use NETATMO_TOKEN_STORE env var. Default: "+config.DefaultTokenStoreType)
	cmd.Flags().StringVar(&cfg.Settings.PublicBaseURL, "base-url", "", "Public base URL of this server, used in authentication guidance. Can also use MCP_BASE_URL env var. Default: "+config.DefaultPublicBaseURL)
	cmd.Flags().DurationVar(&cfg.Settings.RequestTimeout, "request-timeout", 0, "Timeout for outbound Netatmo API requests (0 means none)")

	cmd.Flags().StringVar(&cfg.Transport, "transport", TransportStreamableHTTP, "Transport type: streamable-http or stdio")
	cmd.Flags().StringVar(&cfg.HTTP.Addr, "http-addr", server.DefaultHTTPAddr, "HTTP server address (for streamable-http transport)")
	cmd.Flags().StringVar(&cfg.CORSOrigins, "cors-allowed-origins", "", "Comma-separated list of origins allowed to call the HTTP server. Can also use CORS_ALLOWED_ORIGINS env var.")
	cmd.Flags().Float64Var(&cfg.HTTP.RateLimit, "rate-limit", server.DefaultRateLimit, "Requests per second per client IP on /netatmo/* routes. Negative disables rate limiting.")
	cmd.Flags().IntVar(&cfg.HTTP.RateLimitBurst, "rate-limit-burst", server.DefaultRateLimitBurst, "Burst size for the /netatmo/* rate limit")
	cmd.Flags().BoolVar(&cfg.HTTP.TrustProxy, "trust-proxy", false, "Use X-Forwarded-For and X-Real-IP for client IPs. Only enable behind a trusted reverse proxy. Can also use TRUST_PROXY env var.")

	cmd.Flags().BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&cfg.LogFormat, "log-format", logging.FormatText, "Log format: text or json. Can also use LOG_FORMAT env var.")

	cmd.Flags().BoolVar(&cfg.Metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&cfg.Metrics.Addr, "metrics-addr", defaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")
}

// addSettingsFlags registers the Netatmo application flags shared by serve and auth-url.
func addSettingsFlags(cmd *cobra.Command, settings *config.Settings, envFile *string) {
	cmd.Flags().StringVar(&settings.ClientID, "netatmo-client-id", "", "Netatmo app client ID. Can also use NETATMO_CLIENT_ID env var.")
	cmd.Flags().StringVar(&settings.ClientSecret, "netatmo-client-secret", "", "Netatmo app client secret. Can also use NETATMO_CLIENT_SECRET env var.")
	cmd.Flags().StringVar(&settings.RedirectURI, "netatmo-redirect-uri", "", "Redirect URI registered for the Netatmo app. Can also use NETATMO_REDIRECT_URI env var. Default: "+config.DefaultRedirectURI)
	cmd.Flags().StringVar(envFile, "env-file", defaultEnvFile, "Load environment variables from this file. A missing default .env file is ignored.")
}

// loadSettings loads the env file and fills unset settings from the environment.
// Flags take precedence over environment variables, which take precedence over defaults.
func loadSettings(cmd *cobra.Command, settings *config.Settings, envFile string) error {
	if err := config.LoadEnvFile(envFile, !cmd.Flags().Changed("env-file")); err != nil {
		return err
	}
	settings.ApplyEnv()
	return nil
}

// resolveServeConfig applies environment fallbacks for flags that were not set explicitly.
func resolveServeConfig(cmd *cobra.Command, cfg *serveConfig) error {
	if err := loadSettings(cmd, &cfg.Settings, cfg.EnvFile); err != nil {
		return err
	}

	if !cmd.Flags().Changed("cors-allowed-origins") {
		if origins := os.Getenv(envCORSAllowedOrigins); origins != "" {
			cfg.CORSOrigins = origins
		}
	}
	cfg.HTTP.AllowedOrigins = parseCommaSeparatedList(cfg.CORSOrigins)

	if !cmd.Flags().Changed("trust-proxy") {
		if v := os.Getenv(envTrustProxy); v != "" {
			trust, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s value %q: %w", envTrustProxy, v, err)
			}
			cfg.HTTP.TrustProxy = trust
		}
	}

	if !cmd.Flags().Changed("metrics-enabled") {
		if v := os.Getenv(envMetricsEnabled); v != "" {
			enabled, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s value %q: %w", envMetricsEnabled, v, err)
			}
			cfg.Metrics.Enabled = enabled
		}
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv(envMetricsAddr); addr != "" {
			cfg.Metrics.Addr = addr
		}
	}

	if !cmd.Flags().Changed("log-format") {
		if format := os.Getenv(envLogFormat); format != "" {
			cfg.LogFormat = format
		}
	}

	switch cfg.Transport {
	case TransportStreamableHTTP, TransportStdio:
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: %s, %s)", cfg.Transport, TransportStreamableHTTP, TransportStdio)
	}

	return cfg.Settings.Validate()
}

func runServe(cfg *serveConfig) error {
	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// stdout belongs to the stdio transport, so logs always go to stderr
	logger := logging.NewLogger(os.Stderr, cfg.Debug, cfg.LogFormat)
	slog.SetDefault(logger)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	var (
		metrics *instrumentation.Metrics
		audit   *instrumentation.AuditLogger
	)
	if provider.Enabled() {
		metrics = provider.Metrics()
		audit = instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)
	}

	// The metrics server is not started in stdio mode
	if cfg.Transport != TransportStdio && cfg.Metrics.Enabled && provider.Enabled() {
		metricsServer, err := startMetricsServer(cfg.Metrics, provider, logger)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	store, err := tokenstore.Open(cfg.Settings,
		tokenstore.WithLogger(logging.NewSlogAdapter(logger).WithComponent("tokenstore")),
		tokenstore.WithMetrics(metrics))
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("error closing token store", logging.Err(err))
		}
	}()

	client := netatmo.NewClient(cfg.Settings, store,
		netatmo.WithLogger(logger),
		netatmo.WithMetrics(metrics))

	serverContext := server.NewServerContext(ctx, cfg.Settings, client,
		server.WithLogger(logger),
		server.WithMetrics(metrics),
		server.WithAuditLogger(audit))
	defer serverContext.Shutdown()

	mcpSrv := newMCPServer()
	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	logger.Info("starting netatmo-mcp",
		"version", version,
		"transport", cfg.Transport,
		"token_store", cfg.Settings.TokenStoreType)

	switch cfg.Transport {
	case TransportStdio:
		return runStdioServer(mcpSrv, logger)
	default:
		return runStreamableHTTPServer(ctx, mcpSrv, serverContext, cfg.HTTP)
	}
}

func newMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("netatmo-mcp", version,
		mcpserver.WithToolCapabilities(true),
	)
}

// registerAllTools registers all MCP tools
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := weather_tools.RegisterTools(mcpSrv, sc); err != nil {
		return fmt.Errorf("failed to register weather tools: %w", err)
	}
	if err := random_tools.RegisterTools(mcpSrv, sc); err != nil {
		return fmt.Errorf("failed to register random tools: %w", err)
	}
	return nil
}

// startMetricsServer binds the metrics address before returning so that
// address conflicts fail startup.
func startMetricsServer(cfg MetricsConfig, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    cfg.Addr,
		InstrumentationProvider: provider,
		Logger:                  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	ln, err := net.Listen("tcp", metricsServer.Addr())
	if err != nil {
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	}

	go func() {
		if err := metricsServer.Serve(ln); err != nil {
			logger.Error("metrics server stopped", logging.Err(err))
		}
	}()
	return metricsServer, nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer, logger *slog.Logger) error {
	errLogger := slog.NewLogLogger(logger.Handler(), slog.LevelError)
	if err := mcpserver.ServeStdio(mcpSrv, mcpserver.WithErrorLogger(errLogger)); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, httpConfig server.HTTPConfig) error {
	httpServer := server.NewHTTPServer(sc, mcpSrv, httpConfig)
	logger := sc.Logger()

	logger.Info("connect your Netatmo account", "url", sc.Settings().AuthPageURL())

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		logger.Info("HTTP server stopped normally")
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}

// parseCommaSeparatedList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty or contains only whitespace/commas.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
