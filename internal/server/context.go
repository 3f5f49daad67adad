package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teemow/netatmo-mcp/internal/config"
	"github.com/teemow/netatmo-mcp/internal/instrumentation"
	"github.com/teemow/netatmo-mcp/internal/netatmo"
)

// NetatmoAPI is the part of the Netatmo client used by tools and HTTP handlers.
// *netatmo.Client implements it.
type NetatmoAPI interface {
	AuthorizationURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*netatmo.Tokens, error)
	StationData(ctx context.Context) ([]netatmo.Station, error)
	Measure(ctx context.Context, q netatmo.MeasureQuery) ([]netatmo.MeasureBlock, error)
}

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	settings config.Settings
	netatmo  NetatmoAPI
	logger   *slog.Logger

	mu          sync.RWMutex
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	shutdown    bool
}

// ServerContextOption configures a ServerContext.
type ServerContextOption func(*ServerContext)

// WithLogger sets the logger used by handlers. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ServerContextOption {
	return func(sc *ServerContext) {
		if logger != nil {
			sc.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) ServerContextOption {
	return func(sc *ServerContext) {
		sc.metrics = m
	}
}

// WithAuditLogger sets the audit logger for tool invocations and OAuth callbacks.
func WithAuditLogger(al *instrumentation.AuditLogger) ServerContextOption {
	return func(sc *ServerContext) {
		sc.auditLogger = al
	}
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, settings config.Settings, client NetatmoAPI, opts ...ServerContextOption) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		settings: settings,
		netatmo:  client,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Settings returns the Netatmo settings the server was started with.
func (sc *ServerContext) Settings() config.Settings {
	return sc.settings
}

// Netatmo returns the Netatmo API client.
func (sc *ServerContext) Netatmo() NetatmoAPI {
	return sc.netatmo
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder, or nil when instrumentation is disabled.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics sets the metrics recorder.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// AuditLogger returns the audit logger, or nil when not configured.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// SetAuditLogger sets the audit logger.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// IsShutdown returns true if the server is shutting down
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context. It is safe to call more than once.
func (sc *ServerContext) Shutdown() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return
	}
	sc.shutdown = true
	sc.cancel()
}
