package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/cors"

	"github.com/teemow/netatmo-mcp/internal/instrumentation"
	"github.com/teemow/netatmo-mcp/internal/logging"
)

// Routes served by HTTPServer.
const (
	MCPPath          = "/mcp"
	AuthPath         = "/netatmo/auth"
	CallbackPath     = "/netatmo/callback"
	DefaultHTTPAddr  = ":5000"
	callbackSuccess  = "authenticated"
	callbackMessage  = "Netatmo tokens stored successfully. You can close this page."
	problemTypeError = "https://tools.ietf.org/html/rfc9110#section-15.6.1"
)

// HTTP server timeouts.
const (
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
)

// HTTPConfig configures the HTTP surface.
type HTTPConfig struct {
	// Addr is the listen address (default ":5000").
	Addr string

	// AllowedOrigins enables CORS for the given origins. Empty disables CORS.
	AllowedOrigins []string

	// RateLimit is the number of requests per second per IP allowed on the
	// /netatmo/* routes. Zero uses DefaultRateLimit; negative disables limiting.
	RateLimit float64

	// RateLimitBurst is the bucket size per IP (default DefaultRateLimitBurst).
	RateLimitBurst int

	// TrustProxy makes the rate limiter honor X-Forwarded-For and X-Real-IP.
	TrustProxy bool
}

// CallbackResponse is returned once the authorization code has been exchanged.
type CallbackResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Problem is an RFC 7807 problem document.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// HTTPServer serves the MCP streamable HTTP transport alongside the
// Netatmo OAuth routes and health endpoints.
type HTTPServer struct {
	sc        *ServerContext
	mcpServer *mcpserver.MCPServer
	health    *HealthChecker
	limiter   *RateLimiter
	config    HTTPConfig
	newState  func() string

	mu         sync.Mutex
	httpServer *http.Server
}

// NewHTTPServer creates the HTTP server. Call Start to listen.
func NewHTTPServer(sc *ServerContext, mcpServer *mcpserver.MCPServer, config HTTPConfig) *HTTPServer {
	if config.Addr == "" {
		config.Addr = DefaultHTTPAddr
	}
	if config.RateLimit == 0 {
		config.RateLimit = DefaultRateLimit
	}
	if config.RateLimitBurst <= 0 {
		config.RateLimitBurst = DefaultRateLimitBurst
	}

	s := &HTTPServer{
		sc:        sc,
		mcpServer: mcpServer,
		health:    NewHealthChecker(sc),
		config:    config,
		newState:  NewOAuthState,
	}
	if config.RateLimit > 0 {
		s.limiter = NewRateLimiter(config.RateLimit, config.RateLimitBurst, config.TrustProxy)
	}
	return s
}

// Health returns the health checker, e.g. to flip readiness during shutdown.
func (s *HTTPServer) Health() *HealthChecker {
	return s.health
}

// Handler builds the full handler chain: CORS, request logging and metrics, then routing.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	s.health.RegisterHealthEndpoints(mux)

	mux.Handle("GET "+AuthPath, s.rateLimited(http.HandlerFunc(s.handleAuth)))
	mux.Handle("GET "+CallbackPath, s.rateLimited(http.HandlerFunc(s.handleCallback)))

	if s.mcpServer != nil {
		mux.Handle(MCPPath, mcpserver.NewStreamableHTTPServer(s.mcpServer,
			mcpserver.WithEndpointPath(MCPPath)))
	}

	var handler http.Handler = mux
	handler = requestLoggingMiddleware(s.sc.Logger(), s.sc.Metrics(), handler)

	if len(s.config.AllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: s.config.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization", "Mcp-Session-Id", "Mcp-Protocol-Version"},
			ExposedHeaders: []string{"Mcp-Session-Id"},
		}).Handler(handler)
	}

	return handler
}

// Start listens on the configured address and blocks until the server stops.
func (s *HTTPServer) Start() error {
	if s.limiter != nil {
		go s.limiter.Run(s.sc.Context())
	}

	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	s.sc.Logger().Info("starting HTTP server",
		"addr", s.config.Addr,
		"mcp_endpoint", MCPPath,
		"auth_url", s.sc.Settings().AuthPageURL())

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown marks the server not ready and drains open connections.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	s.sc.Logger().Info("shutting down HTTP server")
	return srv.Shutdown(ctx)
}

func (s *HTTPServer) rateLimited(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return s.limiter.Middleware(next)
}

func (s *HTTPServer) handleAuth(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.sc.Netatmo().AuthorizationURL(s.newState()), http.StatusFound)
}

func (s *HTTPServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithOperation(s.sc.Logger(), "netatmo_callback")
	audit := s.sc.AuditLogger()

	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		err := errors.New("missing authorization code")
		if reason := r.URL.Query().Get("error"); reason != "" {
			err = errors.New(reason)
		}
		logger.Warn("oauth callback without code", logging.ClientHash(r.RemoteAddr), logging.Err(err))
		if audit != nil {
			audit.LogOAuthCallback(r.Context(), r.RemoteAddr, false, err)
		}
		writeProblem(w, http.StatusBadRequest, "Authentication failed: "+err.Error())
		return
	}

	if _, err := s.sc.Netatmo().ExchangeCode(r.Context(), code); err != nil {
		logger.Error("netatmo oauth callback failed", logging.ClientHash(r.RemoteAddr), logging.Err(err))
		if audit != nil {
			audit.LogOAuthCallback(r.Context(), r.RemoteAddr, false, err)
		}
		writeProblem(w, http.StatusInternalServerError, "Authentication failed: "+err.Error())
		return
	}

	logger.Info("netatmo tokens stored", logging.ClientHash(r.RemoteAddr))
	if audit != nil {
		audit.LogOAuthCallback(r.Context(), r.RemoteAddr, true, nil)
	}
	writeJSON(w, http.StatusOK, CallbackResponse{Status: callbackSuccess, Message: callbackMessage})
}

// NewOAuthState returns a random 32-character hex OAuth state value.
func NewOAuthState() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func writeProblem(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Type:   problemTypeError,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps streaming responses working through the wrapper.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func requestLoggingMiddleware(logger *slog.Logger, metrics *instrumentation.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := instrumentation.NormalizePath(r.URL.Path)
		metrics.RecordHTTPRequest(r.Context(), r.Method, path, rec.status, duration)

		status := logging.StatusSuccess
		if rec.status >= http.StatusBadRequest {
			status = logging.StatusError
		}

		level := slog.LevelDebug
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelWarn
		} else if path != MCPPath {
			level = slog.LevelInfo
		}
		logger.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", path,
			logging.Status(status),
			"status_code", rec.status,
			slog.Duration(logging.KeyDuration, duration),
			logging.ClientHash(r.RemoteAddr))
	})
}
