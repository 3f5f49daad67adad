package instrumentation

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"
)

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	// ServiceName is the name of the service (default: netatmo-mcp)
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// ServiceInstanceID is the unique instance identifier (default: hostname)
	// In Kubernetes, this is typically the pod name
	ServiceInstanceID string

	// K8sNamespace is the Kubernetes namespace where the service is running
	K8sNamespace string

	// K8sPodName is the Kubernetes pod name
	K8sPodName string

	// Enabled determines if instrumentation is active (default: true)
	// Set to false via INSTRUMENTATION_ENABLED=false to disable metrics and tracing
	Enabled bool

	// MetricsExporter specifies the metrics exporter type
	// Options: "prometheus", "otlp", "stdout" (default: "prometheus")
	MetricsExporter string

	// MetricsExportInterval is how often the otlp and stdout exporters push
	// metrics (default: 10s). Prometheus is scraped and ignores it.
	MetricsExportInterval time.Duration

	// TracingExporter specifies the tracing exporter type
	// Options: "otlp", "stdout", "none" (default: "none")
	TracingExporter string

	// OTLPEndpoint is the OTLP collector endpoint
	// Example: "localhost:4318" (without protocol prefix)
	OTLPEndpoint string

	// OTLPInsecure controls whether to use insecure HTTP for OTLP export
	// When false (default), uses TLS for secure transport
	// Set to true only for local development or testing with unencrypted endpoints
	// WARNING: Never use insecure transport in production - traces may contain
	// sensitive metadata and should be encrypted in transit
	OTLPInsecure bool

	// TraceSamplingRate is the sampling rate for traces (0.0 to 1.0, default: 0.1)
	TraceSamplingRate float64

	// DetailedLabels controls whether high-cardinality labels are included.
	// When false (default), only essential labels are included.
	// When true, additional labels like requested module names may be added.
	// For production, keep detailedLabels disabled to avoid cardinality explosion.
	DetailedLabels bool

	// AuditLogging configures audit logging behavior.
	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig holds configuration for audit logging.
type AuditLoggingConfig struct {
	// Enabled determines if audit logging is active (default: true)
	// Audit logs record every tool invocation and OAuth callback.
	Enabled bool

	// IncludeArguments controls whether tool arguments are included in audit logs.
	// When false (default), only argument names are logged.
	IncludeArguments bool
}

// DefaultConfig returns the configuration read from the process environment.
func DefaultConfig() Config {
	return ConfigFromEnv(os.Getenv)
}

// ConfigFromEnv builds a Config from the given lookup function. Unparsable
// values fall back to their defaults.
func ConfigFromEnv(getenv func(string) string) Config {
	env := envReader{getenv: getenv}
	return Config{
		ServiceName:           env.str("OTEL_SERVICE_NAME", DefaultServiceName),
		ServiceVersion:        "unknown",
		ServiceInstanceID:     env.str("OTEL_SERVICE_INSTANCE_ID", ""),
		K8sNamespace:          env.str("K8S_NAMESPACE", env.str("POD_NAMESPACE", "")),
		K8sPodName:            env.str("K8S_POD_NAME", env.str("HOSTNAME", "")),
		Enabled:               env.boolean("INSTRUMENTATION_ENABLED", true),
		MetricsExporter:       env.str("METRICS_EXPORTER", ExporterPrometheus),
		MetricsExportInterval: env.duration("METRICS_EXPORT_INTERVAL", DefaultMetricInterval),
		TracingExporter:       env.str("TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:          env.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:          env.boolean("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSamplingRate:     env.float("OTEL_TRACES_SAMPLER_ARG", 0.1),
		DetailedLabels:        env.boolean("METRICS_DETAILED_LABELS", false),
		AuditLogging: AuditLoggingConfig{
			Enabled:          env.boolean("AUDIT_LOGGING_ENABLED", true),
			IncludeArguments: env.boolean("AUDIT_LOGGING_INCLUDE_ARGUMENTS", false),
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		errs = append(errs, fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate))
	}
	if c.MetricsExporter != "" && !slices.Contains([]string{ExporterPrometheus, ExporterOTLP, ExporterStdout}, c.MetricsExporter) {
		errs = append(errs, fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter))
	}
	if c.TracingExporter != "" && !slices.Contains([]string{ExporterOTLP, ExporterStdout, ExporterNone}, c.TracingExporter) {
		errs = append(errs, fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter))
	}
	if c.OTLPEndpoint == "" && (c.TracingExporter == ExporterOTLP || c.MetricsExporter == ExporterOTLP) {
		errs = append(errs, errors.New("OTLP endpoint is required when using an OTLP exporter"))
	}
	if c.MetricsExportInterval < 0 {
		errs = append(errs, fmt.Errorf("metrics export interval must not be negative, got %s", c.MetricsExportInterval))
	}

	return errors.Join(errs...)
}

// envReader reads typed values through a getenv-style lookup.
type envReader struct {
	getenv func(string) string
}

func (e envReader) str(key, def string) string {
	if v := e.getenv(key); v != "" {
		return v
	}
	return def
}

func (e envReader) boolean(key string, def bool) bool {
	if parsed, err := strconv.ParseBool(e.getenv(key)); err == nil {
		return parsed
	}
	return def
}

func (e envReader) float(key string, def float64) float64 {
	if parsed, err := strconv.ParseFloat(e.getenv(key), 64); err == nil {
		return parsed
	}
	return def
}

func (e envReader) duration(key string, def time.Duration) time.Duration {
	if parsed, err := time.ParseDuration(e.getenv(key)); err == nil {
		return parsed
	}
	return def
}

// Constants for metric label values.
const (
	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// OAuth result values
	OAuthResultSuccess = "success"
	OAuthResultFailure = "failure"

	// Service names
	DefaultServiceName = "netatmo-mcp"
	ServiceNetatmo     = "netatmo"
	ServiceLocal       = "local"

	// Netatmo operations
	OperationStations = "getstationsdata"
	OperationMeasure  = "getmeasure"
	OperationExchange = "exchange_code"
	OperationRefresh  = "refresh_token"
	OperationGenerate = "generate"

	// Exporter types
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"

	// Metric recording intervals
	DefaultMetricInterval = 10 * time.Second
)
