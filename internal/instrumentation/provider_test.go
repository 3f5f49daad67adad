package instrumentation

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Enabled:        false,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if provider.Enabled() {
		t.Error("expected provider to be disabled")
	}
	if provider.Metrics() == nil {
		t.Error("expected metrics to be non-nil even when disabled")
	}
	if provider.PrometheusHandler() != nil {
		t.Error("expected no prometheus handler when disabled")
	}
	if provider.Tracer("test") == nil {
		t.Error("expected tracer to be non-nil (no-op)")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("expected no error on shutdown, got %v", err)
	}
}

func TestNewProvider_Exporters(t *testing.T) {
	tests := []struct {
		name            string
		metricsExporter string
		tracingExporter string
		wantErr         bool
		wantPrometheus  bool
	}{
		{name: "prometheus", metricsExporter: ExporterPrometheus, tracingExporter: ExporterNone, wantPrometheus: true},
		{name: "stdout", metricsExporter: ExporterStdout, tracingExporter: ExporterStdout},
		{name: "invalid metrics exporter", metricsExporter: "invalid", tracingExporter: ExporterNone, wantErr: true},
		{name: "invalid tracing exporter", metricsExporter: ExporterPrometheus, tracingExporter: "invalid", wantErr: true},
		{name: "otlp tracing without endpoint", metricsExporter: ExporterPrometheus, tracingExporter: ExporterOTLP, wantErr: true},
		{name: "otlp metrics without endpoint", metricsExporter: ExporterOTLP, tracingExporter: ExporterNone, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			provider, err := NewProvider(ctx, Config{
				ServiceName:     "test-service",
				ServiceVersion:  "1.0.0",
				Enabled:         true,
				MetricsExporter: tt.metricsExporter,
				TracingExporter: tt.tracingExporter,
			})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			defer func() { _ = provider.Shutdown(ctx) }()

			if !provider.Enabled() {
				t.Error("expected provider to be enabled")
			}
			if got := provider.PrometheusHandler() != nil; got != tt.wantPrometheus {
				t.Errorf("PrometheusHandler() present = %v, want %v", got, tt.wantPrometheus)
			}
		})
	}
}

func TestProvider_PrometheusHandler_ExposesRecordedMetrics(t *testing.T) {
	provider, ctx := newTestProvider(t, false)

	provider.Metrics().RecordNetatmoAPICall(ctx, OperationStations, StatusSuccess, 150*time.Millisecond)
	provider.Metrics().RecordToolInvocation(ctx, "get_temperatures", StatusSuccess, 200*time.Millisecond)

	rec := httptest.NewRecorder()
	provider.PrometheusHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"netatmo_api_calls_total", "mcp_tool_invocations_total", `operation="getstationsdata"`} {
		if !strings.Contains(string(body), want) {
			t.Errorf("scrape output missing %q", want)
		}
	}
}

func TestProvider_SeparateRegistries(t *testing.T) {
	first, _ := newTestProvider(t, false)
	second, _ := newTestProvider(t, false)

	if first.PrometheusHandler() == nil || second.PrometheusHandler() == nil {
		t.Fatal("expected both providers to expose a handler")
	}
}

func TestProvider_Shutdown(t *testing.T) {
	ctx := context.Background()
	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("expected no error on shutdown, got %v", err)
	}
}
