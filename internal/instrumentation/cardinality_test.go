package instrumentation

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/health", "/health"},
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/mcp", "/mcp"},
		{"/mcp/", "/mcp"},
		{"/netatmo/auth", "/netatmo/auth"},
		{"/netatmo/callback", "/netatmo/callback"},
		{"/netatmo/callback/", "/netatmo/callback"},
		{"/", PathOther},
		{"/wp-login.php", PathOther},
		{"/netatmo/auth/../../etc", PathOther},
		{"", PathOther},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			result := NormalizePath(tt.path)
			if result != tt.expected {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.path, result, tt.expected)
			}
		})
	}
}

func TestNormalizeModuleName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"Outdoor", "outdoor"},
		{"  Living Room ", "living room"},
		{"", "unknown"},
		{"   ", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeModuleName(tt.name)
			if result != tt.expected {
				t.Errorf("NormalizeModuleName(%q) = %q, want %q", tt.name, result, tt.expected)
			}
		})
	}
}

func TestOperationConstants(t *testing.T) {
	operations := map[string]string{
		OperationStations: "getstationsdata",
		OperationMeasure:  "getmeasure",
		OperationExchange: "exchange_code",
		OperationRefresh:  "refresh_token",
	}

	for constant, expected := range operations {
		if constant != expected {
			t.Errorf("Operation constant = %q, want %q", constant, expected)
		}
	}
}
