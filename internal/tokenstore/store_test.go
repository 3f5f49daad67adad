package tokenstore

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/netatmo-mcp/internal/config"
	"github.com/teemow/netatmo-mcp/internal/netatmo"
)

// recordingLogger captures warnings for assertions.
type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Debug(string, ...interface{}) {}
func (l *recordingLogger) Info(string, ...interface{})  {}
func (l *recordingLogger) Error(string, ...interface{}) {}

func (l *recordingLogger) Warn(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warns...)
}

func sampleTokens(n int) *netatmo.Tokens {
	return &netatmo.Tokens{
		AccessToken:  fmt.Sprintf("access-%d", n),
		RefreshToken: fmt.Sprintf("refresh-%d", n),
		ExpiresAt:    time.Date(2026, 1, 15, 15, 0, n, 0, time.UTC),
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		storeType string
		want      any
		wantErr   bool
	}{
		{"", &FileStore{}, false},
		{config.TokenStoreTypeFile, &FileStore{}, false},
		{config.TokenStoreTypeSQLite, &SQLiteStore{}, false},
		{"SQLITE", &SQLiteStore{}, false},
		{"redis", nil, true},
	}

	for i, tt := range tests {
		t.Run(tt.storeType, func(t *testing.T) {
			settings := config.DefaultSettings()
			settings.TokenStoreType = tt.storeType
			settings.TokenFilePath = filepath.Join(dir, fmt.Sprintf("tokens-%d", i))

			store, err := Open(settings)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			assert.IsType(t, tt.want, store)
		})
	}
}
