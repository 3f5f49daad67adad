package tokenstore

import (
	"fmt"
	"io"
	"strings"

	"github.com/teemow/netatmo-mcp/internal/config"
	"github.com/teemow/netatmo-mcp/internal/instrumentation"
	"github.com/teemow/netatmo-mcp/internal/logging"
	"github.com/teemow/netatmo-mcp/internal/netatmo"
)

// Store operations, used as metric labels.
const (
	opLoad = "load"
	opSave = "save"
)

// Store is a closable token store.
type Store interface {
	netatmo.TokenStore
	io.Closer
}

type options struct {
	logger  logging.Logger
	metrics *instrumentation.Metrics
}

// Option configures a store.
type Option func(*options)

// WithLogger sets the logger used to report discarded records.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics enables recording of load and save metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: logging.DefaultLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open returns the store selected by settings.TokenStoreType, persisting to
// settings.TokenFilePath.
func Open(settings config.Settings, opts ...Option) (Store, error) {
	switch strings.ToLower(settings.TokenStoreType) {
	case "", config.TokenStoreTypeFile:
		return NewFileStore(settings.TokenFilePath, opts...), nil
	case config.TokenStoreTypeSQLite:
		return NewSQLiteStore(settings.TokenFilePath, opts...)
	default:
		return nil, fmt.Errorf("unknown token store type %q", settings.TokenStoreType)
	}
}

func statusOf(err error) string {
	if err != nil {
		return instrumentation.StatusError
	}
	return instrumentation.StatusSuccess
}
