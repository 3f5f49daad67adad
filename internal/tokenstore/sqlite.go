package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/teemow/netatmo-mcp/internal/config"
	"github.com/teemow/netatmo-mcp/internal/netatmo"
)

// sqliteBusyTimeoutMS is how long a connection waits for a lock held by
// another process before failing.
const sqliteBusyTimeoutMS = 5000

// SQLiteStore persists tokens in a single-row SQLite table.
type SQLiteStore struct {
	db   *sql.DB
	path string
	opts options
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (and if needed creates) the database at dbPath.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL", dbPath, sqliteBusyTimeoutMS)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{
		db:   db,
		path: dbPath,
		opts: buildOptions(opts),
	}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS netatmo_tokens (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
	`)
	return err
}

// Load reads the token record. An absent or unparsable row yields (nil, nil).
func (s *SQLiteStore) Load(ctx context.Context) (tokens *netatmo.Tokens, err error) {
	defer func() {
		s.opts.metrics.RecordTokenStoreOperation(ctx, config.TokenStoreTypeSQLite, opLoad, statusOf(err))
	}()

	var t netatmo.Tokens
	var expiresAt string

	err = s.db.QueryRowContext(ctx, `
		SELECT access_token, refresh_token, expires_at
		FROM netatmo_tokens WHERE id = 1
	`).Scan(&t.AccessToken, &t.RefreshToken, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, netatmo.NewIOError(opLoad, err)
	}

	t.ExpiresAt, err = time.Parse(time.RFC3339Nano, expiresAt)
	if err != nil {
		s.opts.logger.Warn("discarding unreadable token row",
			"path", s.path,
			"error", netatmo.NewCorruptionError("row", err).Error())
		return nil, nil
	}
	if !t.Valid() {
		s.opts.logger.Warn("discarding incomplete token row", "path", s.path)
		return nil, nil
	}
	return &t, nil
}

// Save replaces the token record.
func (s *SQLiteStore) Save(ctx context.Context, tokens *netatmo.Tokens) (err error) {
	defer func() {
		s.opts.metrics.RecordTokenStoreOperation(ctx, config.TokenStoreTypeSQLite, opSave, statusOf(err))
	}()

	if !tokens.Valid() {
		return netatmo.NewValidationError("refusing to store incomplete token record")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO netatmo_tokens (id, access_token, refresh_token, expires_at, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, tokens.AccessToken, tokens.RefreshToken,
		tokens.ExpiresAt.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return netatmo.NewIOError(opSave, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
