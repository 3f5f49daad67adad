package tokenstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/netatmo-mcp/internal/netatmo"
)

func setupTestDB(t *testing.T) (*SQLiteStore, *recordingLogger) {
	t.Helper()
	logger := &recordingLogger{}
	dbPath := filepath.Join(t.TempDir(), "tokens.db")

	store, err := NewSQLiteStore(dbPath, WithLogger(logger))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store, logger
}

func TestSQLiteStore_LoadEmpty(t *testing.T) {
	store, _ := setupTestDB(t)

	tokens, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, tokens)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store, _ := setupTestDB(t)
	ctx := context.Background()

	want := sampleTokens(1)
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))
}

func TestSQLiteStore_LastWriterWins(t *testing.T) {
	store, _ := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleTokens(1)))
	require.NoError(t, store.Save(ctx, sampleTokens(2)))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-2", got.AccessToken)

	var rows int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM netatmo_tokens").Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestSQLiteStore_SharedBetweenHandles(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tokens.db")
	ctx := context.Background()

	first, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer first.Close()

	second, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, first.Save(ctx, sampleTokens(7)))

	got, err := second.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-7", got.AccessToken)
}

func TestSQLiteStore_CorruptRow(t *testing.T) {
	store, logger := setupTestDB(t)
	ctx := context.Background()

	_, err := store.db.Exec(`INSERT INTO netatmo_tokens (id, access_token, refresh_token, expires_at, updated_at)
		VALUES (1, 'a', 'r', 'not-a-time', 'now')`)
	require.NoError(t, err)

	tokens, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, tokens)
	assert.Len(t, logger.warnings(), 1)
}

func TestSQLiteStore_SaveRejectsIncompleteRecord(t *testing.T) {
	store, _ := setupTestDB(t)

	err := store.Save(context.Background(), &netatmo.Tokens{RefreshToken: "r"})
	require.Error(t, err)
	assert.True(t, netatmo.IsKind(err, netatmo.KindValidationFailure))
}
