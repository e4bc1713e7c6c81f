package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/otp-session-auth/internal/database"
	"github.com/iliyamo/otp-session-auth/internal/logging"
)

func setupSQLite(t *testing.T) *sql.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := database.Open(database.SQLite, "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLBackend_LoadMissing(t *testing.T) {
	db := setupSQLite(t)
	b, err := NewSQLBackend(context.Background(), db, database.SQLite)
	require.NoError(t, err)

	_, err = b.Load(context.Background(), Challenges)
	require.ErrorIs(t, err, ErrNotExist)
}

func TestSQLBackend_ReplaceOverwrites(t *testing.T) {
	db := setupSQLite(t)
	ctx := context.Background()
	b, err := NewSQLBackend(ctx, db, database.SQLite)
	require.NoError(t, err)

	require.NoError(t, b.Replace(ctx, RefreshTokens, []byte(`["a"]`)))
	require.NoError(t, b.Replace(ctx, RefreshTokens, []byte(`["a","b"]`)))

	got, err := b.Load(ctx, RefreshTokens)
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, string(got))

	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM auth_collections`).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestSQLBackend_SchemaIsIdempotent(t *testing.T) {
	db := setupSQLite(t)
	ctx := context.Background()
	_, err := NewSQLBackend(ctx, db, database.SQLite)
	require.NoError(t, err)
	_, err = NewSQLBackend(ctx, db, database.SQLite)
	require.NoError(t, err)
}

func TestSQLBackend_WithStore(t *testing.T) {
	db := setupSQLite(t)
	ctx := context.Background()
	b, err := NewSQLBackend(ctx, db, database.SQLite)
	require.NoError(t, err)
	s := New(b, time.Second, logging.Discard())

	require.NoError(t, s.AppendRefreshToken(ctx, "tok"))
	ok, err := s.HasRefreshToken(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, ok)
}
