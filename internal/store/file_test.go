package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/otp-session-auth/internal/logging"
	"github.com/iliyamo/otp-session-auth/internal/model"
)

func TestFileBackend_LoadMissing(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "data"))
	_, err := b.Load(context.Background(), Users)
	require.ErrorIs(t, err, ErrNotExist)
}

func TestFileBackend_ReplaceCreatesDirAndRoundTrips(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s := New(NewFileBackend(dir), time.Second, logging.Discard())
	ctx := context.Background()

	require.NoError(t, s.AppendUser(ctx, model.User{ID: "u1", Email: "a@x.com", Mobile: "111"}))

	raw, err := os.ReadFile(filepath.Join(dir, "users.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"email": "a@x.com"`)
	assert.Contains(t, string(raw), `"isVerified": false`)

	users, err := s.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "111", users[0].Mobile)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileBackend_CorruptFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "refreshTokens.json"), []byte("[\"a\","), 0o644))
	s := New(NewFileBackend(dir), time.Second, logging.Discard())

	tokens, err := s.RefreshTokens(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestFileBackend_CancelledContext(t *testing.T) {
	b := NewFileBackend(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := b.Replace(ctx, Users, []byte("[]"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestWriteAtomic_AbandonedWriteLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := writeAtomic(ctx, dir, path, []byte(`[{"id":"u1"}]`))
	require.ErrorIs(t, err, context.Canceled)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be cleaned up")
}
