package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/otp-session-auth/internal/config"
)

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()

	b, closer, err := OpenBackend(ctx, config.Config{StoreDriver: config.DriverMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, b)
	assert.NoError(t, closer.Close())

	b, _, err = OpenBackend(ctx, config.Config{StoreDriver: config.DriverFile, DataDir: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileBackend{}, b)

	_, _, err = OpenBackend(ctx, config.Config{StoreDriver: config.DriverRedis}, nil)
	assert.Error(t, err)

	_, _, err = OpenBackend(ctx, config.Config{StoreDriver: "bogus"}, nil)
	assert.Error(t, err)
}

func TestOpenBackend_SQLiteCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "auth.db")
	b, closer, err := OpenBackend(context.Background(), config.Config{StoreDriver: config.DriverSQLite, SQLitePath: path}, nil)
	require.NoError(t, err)
	defer closer.Close()

	assert.IsType(t, &SQLBackend{}, b)
	require.NoError(t, b.Replace(context.Background(), Users, []byte(`[]`)))
	assert.FileExists(t, path)
}
