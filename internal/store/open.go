package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/otp-session-auth/internal/config"
	"github.com/iliyamo/otp-session-auth/internal/database"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenBackend builds the Backend selected by cfg.StoreDriver.  The returned
// Closer releases any connection the backend owns; the redis client is
// owned by the caller and is not closed here.
func OpenBackend(ctx context.Context, cfg config.Config, rdb *redis.Client) (Backend, io.Closer, error) {
	switch cfg.StoreDriver {
	case config.DriverFile:
		return NewFileBackend(cfg.DataDir), nopCloser{}, nil
	case config.DriverMemory:
		return NewMemoryBackend(), nopCloser{}, nil
	case config.DriverRedis:
		if rdb == nil {
			return nil, nil, errors.New("STORE_DRIVER=redis but redis is unreachable")
		}
		return NewRedisBackend(rdb, cfg.Redis.Prefix), nopCloser{}, nil
	case config.DriverMySQL, config.DriverSQLite:
		driver, dsn := database.MySQL, cfg.DB.MySQLDSN()
		if cfg.StoreDriver == config.DriverSQLite {
			driver, dsn = database.SQLite, database.SQLiteDSN(cfg.SQLitePath)
			if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
				return nil, nil, fmt.Errorf("mkdir sqlite dir: %w", err)
			}
		}
		db, err := database.Open(driver, dsn)
		if err != nil {
			return nil, nil, err
		}
		b, err := NewSQLBackend(ctx, db, driver)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return b, db, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
