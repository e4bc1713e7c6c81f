package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/otp-session-auth/internal/database"
)

const (
	createCollectionsMySQL = `CREATE TABLE IF NOT EXISTS auth_collections (
    name       VARCHAR(64) NOT NULL PRIMARY KEY,
    payload    LONGTEXT    NOT NULL,
    updated_at DATETIME    NOT NULL
)`
	createCollectionsSQLite = `CREATE TABLE IF NOT EXISTS auth_collections (
    name       TEXT    NOT NULL PRIMARY KEY,
    payload    TEXT    NOT NULL,
    updated_at INTEGER NOT NULL
)`
)

// SQLBackend keeps one row per collection in the auth_collections table.
// It works against MySQL (go-sql-driver) and SQLite (modernc) since it only
// uses '?' placeholders and a delete+insert pair inside a transaction.
type SQLBackend struct {
	db     *sql.DB
	driver string
}

// NewSQLBackend wraps db and creates the collections table if needed.
func NewSQLBackend(ctx context.Context, db *sql.DB, driver string) (*SQLBackend, error) {
	ddl := createCollectionsMySQL
	if driver == database.SQLite {
		ddl = createCollectionsSQLite
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("create auth_collections: %w", err)
	}
	return &SQLBackend{db: db, driver: driver}, nil
}

func (b *SQLBackend) Load(ctx context.Context, c Collection) ([]byte, error) {
	var payload string
	err := b.db.QueryRowContext(ctx,
		"SELECT payload FROM auth_collections WHERE name=? LIMIT 1", string(c)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

func (b *SQLBackend) Replace(ctx context.Context, c Collection, data []byte) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM auth_collections WHERE name=?", string(c)); err != nil {
		return err
	}
	var updatedAt any = time.Now().UTC()
	if b.driver == database.SQLite {
		updatedAt = time.Now().UTC().UnixMilli()
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO auth_collections (name, payload, updated_at) VALUES (?,?,?)",
		string(c), string(data), updatedAt); err != nil {
		return err
	}
	return tx.Commit()
}
