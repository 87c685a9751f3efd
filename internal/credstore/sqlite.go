package credstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS credentials (
	name       TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore keeps sealed values in an embedded SQLite database.
type SQLiteStore struct {
	sqlDB  *sql.DB
	sealer *Sealer
}

// Compile-time check to ensure SQLiteStore implements Backend
var _ Backend = (*SQLiteStore)(nil)

// OpenSQLiteStore opens the database at path and creates the credentials table.
// Missing parent directories are created with 0700 permissions.
func OpenSQLiteStore(path string, sealer *Sealer) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if sealer == nil {
		return nil, fmt.Errorf("missing sealer")
	}

	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create credentials table: %w", err)
	}

	return &SQLiteStore{sqlDB: sqlDB, sealer: sealer}, nil
}

// Close releases the underlying SQLite connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Name implements Backend.
func (s *SQLiteStore) Name() string {
	return "sqlite"
}

// Get loads and opens the sealed value for key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	var sealed string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT value FROM credentials WHERE name = ?`, key).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get credential: %w", err)
	}
	return s.sealer.Open(key, sealed)
}

// Put seals value and upserts it for key.
func (s *SQLiteStore) Put(ctx context.Context, key, value string) error {
	sealed, err := s.sealer.Seal(key, value)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO credentials (name, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, sealed, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put credential: %w", err)
	}
	return nil
}
