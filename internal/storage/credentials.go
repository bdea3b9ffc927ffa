package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// Keys of the credentials table. They match the names the web client used
// for its local storage entries.
const (
	keyToken        = "token"
	keyRefreshToken = "refresh_token"
	keyUser         = "user"
)

// SQLiteStore persists the session credential in a small key/value table.
type SQLiteStore struct {
	db      *sql.DB
	path    string
	version uint
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; avoids SQLITE_BUSY between concurrent saves.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := migrateSchema(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate session schema: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath, version: version}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file backing the store.
func (s *SQLiteStore) Path() string { return s.path }

// SchemaVersion is the migration version the database was opened at.
func (s *SQLiteStore) SchemaVersion() uint { return s.version }

// Load returns the stored credential. A store with no token yields a zero
// Credential and no error. A user record that fails to decode is dropped.
func (s *SQLiteStore) Load(ctx context.Context) (core.Credential, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM credentials`)
	if err != nil {
		return core.Credential{}, fmt.Errorf("query credentials: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, 3)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return core.Credential{}, fmt.Errorf("scan credential: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return core.Credential{}, fmt.Errorf("iterate credentials: %w", err)
	}

	cred := core.Credential{
		Token:        values[keyToken],
		RefreshToken: values[keyRefreshToken],
	}
	if raw := values[keyUser]; raw != "" && raw != "null" {
		var u core.User
		if err := json.Unmarshal([]byte(raw), &u); err == nil {
			cred.User = &u
		}
	}
	return cred, nil
}

// Save replaces the stored credential atomically.
func (s *SQLiteStore) Save(ctx context.Context, cred core.Credential) error {
	userJSON := []byte("null")
	if cred.User != nil {
		b, err := json.Marshal(cred.User)
		if err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		userJSON = b
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}

	entries := []struct{ key, value string }{
		{keyToken, cred.Token},
		{keyRefreshToken, cred.RefreshToken},
		{keyUser, string(userJSON)},
	}
	for _, e := range entries {
		if e.value == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
			e.key, e.value); err != nil {
			return fmt.Errorf("store %s: %w", e.key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit credentials: %w", err)
	}
	return nil
}

// Clear removes every stored key in one statement so token and user go together.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
