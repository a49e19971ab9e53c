// Package session persists the signed-in seller's session across two trust
// tiers: the bearer token goes to a tighter-permission secret store, the
// serialized profile to a plain store. The auth manager is responsible for
// keeping the two tiers in sync; each store only does key-value upserts.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Keys the auth manager uses across the two tiers.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// Store is durable key-value persistence for session material.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// FileStore is the secret tier: one 0600 file per key under a 0700 directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the backing directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create secret store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key)
}

func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read secret %q: %w", key, err)
	}
	value := strings.TrimRight(string(raw), "\n")
	if value == "" {
		return "", false, nil
	}
	return value, true, nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	if err := os.WriteFile(s.path(key), []byte(value), 0o600); err != nil {
		return fmt.Errorf("write secret %q: %w", key, err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete secret %q: %w", key, err)
	}
	return nil
}

// DBStore is the plain tier, backed by a SQLite key-value table.
type DBStore struct {
	db *sql.DB
}

// NewDBStore wraps an open database handle.
func NewDBStore(db *sql.DB) *DBStore {
	return &DBStore{db: db}
}

// Init applies the schema for the session table.
func (s *DBStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS session_values (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`)
	if err != nil {
		return fmt.Errorf("apply session schema: %w", err)
	}
	return nil
}

func (s *DBStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM session_values WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get session value %q: %w", key, err)
	}
	return value, true, nil
}

func (s *DBStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_values(key, value, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("set session value %q: %w", key, err)
	}
	return nil
}

func (s *DBStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM session_values WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete session value %q: %w", key, err)
	}
	return nil
}

// TokenSource adapts a Store to the API client's per-request token lookup.
// Read errors deliberately degrade to "no token": the request goes out
// unauthenticated and the server rejects it.
type TokenSource struct {
	Store Store
}

func (t TokenSource) Token(ctx context.Context) (string, bool) {
	value, ok, err := t.Store.Get(ctx, TokenKey)
	if err != nil || !ok {
		return "", false
	}
	return value, true
}
