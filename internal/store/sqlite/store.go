// Package sqlite persists the operator's working token in a local
// SQLite database, so an edited token survives between sessions.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	apperrors "github.com/louisbranch/selfcare/internal/platform/errors"
	sqlitemigrate "github.com/louisbranch/selfcare/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/selfcare/internal/store/sqlite/migrations"
)

// workingSlot is the single token slot. The console is single-operator;
// one working token exists at a time.
const workingSlot = "working"

// Store persists console state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Get returns the stored working token.
func (s *Store) Get(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s == nil || s.sqlDB == nil {
		return "", fmt.Errorf("storage is not configured")
	}

	var token string
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT token FROM working_token WHERE slot = ?`,
		workingSlot,
	).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.New(apperrors.CodeNotFound, "no working token is stored")
	}
	if err != nil {
		return "", fmt.Errorf("read working token: %w", err)
	}
	return token, nil
}

// Set stores the working token, replacing any previous one.
func (s *Store) Set(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO working_token (slot, token, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET
		   token = excluded.token,
		   updated_at = excluded.updated_at`,
		workingSlot,
		token,
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("store working token: %w", err)
	}
	return nil
}

// Clear removes the working token. Clearing an empty store is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM working_token WHERE slot = ?`,
		workingSlot,
	)
	if err != nil {
		return fmt.Errorf("clear working token: %w", err)
	}
	return nil
}
