// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package sqlite provides a SQLite-backed attempt store.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/gogama/fetchgate/failure"
	"github.com/gogama/fetchgate/ledger"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const upsert = `INSERT INTO fetch_attempts (cache_key, code, attempted_at)
VALUES (?, ?, ?)
ON CONFLICT (cache_key) DO UPDATE SET
    code = excluded.code,
    attempted_at = excluded.attempted_at
WHERE excluded.attempted_at >= fetch_attempts.attempted_at`

// Store persists attempts in a SQLite database file.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the SQLite database at path, creating it if needed, and
// applies the embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("fetchgate/store/sqlite: storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("fetchgate/store/sqlite: open: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("fetchgate/store/sqlite: ping: %w", err)
	}
	if err := migrate(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("fetchgate/store/sqlite: migrate: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func migrate(ctx context.Context, sqlDB *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, sqlDB, fsys)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}

// Persist upserts a for key. An attempt older than the stored one is
// ignored.
func (s *Store) Persist(ctx context.Context, key string, a ledger.Attempt) error {
	_, err := s.sqlDB.ExecContext(ctx, upsert, key, int(a.Code), toMillis(a.Timestamp))
	if err != nil {
		return fmt.Errorf("fetchgate/store/sqlite: persist %q: %w", key, err)
	}
	return nil
}

// Load calls fn for every stored attempt, stopping at the first error.
func (s *Store) Load(ctx context.Context, fn func(key string, a ledger.Attempt) error) error {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT cache_key, code, attempted_at FROM fetch_attempts ORDER BY cache_key`)
	if err != nil {
		return fmt.Errorf("fetchgate/store/sqlite: load: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key    string
			code   int
			millis int64
		)
		if err := rows.Scan(&key, &code, &millis); err != nil {
			return fmt.Errorf("fetchgate/store/sqlite: load: %w", err)
		}
		if err := fn(key, ledger.Attempt{Code: failure.Code(code), Timestamp: fromMillis(millis)}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("fetchgate/store/sqlite: load: %w", err)
	}
	return nil
}

// Health pings the database.
func (s *Store) Health(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
