// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package postgres provides a PostgreSQL-backed attempt store.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/gogama/fetchgate/failure"
	"github.com/gogama/fetchgate/ledger"
	_ "github.com/jackc/pgx/v5/stdlib" // Use pgx via database/sql
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Config holds PostgreSQL connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// Store persists attempts in a PostgreSQL table.
type Store struct {
	db     *sqlx.DB
	upsert string
}

const load = `SELECT cache_key, code, attempted_at FROM fetch_attempts ORDER BY cache_key`

type row struct {
	Key         string    `db:"cache_key"`
	Code        int       `db:"code"`
	AttemptedAt time.Time `db:"attempted_at"`
}

// Open connects to the database, configures the pool and applies the
// embedded migrations.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	sqlDB, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("fetchgate/store/postgres: open: %w", err)
	}

	// Set pool configuration
	if cfg.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConns)
	} else {
		sqlDB.SetMaxOpenConns(10)
	}
	if cfg.MinConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MinConns)
	} else {
		sqlDB.SetMaxIdleConns(2)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("fetchgate/store/postgres: ping: %w", err)
	}
	if err := migrate(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("fetchgate/store/postgres: migrate: %w", err)
	}

	db := sqlx.NewDb(sqlDB, "pgx")
	return &Store{
		db: db,
		upsert: db.Rebind(`INSERT INTO fetch_attempts (cache_key, code, attempted_at)
VALUES (?, ?, ?)
ON CONFLICT (cache_key) DO UPDATE SET
    code = excluded.code,
    attempted_at = excluded.attempted_at
WHERE excluded.attempted_at >= fetch_attempts.attempted_at`),
	}, nil
}

func migrate(ctx context.Context, sqlDB *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, fsys)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}

// Persist upserts a for key. An attempt older than the stored one is
// ignored.
func (s *Store) Persist(ctx context.Context, key string, a ledger.Attempt) error {
	_, err := s.db.ExecContext(ctx, s.upsert, key, int(a.Code), a.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("fetchgate/store/postgres: persist %q: %w", key, err)
	}
	return nil
}

// Load calls fn for every stored attempt, stopping at the first error.
func (s *Store) Load(ctx context.Context, fn func(key string, a ledger.Attempt) error) error {
	rows, err := s.db.QueryxContext(ctx, load)
	if err != nil {
		return fmt.Errorf("fetchgate/store/postgres: load: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r row
		if err := rows.StructScan(&r); err != nil {
			return fmt.Errorf("fetchgate/store/postgres: load: %w", err)
		}
		if err := fn(r.Key, ledger.Attempt{Code: failure.Code(r.Code), Timestamp: r.AttemptedAt.UTC()}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("fetchgate/store/postgres: load: %w", err)
	}
	return nil
}

// Health checks if the database is reachable.
func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
