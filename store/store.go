// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package store opens the durable attempt store selected by
// configuration. Every store persists only the most recent attempt per
// cache key, and never lets an older attempt overwrite a newer one.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gogama/fetchgate/ledger"
	"github.com/gogama/fetchgate/store/memory"
	"github.com/gogama/fetchgate/store/postgres"
	"github.com/gogama/fetchgate/store/redis"
	"github.com/gogama/fetchgate/store/sqlite"
)

// Drivers accepted in Config.Driver.
const (
	Memory   = "memory"
	SQLite   = "sqlite"
	Postgres = "postgres"
	Redis    = "redis"
)

// ErrUnknownDriver is returned by Open for an unrecognized driver.
var ErrUnknownDriver = errors.New("fetchgate/store: unknown driver")

// A Store is a durable home for ledger attempts.
type Store interface {
	ledger.Persister
	ledger.Loader
	io.Closer
	// Health reports whether the store's backend can be reached.
	Health(ctx context.Context) error
}

// Config selects and configures a Store.
type Config struct {
	// Driver is one of Memory, SQLite, Postgres or Redis. Empty means
	// Memory.
	Driver string `yaml:"driver" env:"DRIVER"`
	// DSN is the SQLite file path or the PostgreSQL URL.
	DSN string `yaml:"dsn" env:"DSN"`
	// MaxConns and MinConns size the PostgreSQL pool.
	MaxConns int `yaml:"max_conns" env:"MAX_CONNS"`
	MinConns int `yaml:"min_conns" env:"MIN_CONNS"`
	// Redis configures the Redis driver.
	Redis RedisConfig `yaml:"redis" envPrefix:"REDIS_"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	URL      string `yaml:"url" env:"URL"`
	Password string `yaml:"password" env:"PASSWORD"`
	Key      string `yaml:"key" env:"KEY"`
}

// Open opens the store selected by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "", Memory:
		s = memory.New()
	case SQLite:
		s, err = openSQLite(ctx, cfg)
	case Postgres:
		s, err = openPostgres(ctx, cfg)
	case Redis:
		s, err = openRedis(ctx, cfg)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openSQLite(ctx context.Context, cfg Config) (Store, error) {
	s, err := sqlite.Open(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openPostgres(ctx context.Context, cfg Config) (Store, error) {
	s, err := postgres.Open(ctx, postgres.Config{
		URL:      cfg.DSN,
		MaxConns: cfg.MaxConns,
		MinConns: cfg.MinConns,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openRedis(ctx context.Context, cfg Config) (Store, error) {
	s, err := redis.Open(ctx, redis.Config{
		URL:      cfg.Redis.URL,
		Password: cfg.Redis.Password,
		Key:      cfg.Redis.Key,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
