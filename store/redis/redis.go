// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package redis provides a Redis-backed attempt store. Attempts live in
// a single hash whose fields are cache keys and whose values encode the
// code and timestamp as "code:unixmillis".
package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gogama/fetchgate/failure"
	"github.com/gogama/fetchgate/ledger"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is the hash used when Config.Key is empty.
const DefaultKey = "fetchgate:attempts"

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Key      string `yaml:"key"`
}

// Store persists attempts in a Redis hash.
type Store struct {
	rdb *redis.Client
	key string
}

// persistScript writes the new value unless the stored one carries a
// later timestamp.
var persistScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], ARGV[1])
if cur then
  local ts = tonumber(string.match(cur, ':(%-?%d+)$'))
  if ts and ts > tonumber(ARGV[3]) then
    return 0
  end
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
return 1
`)

// Open connects to Redis and checks the connection.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("fetchgate/store/redis: failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("fetchgate/store/redis: failed to connect to redis: %w", err)
	}

	return New(rdb, cfg.Key), nil
}

// New wraps an existing client. If key is empty, DefaultKey is used.
func New(rdb *redis.Client, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{rdb: rdb, key: key}
}

// Persist stores a for key unless a newer attempt is already stored.
func (s *Store) Persist(ctx context.Context, key string, a ledger.Attempt) error {
	millis := a.Timestamp.UnixMilli()
	err := persistScript.Run(ctx, s.rdb, []string{s.key}, key, encode(a), millis).Err()
	if err != nil {
		return fmt.Errorf("fetchgate/store/redis: persist %q: %w", key, err)
	}
	return nil
}

// Load scans the hash and calls fn for every stored attempt, stopping
// at the first error. A value that cannot be decoded is an error.
func (s *Store) Load(ctx context.Context, fn func(key string, a ledger.Attempt) error) error {
	iter := s.rdb.HScan(ctx, s.key, 0, "", 512).Iterator()
	for iter.Next(ctx) {
		field := iter.Val()
		if !iter.Next(ctx) {
			break
		}
		a, err := decode(iter.Val())
		if err != nil {
			return fmt.Errorf("fetchgate/store/redis: load %q: %w", field, err)
		}
		if err := fn(field, a); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("fetchgate/store/redis: load: %w", err)
	}
	return nil
}

// Health pings Redis.
func (s *Store) Health(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func encode(a ledger.Attempt) string {
	return strconv.Itoa(int(a.Code)) + ":" + strconv.FormatInt(a.Timestamp.UnixMilli(), 10)
}

func decode(v string) (ledger.Attempt, error) {
	code, millis, ok := strings.Cut(v, ":")
	if !ok {
		return ledger.Attempt{}, fmt.Errorf("invalid attempt format: %q", v)
	}
	c, err := strconv.Atoi(code)
	if err != nil {
		return ledger.Attempt{}, fmt.Errorf("invalid code: %w", err)
	}
	ms, err := strconv.ParseInt(millis, 10, 64)
	if err != nil {
		return ledger.Attempt{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	return ledger.Attempt{Code: failure.Code(c), Timestamp: time.UnixMilli(ms).UTC()}, nil
}
