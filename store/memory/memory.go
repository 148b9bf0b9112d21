// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package memory provides an in-process attempt store, used when no
// durable store is configured and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/gogama/fetchgate/ledger"
)

// Store keeps attempts in a map. The zero value is ready to use.
type Store struct {
	mu       sync.RWMutex
	attempts map[string]ledger.Attempt
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Persist stores a for key unless a newer attempt is already stored.
func (s *Store) Persist(ctx context.Context, key string, a ledger.Attempt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempts == nil {
		s.attempts = make(map[string]ledger.Attempt)
	}
	if cur, ok := s.attempts[key]; ok && cur.Timestamp.After(a.Timestamp) {
		return nil
	}
	s.attempts[key] = a
	return nil
}

// Load calls fn for every stored attempt in key order, stopping at the
// first error.
func (s *Store) Load(ctx context.Context, fn func(key string, a ledger.Attempt) error) error {
	s.mu.RLock()
	keys := make([]string, 0, len(s.attempts))
	for k := range s.attempts {
		keys = append(keys, k)
	}
	snapshot := make(map[string]ledger.Attempt, len(s.attempts))
	for k, a := range s.attempts {
		snapshot[k] = a
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(k, snapshot[k]); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of stored attempts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attempts)
}

// Health always succeeds.
func (s *Store) Health(context.Context) error {
	return nil
}

// Close does nothing.
func (s *Store) Close() error {
	return nil
}
