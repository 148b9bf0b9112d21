// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gogama/fetchgate/failure"
	"github.com/gogama/fetchgate/ledger"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := Open(context.Background(), "  ")
		assert.EqualError(t, err, "fetchgate/store/sqlite: storage path is required")
	})
	t.Run("reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "attempts.db")
		s, err := Open(context.Background(), path)
		require.NoError(t, err)
		require.NoError(t, s.Close())
		openTestStore(t, path)
	})
	t.Run("health", func(t *testing.T) {
		s, err := Open(context.Background(), filepath.Join(t.TempDir(), "attempts.db"))
		require.NoError(t, err)
		assert.NoError(t, s.Health(context.Background()))
		require.NoError(t, s.Close())
		assert.Error(t, s.Health(context.Background()))
	})
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "attempts.db")
	s := openTestStore(t, path)
	t0 := time.Date(2021, 5, 6, 7, 8, 9, 123000000, time.UTC)

	require.NoError(t, s.Persist(ctx, "https://a/", ledger.Attempt{Code: failure.UnknownHost, Timestamp: t0}))
	require.NoError(t, s.Persist(ctx, "https://b/", ledger.Attempt{Code: 503, Timestamp: t0}))
	require.NoError(t, s.Persist(ctx, "https://b/", ledger.Attempt{Code: failure.Success, Timestamp: t0.Add(time.Hour)}))
	require.NoError(t, s.Persist(ctx, "https://b/", ledger.Attempt{Code: failure.Timeout, Timestamp: t0.Add(time.Minute)}))

	got := map[string]ledger.Attempt{}
	require.NoError(t, s.Load(ctx, func(k string, a ledger.Attempt) error {
		got[k] = a
		return nil
	}))

	want := map[string]ledger.Attempt{
		"https://a/": {Code: failure.UnknownHost, Timestamp: t0},
		"https://b/": {Code: failure.Success, Timestamp: t0.Add(time.Hour)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}

	t.Run("survives reopen", func(t *testing.T) {
		require.NoError(t, s.Close())
		s2 := openTestStore(t, path)
		l := ledger.New(ledger.Config{Clock: func() time.Time { return t0.Add(90 * time.Minute) }})
		n, err := l.Restore(ctx, s2)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, ledger.FailedRecently, l.Info("https://a/"))
		assert.Equal(t, ledger.FetchedRecently, l.Info("https://b/"))
	})
}

func TestStore_LoadError(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, filepath.Join(t.TempDir(), "attempts.db"))
	require.NoError(t, s.Persist(ctx, "a", ledger.Attempt{Timestamp: time.Now()}))
	stop := errors.New("stop")

	err := s.Load(ctx, func(string, ledger.Attempt) error { return stop })

	assert.Same(t, stop, err)
}
