// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/gogama/fetchgate/failure"
	"github.com/gogama/fetchgate/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoding(t *testing.T) {
	t0 := time.Date(2021, 5, 6, 7, 8, 9, 123000000, time.UTC)
	testCases := []ledger.Attempt{
		{Code: failure.Success, Timestamp: t0},
		{Code: failure.UnknownHost, Timestamp: t0},
		{Code: 503, Timestamp: t0},
		{Code: failure.Timeout, Timestamp: time.UnixMilli(0).UTC()},
	}
	for _, a := range testCases {
		t.Run(a.Code.String(), func(t *testing.T) {
			v := encode(a)
			got, err := decode(v)
			require.NoError(t, err)
			assert.Equal(t, a, got)
		})
	}
	assert.Equal(t, "-200:1620284889123", encode(ledger.Attempt{Code: failure.UnknownHost, Timestamp: t0}))
}

func TestDecode_Invalid(t *testing.T) {
	for _, v := range []string{"", "503", "x:1", "503:y", "503:1:2"} {
		t.Run(v, func(t *testing.T) {
			_, err := decode(v)
			assert.Error(t, err)
		})
	}
}

// Set FETCHGATE_TEST_REDIS_URL to a disposable database to run this
// test.
func TestStore(t *testing.T) {
	url := os.Getenv("FETCHGATE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("FETCHGATE_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	key := fmt.Sprintf("fetchgate:test:%d", time.Now().UnixNano())
	s, err := Open(ctx, Config{URL: url, Key: key})
	require.NoError(t, err)
	defer func() {
		_ = s.rdb.Del(ctx, key).Err()
		_ = s.Close()
	}()
	require.NoError(t, s.Health(ctx))
	t0 := time.Date(2021, 5, 6, 7, 8, 9, 0, time.UTC)

	require.NoError(t, s.Persist(ctx, "https://a/", ledger.Attempt{Code: 502, Timestamp: t0}))
	require.NoError(t, s.Persist(ctx, "https://a/", ledger.Attempt{Code: failure.Success, Timestamp: t0.Add(-time.Minute)}))
	require.NoError(t, s.Persist(ctx, "https://b/", ledger.Attempt{Code: failure.Success, Timestamp: t0}))
	require.NoError(t, s.Persist(ctx, "https://b/", ledger.Attempt{Code: failure.Timeout, Timestamp: t0.Add(time.Minute)}))

	got := map[string]ledger.Attempt{}
	require.NoError(t, s.Load(ctx, func(k string, a ledger.Attempt) error {
		got[k] = a
		return nil
	}))

	assert.Equal(t, map[string]ledger.Attempt{
		"https://a/": {Code: 502, Timestamp: t0},
		"https://b/": {Code: failure.Timeout, Timestamp: t0.Add(time.Minute)},
	}, got)
}

func TestOpen_BadURL(t *testing.T) {
	_, err := Open(context.Background(), Config{URL: "://nope"})
	assert.Error(t, err)
}
