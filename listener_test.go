// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetchgate

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"testing"
	"time"

	"github.com/gogama/fetchgate/cooldown"
	"github.com/gogama/fetchgate/failure"
	"github.com/gogama/fetchgate/ledger"
	"github.com/gogama/fetchgate/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListener(t *testing.T) {
	t.Run("Succeeded", func(t *testing.T) {
		l := &Listener{Ledger: ledger.New(ledger.Config{})}
		l.Succeeded("a")
		assert.Equal(t, ledger.FetchedRecently, l.Ledger.Info("a"))
	})
	t.Run("Failed", func(t *testing.T) {
		l := &Listener{Ledger: ledger.New(ledger.Config{})}
		c := l.Failed("a", failure.Errno{Errno: syscall.ECONNREFUSED})
		assert.Equal(t, failure.ConnectionRefused, c)
		assert.Equal(t, cooldown.Medium, cooldown.BucketOf(c))
		last, ok := l.Ledger.Last("a")
		require.True(t, ok)
		assert.Equal(t, failure.ConnectionRefused, last.Code)
		assert.Equal(t, ledger.FailedRecently, l.Ledger.Info("a"))
	})
	t.Run("Failed empty causes", func(t *testing.T) {
		now := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }
		l := &Listener{Ledger: ledger.New(ledger.Config{Clock: clock})}
		c := l.Failed("a", failure.Wrap("decode"))
		assert.Equal(t, failure.Timeout, c)
		assert.Equal(t, cooldown.None, cooldown.BucketOf(c))
		now = now.Add(time.Millisecond)
		assert.Equal(t, ledger.FailedBeforeButMightWork, l.Ledger.Info("a"))
	})
	t.Run("Failed unreachable", func(t *testing.T) {
		l := &Listener{
			Ledger:       ledger.New(ledger.Config{}),
			Connectivity: ConnectivityFunc(func() bool { return false }),
		}
		for _, sig := range []failure.Signal{
			nil,
			failure.Status{StatusCode: 404},
			failure.NewCoded(failure.SSLRequired, ""),
			failure.Errno{Errno: syscall.ECONNREFUSED},
		} {
			assert.Equal(t, failure.InternetUnreachable, l.Failed("a", sig))
		}
	})
	t.Run("Observe", func(t *testing.T) {
		l := &Listener{Ledger: ledger.New(ledger.Config{})}
		assert.Equal(t, failure.Success, l.Observe("a", nil))
		assert.Equal(t, ledger.FetchedRecently, l.Ledger.Info("a"))
		err := &url.Error{Op: "Get", URL: "http://b/", Err: &net.DNSError{Err: "no such host", Name: "b"}}
		assert.Equal(t, failure.UnknownHost, l.Observe("b", err))
		assert.Equal(t, ledger.FailedRecently, l.Ledger.Info("b"))
	})
	t.Run("nil ledger", func(t *testing.T) {
		l := &Listener{}
		assert.NotPanics(t, func() {
			l.Succeeded("a")
			assert.Equal(t, failure.UnknownError, l.Failed("a", nil))
			assert.Equal(t, failure.Timeout, l.Observe("a", context.DeadlineExceeded))
		})
	})
}

func TestListener_Handle(t *testing.T) {
	newExecution := func(t *testing.T) *request.Execution {
		p, err := request.NewPlan("GET", "http://example.com/a")
		require.NoError(t, err)
		return &request.Execution{Plan: p}
	}

	t.Run("status", func(t *testing.T) {
		l := &Listener{Ledger: ledger.New(ledger.Config{})}
		e := newExecution(t)
		e.Response = &http.Response{StatusCode: 502}
		l.Handle(AfterAttempt, e)
		assert.Equal(t, failure.Code(502), e.Code)
		assert.Equal(t, ledger.FailedRecently, l.Ledger.Info("http://example.com/a"))
	})
	t.Run("success", func(t *testing.T) {
		l := &Listener{Ledger: ledger.New(ledger.Config{})}
		e := newExecution(t)
		e.Response = &http.Response{StatusCode: 204}
		e.Code = failure.UnknownError
		l.Handle(AfterAttempt, e)
		assert.Equal(t, failure.Success, e.Code)
		assert.Equal(t, ledger.FetchedRecently, l.Ledger.Info("http://example.com/a"))
	})
	t.Run("error", func(t *testing.T) {
		l := &Listener{Ledger: ledger.New(ledger.Config{})}
		e := newExecution(t)
		e.Err = &url.Error{Op: "Get", URL: "http://example.com/a", Err: syscall.ENETDOWN}
		l.Handle(AfterAttempt, e)
		assert.Equal(t, failure.LikelyTemporaryNetworkProblem, e.Code)
	})
	t.Run("ignored", func(t *testing.T) {
		l := &Listener{Ledger: ledger.New(ledger.Config{})}
		for _, evt := range Events() {
			if evt != AfterAttempt {
				l.Handle(evt, newExecution(t))
			}
		}
		e := newExecution(t)
		e.Suppressed = true
		l.Handle(AfterAttempt, e)
		e = newExecution(t)
		e.Err = &url.Error{Op: "Get", URL: "http://example.com/a", Err: context.Canceled}
		l.Handle(AfterAttempt, e)
		assert.Equal(t, 0, l.Ledger.Len())
	})
}

func TestListener_Consume(t *testing.T) {
	t.Run("closed", func(t *testing.T) {
		l := &Listener{Ledger: ledger.New(ledger.Config{})}
		outcomes := make(chan Outcome, 3)
		outcomes <- Outcome{Key: "ok"}
		outcomes <- Outcome{Key: "refused", Signal: failure.Errno{Errno: syscall.ECONNREFUSED}}
		outcomes <- Outcome{Key: "odd", Err: errors.New("odd")}
		close(outcomes)

		l.Consume(context.Background(), outcomes)

		assert.Equal(t, map[string]failure.Code{
			"ok":      failure.Success,
			"refused": failure.ConnectionRefused,
			"odd":     failure.UnknownError,
		}, codes(l.Ledger))
	})
	t.Run("cancelled", func(t *testing.T) {
		l := &Listener{Ledger: ledger.New(ledger.Config{})}
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		outcomes := make(chan Outcome)
		go func() {
			l.Consume(ctx, outcomes)
			close(done)
		}()
		outcomes <- Outcome{Key: "ok"}
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("Consume did not return after cancel")
		}
		assert.Equal(t, map[string]failure.Code{"ok": failure.Success}, codes(l.Ledger))
	})
}

func codes(l *ledger.Ledger) map[string]failure.Code {
	m := make(map[string]failure.Code)
	for k, a := range l.Snapshot() {
		m[k] = a.Code
	}
	return m
}

func TestConnectivity(t *testing.T) {
	assert.True(t, AlwaysReachable.Reachable())
	assert.False(t, ConnectivityFunc(func() bool { return false }).Reachable())
}
