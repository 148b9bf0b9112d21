// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package failure

import (
	"context"
	"errors"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, FromError(nil))
	})
	t.Run("signal", func(t *testing.T) {
		c := NewCoded(SSLRequired, "http scheme")
		assert.Equal(t, c, FromError(c))
	})
	t.Run("errno", func(t *testing.T) {
		assert.Equal(t, Errno{Errno: syscall.ECONNRESET}, FromError(syscall.ECONNRESET))
	})
	t.Run("dns", func(t *testing.T) {
		err := &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}
		assert.Equal(t, DNS{Host: "nope.invalid", Err: err}, FromError(err))
	})
	t.Run("timeout", func(t *testing.T) {
		s := FromError(context.DeadlineExceeded)
		require.IsType(t, Transport{}, s)
		assert.Equal(t, TransportTimeout, s.(Transport).Kind)
		assert.True(t, s.(Transport).Timeout())
	})
	t.Run("opaque", func(t *testing.T) {
		err := errors.New("foo")
		assert.Equal(t, Opaque{Err: err}, FromError(err))
	})
	t.Run("chain", func(t *testing.T) {
		err := &url.Error{
			Op:  "Get",
			URL: "http://127.0.0.1:1",
			Err: &net.OpError{Op: "dial", Net: "tcp", Err: &os.SyscallError{Syscall: "connect", Err: syscall.ECONNREFUSED}},
		}
		s := FromError(err)
		require.IsType(t, Wrapped{}, s)
		w := s.(Wrapped)
		assert.Equal(t, err.Error(), w.Op)
		require.Len(t, w.Causes, 1)
		require.IsType(t, Wrapped{}, w.Causes[0])
		sysErr := err.Err.(*net.OpError).Err
		assert.Equal(t, Errno{Errno: syscall.ECONNREFUSED, Err: sysErr}, find(s, isErrno))
		assert.True(t, errors.Is(s, syscall.ECONNREFUSED))
		var target *os.SyscallError
		require.True(t, errors.As(s, &target))
		assert.Equal(t, "connect", target.Syscall)
	})
	t.Run("syscall error", func(t *testing.T) {
		err := os.NewSyscallError("read", syscall.ECONNRESET)
		s := FromError(err)
		assert.Equal(t, Errno{Errno: syscall.ECONNRESET, Err: err}, s)
		assert.Equal(t, "read: connection reset by peer", s.Error())
		assert.Same(t, err, errors.Unwrap(s))
		assert.True(t, errors.Is(s, syscall.ECONNRESET))
	})
	t.Run("syscall error without errno", func(t *testing.T) {
		err := &os.SyscallError{Syscall: "read", Err: errors.New("foo")}
		s := FromError(err)
		require.IsType(t, Wrapped{}, s)
		assert.Equal(t, Opaque{Err: err.Err}, s.(Wrapped).Causes[0])
	})
	t.Run("join", func(t *testing.T) {
		s := FromError(errors.Join(errors.New("a"), syscall.EHOSTUNREACH))
		require.IsType(t, Wrapped{}, s)
		assert.Len(t, s.(Wrapped).Causes, 2)
	})
}

func TestWrap(t *testing.T) {
	w := Wrap("load", nil, Status{StatusCode: 500}, nil)
	assert.Len(t, w.Causes, 1)
	assert.Equal(t, "load: http status 500", w.Error())
	assert.Equal(t, "load: no causes", Wrap("load").Error())
	assert.Equal(t, "load: 2 causes: http status 500; transport timeout",
		Wrap("load", Status{StatusCode: 500}, Transport{Kind: TransportTimeout}).Error())
}

func TestCode_String(t *testing.T) {
	assert.Equal(t, "Success", Success.String())
	assert.Equal(t, "ConnectionRefused", ConnectionRefused.String())
	assert.Equal(t, "HTTP 502", Code(502).String())
	assert.Equal(t, "Code(-42)", Code(-42).String())
	for _, c := range Codes() {
		assert.NotContains(t, c.String(), "Code(")
	}
}

func TestCode_Predicates(t *testing.T) {
	assert.True(t, Code(404).IsHTTPStatus())
	assert.False(t, Timeout.IsHTTPStatus())
	assert.False(t, Success.IsHTTPStatus())
	for _, c := range []Code{HTMLBodyLacksRequiredData, UnacceptableFileSize, UnacceptableMediaType, SSLRequired, RedirectToNullTarget, MalformedURL} {
		assert.True(t, c.Structured(), c.String())
	}
	for _, c := range []Code{Success, UnknownError, Timeout, UnknownHost, Code(502)} {
		assert.False(t, c.Structured(), c.String())
	}
}
