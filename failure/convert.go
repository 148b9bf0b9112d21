// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package failure

import (
	"errors"
	"net"
	"os"
	"syscall"
)

// FromError converts a Go error tree into a Signal. A nil error converts
// to a nil Signal, and an error that already is a Signal is returned
// unchanged.
//
// The conversion recognizes:
//
// • syscall.Errno, and *os.SyscallError wrapping one, which become
// Errno;
//
// • *net.DNSError, which becomes DNS (or a Transport timeout if the
// lookup itself timed out);
//
// • any error with a Timeout method that reports true, which becomes a
// Transport timeout;
//
// • errors with an Unwrap() []error method, such as those produced by
// errors.Join, which become a Wrapped with one cause per wrapped error;
//
// • errors with an Unwrap() error method, such as *url.Error,
// *net.OpError and *os.SyscallError, which become a Wrapped with a
// single cause.
//
// Anything else becomes Opaque.
func FromError(err error) Signal {
	if err == nil {
		return nil
	}

	switch x := err.(type) {
	case Signal:
		return x
	case syscall.Errno:
		return Errno{Errno: x}
	case *os.SyscallError:
		if errno, ok := x.Err.(syscall.Errno); ok {
			return Errno{Errno: errno, Err: x}
		}
	case *net.DNSError:
		if x.IsTimeout {
			return Transport{Kind: TransportTimeout, Err: x}
		}
		return DNS{Host: x.Name, Err: x}
	case multiWrapper:
		return fromMulti(err, x.Unwrap())
	}

	var t hasTimeout
	if errors.As(err, &t) && t.Timeout() {
		return Transport{Kind: TransportTimeout, Err: err}
	}

	if next := errors.Unwrap(err); next != nil {
		return Wrapped{Op: err.Error(), Causes: []Signal{FromError(next)}}
	}

	return Opaque{Err: err}
}

func fromMulti(err error, errs []error) Signal {
	w := Wrapped{Op: err.Error()}
	for _, e := range errs {
		if s := FromError(e); s != nil {
			w.Causes = append(w.Causes, s)
		}
	}
	return w
}

type hasTimeout interface {
	Timeout() bool
}

type multiWrapper interface {
	Unwrap() []error
}
