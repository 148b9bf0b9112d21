// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package failure

import (
	"fmt"
	"strings"
	"syscall"
)

// A Signal describes why a fetch attempt failed. The set of Signal
// implementations is closed: Transport, DNS, Errno, Status, Coded,
// Wrapped and Opaque. Signals nest through Wrapped, which carries a
// possibly empty list of causes.
//
// Every Signal is also an error, so a pipeline may return one directly.
type Signal interface {
	error
	signal()
}

// A TransportKind distinguishes transport-level failures.
type TransportKind int

const (
	// TransportOther is any transport failure not listed below.
	TransportOther TransportKind = iota
	// TransportTimeout is a client-side timeout, for example a read
	// deadline or an exceeded context deadline.
	TransportTimeout
	// TransportProtocol means the remote end did not speak the
	// expected protocol.
	TransportProtocol
	// TransportConnect is a failure to establish a connection.
	TransportConnect
)

var transportNames = []string{"other", "timeout", "protocol", "connect"}

func (k TransportKind) String() string {
	if k < 0 || int(k) >= len(transportNames) {
		return fmt.Sprintf("TransportKind(%d)", int(k))
	}
	return transportNames[k]
}

// Transport is a transport-level failure.
type Transport struct {
	Kind TransportKind
	Err  error
}

// DNS is a failure to resolve a host name.
type DNS struct {
	Host string
	Err  error
}

// Errno is an OS-level error number.
type Errno struct {
	Errno syscall.Errno
	Err   error
}

// Status is an HTTP response with a status code the pipeline treats as
// a failure.
type Status struct {
	StatusCode int
}

// Coded is a failure the pipeline classified itself. Its Code is passed
// through unchanged by Classify.
type Coded struct {
	Code   Code
	Reason string
}

// Wrapped is a pipeline-specific wrapper around zero or more causes.
type Wrapped struct {
	Op     string
	Causes []Signal
}

// Opaque is an error the conversion logic could not break down further.
type Opaque struct {
	Err error
}

// Wrap constructs a Wrapped signal, dropping nil causes.
func Wrap(op string, causes ...Signal) Wrapped {
	w := Wrapped{Op: op}
	for _, c := range causes {
		if c != nil {
			w.Causes = append(w.Causes, c)
		}
	}
	return w
}

// NewCoded constructs a Coded signal.
func NewCoded(c Code, reason string) Coded {
	return Coded{Code: c, Reason: reason}
}

func (Transport) signal() {}
func (DNS) signal()       {}
func (Errno) signal()     {}
func (Status) signal()    {}
func (Coded) signal()     {}
func (Wrapped) signal()   {}
func (Opaque) signal()    {}

func (s Transport) Error() string {
	if s.Err != nil {
		return fmt.Sprintf("transport %s: %v", s.Kind, s.Err)
	}
	return "transport " + s.Kind.String()
}

// Timeout reports whether s is a timeout.
func (s Transport) Timeout() bool {
	return s.Kind == TransportTimeout
}

func (s Transport) Unwrap() error {
	return s.Err
}

func (s DNS) Error() string {
	if s.Err != nil {
		return s.Err.Error()
	}
	return "unable to resolve host " + s.Host
}

func (s DNS) Unwrap() error {
	return s.Err
}

func (s Errno) Error() string {
	if s.Err != nil {
		return s.Err.Error()
	}
	return s.Errno.Error()
}

// Unwrap returns the error Errno was converted from, or the bare errno
// if there is none.
func (s Errno) Unwrap() error {
	if s.Err != nil {
		return s.Err
	}
	return s.Errno
}

func (s Status) Error() string {
	return fmt.Sprintf("http status %d", s.StatusCode)
}

func (s Coded) Error() string {
	if s.Reason != "" {
		return fmt.Sprintf("%s: %s", s.Code, s.Reason)
	}
	return s.Code.String()
}

func (s Wrapped) Error() string {
	var b strings.Builder
	b.WriteString(s.Op)
	switch len(s.Causes) {
	case 0:
		b.WriteString(": no causes")
	case 1:
		b.WriteString(": ")
		b.WriteString(s.Causes[0].Error())
	default:
		fmt.Fprintf(&b, ": %d causes: ", len(s.Causes))
		for i, c := range s.Causes {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(c.Error())
		}
	}
	return b.String()
}

func (s Wrapped) Unwrap() []error {
	errs := make([]error, len(s.Causes))
	for i, c := range s.Causes {
		errs[i] = c
	}
	return errs
}

func (s Opaque) Error() string {
	if s.Err == nil {
		return "unknown failure"
	}
	return s.Err.Error()
}

func (s Opaque) Unwrap() error {
	return s.Err
}
