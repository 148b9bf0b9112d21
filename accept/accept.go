// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package accept provides checks that decide whether a fetched
// response is usable. A rejected response is reported as a structured
// failure signal, so the fetch is recorded with the matching code.
package accept

import (
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/gogama/fetchgate/failure"
)

// An Acceptor checks a 2XX response.
//
// Accept is called twice per response: first with a nil body, as soon
// as the headers arrive, and again with the complete body once it has
// been read. It returns nil to accept the response, or a signal
// describing why it is unusable.
type Acceptor interface {
	Accept(resp *http.Response, body []byte) failure.Signal
}

// A Limiter is an Acceptor which rejects bodies longer than Limit bytes.
// The client stops reading a body as soon as it passes the limit of its
// Acceptor, so an oversized body is never buffered in full.
type Limiter interface {
	Acceptor
	Limit() int64
}

// LimitOf returns the body size limit of a, or -1 if a places no limit
// on body size.
func LimitOf(a Acceptor) int64 {
	if l, ok := a.(Limiter); ok {
		return l.Limit()
	}
	return -1
}

// The Func type is an adapter to allow the use of ordinary functions as
// an Acceptor.
type Func func(resp *http.Response, body []byte) failure.Signal

// Accept calls f(resp, body).
func (f Func) Accept(resp *http.Response, body []byte) failure.Signal {
	return f(resp, body)
}

// And combines acceptors into one that rejects a response if any of
// them does. The first rejection is returned.
func And(acceptors ...Acceptor) Acceptor {
	for _, a := range acceptors {
		if a == nil {
			panic("fetchgate/accept: nil acceptor")
		}
	}
	return and(acceptors)
}

type and []Acceptor

func (as and) Accept(resp *http.Response, body []byte) failure.Signal {
	for _, a := range as {
		if sig := a.Accept(resp, body); sig != nil {
			return sig
		}
	}
	return nil
}

// Limit returns the smallest limit among the combined acceptors.
func (as and) Limit() int64 {
	limit := int64(-1)
	for _, a := range as {
		if n := LimitOf(a); n >= 0 && (limit < 0 || n < limit) {
			limit = n
		}
	}
	return limit
}

// MediaType accepts responses whose Content-Type matches one of the
// patterns. A pattern is either a full media type, such as "image/png",
// or a type with a wildcard subtype, such as "image/*". The pattern
// "*/*" matches everything. Matching ignores case and parameters.
//
// Responses without a parseable Content-Type are rejected with
// failure.UnacceptableMediaType.
func MediaType(patterns ...string) Acceptor {
	if len(patterns) == 0 {
		panic("fetchgate/accept: no media type patterns")
	}
	m := make(mediaType, len(patterns))
	for i := range patterns {
		m[i] = strings.ToLower(strings.TrimSpace(patterns[i]))
	}
	return m
}

type mediaType []string

func (m mediaType) Accept(resp *http.Response, _ []byte) failure.Signal {
	ct := resp.Header.Get("Content-Type")
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return failure.NewCoded(failure.UnacceptableMediaType, fmt.Sprintf("bad content type %q", ct))
	}
	for _, p := range m {
		if matchMediaType(p, mt) {
			return nil
		}
	}
	return failure.NewCoded(failure.UnacceptableMediaType, fmt.Sprintf("media type %q not accepted", mt))
}

func matchMediaType(pattern, mt string) bool {
	if pattern == "*/*" || pattern == mt {
		return true
	}
	if prefix := strings.TrimSuffix(pattern, "*"); prefix != pattern {
		return strings.HasSuffix(prefix, "/") && strings.HasPrefix(mt, prefix)
	}
	return false
}

// MaxSize rejects responses larger than n bytes with
// failure.UnacceptableFileSize. A declared Content-Length is checked as
// soon as the headers arrive. The returned Acceptor is a Limiter, so a
// body without a declared length is cut off once it passes n bytes.
func MaxSize(n int64) Acceptor {
	if n < 0 {
		panic("fetchgate/accept: negative size")
	}
	return maxSize(n)
}

type maxSize int64

func (n maxSize) Accept(resp *http.Response, body []byte) failure.Signal {
	size := resp.ContentLength
	if body != nil {
		size = int64(len(body))
	}
	if size > int64(n) {
		return failure.NewCoded(failure.UnacceptableFileSize, fmt.Sprintf("size %d exceeds %d", size, int64(n)))
	}
	return nil
}

func (n maxSize) Limit() int64 {
	return int64(n)
}
