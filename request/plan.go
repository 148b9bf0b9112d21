// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	urlpkg "net/url"
)

var (
	template, _ = http.NewRequest("GET", "", nil)
)

const (
	nilCtxMsg = "fetchgate/request: nil context"
)

// A Plan describes one logical fetch of a remote resource.
//
// Like the http.Request structure, a Plan has a context which can be
// used to cancel the in-flight fetch at any time.
type Plan struct {
	// Method specifies the HTTP method, which must be GET or HEAD. An
	// empty string means GET.
	Method string

	// URL specifies the URL to fetch.
	URL *urlpkg.URL

	// Header contains the request header fields to be sent.
	Header http.Header

	// Host optionally overrides the Host header to send. If empty, the
	// value of URL.Host will be sent.
	Host string

	// Strategy names the way the resource is fetched. Plans for the
	// same URL with different strategies have different cache keys.
	Strategy string

	ctx context.Context
}

// NewPlan wraps NewPlanWithContext using the background context.
func NewPlan(method, url string) (*Plan, error) {
	return NewPlanWithContext(context.Background(), method, url)
}

// NewPlanWithContext returns a new Plan given a method and URL.
//
// If the URL cannot be parsed, or is not an absolute http or https URL,
// the returned error wraps ErrMalformedURL.
func NewPlanWithContext(ctx context.Context, method, url string) (*Plan, error) {
	if ctx == nil {
		return nil, errors.New(nilCtxMsg)
	}
	if method == "" {
		method = "GET"
	}
	if method != "GET" && method != "HEAD" {
		return nil, fmt.Errorf("fetchgate/request: invalid method %q", method)
	}
	u, err := urlpkg.Parse(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q", ErrMalformedURL, url)
	}
	return &Plan{
		ctx:    ctx,
		Method: method,
		URL:    u,
		Header: make(http.Header),
		Host:   removeEmptyPort(u.Host),
	}, nil
}

// Context returns the plan's context, which is always non-nil.
func (p *Plan) Context() context.Context {
	if p.ctx != nil {
		return p.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of p with its context changed to
// ctx, which must be non-nil.
func (p *Plan) WithContext(ctx context.Context) *Plan {
	if ctx == nil {
		panic(nilCtxMsg)
	}
	p2 := new(Plan)
	*p2 = *p
	p2.ctx = ctx
	return p2
}

// Key returns the plan's cache key.
func (p *Plan) Key() string {
	return Key(p.URL, p.Strategy)
}

// ToRequest creates an HTTP request corresponding to the plan. The
// context of the new request is set to ctx, which may not be nil.
func (p *Plan) ToRequest(ctx context.Context) *http.Request {
	r := template.WithContext(ctx)
	r.Method = p.Method
	r.URL = p.URL
	r.Header = p.Header
	r.Host = p.Host
	return r
}
