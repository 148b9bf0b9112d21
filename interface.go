// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetchgate

import (
	"github.com/gogama/fetchgate/request"
)

// A Doer executes a request plan and returns the final execution state
// (and error, if any). Client is a Doer.
//
// Other implementations, such as wrappers which add headers or
// tracing around a Client, must keep Client.Do's contract: the returned
// Execution is never nil for a valid plan, Execution.Info carries the
// ledger's advice, and a suppressed execution reports a
// *SuppressedError.
type Doer interface {
	Do(p *request.Plan) (*request.Execution, error)
}

// IdleCloser is the interface that wraps the basic CloseIdleConnections
// method.
//
// If the underlying implementation supports it, CloseIdleConnections
// closes any connections which were previously connected from previous
// requests but are now sitting idle in a "keep-alive" state. It does
// not interrupt any connections currently in use.
type IdleCloser interface {
	CloseIdleConnections()
}

// Get uses the specified Doer to fetch the specified URL with GET.
//
// If the URL is malformed, no plan is executed and the returned error
// wraps request.ErrMalformedURL. To fetch with custom headers or a
// fetch strategy, use request.NewPlan and d.Do.
func Get(d Doer, url string) (*request.Execution, error) {
	return do(d, "GET", url)
}

// Head uses the specified Doer to fetch the specified URL with HEAD,
// with the same rules as Get.
func Head(d Doer, url string) (*request.Execution, error) {
	return do(d, "HEAD", url)
}

func do(d Doer, method, url string) (*request.Execution, error) {
	p, err := request.NewPlan(method, url)
	if err != nil {
		return nil, err
	}
	return d.Do(p)
}
